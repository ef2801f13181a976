//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// EnvServerURL is the base URL of the deployed server under test.
const EnvServerURL = "E2E_SERVER_URL"

// Default configuration values.
const (
	DefaultServerURL = "http://localhost:8080"
	DefaultTimeout   = 15 * time.Second
)

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// e2eServerURL returns the base URL of the server under test.
func e2eServerURL() string {
	return strings.TrimSuffix(getEnvOrDefault(EnvServerURL, DefaultServerURL), "/")
}

// e2eWebSocketURL returns the websocket form of e2eServerURL.
func e2eWebSocketURL() string {
	base := e2eServerURL()
	if strings.HasPrefix(base, "https://") {
		return "wss://" + strings.TrimPrefix(base, "https://")
	}
	return "ws://" + strings.TrimPrefix(base, "http://")
}

// skipIfServerUnavailable skips the test when /ping does not answer.
func skipIfServerUnavailable(t *testing.T) {
	t.Helper()

	base := e2eServerURL()
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(base + "/ping")
	if err != nil {
		t.Skipf("Server unavailable at %s: %v", base, err)
	}
	resp.Body.Close()
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// todoResponse is a todo as returned by the API. The id is kept raw because
// a deployment may use integer or UUID identifiers.
type todoResponse struct {
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	IsCompleted bool            `json:"isCompleted"`
}

// Path returns the todo's resource path.
func (r todoResponse) Path() string {
	return "/todos/" + strings.Trim(string(r.ID), `"`)
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// doRequest performs an HTTP request and returns status code, headers and body.
func doRequest(t *testing.T, client *http.Client, method, url string, payload any) (int, http.Header, []byte) {
	t.Helper()

	var body io.Reader
	switch v := payload.(type) {
	case nil:
	case string:
		body = strings.NewReader(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("Failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	return resp.StatusCode, resp.Header, respBody
}

// createTodo creates a todo and fails the test on error.
func createTodo(t *testing.T, client *http.Client, base, title string) todoResponse {
	t.Helper()

	status, _, body := doRequest(t, client, http.MethodPost, base+"/todos",
		map[string]any{"title": title, "isCompleted": false})
	if status != http.StatusCreated {
		t.Fatalf("createTodo: expected 201, got %d. Body: %s", status, body)
	}

	var created todoResponse
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("createTodo: failed to parse todo: %v", err)
	}
	return created
}

// deleteTodo removes a todo, logging instead of failing so it can be
// used for cleanup.
func deleteTodo(t *testing.T, client *http.Client, base string, todo todoResponse) {
	t.Helper()

	status, _, body := doRequest(t, client, http.MethodDelete, base+todo.Path(), nil)
	if status != http.StatusNoContent && status != http.StatusNotFound {
		t.Logf("deleteTodo cleanup: expected 204, got %d. Body: %s", status, body)
	}
}

func uniqueTitle(prefix string) string {
	return fmt.Sprintf("%s %d", prefix, time.Now().UnixNano())
}

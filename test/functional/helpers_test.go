//go:build functional

// Package functional provides functional tests for the todo REST API and event stream.
package functional

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/todo-api/internal/config"
	"github.com/vyrodovalexey/todo-api/internal/model"
	"github.com/vyrodovalexey/todo-api/internal/server"
	"github.com/vyrodovalexey/todo-api/internal/store"
)

// Environment variable names for test configuration.
const (
	EnvTestServerHost    = "TEST_SERVER_HOST"
	EnvTestTimeout       = "TEST_TIMEOUT"
	EnvTestMetricsEnable = "TEST_METRICS_ENABLED"
	EnvTestBackend       = "TEST_BACKEND"
)

// Default test configuration values.
const (
	DefaultTestHost         = "127.0.0.1"
	DefaultTestTimeout      = 30 * time.Second
	DefaultRequestTimeout   = 5 * time.Second
	DefaultWebSocketTimeout = 5 * time.Second
	DefaultShutdownTimeout  = 5 * time.Second
	DefaultMetricsEnabled   = false
	DefaultBackend          = "memory"
)

// TestConfig holds test configuration loaded from environment.
type TestConfig struct {
	Host           string
	Timeout        time.Duration
	MetricsEnabled bool
	// Backend is "memory" or "sqlite".
	Backend string
}

// LoadTestConfig loads test configuration from environment variables.
func LoadTestConfig() *TestConfig {
	cfg := &TestConfig{
		Host:           DefaultTestHost,
		Timeout:        DefaultTestTimeout,
		MetricsEnabled: DefaultMetricsEnabled,
		Backend:        DefaultBackend,
	}

	if host := os.Getenv(EnvTestServerHost); host != "" {
		cfg.Host = host
	}

	if timeoutStr := os.Getenv(EnvTestTimeout); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			cfg.Timeout = timeout
		}
	}

	if metricsStr := os.Getenv(EnvTestMetricsEnable); metricsStr != "" {
		if enabled, err := strconv.ParseBool(metricsStr); err == nil {
			cfg.MetricsEnabled = enabled
		}
	}

	if backend := os.Getenv(EnvTestBackend); backend != "" {
		cfg.Backend = backend
	}

	return cfg
}

// TestServer runs a real server seeded with the scenario todos:
// 1 "Learn X", 2 "Build Y", 3 "Write Z" (completed).
type TestServer struct {
	Server  *server.Server
	Store   *store.TodoStore[int64]
	BaseURL string
	WSURL   string
	Port    int
	t       *testing.T
	mu      sync.Mutex
	started bool
}

// ScenarioSeed is the data every functional test starts with.
var ScenarioSeed = []model.CreateTodoInput{
	{Title: "Learn X", IsCompleted: false},
	{Title: "Build Y", IsCompleted: false},
	{Title: "Write Z", IsCompleted: true},
}

// NewTestServer creates a seeded test server on a free port.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testCfg := LoadTestConfig()

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:0", testCfg.Host))
	if err != nil {
		t.Fatalf("Failed to find available port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()

	cfg := &config.Config{
		ServerPort:      port,
		LogLevel:        "error",
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  testCfg.MetricsEnabled,
		Environment:     config.EnvironmentTesting,
		IDType:          config.IDTypeInt,
		AllowedOrigins:  "*",
	}

	todos := openTestStore(t, testCfg.Backend)
	if _, err := store.Seed[int64](context.Background(), todos, ScenarioSeed); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}

	return &TestServer{
		Server:  server.New(cfg, zap.NewNop(), todos),
		Store:   todos,
		BaseURL: fmt.Sprintf("http://%s:%d", testCfg.Host, port),
		WSURL:   fmt.Sprintf("ws://%s:%d", testCfg.Host, port),
		Port:    port,
		t:       t,
	}
}

func openTestStore(t *testing.T, backend string) *store.TodoStore[int64] {
	t.Helper()

	ctx := context.Background()
	keys := store.NewIntKeys()

	var b store.Backend[int64]
	switch backend {
	case "sqlite":
		sqlite, err := store.OpenSQLite[int64](ctx, filepath.Join(t.TempDir(), "todos.db"), keys)
		if err != nil {
			t.Fatalf("Failed to open sqlite backend: %v", err)
		}
		b = sqlite
	default:
		b = store.NewMemoryBackend[int64]()
	}

	todos, err := store.Open[int64](ctx, b, keys)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return todos
}

// Start starts the test server and waits until it answers /ping.
func (ts *TestServer) Start() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.started {
		return
	}

	go func() {
		if err := ts.Server.Start(); err != nil {
			ts.t.Logf("Server error: %v", err)
		}
	}()

	ts.waitForReady()
	ts.started = true
}

func (ts *TestServer) waitForReady() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ts.t.Fatalf("Server did not become ready within timeout")
		case <-ticker.C:
			resp, err := http.Get(ts.BaseURL + "/ping")
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return
				}
			}
		}
	}
}

// Stop shuts the server down and closes the store.
func (ts *TestServer) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := ts.Server.Shutdown(ctx); err != nil {
		ts.t.Logf("Server shutdown error: %v", err)
	}
	if err := ts.Store.Close(); err != nil {
		ts.t.Logf("Store close error: %v", err)
	}

	ts.started = false
}

// HTTPClient provides a configured HTTP client for tests.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a new HTTP client for testing.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: DefaultRequestTimeout},
		baseURL: baseURL,
	}
}

// Request represents an HTTP request configuration.
type Request struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Do executes an HTTP request and returns the response.
func (c *HTTPClient) Do(ctx context.Context, req Request) (*Response, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		switch v := req.Body.(type) {
		case string:
			bodyReader = bytes.NewBufferString(v)
		case []byte:
			bodyReader = bytes.NewBuffer(v)
		default:
			jsonBody, err := json.Marshal(req.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request body: %w", err)
			}
			bodyReader = bytes.NewBuffer(jsonBody)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

// MustDo executes req and fails the test on transport errors.
func (c *HTTPClient) MustDo(t *testing.T, method, path string, body any) *Response {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultRequestTimeout)
	defer cancel()

	resp, err := c.Do(ctx, Request{Method: method, Path: path, Body: body})
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// ParseTodo decodes a single todo.
func ParseTodo(t *testing.T, body []byte) model.TodoItem[int64] {
	t.Helper()

	var todo model.TodoItem[int64]
	if err := json.Unmarshal(body, &todo); err != nil {
		t.Fatalf("Failed to parse todo %q: %v", body, err)
	}
	return todo
}

// ParseTodos decodes a todo list.
func ParseTodos(t *testing.T, body []byte) []model.TodoItem[int64] {
	t.Helper()

	var todos []model.TodoItem[int64]
	if err := json.Unmarshal(body, &todos); err != nil {
		t.Fatalf("Failed to parse todos %q: %v", body, err)
	}
	return todos
}

// ParseErrorResponse decodes an error body.
func ParseErrorResponse(t *testing.T, body []byte) model.ErrorResponse {
	t.Helper()

	var resp model.ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("Failed to parse error response %q: %v", body, err)
	}
	return resp
}

// AssertStatusCode asserts that the response has the expected status code.
func AssertStatusCode(t *testing.T, resp *Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d. Body: %s", expected, resp.StatusCode, string(resp.Body))
	}
}

// AssertHeader asserts that the response has the expected header value.
func AssertHeader(t *testing.T, resp *Response, key, expected string) {
	t.Helper()
	if actual := resp.Headers.Get(key); actual != expected {
		t.Errorf("Expected header %s to be %q, got %q", key, expected, actual)
	}
}

// AssertTodo asserts that got matches want field by field.
func AssertTodo(t *testing.T, got, want model.TodoItem[int64]) {
	t.Helper()
	if got != want {
		t.Errorf("Expected todo %+v, got %+v", want, got)
	}
}

// LogTestStart logs the start of a test.
func LogTestStart(t *testing.T, testID, testName string) {
	t.Helper()
	t.Logf("Starting test %s: %s", testID, testName)
}

// LogTestEnd logs the end of a test.
func LogTestEnd(t *testing.T, testID string) {
	t.Helper()
	t.Logf("Completed test %s", testID)
}

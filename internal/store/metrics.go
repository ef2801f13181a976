package store

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation labels.
const (
	opList   = "list"
	opGet    = "get"
	opCreate = "create"
	opUpdate = "update"
	opPatch  = "patch"
	opDelete = "delete"
)

// Result labels.
const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultCanceled = "canceled"
	resultError    = "error"
)

var storeOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "todo_api",
		Name:      "store_operations_total",
		Help:      "Total number of todo store operations by result",
	},
	[]string{"operation", "result"},
)

// observe counts the outcome of an operation and passes err through.
func observe(operation string, err error) error {
	storeOperationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, ErrNotFound):
		return resultNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resultCanceled
	default:
		return resultError
	}
}

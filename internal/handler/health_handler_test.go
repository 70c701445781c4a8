package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"cargoledger/internal/handler"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Liveness(t *testing.T) {
	h := handler.NewHealthHandler(nil)

	c, w := newContext(http.MethodGet, "/healthz", nil, caller{})
	h.Liveness(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthHandler_Readiness(t *testing.T) {
	c, w := newContext(http.MethodGet, "/readyz", nil, caller{})
	handler.NewHealthHandler(nil).Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/readyz", nil, caller{})
	handler.NewHealthHandler(pingFunc(func(context.Context) error { return nil })).Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/readyz", nil, caller{})
	handler.NewHealthHandler(pingFunc(func(context.Context) error { return errors.New("down") })).Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

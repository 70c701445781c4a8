package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"cargoledger/internal/domain"
	"cargoledger/internal/handler"
	"cargoledger/internal/middleware"
)

type caller struct {
	role       domain.UserRole
	customerID *uuid.UUID
}

var staff = caller{role: domain.RoleWarehouse}

func newContext(method, target string, body interface{}, who caller, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	if who.role != "" {
		c.Set(middleware.ContextKeyRole, string(who.role))
	}
	if who.customerID != nil {
		c.Set(middleware.ContextKeyCustomerID, *who.customerID)
	}
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

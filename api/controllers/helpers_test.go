package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge-backend/api/middleware"
	"github.com/printforge/printforge-backend/api/responses"
	"github.com/printforge/printforge-backend/pkg/enums"
	"github.com/printforge/printforge-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
}

func actorRequest(method, target, body string, actor uuid.UUID, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := req.Context()
	if actor != uuid.Nil {
		ctx = middleware.WithPrincipal(ctx, middleware.Principal{ID: actor, Role: enums.UserRoleVendor})
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) responses.APIError {
	t.Helper()
	var env responses.Failure
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env.Error
}

package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge-backend/api/middleware"
	"github.com/printforge/printforge-backend/internal/cascade"
	"github.com/printforge/printforge-backend/internal/designs"
	"github.com/printforge/printforge-backend/internal/vendorproducts"
	"github.com/printforge/printforge-backend/pkg/config"
	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/pagination"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type memoryRedis struct {
	data    map[string]string
	pingErr error
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key], _ = value.(string)
	return true, nil
}

func (m *memoryRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key], _ = value.(string)
	return nil
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("pf:idem:%s:%s", scope, id)
}

func (m *memoryRedis) Ping(context.Context) error { return m.pingErr }

type countingDesigns struct {
	designs.Service
	creates int
}

func (c *countingDesigns) CreateDesign(_ context.Context, vendorID uuid.UUID, input designs.CreateDesignInput) (*designs.DesignDTO, error) {
	c.creates++
	return &designs.DesignDTO{ID: uuid.New(), VendorID: vendorID, Name: input.Name, ImageURL: input.ImageURL, State: enums.DesignStatePending}, nil
}

func (c *countingDesigns) ListPendingDesigns(context.Context, uuid.UUID, pagination.Params) (*pagination.Page[designs.DesignDTO], error) {
	return &pagination.Page[designs.DesignDTO]{Items: []designs.DesignDTO{}}, nil
}

type stubProducts struct{ vendorproducts.Service }

func (stubProducts) ListVendorProducts(context.Context, uuid.UUID) ([]vendorproducts.VendorProductDTO, error) {
	return []vendorproducts.VendorProductDTO{}, nil
}

type stubCascade struct{ sweeps int }

func (s *stubCascade) CascadeDesign(context.Context, *models.Design, cascade.Validator) (*cascade.Result, error) {
	return &cascade.Result{}, nil
}

func (s *stubCascade) AutoValidateAllEligibleProducts(context.Context) (*cascade.Result, error) {
	s.sweeps++
	return &cascade.Result{Updated: []cascade.UpdatedProduct{}, Failures: []cascade.Failure{}}, nil
}

func (s *stubCascade) GetAutoValidationStats(context.Context) (*cascade.Stats, error) {
	return &cascade.Stats{}, nil
}

func (s *stubCascade) BackfillLinks(context.Context) (*cascade.BackfillResult, error) {
	return &cascade.BackfillResult{}, nil
}

type harness struct {
	handler http.Handler
	redis   *memoryRedis
	designs *countingDesigns
	cascade *stubCascade
}

func newHarness(dbErr error) *harness {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	h := &harness{
		redis:   &memoryRedis{data: map[string]string{}},
		designs: &countingDesigns{},
		cascade: &stubCascade{},
	}
	h.handler = NewRouter(cfg, logg, stubPinger{err: dbErr}, h.redis, h.designs, stubProducts{}, h.cascade)
	return h
}

func (h *harness) do(method, path, body, role string, actor uuid.UUID, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if actor != uuid.Nil {
		req.Header.Set(middleware.ActorIDHeader, actor.String())
	}
	if role != "" {
		req.Header.Set(middleware.ActorRoleHeader, role)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func TestHealthRoutes(t *testing.T) {
	h := newHarness(nil)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/health/live", "", "", uuid.Nil, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/health/ready", "", "", uuid.Nil, nil).Code)

	down := newHarness(fmt.Errorf("db unreachable"))
	assert.Equal(t, http.StatusServiceUnavailable, down.do(http.MethodGet, "/health/ready", "", "", uuid.Nil, nil).Code)
}

func TestMetricsRoute(t *testing.T) {
	h := newHarness(nil)
	w := h.do(http.MethodGet, "/metrics", "", "", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRequiresActorHeaders(t *testing.T) {
	h := newHarness(nil)
	w := h.do(http.MethodGet, "/api/vendor/v1/products", "", "", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodGet, "/api/vendor/v1/products", "", "superuser", uuid.New(), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleGroupsAreSeparated(t *testing.T) {
	h := newHarness(nil)
	actor := uuid.New()

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/vendor/v1/products", "", "vendor", actor, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/vendor/v1/products", "", "admin", actor, nil).Code)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/admin/v1/designs/pending", "", "admin", actor, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/admin/v1/vendor-products/auto-validate", "", "vendor", actor, nil).Code)
	assert.Equal(t, 0, h.cascade.sweeps)

	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/admin/v1/vendor-products/auto-validate", "", "admin", actor, nil).Code)
	assert.Equal(t, 1, h.cascade.sweeps)
}

func TestCreateDesignIsIdempotent(t *testing.T) {
	h := newHarness(nil)
	actor := uuid.New()
	body := `{"name":"Skull","image_url":"https://cdn.test/skull.png"}`

	w := h.do(http.MethodPost, "/api/vendor/v1/designs", body, "vendor", actor, nil)
	require.Equal(t, http.StatusBadRequest, w.Code, "missing Idempotency-Key must be rejected")
	assert.Equal(t, 0, h.designs.creates)

	headers := map[string]string{"Idempotency-Key": "create-skull"}
	first := h.do(http.MethodPost, "/api/vendor/v1/designs", body, "vendor", actor, headers)
	require.Equal(t, http.StatusCreated, first.Code)

	replay := h.do(http.MethodPost, "/api/vendor/v1/designs", body, "vendor", actor, headers)
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, 1, h.designs.creates)

	var a, b map[string]any
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(replay.Body.Bytes(), &b))
	assert.Equal(t, a, b)
}

func TestUnknownRouteIs404(t *testing.T) {
	h := newHarness(nil)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/vendor/v1/orders", "", "vendor", uuid.New(), nil).Code)
}

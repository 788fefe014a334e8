package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

type designBody struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	ImageURL string `json:"image_url" validate:"required,httpurl"`
}

func TestDecodeJSONBodyReportsFieldErrorsByJSONName(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`))
	var body designBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "is required", details["image_url"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","image_url":"https://cdn.test/a.png","extra":1}`))
	var body designBody
	err := DecodeJSONBody(req, &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyRejectsNonWebURLs(t *testing.T) {
	for _, raw := range []string{"ftp://cdn.test/a.png", "https://", "/relative.png"} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","image_url":"`+raw+`"}`))
		var body designBody
		err := DecodeJSONBody(req, &body)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, raw)
		details, _ := typed.Details().(map[string]string)
		assert.Equal(t, "must be an http or https url", details["image_url"], raw)
	}
}

func TestDecodeJSONBodyRejectsTrailingAndOversizedInput(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","image_url":"https://cdn.test/a.png"} {}`))
	var body designBody
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))

	huge := `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `","image_url":"https://cdn.test/a.png"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "request body too large", typed.Message())

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestQueryString(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?cursor=%20abc%20", nil)
	assert.Equal(t, "abc", QueryString(req, "cursor"))
	assert.Empty(t, QueryString(req, "missing"))
}

func TestParseQueryIntBounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=20", nil)
	v, err := ParseQueryInt(req, "limit", 50, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	v, err = ParseQueryInt(req, "limit", 50, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 50, v)

	for _, raw := range []string{"500", "0", "ten"} {
		req = httptest.NewRequest(http.MethodGet, "/?limit="+raw, nil)
		_, err = ParseQueryInt(req, "limit", 50, 1, 200)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), raw)
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id, mustParam(t, "designId", id.String()))

	req := withParam(httptest.NewRequest(http.MethodGet, "/", nil), "designId", "not-a-uuid")
	_, err := ParseUUIDParam(req, "designId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	req = withParam(httptest.NewRequest(http.MethodGet, "/", nil), "designId", uuid.Nil.String())
	_, err = ParseUUIDParam(req, "designId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func mustParam(t *testing.T, name, value string) uuid.UUID {
	t.Helper()
	id, err := ParseUUIDParam(withParam(httptest.NewRequest(http.MethodGet, "/", nil), name, value), name)
	require.NoError(t, err)
	return id
}

func withParam(r *http.Request, name, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(name, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataCatalog(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized},
		{code: CodeForbidden, status: http.StatusForbidden},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeConflict, status: http.StatusConflict},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodeIdempotency, status: http.StatusConflict, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			assert.Equal(t, tt.status, meta.HTTPStatus)
			assert.Equal(t, tt.retryable, meta.Retryable)
			assert.Equal(t, tt.detailsOK, meta.DetailsAllowed)
			assert.NotEmpty(t, meta.PublicMessage)
		})
	}

	assert.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "design not found", New(CodeNotFound, "design not found").PublicMessage())
	assert.Equal(t, "resource not found", New(CodeNotFound, "").PublicMessage())
	assert.Equal(t, "internal server error", Wrap(CodeInternal, stdErrors.New("db"), "load design").PublicMessage())
	assert.Equal(t, "dependency unavailable", New(CodeDependency, "redis down").PublicMessage())
}

func TestErrorAccessors(t *testing.T) {
	err := Newf(CodeValidation, "missing %s", "name")
	assert.Equal(t, CodeValidation, err.Code())
	assert.Equal(t, "missing name", err.Message())
	assert.Equal(t, "VALIDATION_ERROR: missing name", err.Error())
	assert.Nil(t, err.Details())

	err.WithDetails(map[string]string{"name": "is required"})
	assert.Equal(t, map[string]string{"name": "is required"}, err.Details())

	var nilErr *Error
	assert.Equal(t, CodeInternal, nilErr.Code())
	assert.Nil(t, nilErr.WithDetails("x"))
}

func TestWrapKeepsCauseOutOfMessage(t *testing.T) {
	cause := stdErrors.New("connection reset")
	wrapped := Wrap(CodeDependency, cause, "load design")

	assert.ErrorIs(t, wrapped, cause)
	assert.NotContains(t, wrapped.Error(), "connection reset")
}

func TestAsAndIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotFound, "design not found"))

	typed := As(err)
	require.NotNil(t, typed)
	assert.Equal(t, CodeNotFound, typed.Code())
	assert.True(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(err, CodeForbidden))
	assert.False(t, IsCode(stdErrors.New("plain"), CodeInternal))
	assert.Nil(t, As(nil))
}

func TestDumpCollectsChain(t *testing.T) {
	cause := stdErrors.New("connection reset")
	err := Wrap(CodeDependency, cause, "load design")

	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", dump.Chain)
	}
	if dump.PGCode != "" {
		t.Fatalf("expected no pg code for plain errors, got %q", dump.PGCode)
	}
}

func TestDumpExtractsPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "design_product_links_pkey", TableName: "design_product_links"}
	dump := Dump(Wrap(CodeConflict, pgErr, "insert link"))
	if dump.PGCode != "23505" || dump.PGConstraint != "design_product_links_pkey" || dump.PGTable != "design_product_links" {
		t.Fatalf("unexpected pg fields %+v", dump)
	}
}

func TestDumpTagsDriver(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "vendor_products_pkey"}
	if dump := Dump(Wrap(CodeConflict, pqErr, "insert product")); dump.Driver != "pq" || dump.PGConstraint != "vendor_products_pkey" {
		t.Fatalf("unexpected pq dump %+v", dump)
	}

	sqliteErr := stdErrors.New("UNIQUE constraint failed: design_product_links.vendor_product_id")
	dump := Dump(Wrap(CodeConflict, sqliteErr, "insert link"))
	if dump.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", dump.Driver)
	}
	if dump.PGTable != "design_product_links" || dump.PGColumn != "vendor_product_id" {
		t.Fatalf("unexpected sqlite fields %+v", dump)
	}
	if dump.PGMessage != "UNIQUE constraint failed" {
		t.Fatalf("unexpected sqlite message %q", dump.PGMessage)
	}
}

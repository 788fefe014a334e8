package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

// ParseQueryInt returns fallback when key is absent and a validation error
// when it is present but not an integer within [lo, hi].
func ParseQueryInt(r *http.Request, key string, fallback, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be an integer between %d and %d", key, lo, hi).
			WithDetails(map[string]any{"field": key, "min": lo, "max": hi})
	}
	return n, nil
}

// QueryString trims the named parameter; absent and blank are both "".
func QueryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/printforge/printforge-backend/api/responses"
	"github.com/printforge/printforge-backend/api/validators"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/printforge/printforge-backend/pkg/logger"
	pkgredis "github.com/printforge/printforge-backend/pkg/redis"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	maxIdempotencyKeyLen = 255

	// RequestTimeout bounds every API request; the router enforces it.
	RequestTimeout = 2 * time.Minute
	// inFlightTTL outlives any request the router lets run.
	inFlightTTL = 2 * RequestTimeout
)

// replay is what a completed request leaves behind. A record without a
// status marks a request that is still running.
type replay struct {
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	RequestHash string `json:"request_hash"`
}

func (r replay) pending() bool { return r.Status == 0 }

// Idempotent replays the first response recorded for an Idempotency-Key
// within ttl. Keys are scoped to the principal, method and path, so the same
// key on another route is a different request. Server errors are not kept,
// which lets the caller retry them with the same key.
func Idempotent(store pkgredis.IdempotencyStore, logg *logger.Logger, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}
			if len(clientKey) > maxIdempotencyKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long"))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validators.MaxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
						WithDetails(map[string]any{"max_bytes": tooLarge.Limit}))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := requestHash(body)
			key := store.IdempotencyKey(scopeOf(r), clientKey)

			claimed, err := claim(ctx, store, key, hash)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !claimed {
				existing, err := load(ctx, store, key)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				switch {
				case existing.RequestHash != hash:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
				case existing.pending():
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "a request with this idempotency key is still in progress"))
				default:
					writeReplay(w, existing)
				}
				return
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			var captured bytes.Buffer
			ww.Tee(&captured)
			next.ServeHTTP(ww, r)

			// Record after the response is out, on a context the client cannot cancel.
			bg := context.WithoutCancel(ctx)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				if err := store.Del(bg, key); err != nil {
					logFailure(bg, logg, "idempotency.release_failed", err)
				}
				return
			}
			// The claim is overwritten in place so no duplicate can slip in between.
			done := replay{
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        captured.Bytes(),
				RequestHash: hash,
			}
			if err := save(bg, store, key, done, ttl); err != nil {
				logFailure(bg, logg, "idempotency.record_failed", err)
			}
		})
	}
}

func scopeOf(r *http.Request) string {
	p, _ := PrincipalFrom(r.Context())
	return strings.Join([]string{p.ID.String(), p.Role.String(), r.Method, r.URL.Path}, "|")
}

func claim(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string) (bool, error) {
	payload, err := json.Marshal(replay{RequestHash: hash})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency claim")
	}
	ok, err := store.SetNX(ctx, key, string(payload), inFlightTTL)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key")
	}
	return ok, nil
}

func load(ctx context.Context, store pkgredis.IdempotencyStore, key string) (replay, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNil(err) {
			// Expired between the claim and the read; treat it as a live request.
			return replay{}, pkgerrors.New(pkgerrors.CodeConflict, "idempotency key changed state, retry the request")
		}
		return replay{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record")
	}
	var rec replay
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return replay{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode idempotency record")
	}
	return rec, nil
}

func save(ctx context.Context, store pkgredis.IdempotencyStore, key string, rec replay, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, string(payload), ttl)
}

func writeReplay(w http.ResponseWriter, rec replay) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}

func requestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func logFailure(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg != nil {
		logg.Error(ctx, msg, err)
	}
}

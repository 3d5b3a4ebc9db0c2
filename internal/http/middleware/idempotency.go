package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"eventia/backend/internal/cache"

	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyKeyHeader  = "Idempotency-Key"
	idempotencyKeyPrefix  = "eventia:idempotency:"
	defaultIdempotencyTTL = 24 * time.Hour
	idempotencyProcessing = 60 * time.Second
	maxIdempotencyKeyLen  = 128
)

type idempotencyStatus string

const (
	statusProcessing idempotencyStatus = "processing"
	statusCompleted  idempotencyStatus = "completed"
)

type idempotencyRecord struct {
	Status       idempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code"`
	ResponseBody string            `json:"response_body"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Idempotency replays the stored response of a completed request carrying the
// same Idempotency-Key. Requests without the header pass through, and Redis
// errors fail open.
func Idempotency(client cache.Client, ttl time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		if client == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				key = r.Header.Get("X-Idempotency-Key")
			}
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				writeError(w, http.StatusBadRequest, "INVALID_IDEMPOTENCY_KEY", "idempotency key is too long")
				return
			}

			var body []byte
			if r.Body != nil {
				body, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewReader(body))
			}
			requestHash := hashRequest(r, body)
			redisKey := idempotencyKeyPrefix + key
			ctx := r.Context()

			existing, err := loadIdempotencyRecord(ctx, client, redisKey)
			if err != nil && !errors.Is(err, redis.Nil) {
				logger.Warn("idempotency_lookup_failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if existing == nil {
				record := idempotencyRecord{Status: statusProcessing, RequestHash: requestHash, CreatedAt: time.Now().UTC()}
				if !claimIdempotencyKey(ctx, client, redisKey, record) {
					existing, _ = loadIdempotencyRecord(ctx, client, redisKey)
				}
			}
			if existing != nil {
				replayIdempotent(w, existing, requestHash)
				return
			}

			rw := &capturingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			if rw.status >= http.StatusInternalServerError {
				_ = client.Del(ctx, redisKey).Err()
				return
			}
			done := idempotencyRecord{
				Status:       statusCompleted,
				RequestHash:  requestHash,
				ResponseCode: rw.status,
				ResponseBody: rw.body.String(),
				CreatedAt:    time.Now().UTC(),
			}
			if err := saveIdempotencyRecord(ctx, client, redisKey, done, ttl); err != nil {
				logger.Warn("idempotency_save_failed", "error", err)
			}
		})
	}
}

func replayIdempotent(w http.ResponseWriter, record *idempotencyRecord, requestHash string) {
	if record.RequestHash != requestHash {
		writeError(w, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED", "idempotency key already used with a different request")
		return
	}
	if record.Status == statusProcessing {
		writeError(w, http.StatusConflict, "REQUEST_IN_PROGRESS", "a request with this idempotency key is already being processed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(record.ResponseCode)
	_, _ = io.WriteString(w, record.ResponseBody)
}

func hashRequest(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte(r.URL.Path))
	if userID, ok := UserIDFromContext(r.Context()); ok {
		h.Write([]byte(userID))
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func loadIdempotencyRecord(ctx context.Context, client cache.Client, key string) (*idempotencyRecord, error) {
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var record idempotencyRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func claimIdempotencyKey(ctx context.Context, client cache.Client, key string, record idempotencyRecord) bool {
	raw, err := json.Marshal(record)
	if err != nil {
		return false
	}
	ok, err := client.SetNX(ctx, key, raw, idempotencyProcessing).Result()
	return err == nil && ok
}

func saveIdempotencyRecord(ctx context.Context, client cache.Client, key string, record idempotencyRecord, ttl time.Duration) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}

type capturingWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *capturingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
)

const (
	// reservationTTL bounds how long a crashed handler blocks its request id.
	reservationTTL = 60 * time.Second
	maxClockSkew   = 10 * time.Minute
	storeTimeout   = 2 * time.Second
)

// teeWriter copies the response body so it can be stored for replay.
type teeWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func mutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func abort(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// IdempotencyMiddleware makes mutating calls safe to retry. A request is
// identified by method, route, caller and its Ax-Request-Id; a repeat with
// the same body gets the stored response, a repeat with another body or
// while the first is still running gets 409. It must run after Auth.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) echo.MiddlewareFunc {
	store := &recordStore{rdb: rdb, ttl: ttl}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !mutating(req.Method) {
				return next(c)
			}

			meta, err := readRequestMeta(req.Header, nowUTC())
			if err != nil {
				return abort(c, http.StatusBadRequest, err.Error())
			}
			caller, ok := ActorFrom(c)
			if !ok {
				return abort(c, http.StatusUnauthorized, "invalid or missing token")
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			key := buildKey(req.Method, c.Path(), strconv.FormatUint(caller.ID, 10), meta.id)
			rec := record{
				BodySHA256:  bodyHash(body),
				RequestID:   meta.id,
				RequestAtMS: meta.at.UnixMilli(),
			}

			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()
			reserved, err := store.reserve(ctx, key, rec)
			if err != nil {
				return abort(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !reserved {
				prev, err := store.load(ctx, key)
				if err != nil {
					log.Warn().Err(err).Str("key", key).Msg("idempotency: load record")
				}
				switch {
				case prev.BodySHA256 != "" && prev.BodySHA256 != rec.BodySHA256:
					return abort(c, http.StatusConflict, HeaderRequestID+" reused with different body")
				case prev.replayable():
					return c.Blob(prev.Code, echo.MIMEApplicationJSON, prev.Body)
				default:
					return abort(c, http.StatusConflict, "request is already in progress")
				}
			}

			tee := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = tee
			if err := next(c); err != nil {
				c.Error(err)
			}

			rec.Code = tee.status
			rec.Body = tee.body.Bytes()
			if err := store.finish(context.WithoutCancel(req.Context()), key, rec); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("idempotency: store response")
			}
			return nil
		}
	}
}

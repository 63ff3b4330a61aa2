package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// record is what the store keeps per request key.
type record struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r record) replayable() bool { return !r.InProgress && r.Code != 0 && len(r.Body) > 0 }

type recordStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// reserve claims key for an in-flight request. False means the key exists.
func (s *recordStore) reserve(ctx context.Context, key string, r record) (bool, error) {
	r.InProgress = true
	r.CreatedAt = nowUTC()
	payload, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, reservationTTL).Result()
}

func (s *recordStore) load(ctx context.Context, key string) (record, error) {
	var r record
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, err
	}
	err = json.Unmarshal(raw, &r)
	return r, err
}

// finish replaces the reservation with the final response for s.ttl.
func (s *recordStore) finish(ctx context.Context, key string, r record) error {
	r.InProgress = false
	r.CreatedAt = nowUTC()
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}

func bodyHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func nowUTC() time.Time { return time.Now().UTC() }

func buildKey(method, route, userID, requestID string) string {
	return strings.Join([]string{"tuichain:idemp", strings.ToLower(method), route, userID, requestID}, ":")
}

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// validRequestID accepts a lowercase UUID (v1-v5) or 32 lowercase hex digits.
func validRequestID(id string) bool {
	return reUUID.MatchString(id) || reHex32.MatchString(id)
}

type requestMeta struct {
	id string
	at time.Time
}

func readRequestMeta(h http.Header, now time.Time) (requestMeta, error) {
	var m requestMeta
	m.id = strings.TrimSpace(h.Get(HeaderRequestID))
	if m.id == "" {
		return m, errors.New("missing " + HeaderRequestID)
	}
	if !validRequestID(m.id) {
		return m, errors.New("invalid " + HeaderRequestID + " format")
	}
	at, err := parseRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return m, err
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return m, errors.New(HeaderRequestAt + " too skewed")
	}
	m.at = at
	return m, nil
}

// parseRequestAt takes epoch seconds, epoch milliseconds, or RFC3339 with an
// explicit zone. Timestamps without a zone are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	// RFC3339Nano parsing also accepts values without fractional seconds
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}

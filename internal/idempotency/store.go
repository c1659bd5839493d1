// Package idempotency remembers the response to a request carrying an
// Idempotency-Key header so that a retried create does not book twice.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	HeaderKey  = "Idempotency-Key"
	keyPrefix  = "parkinglot:idempotency:"
	DefaultTTL = 24 * time.Hour
)

// Response is a stored HTTP response. Fingerprint identifies the request that
// produced it.
type Response struct {
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
	Fingerprint string          `json:"fingerprint"`
}

// ScopedKey namespaces a client supplied key by the caller that sent it.
func ScopedKey(subject, key string) string {
	return subject + ":" + key
}

// Fingerprint hashes the JSON encoding of a decoded request.
func Fingerprint(req any) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Matches reports whether r was stored for a request with this fingerprint.
func (r *Response) Matches(fingerprint string) bool {
	return r.Fingerprint != "" && r.Fingerprint == fingerprint
}

// backend is the subset of *redis.Client used here.
type backend interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Store is a Redis-backed response cache. A Store without a client is
// disabled: lookups miss and saves are dropped.
type Store struct {
	client backend
	closer io.Closer
	ttl    time.Duration
	logger zerolog.Logger
}

// Config contains Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// New connects to Redis. An empty address returns a disabled store.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "idempotency").Logger()
	if cfg.Addr == "" {
		logger.Info().Msg("redis not configured, idempotency keys are ignored")
		return &Store{logger: logger}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	s := newStore(client, cfg.TTL, logger)
	s.closer = client
	return s, nil
}

func newStore(client backend, ttl time.Duration, logger zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl, logger: logger}
}

// Close releases the Redis connection pool.
func (s *Store) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// Lookup returns the stored response for key. Redis errors are logged and
// treated as a miss.
func (s *Store) Lookup(ctx context.Context, key string) (*Response, bool) {
	if !s.Enabled() || key == "" {
		return nil, false
	}

	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("idempotency lookup failed")
		return nil, false
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding corrupt idempotency entry")
		return nil, false
	}
	return &resp, true
}

// Remember stores resp under key unless an entry already exists.
func (s *Store) Remember(ctx context.Context, key string, resp Response) {
	if !s.Enabled() || key == "" {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn().Err(err).Msg("marshal idempotency entry")
		return
	}
	if err := s.client.SetNX(ctx, keyPrefix+key, data, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("idempotency save failed")
	}
}

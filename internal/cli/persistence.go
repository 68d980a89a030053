package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
	goredis "github.com/redis/go-redis/v9"
)

// Environment variables read by SetupPersistence.
const (
	EnvEncryptionKey  = "ARBOR_ENCRYPTION_KEY" // base64, 32 bytes
	EnvFallbackKeys   = "ARBOR_FALLBACK_KEYS"  // comma separated base64 keys
	EnvPIIFields      = "ARBOR_PII_FIELDS"     // comma separated regular expressions
	EnvSessionTTL     = "ARBOR_SESSION_TTL"    // Go duration, redis only
	defaultKeyPrefix  = "arbor:"
	defaultSessionTTL = 24 * time.Hour
)

// PersistenceConfig selects the session backend.
// RedisURL wins over Dir; with neither, sessions live in memory.
type PersistenceConfig struct {
	RedisURL string
	Dir      string
}

// Persistence bundles the session manager with the diff bus of the same backend.
type Persistence struct {
	Sessions *session.Manager
	Bus      ports.DiffBus
	Backend  string

	closers []func() error
}

// Close releases backend connections.
func (p *Persistence) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SetupPersistence builds the store, locker and bus, and wraps the store with the
// middleware configured through the environment.
func SetupPersistence(ctx context.Context, cfg PersistenceConfig, logger *slog.Logger) (*Persistence, error) {
	mws, err := storeMiddleware(os.Getenv)
	if err != nil {
		return nil, err
	}

	p := &Persistence{}
	var (
		store   ports.StateStore
		manOpts = []session.Option{session.WithLogger(logger)}
	)

	switch {
	case cfg.RedisURL != "":
		opt, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := goredis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		ttl, err := sessionTTL(os.Getenv(EnvSessionTTL))
		if err != nil {
			_ = client.Close()
			return nil, err
		}

		store = redisAdapter.NewFromClient(client, redisAdapter.WithTTL(ttl))
		manOpts = append(manOpts, session.WithLocker(redisAdapter.NewLocker(client, defaultKeyPrefix+"lock:")))
		p.Bus = redisAdapter.NewBus(client, defaultKeyPrefix, redisAdapter.WithBusLogger(logger))
		p.Backend = "redis"
		p.closers = append(p.closers, client.Close)
	case cfg.Dir != "":
		store = file.New(cfg.Dir)
		p.Bus = memory.NewBus()
		p.Backend = "file"
	default:
		store = memory.NewStore()
		p.Bus = memory.NewBus()
		p.Backend = "memory"
	}

	p.Sessions = session.NewManager(middleware.Chain(store, mws...), manOpts...)
	logger.Debug("persistence ready", "backend", p.Backend, "middleware", len(mws))
	return p, nil
}

// storeMiddleware returns PII masking (outermost) and encryption, each only when
// its variable is set.
func storeMiddleware(getenv func(string) string) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware

	if fields := splitList(getenv(EnvPIIFields)); len(fields) > 0 {
		pii, err := middleware.NewPIIMiddleware(fields, middleware.MaskSubmittedOnly())
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}

	if raw := getenv(EnvEncryptionKey); raw != "" {
		active, err := decodeKey(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvEncryptionKey, err)
		}
		cfg := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range splitList(getenv(EnvFallbackKeys)) {
			key, err := decodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("%s #%d: %w", EnvFallbackKeys, i, err)
			}
			cfg.FallbackKeys = append(cfg.FallbackKeys, key)
		}
		enc, err := middleware.NewEncryptionMiddleware(cfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("key is not valid base64: %w", err)
	}
	return key, nil
}

func sessionTTL(s string) (time.Duration, error) {
	if s == "" {
		return defaultSessionTTL, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", EnvSessionTTL, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

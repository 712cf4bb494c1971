package outlet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pos-coupon/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrRegistryClosed is returned by a registry after Close.
var ErrRegistryClosed = errors.New("outlet registry is closed")

// Connection check outcomes reported by CheckAll.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
	StatusError   = "ERROR"
)

// PoolConfig holds the settings applied to every outlet pool.
type PoolConfig struct {
	UserOverride     string
	PasswordOverride string
	MaxConnections   int32
	MinConnections   int32
	MaxConnIdleTime  time.Duration
}

// ConnectionStatus is the result of checking one outlet database.
type ConnectionStatus struct {
	Outlet  string `json:"outlet"`
	Host    string `json:"host"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// poolOpener creates a pool for a parsed configuration.
type poolOpener func(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error)

// Registry lazily opens one connection pool per outlet and keeps it for the
// lifetime of the registry.
type Registry struct {
	directory *Directory
	config    PoolConfig
	open      poolOpener
	logger    zerolog.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	pools  map[string]*pgxpool.Pool
	closed bool
}

// NewRegistry creates a registry over directory.
func NewRegistry(directory *Directory, config PoolConfig, logger zerolog.Logger) *Registry {
	return &Registry{
		directory: directory,
		config:    config,
		open:      openPool,
		logger:    logger.With().Str("component", "outlet-registry").Logger(),
		pools:     make(map[string]*pgxpool.Pool),
	}
}

// Directory returns the outlet directory the registry routes by.
func (r *Registry) Directory() *Directory {
	return r.directory
}

// Pool returns the pool of outlet, opening it on first use. Concurrent first
// calls for the same outlet share one open.
func (r *Registry) Pool(ctx context.Context, outlet string) (*pgxpool.Pool, error) {
	if pool, err := r.cached(outlet); pool != nil || err != nil {
		return pool, err
	}

	target, ok := r.directory.Lookup(outlet)
	if !ok {
		return nil, model.ErrOutletNotConfigured.Wrap(fmt.Errorf("outlet %q", outlet))
	}

	v, err, _ := r.group.Do(outlet, func() (interface{}, error) {
		if pool, err := r.cached(outlet); pool != nil || err != nil {
			return pool, err
		}

		cfg, err := r.poolConfig(target)
		if err != nil {
			return nil, err
		}

		pool, err := r.open(ctx, cfg)
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("outlet", outlet).
				Str("host", target.Host).
				Msg("failed to connect to outlet database")
			return nil, model.ErrOutletUnavailable.Wrap(err)
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			pool.Close()
			return nil, ErrRegistryClosed
		}
		r.pools[outlet] = pool

		r.logger.Info().
			Str("outlet", outlet).
			Str("host", target.Host).
			Msg("connected to outlet database")

		return pool, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*pgxpool.Pool), nil
}

func (r *Registry) cached(outlet string) (*pgxpool.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrRegistryClosed
	}
	return r.pools[outlet], nil
}

func (r *Registry) poolConfig(target Target) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(target.ConnectionString(r.config.UserOverride, r.config.PasswordOverride))
	if err != nil {
		return nil, fmt.Errorf("failed to parse outlet %s connection: %w", target.OutletCode, err)
	}

	if r.config.MaxConnections > 0 {
		cfg.MaxConns = r.config.MaxConnections
	}
	if r.config.MinConnections > 0 {
		cfg.MinConns = r.config.MinConnections
	}
	if r.config.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = r.config.MaxConnIdleTime
	}

	return cfg, nil
}

// Ping verifies the outlet database answers a trivial query.
func (r *Registry) Ping(ctx context.Context, outlet string) error {
	pool, err := r.Pool(ctx, outlet)
	if err != nil {
		return err
	}

	var one int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return model.ErrOutletUnavailable.Wrap(err)
	}
	return nil
}

// CheckAll pings every configured outlet concurrently and reports the results
// in outlet code order.
func (r *Registry) CheckAll(ctx context.Context) []ConnectionStatus {
	codes := r.directory.Codes()
	results := make([]ConnectionStatus, len(codes))

	var wg sync.WaitGroup
	for i, code := range codes {
		wg.Add(1)
		go func(index int, outlet string) {
			defer wg.Done()

			target, _ := r.directory.Lookup(outlet)
			status := ConnectionStatus{Outlet: outlet, Host: target.Host}

			err := r.Ping(ctx, outlet)
			switch {
			case err == nil:
				status.Status = StatusSuccess
				status.Message = "Connected"
			case errors.Is(err, model.ErrOutletUnavailable):
				status.Status = StatusFailed
				status.Message = err.Error()
			default:
				status.Status = StatusError
				status.Message = err.Error()
			}

			results[index] = status
		}(i, code)
	}
	wg.Wait()

	return results
}

// Close closes every open pool. The registry cannot be used afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true

	for outlet, pool := range r.pools {
		pool.Close()
		r.logger.Info().Str("outlet", outlet).Msg("closed outlet connection pool")
	}
	r.pools = make(map[string]*pgxpool.Pool)
}

func openPool(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

// Config describes how the account store pool is opened.
type Config struct {
	URL               string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration

	// OpenAttempts bounds the connection attempts; zero means one.
	OpenAttempts uint64
	// OpenBackoff is the base Fibonacci backoff between attempts.
	OpenBackoff time.Duration
}

// StoreOpenError reports a store that could not be opened.
type StoreOpenError struct {
	Err         error
	Attempts    int
	Diagnostics map[string]string
}

func (e *StoreOpenError) Error() string {
	return fmt.Sprintf("open account store after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *StoreOpenError) Unwrap() error {
	return e.Err
}

// Open creates a pool and pings it, retrying with a capped Fibonacci
// backoff. Failures are reported as *StoreOpenError.
func Open(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, &StoreOpenError{Err: err, Diagnostics: map[string]string{}}
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	base := cfg.OpenBackoff
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	retries := uint64(0)
	if cfg.OpenAttempts > 1 {
		retries = cfg.OpenAttempts - 1
	}

	b := retry.NewFibonacci(base)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(retries, b)

	var (
		pool     *pgxpool.Pool
		attempts int
	)
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempts++

		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return err
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.Ping(pingCtx); err != nil {
			p.Close()
			slog.WarnContext(ctx, "failed to ping account store", "attempt", attempts, "error", err)
			return retry.RetryableError(err)
		}

		pool = p
		return nil
	})
	if err != nil {
		return nil, &StoreOpenError{
			Err:         err,
			Attempts:    attempts,
			Diagnostics: diagnose(poolCfg),
		}
	}

	return pool, nil
}

// diagnose describes the connection target without credentials. A host that
// is a unix socket directory is stat'ed.
func diagnose(cfg *pgxpool.Config) map[string]string {
	cc := cfg.ConnConfig
	d := map[string]string{
		"host":     cc.Host,
		"port":     fmt.Sprint(cc.Port),
		"database": cc.Database,
		"user":     cc.User,
	}

	if !strings.HasPrefix(cc.Host, "/") {
		return d
	}

	info, err := os.Stat(cc.Host)
	switch {
	case err != nil:
		d["socket_dir"] = err.Error()
	case !info.IsDir():
		d["socket_dir"] = "not a directory"
	default:
		d["socket_dir"] = info.Mode().Perm().String()
	}

	return d
}

package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/shandysiswandi/authvault/docs"
	"github.com/shandysiswandi/authvault/internal/authenticator/outbound/db"
	"github.com/shandysiswandi/authvault/internal/pkg/clock"
	"github.com/shandysiswandi/authvault/internal/pkg/config"
	"github.com/shandysiswandi/authvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/authvault/internal/pkg/instrument"
	"github.com/shandysiswandi/authvault/internal/pkg/lock"
	"github.com/shandysiswandi/authvault/internal/pkg/router"
	"github.com/shandysiswandi/authvault/internal/pkg/uid"
	"github.com/shandysiswandi/authvault/internal/pkg/validator"
	"github.com/swaggo/swag/v2"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	// the correction is read on every call so a config reload applies at once
	a.clock = clock.NewCorrected(clock.New(), func() time.Duration {
		return a.config.GetMinute("clock.correction_minutes")
	})
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator
}

func (a *App) initDatabase() {
	pool, err := db.Open(a.ctx, db.Config{
		URL:               a.config.GetString("database.url"),
		MaxConns:          a.config.GetInt32("database.pool.max_conns"),
		MinConns:          a.config.GetInt32("database.pool.min_conns"),
		MaxConnLifetime:   a.config.GetSecond("database.pool.max_conn_lifetime_seconds"),
		MaxConnIdleTime:   a.config.GetSecond("database.pool.max_conn_idle_seconds"),
		HealthCheckPeriod: a.config.GetSecond("database.pool.health_check_period_seconds"),
		OpenAttempts:      a.config.GetUint64("database.open.attempts"),
		OpenBackoff:       a.config.GetMillisecond("database.open.backoff_ms"),
	})
	if err != nil {
		var openErr *db.StoreOpenError
		if errors.As(err, &openErr) {
			slog.Error("failed to open account store", "error", openErr.Err, "attempts", openErr.Attempts, "diagnostics", openErr.Diagnostics)
		} else {
			slog.Error("failed to open account store", "error", err)
		}
		os.Exit(1)
	}

	a.dbConn = pool
}

// initCache connects to redis only when the lock driver needs it.
func (a *App) initCache() {
	if !strings.EqualFold(strings.TrimSpace(a.config.GetString("lock.driver")), lock.DriverRedis) {
		return
	}

	opt, err := redis.ParseURL(a.config.GetString("lock.redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
}

func (a *App) initLocker() {
	driver := a.config.GetString("lock.driver")
	locker, err := lock.NewFromDriver(driver, a.cacheConn)
	if err != nil {
		slog.Error("failed to init locker", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.locker = locker
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	a.router.GETRaw("/swagger/doc.json", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to read swagger doc", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		//nolint:errcheck // client may be gone
		w.Write([]byte(doc))
	}))

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}

	// no write timeout, countdown streams stay open until the app context
	// is cancelled in Stop
	a.sseServer = &http.Server{
		Addr:              a.config.GetString("app.server.sse.address"),
		Handler:           routerWithCORS,
		ReadHeaderTimeout: a.config.GetSecond("app.server.sse.read_header_timeout_seconds"),
		BaseContext: func(net.Listener) context.Context {
			return a.ctx
		},
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "AccountStore",
			fn: func(context.Context) error {
				a.accounts.Close()

				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}

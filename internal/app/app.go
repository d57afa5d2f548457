package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/authvault/internal/authenticator/store"
	"github.com/shandysiswandi/authvault/internal/pkg/clock"
	"github.com/shandysiswandi/authvault/internal/pkg/config"
	"github.com/shandysiswandi/authvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/authvault/internal/pkg/instrument"
	"github.com/shandysiswandi/authvault/internal/pkg/lock"
	"github.com/shandysiswandi/authvault/internal/pkg/router"
	"github.com/shandysiswandi/authvault/internal/pkg/uid"
	"github.com/shandysiswandi/authvault/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uuid      uid.StringID

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	locker    lock.Locker
	accounts  *store.Store

	// server
	router     *router.Router
	httpServer *http.Server
	sseServer  *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initLocker()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}

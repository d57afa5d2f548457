package authenticator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/authvault/internal/authenticator/inbound"
	"github.com/shandysiswandi/authvault/internal/authenticator/outbound/db"
	"github.com/shandysiswandi/authvault/internal/authenticator/store"
	"github.com/shandysiswandi/authvault/internal/authenticator/usecase"
	"github.com/shandysiswandi/authvault/internal/pkg/clock"
	"github.com/shandysiswandi/authvault/internal/pkg/config"
	"github.com/shandysiswandi/authvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/authvault/internal/pkg/instrument"
	"github.com/shandysiswandi/authvault/internal/pkg/lock"
	"github.com/shandysiswandi/authvault/internal/pkg/otp"
	"github.com/shandysiswandi/authvault/internal/pkg/router"
	"github.com/shandysiswandi/authvault/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Locker     lock.Locker                `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

// New migrates the accounts table and registers the authenticator endpoints.
// Closing the returned store closes dep.DBConn.
func New(dep Dependency) (*store.Store, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	counter, err := otp.NewCounter(
		dep.Config.GetInt64("otp.time_step_seconds"),
		dep.Config.GetInt64("otp.start_time"),
	)
	if err != nil {
		return nil, fmt.Errorf("authenticator: otp counter: %w", err)
	}

	dbAuth := db.NewDB(dep.DBConn, dep.Instrument)

	ctx, cancel := context.WithTimeout(dep.Ctx, 30*time.Second)
	defer cancel()

	st, err := store.Open(ctx, dbAuth)
	if err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		Store:      st,
		Pinger:     dbAuth,
		Locker:     dep.Locker,
		Counter:    counter,
		Validator:  dep.Validator,
		Config:     dep.Config,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
		Runner:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return st, nil
}

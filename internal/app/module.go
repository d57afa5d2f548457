package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/authvault/internal/authenticator"
)

func (a *App) initModules() {
	st, err := authenticator.New(authenticator.Dependency{
		Ctx:        a.ctx,
		DBConn:     a.dbConn,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Locker:     a.locker,
		Config:     a.config,
		Instrument: a.ins,
		Clock:      a.clock,
		Validator:  a.validator,
	})
	if err != nil {
		slog.Error("failed to init module authenticator", "error", err)
		os.Exit(1)
	}

	a.accounts = st
}

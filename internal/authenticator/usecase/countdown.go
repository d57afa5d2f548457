package usecase

import (
	"github.com/shandysiswandi/authvault/internal/pkg/countdown"
)

// NewCountdown returns an unstarted scheduler reporting TOTP time steps to l.
func (s *Usecase) NewCountdown(l countdown.Listener) (*countdown.Scheduler, error) {
	return countdown.New(countdown.Config{
		Counter:  s.counter,
		Clock:    s.clock,
		Period:   s.cfg.GetMillisecond("countdown.poll_interval_ms"),
		Listener: l,
		Runner:   s.runner,
	})
}

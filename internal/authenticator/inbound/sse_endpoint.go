package inbound

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shandysiswandi/authvault/internal/pkg/goerror"
)

// sseBuffer bounds the events queued between the scheduler and a slow client.
const sseBuffer = 16

type sseEvent struct {
	name string
	data any
}

// CounterEvent is sent when the TOTP counter changes.
type CounterEvent struct {
	Value int64 `json:"value"`
}

// RemainingEvent is sent when the whole seconds left in the counter change.
type RemainingEvent struct {
	Seconds int64 `json:"seconds"`
}

// sseListener forwards scheduler callbacks to the stream without blocking
// the scheduler; events that do not fit the buffer are dropped.
type sseListener struct {
	events      chan sseEvent
	lastSeconds int64
}

func newSSEListener() *sseListener {
	return &sseListener{events: make(chan sseEvent, sseBuffer), lastSeconds: -1}
}

func (l *sseListener) send(ev sseEvent) {
	select {
	case l.events <- ev:
	default:
	}
}

func (l *sseListener) CounterChanged(value int64) {
	l.send(sseEvent{name: "counter", data: CounterEvent{Value: value}})
}

func (l *sseListener) TimeRemaining(remaining time.Duration) {
	sec := int64((remaining + time.Second - 1) / time.Second)
	if sec == l.lastSeconds {
		return
	}
	l.lastSeconds = sec
	l.send(sseEvent{name: "remaining", data: RemainingEvent{Seconds: sec}})
}

// SSEEndpoint streams TOTP countdown events as server-sent events until the
// client disconnects.
type SSEEndpoint struct {
	uc uc
}

// ServeHTTP writes the countdown stream.
// @Summary Countdown stream
// @Description Server-sent events "counter" and "remaining" for the current TOTP time step.
// @Tags Authenticator, Codes
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Router /api/v1/authenticator/countdown [get]
func (e *SSEEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)

	l := newSSEListener()
	sched, err := e.uc.NewCountdown(l)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create countdown", "error", err)
		writeError(w, goerror.NewServer(err))
		return
	}
	defer sched.Stop()

	if err := sched.Start(ctx); err != nil {
		slog.WarnContext(ctx, "failed to start countdown", "error", err)
		writeError(w, goerror.NewUnavailable(err))
		return
	}

	//nolint:errcheck // not every writer supports deadlines
	rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.WarnContext(ctx, "countdown stream not flushable", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-l.events:
			if err := writeEvent(w, ev); err != nil {
				slog.WarnContext(ctx, "countdown client gone", "error", err)
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, ev sseEvent) error {
	data, err := json.Marshal(ev.data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, data)
	return err
}

func writeError(w http.ResponseWriter, err error) {
	gerr, ok := goerror.As(err)
	if !ok {
		gerr, _ = goerror.As(goerror.NewServer(err))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(gerr.StatusCode())
	//nolint:errcheck // response already committed
	json.NewEncoder(w).Encode(map[string]string{
		"message":    gerr.Msg(),
		"error_code": gerr.Code().String(),
	})
}

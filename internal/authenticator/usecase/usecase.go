package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
	"github.com/shandysiswandi/authvault/internal/pkg/clock"
	"github.com/shandysiswandi/authvault/internal/pkg/config"
	"github.com/shandysiswandi/authvault/internal/pkg/countdown"
	"github.com/shandysiswandi/authvault/internal/pkg/goerror"
	"github.com/shandysiswandi/authvault/internal/pkg/instrument"
	"github.com/shandysiswandi/authvault/internal/pkg/lock"
	"github.com/shandysiswandi/authvault/internal/pkg/otp"
	"github.com/shandysiswandi/authvault/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type repoStore interface {
	Exists(ctx context.Context, idx entity.AccountIndex) (bool, error)
	AddWillOverwrite(ctx context.Context, idx entity.AccountIndex) (bool, error)
	Add(ctx context.Context, in entity.NewAccount) (entity.AccountIndex, error)
	Update(ctx context.Context, idx entity.AccountIndex, p entity.AccountPatch) (bool, error)
	Rename(ctx context.Context, old entity.AccountIndex, newName string) (bool, error)
	Delete(ctx context.Context, idx entity.AccountIndex) error
	SwapID(ctx context.Context, first, second entity.AccountIndex) error
	ListRecords(ctx context.Context) ([]entity.AccountRecord, error)

	IncrementCounter(ctx context.Context, idx entity.AccountIndex) error
	GetSecret(ctx context.Context, idx entity.AccountIndex) (string, bool, error)
	GetCounter(ctx context.Context, idx entity.AccountIndex) (int32, bool, error)
	GetType(ctx context.Context, idx entity.AccountIndex) (entity.OTPType, bool, error)

	IsGoogleAccount(ctx context.Context, idx entity.AccountIndex) (bool, error)
	FindMatchingGoogleAccount(ctx context.Context, deviceAccount string) (*entity.AccountIndex, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type Usecase struct {
	store     repoStore
	pinger    pinger
	passcodes *PasscodeService
	counter   otp.Counter
	validator validator.Validator
	cfg       config.Config
	clock     clock.Clocker
	ins       instrument.Instrumentation
	runner    countdown.Runner

	generated metric.Int64Counter
}

type Dependency struct {
	Store      repoStore
	Pinger     pinger
	Locker     lock.Locker
	Counter    otp.Counter
	Validator  validator.Validator
	Config     config.Config
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
	Runner     countdown.Runner
}

func New(dep Dependency) *Usecase {
	generated, err := dep.Instrument.Meter("authenticator.usecase").Int64Counter(
		"authenticator.passcode.generated",
		metric.WithDescription("Number of passcodes generated"),
	)
	if err != nil {
		slog.Warn("failed to create passcode counter", "error", err)
	}

	return &Usecase{
		store:  dep.Store,
		pinger: dep.Pinger,
		passcodes: NewPasscodeService(PasscodeDependency{
			Store:   dep.Store,
			Counter: dep.Counter,
			Clock:   dep.Clock,
			Locker:  dep.Locker,
			LockOptions: func() []lock.Option {
				return []lock.Option{
					lock.WithTTL(dep.Config.GetSecond("lock.ttl_seconds")),
					lock.WithWait(dep.Config.GetMillisecond("lock.wait_ms")),
				}
			},
		}),
		counter:   dep.Counter,
		validator: dep.Validator,
		cfg:       dep.Config,
		clock:     dep.Clock,
		ins:       dep.Instrument,
		runner:    dep.Runner,
		generated: generated,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("authenticator.usecase").Start(ctx, name)
}

// mapError turns store and passcode errors into goerror values for the
// transport layer. Unknown errors are logged and reported as server errors.
func (s *Usecase) mapError(ctx context.Context, op string, idx entity.AccountIndex, err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, entity.ErrNoSuchAccount):
		return goerror.NewBusiness("account not found", goerror.CodeNotFound)

	case errors.Is(err, entity.ErrDuplicateLimit):
		slog.WarnContext(ctx, "too many accounts with the same name", "op", op, "account", idx.String())
		return goerror.NewBusiness("too many accounts with the same name", goerror.CodeConflict)

	case errors.Is(err, entity.ErrUnsupportedOperation):
		return goerror.NewBusiness("operation not supported for this account", goerror.CodeUnsupported)

	case errors.Is(err, otp.ErrCrypto):
		slog.ErrorContext(ctx, "failed to compute passcode", "op", op, "account", idx.String(), "error", err)
		return goerror.NewServer(err)

	case errors.Is(err, otp.ErrDecoding):
		return goerror.NewInvalidInput(nil, "secret", "secret must be valid base32")

	case errors.Is(err, lock.ErrNotAcquired):
		slog.WarnContext(ctx, "account is busy", "op", op, "account", idx.String())
		return goerror.NewBusiness("account is busy, try again", goerror.CodeBusy)

	default:
		slog.ErrorContext(ctx, "failed to "+op, "account", idx.String(), "error", err)
		return goerror.NewServer(err)
	}
}

// Health reports whether the account store answers.
func (s *Usecase) Health(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Health")
	defer span.End()

	if s.pinger == nil {
		return nil
	}

	if err := s.pinger.Ping(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to ping account store", "error", err)
		return goerror.NewUnavailable(err)
	}

	return nil
}

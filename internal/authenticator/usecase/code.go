package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
	"github.com/shandysiswandi/authvault/internal/pkg/goerror"
	"github.com/shandysiswandi/authvault/internal/pkg/otp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type GenerateCodeInput struct {
	Name      string `validate:"required"`
	Issuer    string
	Challenge *string
}

type GenerateCodeOutput struct {
	Code string
	Type entity.OTPType
	// Counter is the HOTP counter the code was computed for.
	Counter int64
	// ExpiresIn is the time until a TOTP code changes.
	ExpiresIn time.Duration
}

// GenerateCode returns the next code of an account, or its response to a
// challenge. HOTP accounts are advanced by one.
func (s *Usecase) GenerateCode(ctx context.Context, in GenerateCodeInput) (*GenerateCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "GenerateCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	idx := entity.NewAccountIndex(in.Name, in.Issuer)
	pc, err := s.passcodes.generate(ctx, idx, in.Challenge)
	if err != nil {
		return nil, s.mapError(ctx, "generate code", idx, err)
	}

	if s.generated != nil {
		s.generated.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", pc.typ.String()),
			attribute.Bool("challenge", in.Challenge != nil),
		))
	}

	out := &GenerateCodeOutput{Code: pc.code, Type: pc.typ}
	if pc.typ == entity.OTPTypeHOTP {
		out.Counter = pc.state
	} else {
		out.ExpiresIn = time.Duration(s.counter.StartTimeOf(pc.state+1)-pc.now) * time.Second
	}

	return out, nil
}

type VerifyCodeInput struct {
	Name   string `validate:"required"`
	Issuer string
	Code   string `validate:"required,numeric,len=6"`
}

// VerifyCode checks a code without advancing HOTP accounts. TOTP codes are
// accepted within the configured windows around the current time step;
// HOTP codes must match the next counter value.
func (s *Usecase) VerifyCode(ctx context.Context, in VerifyCodeInput) (bool, error) {
	ctx, span := s.startSpan(ctx, "VerifyCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return false, goerror.NewInvalidInput(err)
	}

	idx := entity.NewAccountIndex(in.Name, in.Issuer)
	typ, ok, err := s.store.GetType(ctx, idx)
	if err != nil {
		return false, s.mapError(ctx, "verify code", idx, err)
	}
	if !ok {
		return false, goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}

	secret, _, err := s.store.GetSecret(ctx, idx)
	if err != nil {
		return false, s.mapError(ctx, "verify code", idx, err)
	}

	gen, err := newGenerator(secret, false)
	if err != nil {
		return false, s.mapError(ctx, "verify code", idx, err)
	}

	if typ == entity.OTPTypeHOTP {
		counter, _, err := s.store.GetCounter(ctx, idx)
		if err != nil {
			return false, s.mapError(ctx, "verify code", idx, err)
		}

		valid, err := gen.Verify(uint64(int64(counter)+1), in.Code)
		if err != nil {
			return false, s.mapError(ctx, "verify code", idx, err)
		}
		return valid, nil
	}

	past := otp.VerifyTimeoutDefault
	if s.cfg.IsSet("otp.verify_past_window") {
		past = s.cfg.GetInt("otp.verify_past_window")
	}
	future := otp.VerifyTimeoutDefault
	if s.cfg.IsSet("otp.verify_future_window") {
		future = s.cfg.GetInt("otp.verify_future_window")
	}

	valid, err := gen.VerifyTimeout(in.Code, s.counter.ValueAtTime(s.clock.Now()), past, future)
	if err != nil {
		return false, s.mapError(ctx, "verify code", idx, err)
	}

	return valid, nil
}

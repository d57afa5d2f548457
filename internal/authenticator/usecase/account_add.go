package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
	"github.com/shandysiswandi/authvault/internal/pkg/goerror"
	"github.com/shandysiswandi/authvault/internal/pkg/otp"
)

type AddAccountInput struct {
	Name    string `validate:"required"`
	Issuer  string
	Secret  string `validate:"required,base32"`
	Type    string `validate:"omitempty,otptype"`
	Counter int32
	Google  *bool
}

type AddAccountOutput struct {
	Account     entity.AccountIndex
	Overwritten bool
}

func (s *Usecase) AddAccount(ctx context.Context, in AddAccountInput) (*AddAccountOutput, error) {
	ctx, span := s.startSpan(ctx, "AddAccount")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.add(ctx, entity.NewAccount{
		Name:       in.Name,
		Issuer:     in.Issuer,
		Secret:     in.Secret,
		Type:       otpType(in.Type),
		Counter:    in.Counter,
		GoogleHint: in.Google,
	})
}

type AddFromURIInput struct {
	URI    string `validate:"required"`
	Google *bool
}

// AddFromURI adds the account described by an otpauth:// provisioning URI.
func (s *Usecase) AddFromURI(ctx context.Context, in AddFromURIInput) (*AddAccountOutput, error) {
	ctx, span := s.startSpan(ctx, "AddFromURI")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	p, err := otp.ParseURI(in.URI)
	if errors.Is(err, otp.ErrInvalidURI) || errors.Is(err, otp.ErrDecoding) {
		slog.WarnContext(ctx, "invalid provisioning uri", "error", err)
		return nil, goerror.NewInvalidInput(nil, "uri", "uri is not a valid otpauth totp or hotp uri")
	}
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	typ := entity.OTPTypeTOTP
	if p.Kind == otp.KindHOTP {
		typ = entity.OTPTypeHOTP
	}

	return s.add(ctx, entity.NewAccount{
		Name:       p.Name,
		Issuer:     p.Issuer,
		Secret:     p.Secret,
		Type:       typ,
		Counter:    p.Counter,
		GoogleHint: in.Google,
	})
}

func (s *Usecase) add(ctx context.Context, in entity.NewAccount) (*AddAccountOutput, error) {
	idx := in.Index()

	overwrite, err := s.store.AddWillOverwrite(ctx, idx)
	if err != nil {
		return nil, s.mapError(ctx, "check overwrite", idx, err)
	}

	written, err := s.store.Add(ctx, in)
	if err != nil {
		return nil, s.mapError(ctx, "add account", idx, err)
	}

	slog.InfoContext(ctx, "account stored", "account", written.String(), "overwritten", overwrite, "type", in.Type.String())

	return &AddAccountOutput{Account: written, Overwritten: overwrite}, nil
}

// AddWillOverwrite reports whether adding in would replace a stored account.
func (s *Usecase) AddWillOverwrite(ctx context.Context, in AccountInput) (bool, error) {
	ctx, span := s.startSpan(ctx, "AddWillOverwrite")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return false, goerror.NewInvalidInput(err)
	}

	ok, err := s.store.AddWillOverwrite(ctx, in.index())
	if err != nil {
		return false, s.mapError(ctx, "check overwrite", in.index(), err)
	}

	return ok, nil
}

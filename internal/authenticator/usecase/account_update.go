package usecase

import (
	"context"

	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
	"github.com/shandysiswandi/authvault/internal/pkg/goerror"
)

type UpdateAccountInput struct {
	Name    string `validate:"required"`
	Issuer  string
	Secret  *string `validate:"omitempty,base32"`
	Type    *string `validate:"omitempty,otptype"`
	Counter *int32
	Google  *bool
}

func (s *Usecase) UpdateAccount(ctx context.Context, in UpdateAccountInput) error {
	ctx, span := s.startSpan(ctx, "UpdateAccount")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	patch := entity.AccountPatch{
		Secret:     in.Secret,
		Counter:    in.Counter,
		GoogleHint: in.Google,
	}
	if in.Type != nil {
		typ := otpType(*in.Type)
		patch.Type = &typ
	}

	idx := entity.NewAccountIndex(in.Name, in.Issuer)
	ok, err := s.store.Update(ctx, idx, patch)
	if err != nil {
		return s.mapError(ctx, "update account", idx, err)
	}
	if !ok {
		return goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}

	return nil
}

type RenameAccountInput struct {
	Name    string `validate:"required"`
	Issuer  string
	NewName string `validate:"required"`
}

func (s *Usecase) RenameAccount(ctx context.Context, in RenameAccountInput) error {
	ctx, span := s.startSpan(ctx, "RenameAccount")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	idx := entity.NewAccountIndex(in.Name, in.Issuer)
	exists, err := s.store.Exists(ctx, idx)
	if err != nil {
		return s.mapError(ctx, "rename account", idx, err)
	}
	if !exists {
		return goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}

	ok, err := s.store.Rename(ctx, idx, in.NewName)
	if err != nil {
		return s.mapError(ctx, "rename account", idx, err)
	}
	if !ok {
		return goerror.NewBusiness("account name already taken", goerror.CodeConflict)
	}

	return nil
}

func (s *Usecase) DeleteAccount(ctx context.Context, in AccountInput) error {
	ctx, span := s.startSpan(ctx, "DeleteAccount")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	idx := in.index()
	exists, err := s.store.Exists(ctx, idx)
	if err != nil {
		return s.mapError(ctx, "delete account", idx, err)
	}
	if !exists {
		return goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}

	if err := s.store.Delete(ctx, idx); err != nil {
		return s.mapError(ctx, "delete account", idx, err)
	}

	return nil
}

type SwapAccountsInput struct {
	First  AccountInput `validate:"required"`
	Second AccountInput `validate:"required"`
}

// SwapAccounts exchanges the list positions of two accounts.
func (s *Usecase) SwapAccounts(ctx context.Context, in SwapAccountsInput) error {
	ctx, span := s.startSpan(ctx, "SwapAccounts")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.store.SwapID(ctx, in.First.index(), in.Second.index()); err != nil {
		return s.mapError(ctx, "swap accounts", in.First.index(), err)
	}

	return nil
}

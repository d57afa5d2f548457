package usecase

import (
	"context"

	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
	"github.com/shandysiswandi/authvault/internal/pkg/goerror"
)

// ListAccounts returns every account in list order with its display data.
func (s *Usecase) ListAccounts(ctx context.Context) ([]entity.AccountInfo, error) {
	ctx, span := s.startSpan(ctx, "ListAccounts")
	defer span.End()

	recs, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, s.mapError(ctx, "list accounts", entity.AccountIndex{}, err)
	}

	items := make([]entity.AccountInfo, 0, len(recs))
	for _, rec := range recs {
		idx := rec.Index()

		isGoogle, err := s.store.IsGoogleAccount(ctx, idx)
		if err != nil {
			return nil, s.mapError(ctx, "list accounts", idx, err)
		}

		items = append(items, entity.AccountInfo{
			Index:        idx,
			DisplayName:  idx.String(),
			StrippedName: idx.StrippedName(),
			Type:         rec.Type,
			IsGoogle:     isGoogle,
		})
	}

	return items, nil
}

type FindGoogleAccountInput struct {
	DeviceAccount string `validate:"required,email"`
}

// FindGoogleAccount returns the stored account of a device Google account.
func (s *Usecase) FindGoogleAccount(ctx context.Context, in FindGoogleAccountInput) (*entity.AccountInfo, error) {
	ctx, span := s.startSpan(ctx, "FindGoogleAccount")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	idx, err := s.store.FindMatchingGoogleAccount(ctx, in.DeviceAccount)
	if err != nil {
		return nil, s.mapError(ctx, "find google account", entity.AccountIndex{Name: in.DeviceAccount}, err)
	}
	if idx == nil {
		return nil, goerror.NewBusiness("no matching google account", goerror.CodeNotFound)
	}

	typ, _, err := s.store.GetType(ctx, *idx)
	if err != nil {
		return nil, s.mapError(ctx, "find google account", *idx, err)
	}

	return &entity.AccountInfo{
		Index:        *idx,
		DisplayName:  idx.String(),
		StrippedName: idx.StrippedName(),
		Type:         typ,
		IsGoogle:     true,
	}, nil
}

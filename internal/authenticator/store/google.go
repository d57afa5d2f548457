package store

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
)

var googleNamePrefixes = []string{"", entity.GoogleIssuer + ":"}

// IsGoogleAccount guesses whether idx belongs to Google. In order: a Google
// issuer says yes and any other issuer says no; the legacy account and an
// explicit Google provider say yes; a record with an original name says no;
// a legacy record falls back to its email domain.
func (s *Store) IsGoogleAccount(ctx context.Context, idx entity.AccountIndex) (bool, error) {
	if idx.HasIssuer() {
		return strings.EqualFold(idx.Issuer, entity.GoogleIssuer), nil
	}
	if idx.Name == entity.LegacyGoogleAccountName {
		return true, nil
	}

	rec, err := s.Get(ctx, idx)
	if err != nil {
		return false, err
	}
	if rec != nil {
		if rec.Provider == entity.ProviderGoogle {
			return true, nil
		}
		if rec.OriginalName != nil {
			return false, nil
		}
	}

	name := strings.ToLower(idx.Name)
	return lo.SomeBy(entity.GoogleEmailSuffixes, func(suffix string) bool {
		return strings.HasSuffix(name, suffix)
	}), nil
}

// FindMatchingGoogleAccount returns the stored account for a device Google
// account name, or nil. Candidates are tried in order: the name with and
// without a "Google:" prefix under the Google issuer, Google records whose
// original name matches, the same names without an issuer, and finally the
// legacy account for corp device accounts.
func (s *Store) FindMatchingGoogleAccount(ctx context.Context, deviceAccount string) (*entity.AccountIndex, error) {
	if deviceAccount == "" {
		return nil, nil
	}

	candidates := lo.Map(googleNamePrefixes, func(prefix string, _ int) entity.AccountIndex {
		return entity.AccountIndex{Name: prefix + deviceAccount, Issuer: entity.GoogleIssuer}
	})
	if found, err := s.firstExisting(ctx, candidates); err != nil || found != nil {
		return found, err
	}

	recs, err := s.engine.Find(ctx, ByIssuer(entity.GoogleIssuer))
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec.OriginalName == nil {
			continue
		}
		for _, prefix := range googleNamePrefixes {
			if *rec.OriginalName == prefix+deviceAccount {
				found := rec.Index()
				return &found, nil
			}
		}
	}

	candidates = lo.Map(googleNamePrefixes, func(prefix string, _ int) entity.AccountIndex {
		return entity.AccountIndex{Name: prefix + deviceAccount}
	})
	if found, err := s.firstExisting(ctx, candidates); err != nil || found != nil {
		return found, err
	}

	if strings.HasSuffix(deviceAccount, entity.GoogleCorpDomain) {
		return s.firstExisting(ctx, []entity.AccountIndex{{Name: entity.LegacyGoogleAccountName}})
	}

	return nil, nil
}

func (s *Store) firstExisting(ctx context.Context, candidates []entity.AccountIndex) (*entity.AccountIndex, error) {
	for _, idx := range candidates {
		ok, err := s.Exists(ctx, idx)
		if err != nil {
			return nil, err
		}
		if ok {
			found := idx
			return &found, nil
		}
	}
	return nil, nil
}

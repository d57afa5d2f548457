package store

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/samber/lo"
	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, *memEngine) {
	t.Helper()

	engine := newMemEngine()
	s, err := Open(context.Background(), engine)
	require.NoError(t, err)

	return s, engine
}

func mustAdd(t *testing.T, s *Store, in entity.NewAccount) entity.AccountIndex {
	t.Helper()

	if in.Secret == "" {
		in.Secret = "7777777777777777"
	}
	idx, err := s.Add(context.Background(), in)
	require.NoError(t, err)

	return idx
}

func TestStore_FindSimilar(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	added := mustAdd(t, s, entity.NewAccount{Name: "Yahoo:bob@x.com", Issuer: "Yahoo"})
	mustAdd(t, s, entity.NewAccount{Name: "carol"})

	got, err := s.FindSimilar(ctx, entity.AccountIndex{Name: "bob@x.com", Issuer: "Yahoo"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, added, *got)

	got, err = s.FindSimilar(ctx, entity.AccountIndex{Name: "Yahoo:bob@x.com", Issuer: "Yahoo"})
	require.NoError(t, err)
	assert.Equal(t, &added, got)

	got, err = s.FindSimilar(ctx, entity.AccountIndex{Name: "bob@x.com"})
	require.NoError(t, err)
	assert.Nil(t, got, "issuer-less index never matches an issued record")

	got, err = s.FindSimilar(ctx, entity.AccountIndex{Name: "carol", Issuer: "Yahoo"})
	require.NoError(t, err)
	assert.Nil(t, got, "issued index never matches an issuer-less record")

	got, err = s.FindSimilar(ctx, entity.AccountIndex{Name: "bob@x.com", Issuer: "Other"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_AddDuplicateSuffix(t *testing.T) {
	ctx := context.Background()
	s, engine := openTestStore(t)

	for i := 0; i < entity.MaxDuplicateNames; i++ {
		idx, err := s.Add(ctx, entity.NewAccount{Name: "bob", Secret: fmt.Sprintf("SECRET%c", 'A'+i)})
		require.NoError(t, err)

		want := "bob"
		if i > 0 {
			want = fmt.Sprintf("bob(%d)", i)
		}
		assert.Equal(t, entity.AccountIndex{Name: want}, idx)
	}

	_, err := s.Add(ctx, entity.NewAccount{Name: "bob", Secret: "OVERWRITE"})
	assert.ErrorIs(t, err, entity.ErrDuplicateLimit)

	recs := engine.all()
	require.Len(t, recs, entity.MaxDuplicateNames)
	for i, rec := range recs {
		assert.Equal(t, fmt.Sprintf("SECRET%c", 'A'+i), rec.Secret)
		assert.Equal(t, lo.ToPtr("bob"), rec.OriginalName)
	}
}

func TestStore_AddOverwrite(t *testing.T) {
	ctx := context.Background()
	s, engine := openTestStore(t)
	yes := true

	mustAdd(t, s, entity.NewAccount{Name: "bob", Issuer: "Yahoo", Secret: "AAAAAAAA"})
	before := engine.all()

	idx, err := s.Add(ctx, entity.NewAccount{
		Name:       "Yahoo:bob",
		Issuer:     "Yahoo",
		Secret:     "BBBBBBBB",
		Type:       entity.OTPTypeHOTP,
		Counter:    7,
		GoogleHint: &yes,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.AccountIndex{Name: "Yahoo:bob", Issuer: "Yahoo"}, idx)

	after := engine.all()
	require.Len(t, after, 1)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, "Yahoo:bob", after[0].Name)
	assert.Equal(t, "BBBBBBBB", after[0].Secret)
	assert.Equal(t, entity.OTPTypeHOTP, after[0].Type)
	assert.Equal(t, int32(7), after[0].Counter)
	assert.Equal(t, entity.ProviderGoogle, after[0].Provider)
	assert.Equal(t, lo.ToPtr("bob"), after[0].OriginalName)
}

func TestStore_AddOverwriteKeepsProviderWithoutHint(t *testing.T) {
	ctx := context.Background()
	s, engine := openTestStore(t)
	no := false

	mustAdd(t, s, entity.NewAccount{Name: "bob", Issuer: "Yahoo", GoogleHint: &no})
	_, err := s.Add(ctx, entity.NewAccount{Name: "bob", Issuer: "Yahoo", Secret: "CCCCCCCC"})
	require.NoError(t, err)

	recs := engine.all()
	require.Len(t, recs, 1)
	assert.Equal(t, entity.ProviderOther, recs[0].Provider)
	assert.Equal(t, "CCCCCCCC", recs[0].Secret)
}

func TestStore_AddOverwriteRollsBack(t *testing.T) {
	ctx := context.Background()
	s, engine := openTestStore(t)

	mustAdd(t, s, entity.NewAccount{Name: "bob", Issuer: "Yahoo", Secret: "AAAAAAAA"})
	before := engine.all()

	// the overwrite succeeds and the rename fails
	engine.failUpdateAt = *engine.updates + 2
	_, err := s.Add(ctx, entity.NewAccount{Name: "Yahoo:bob", Issuer: "Yahoo", Secret: "BBBBBBBB"})
	require.Error(t, err)
	assert.Equal(t, before, engine.all())
}

func TestStore_AddLegacyGoogleOverwrites(t *testing.T) {
	ctx := context.Background()
	s, engine := openTestStore(t)

	mustAdd(t, s, entity.NewAccount{Name: entity.LegacyGoogleAccountName, Secret: "AAAAAAAA"})
	_, err := s.Add(ctx, entity.NewAccount{Name: entity.LegacyGoogleAccountName, Secret: "BBBBBBBB"})
	require.NoError(t, err)

	recs := engine.all()
	require.Len(t, recs, 1)
	assert.Equal(t, "BBBBBBBB", recs[0].Secret)
}

func TestStore_AddWillOverwrite(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	mustAdd(t, s, entity.NewAccount{Name: "bob"})
	mustAdd(t, s, entity.NewAccount{Name: "Yahoo:alice", Issuer: "Yahoo"})
	mustAdd(t, s, entity.NewAccount{Name: entity.LegacyGoogleAccountName})

	tests := []struct {
		name  string
		index entity.AccountIndex
		want  bool
	}{
		{name: "issuer-less never overwrites", index: entity.AccountIndex{Name: "bob"}, want: false},
		{name: "similar issued account", index: entity.AccountIndex{Name: "alice", Issuer: "Yahoo"}, want: true},
		{name: "new issued account", index: entity.AccountIndex{Name: "dave", Issuer: "Yahoo"}, want: false},
		{name: "legacy google account", index: entity.AccountIndex{Name: entity.LegacyGoogleAccountName}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.AddWillOverwrite(ctx, tt.index)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	s, engine := openTestStore(t)
	idx := mustAdd(t, s, entity.NewAccount{Name: "bob", Secret: "AAAAAAAA"})

	ok, err := s.Update(ctx, idx, entity.AccountPatch{Counter: lo.ToPtr[int32](3)})
	require.NoError(t, err)
	assert.True(t, ok)

	rec := engine.all()[0]
	assert.Equal(t, int32(3), rec.Counter)
	assert.Equal(t, "AAAAAAAA", rec.Secret)
	assert.Equal(t, entity.OTPTypeTOTP, rec.Type)

	ok, err = s.Update(ctx, entity.AccountIndex{Name: "nobody"}, entity.AccountPatch{Counter: lo.ToPtr[int32](1)})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Update(ctx, idx, entity.AccountPatch{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_Rename(t *testing.T) {
	ctx := context.Background()
	s, engine := openTestStore(t)
	yes := true

	bob := mustAdd(t, s, entity.NewAccount{Name: "bob", Issuer: "Yahoo", Secret: "AAAAAAAA", Type: entity.OTPTypeHOTP, Counter: 4, GoogleHint: &yes})
	mustAdd(t, s, entity.NewAccount{Name: "carol", Issuer: "Yahoo", Secret: "BBBBBBBB"})
	legacy := mustAdd(t, s, entity.NewAccount{Name: entity.LegacyGoogleAccountName})

	t.Run("same name is a no-op", func(t *testing.T) {
		ok, err := s.Rename(ctx, bob, "bob")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("taken name", func(t *testing.T) {
		before := engine.all()

		ok, err := s.Rename(ctx, bob, "carol")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, before, engine.all())
	})

	t.Run("legacy account", func(t *testing.T) {
		_, err := s.Rename(ctx, legacy, "mine")
		assert.ErrorIs(t, err, entity.ErrUnsupportedOperation)
	})

	t.Run("missing account", func(t *testing.T) {
		ok, err := s.Rename(ctx, entity.AccountIndex{Name: "nobody"}, "someone")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("preserves fields", func(t *testing.T) {
		before := engine.all()[0]

		ok, err := s.Rename(ctx, bob, "robert")
		require.NoError(t, err)
		assert.True(t, ok)

		after := engine.all()[0]
		assert.Equal(t, "robert", after.Name)
		assert.Equal(t, before.ID, after.ID)
		assert.Equal(t, before.Issuer, after.Issuer)
		assert.Equal(t, before.Secret, after.Secret)
		assert.Equal(t, before.Type, after.Type)
		assert.Equal(t, before.Counter, after.Counter)
		assert.Equal(t, before.Provider, after.Provider)
		assert.Equal(t, lo.ToPtr("bob"), after.OriginalName)
	})
}

func TestStore_DeleteAndGetters(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)
	idx := mustAdd(t, s, entity.NewAccount{Name: "bob", Secret: "AAAAAAAA", Type: entity.OTPTypeHOTP, Counter: 9})

	secret, ok, err := s.GetSecret(ctx, idx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "AAAAAAAA", secret)

	counter, ok, err := s.GetCounter(ctx, idx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(9), counter)

	typ, ok, err := s.GetType(ctx, idx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entity.OTPTypeHOTP, typ)

	name, ok, err := s.GetOriginalName(ctx, idx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bob", name)

	require.NoError(t, s.Delete(ctx, idx))

	exists, err := s.Exists(ctx, idx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, ok, err = s.GetSecret(ctx, idx)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.GetCounter(ctx, idx)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.GetType(ctx, idx)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.GetOriginalName(ctx, idx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_IncrementCounter(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)
	idx := mustAdd(t, s, entity.NewAccount{Name: "bob", Type: entity.OTPTypeHOTP, Counter: math.MaxInt32 - 1})

	require.NoError(t, s.IncrementCounter(ctx, idx))
	counter, _, err := s.GetCounter(ctx, idx)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), counter)

	require.NoError(t, s.IncrementCounter(ctx, idx))
	counter, _, err = s.GetCounter(ctx, idx)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MinInt32), counter)

	err = s.IncrementCounter(ctx, entity.AccountIndex{Name: "nobody"})
	assert.ErrorIs(t, err, entity.ErrNoSuchAccount)

	totp := mustAdd(t, s, entity.NewAccount{Name: "alice", Type: entity.OTPTypeTOTP, Counter: 3})
	err = s.IncrementCounter(ctx, totp)
	assert.ErrorIs(t, err, entity.ErrUnsupportedOperation)
	counter, _, err = s.GetCounter(ctx, totp)
	require.NoError(t, err)
	assert.Equal(t, int32(3), counter)
}

func TestStore_SwapID(t *testing.T) {
	ctx := context.Background()
	s, engine := openTestStore(t)

	a := mustAdd(t, s, entity.NewAccount{Name: "a"})
	b := mustAdd(t, s, entity.NewAccount{Name: "b"})
	c := mustAdd(t, s, entity.NewAccount{Name: "c"})

	require.NoError(t, s.SwapID(ctx, a, c))

	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.AccountIndex{c, b, a}, list)

	ids := lo.Map(engine.all(), func(r entity.AccountRecord, _ int) int64 { return r.ID })
	assert.Equal(t, []int64{1, 2, 3}, ids)

	err = s.SwapID(ctx, a, entity.AccountIndex{Name: "nobody"})
	assert.ErrorIs(t, err, entity.ErrSwapFailed)
	assert.ErrorIs(t, err, entity.ErrNoSuchAccount)

	require.NoError(t, s.SwapID(ctx, b, b))
}

func TestStore_SwapIDRollsBack(t *testing.T) {
	ctx := context.Background()
	s, engine := openTestStore(t)

	a := mustAdd(t, s, entity.NewAccount{Name: "a"})
	b := mustAdd(t, s, entity.NewAccount{Name: "b"})
	before := engine.all()

	engine.failUpdateAt = *engine.updates + 2
	err := s.SwapID(ctx, a, b)
	assert.ErrorIs(t, err, entity.ErrSwapFailed)
	assert.Equal(t, before, engine.all())
}

func TestStore_ListAccounts(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	first := mustAdd(t, s, entity.NewAccount{Name: "z"})
	second := mustAdd(t, s, entity.NewAccount{Name: "a", Issuer: "Acme"})

	list, err = s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.AccountIndex{first, second}, list)
}

func TestStore_Migrate(t *testing.T) {
	ctx := context.Background()
	engine := newLegacyMemEngine(
		entity.AccountRecord{Name: "Google:alice@gmail.com", Secret: "AAAAAAAA"},
		entity.AccountRecord{Name: "Dropbox:bob", Secret: "BBBBBBBB"},
		entity.AccountRecord{Name: "carol@gmail.com", Secret: "CCCCCCCC"},
		entity.AccountRecord{Name: "Yahoo:dave", Secret: "DDDDDDDD"},
	)

	s, err := Open(ctx, engine)
	require.NoError(t, err)

	cols, err := engine.Columns(ctx)
	require.NoError(t, err)
	assert.Subset(t, cols, []string{ColumnProvider, ColumnIssuer, ColumnOriginalName})

	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.AccountIndex{
		{Name: "Google:alice@gmail.com", Issuer: "Google"},
		{Name: "Dropbox:bob", Issuer: "Dropbox"},
		{Name: "carol@gmail.com"},
		{Name: "Yahoo:dave"},
	}, list)

	// a second open finds every column and leaves records alone
	mustAdd(t, s, entity.NewAccount{Name: "Google:erin"})
	_, err = Open(ctx, engine)
	require.NoError(t, err)

	exists, err := s.Exists(ctx, entity.AccountIndex{Name: "Google:erin"})
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_IsGoogleAccount(t *testing.T) {
	ctx := context.Background()
	engine := newLegacyMemEngine(
		entity.AccountRecord{Name: "old@gmail.com"},
		entity.AccountRecord{Name: "old@example.com"},
	)
	s, err := Open(ctx, engine)
	require.NoError(t, err)

	yes := true
	mustAdd(t, s, entity.NewAccount{Name: "flagged", GoogleHint: &yes})
	mustAdd(t, s, entity.NewAccount{Name: "new@gmail.com"})

	tests := []struct {
		name  string
		index entity.AccountIndex
		want  bool
	}{
		{name: "google issuer", index: entity.AccountIndex{Name: "x", Issuer: "google"}, want: true},
		{name: "other issuer", index: entity.AccountIndex{Name: "x@gmail.com", Issuer: "Yahoo"}, want: false},
		{name: "legacy account", index: entity.AccountIndex{Name: entity.LegacyGoogleAccountName}, want: true},
		{name: "provider flag", index: entity.AccountIndex{Name: "flagged"}, want: true},
		{name: "new record defaults to not google", index: entity.AccountIndex{Name: "new@gmail.com"}, want: false},
		{name: "legacy record with google domain", index: entity.AccountIndex{Name: "old@gmail.com"}, want: true},
		{name: "legacy record with other domain", index: entity.AccountIndex{Name: "old@example.com"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.IsGoogleAccount(ctx, tt.index)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_FindMatchingGoogleAccount(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		accounts []entity.NewAccount
		device   string
		want     *entity.AccountIndex
	}{
		{
			name:     "google issuer plain name",
			accounts: []entity.NewAccount{{Name: "alice@gmail.com"}, {Name: "alice@gmail.com", Issuer: "Google"}},
			device:   "alice@gmail.com",
			want:     &entity.AccountIndex{Name: "alice@gmail.com", Issuer: "Google"},
		},
		{
			name:     "google issuer prefixed name",
			accounts: []entity.NewAccount{{Name: "Google:alice@gmail.com", Issuer: "Google"}},
			device:   "alice@gmail.com",
			want:     &entity.AccountIndex{Name: "Google:alice@gmail.com", Issuer: "Google"},
		},
		{
			name:     "issuer-less fallback",
			accounts: []entity.NewAccount{{Name: "Google:alice@gmail.com"}},
			device:   "alice@gmail.com",
			want:     &entity.AccountIndex{Name: "Google:alice@gmail.com"},
		},
		{
			name:     "legacy corp account",
			accounts: []entity.NewAccount{{Name: entity.LegacyGoogleAccountName}},
			device:   "alice@google.com",
			want:     &entity.AccountIndex{Name: entity.LegacyGoogleAccountName},
		},
		{
			name:     "legacy account needs corp domain",
			accounts: []entity.NewAccount{{Name: entity.LegacyGoogleAccountName}},
			device:   "alice@gmail.com",
		},
		{
			name:   "no match",
			device: "alice@gmail.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := openTestStore(t)
			for _, in := range tt.accounts {
				mustAdd(t, s, in)
			}

			got, err := s.FindMatchingGoogleAccount(ctx, tt.device)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_FindMatchingGoogleAccountByOriginalName(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	idx := mustAdd(t, s, entity.NewAccount{Name: "alice@gmail.com", Issuer: "Google"})
	ok, err := s.Rename(ctx, idx, "Work")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.FindMatchingGoogleAccount(ctx, "alice@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, &entity.AccountIndex{Name: "Work", Issuer: "Google"}, got)
}

package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
	"github.com/shandysiswandi/authvault/internal/pkg/goerror"
	"github.com/shandysiswandi/authvault/internal/pkg/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPasscodes(t *testing.T, store *fakeStore, clk fixedClock, timeStep int64) *PasscodeService {
	t.Helper()
	counter, err := otp.NewCounter(timeStep, 0)
	require.NoError(t, err)
	return NewPasscodeService(PasscodeDependency{Store: store, Counter: counter, Clock: clk})
}

func TestPasscodeService_NextCode(t *testing.T) {
	ctx := context.Background()

	t.Run("TOTP", func(t *testing.T) {
		store := newFakeStore()
		store.put("alice", "", testSecret, entity.OTPTypeTOTP, 0)
		p := newTestPasscodes(t, store, at(10), otp.DefaultTimeStep)

		code, err := p.NextCode(ctx, entity.NewAccountIndex("alice", ""))
		require.NoError(t, err)
		assert.Equal(t, "724477", code)

		counter, _, _ := store.GetCounter(ctx, entity.NewAccountIndex("alice", ""))
		assert.Zero(t, counter)
	})

	t.Run("HOTPAdvances", func(t *testing.T) {
		store := newFakeStore()
		store.put("bob", "Example", testSecret, entity.OTPTypeHOTP, 0)
		p := newTestPasscodes(t, store, at(0), otp.DefaultTimeStep)
		idx := entity.NewAccountIndex("bob", "Example")

		code, err := p.NextCode(ctx, idx)
		require.NoError(t, err)
		assert.Equal(t, "683298", code)

		code, err = p.NextCode(ctx, idx)
		require.NoError(t, err)
		assert.Equal(t, "891123", code)

		counter, _, _ := store.GetCounter(ctx, idx)
		assert.Equal(t, int32(2), counter)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		p := newTestPasscodes(t, newFakeStore(), at(0), otp.DefaultTimeStep)
		_, err := p.NextCode(ctx, entity.NewAccountIndex("nobody", ""))
		assert.ErrorIs(t, err, entity.ErrNoSuchAccount)
	})

	t.Run("BadSecret", func(t *testing.T) {
		store := newFakeStore()
		store.put("broken", "", "!!!", entity.OTPTypeTOTP, 0)
		p := newTestPasscodes(t, store, at(0), otp.DefaultTimeStep)

		_, err := p.NextCode(ctx, entity.NewAccountIndex("broken", ""))
		assert.ErrorIs(t, err, otp.ErrCrypto)
	})
}

func TestPasscodeService_RespondToChallenge(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.put("alice", "", testSecret, entity.OTPTypeTOTP, 0)
	p := newTestPasscodes(t, store, at(123456789123456789), 1)
	idx := entity.NewAccountIndex("alice", "")

	challenge := "challenge"
	code, err := p.RespondToChallenge(ctx, idx, &challenge)
	require.NoError(t, err)
	assert.Equal(t, "050498157", code)
	assert.Len(t, code, otp.ChallengeLength)

	plain, err := p.RespondToChallenge(ctx, idx, nil)
	require.NoError(t, err)
	next, err := p.NextCode(ctx, idx)
	require.NoError(t, err)
	assert.Equal(t, next, plain)
	assert.Len(t, plain, otp.DefaultLength)
}

func TestPasscodeService_ConcurrentHOTP(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.put("bob", "", testSecret, entity.OTPTypeHOTP, 0)
	p := newTestPasscodes(t, store, at(0), otp.DefaultTimeStep)
	idx := entity.NewAccountIndex("bob", "")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[string]int{}
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := p.NextCode(ctx, idx)
			assert.NoError(t, err)
			mu.Lock()
			codes[code]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	counter, _, _ := store.GetCounter(ctx, idx)
	assert.Equal(t, int32(20), counter)
	assert.Equal(t, 1, codes["683298"])
	assert.Equal(t, 1, codes["891123"])
}

func TestUsecase_GenerateCode(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.put("alice", "", testSecret, entity.OTPTypeTOTP, 0)
	store.put("bob", "", testSecret, entity.OTPTypeHOTP, 0)
	uc := newTestUsecase(t, store, at(1000), "app:\n  name: test\n")

	out, err := uc.GenerateCode(ctx, GenerateCodeInput{Name: "alice"})
	require.NoError(t, err)
	assert.Equal(t, entity.OTPTypeTOTP, out.Type)
	assert.Equal(t, 20*time.Second, out.ExpiresIn)
	assert.Len(t, out.Code, otp.DefaultLength)

	out, err = uc.GenerateCode(ctx, GenerateCodeInput{Name: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "683298", out.Code)
	assert.Equal(t, int64(1), out.Counter)
	assert.Zero(t, out.ExpiresIn)

	_, err = uc.GenerateCode(ctx, GenerateCodeInput{Name: "nobody"})
	requireCode(t, err, goerror.CodeNotFound)

	store.put("broken", "", "!!!", entity.OTPTypeTOTP, 0)
	_, err = uc.GenerateCode(ctx, GenerateCodeInput{Name: "broken"})
	requireCode(t, err, goerror.CodeInternal)
}

func TestUsecase_VerifyCode(t *testing.T) {
	ctx := context.Background()

	t.Run("TOTPWindows", func(t *testing.T) {
		store := newFakeStore()
		store.put("alice", "", testSecret, entity.OTPTypeTOTP, 0)
		uc := newTestUsecase(t, store, at(1234*30), "app:\n  name: test\n")

		tests := []struct {
			code string
			want bool
		}{
			{code: "607007", want: true},
			{code: "972746", want: true},
			{code: "083501", want: true},
			{code: "628381", want: false},
			{code: "000000", want: false},
		}
		for _, tt := range tests {
			ok, err := uc.VerifyCode(ctx, VerifyCodeInput{Name: "alice", Code: tt.code})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok, tt.code)
		}

		wide := newTestUsecase(t, store, at(1234*30), "otp:\n  verify_past_window: 2\n")
		ok, err := wide.VerifyCode(ctx, VerifyCodeInput{Name: "alice", Code: "628381"})
		require.NoError(t, err)
		assert.True(t, ok)

		strict := newTestUsecase(t, store, at(1234*30), "otp:\n  verify_future_window: 0\n")
		ok, err = strict.VerifyCode(ctx, VerifyCodeInput{Name: "alice", Code: "972746"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("HOTPDoesNotAdvance", func(t *testing.T) {
		store := newFakeStore()
		store.put("bob", "", testSecret, entity.OTPTypeHOTP, 0)
		uc := newTestUsecase(t, store, at(0), "app:\n  name: test\n")

		ok, err := uc.VerifyCode(ctx, VerifyCodeInput{Name: "bob", Code: "683298"})
		require.NoError(t, err)
		assert.True(t, ok)

		counter, _, _ := store.GetCounter(ctx, entity.NewAccountIndex("bob", ""))
		assert.Zero(t, counter)
	})

	t.Run("Invalid", func(t *testing.T) {
		uc := newTestUsecase(t, newFakeStore(), at(0), "app:\n  name: test\n")

		_, err := uc.VerifyCode(ctx, VerifyCodeInput{Name: "alice", Code: "12ab56"})
		requireCode(t, err, goerror.CodeInvalidInput)

		_, err = uc.VerifyCode(ctx, VerifyCodeInput{Name: "alice", Code: "123456"})
		requireCode(t, err, goerror.CodeNotFound)
	})
}

type recordingListener struct {
	mu       sync.Mutex
	counters []int64
}

func (l *recordingListener) CounterChanged(v int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counters = append(l.counters, v)
}

func (*recordingListener) TimeRemaining(time.Duration) {}

func (l *recordingListener) seen() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int64(nil), l.counters...)
}

func TestUsecase_NewCountdown(t *testing.T) {
	uc := newTestUsecase(t, newFakeStore(), at(95), "countdown:\n  poll_interval_ms: 5\n")
	l := &recordingListener{}

	s, err := uc.NewCountdown(l)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	assert.Eventually(t, func() bool { return len(l.seen()) > 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(3), l.seen()[0])

	_, err = uc.NewCountdown(nil)
	assert.Error(t, err)
}

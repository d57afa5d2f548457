package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
	"github.com/shandysiswandi/authvault/internal/pkg/clock"
	"github.com/shandysiswandi/authvault/internal/pkg/lock"
	"github.com/shandysiswandi/authvault/internal/pkg/otp"
)

type passcodeStore interface {
	IncrementCounter(ctx context.Context, idx entity.AccountIndex) error
	GetSecret(ctx context.Context, idx entity.AccountIndex) (string, bool, error)
	GetCounter(ctx context.Context, idx entity.AccountIndex) (int32, bool, error)
	GetType(ctx context.Context, idx entity.AccountIndex) (entity.OTPType, bool, error)
}

// PasscodeService computes the passcodes of stored accounts.
//
// TOTP accounts use the counter value of the current time. HOTP accounts
// have their stored counter incremented first and use the new value, so
// every call advances the account; concurrent calls for one account are
// serialized through the Locker.
type PasscodeService struct {
	store       passcodeStore
	counter     otp.Counter
	clock       clock.Clocker
	locker      lock.Locker
	lockOptions func() []lock.Option
}

type PasscodeDependency struct {
	Store       passcodeStore
	Counter     otp.Counter
	Clock       clock.Clocker
	Locker      lock.Locker
	LockOptions func() []lock.Option
}

func NewPasscodeService(dep PasscodeDependency) *PasscodeService {
	p := &PasscodeService{
		store:       dep.Store,
		counter:     dep.Counter,
		clock:       dep.Clock,
		locker:      dep.Locker,
		lockOptions: dep.LockOptions,
	}
	if p.clock == nil {
		p.clock = clock.New()
	}
	if p.locker == nil {
		p.locker = lock.NewLocal()
	}
	if p.lockOptions == nil {
		p.lockOptions = func() []lock.Option { return nil }
	}
	return p
}

// passcode is a computed code with the state it was computed for.
type passcode struct {
	code  string
	typ   entity.OTPType
	state int64
	now   int64
}

// NextCode returns the next passcode of idx. It fails with
// entity.ErrNoSuchAccount for an unknown account and otp.ErrCrypto when the
// secret cannot be decoded or signed with.
func (p *PasscodeService) NextCode(ctx context.Context, idx entity.AccountIndex) (string, error) {
	pc, err := p.generate(ctx, idx, nil)
	if err != nil {
		return "", err
	}
	return pc.code, nil
}

// RespondToChallenge is NextCode when challenge is nil. Otherwise the
// UTF-8 bytes of challenge are signed after the state and the code has
// otp.ChallengeLength digits.
func (p *PasscodeService) RespondToChallenge(ctx context.Context, idx entity.AccountIndex, challenge *string) (string, error) {
	pc, err := p.generate(ctx, idx, challenge)
	if err != nil {
		return "", err
	}
	return pc.code, nil
}

func (p *PasscodeService) generate(ctx context.Context, idx entity.AccountIndex, challenge *string) (*passcode, error) {
	typ, ok, err := p.store.GetType(ctx, idx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, entity.ErrNoSuchAccount
	}

	secret, ok, err := p.store.GetSecret(ctx, idx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, entity.ErrNoSuchAccount
	}

	gen, err := newGenerator(secret, challenge != nil)
	if err != nil {
		return nil, err
	}

	var msg []byte
	if challenge != nil {
		msg = []byte(*challenge)
	}

	now := p.clock.Now().Unix()
	if typ != entity.OTPTypeHOTP {
		state := p.counter.ValueAt(now)
		code, err := gen.GenerateWithChallenge(uint64(state), msg)
		if err != nil {
			return nil, err
		}
		return &passcode{code: code, typ: typ, state: state, now: now}, nil
	}

	pc := &passcode{typ: typ, now: now}
	err = p.locker.Exec(ctx, hotpLockKey(idx), func(ctx context.Context) error {
		if err := p.store.IncrementCounter(ctx, idx); err != nil {
			return err
		}

		counter, ok, err := p.store.GetCounter(ctx, idx)
		if err != nil {
			return err
		}
		if !ok {
			return entity.ErrNoSuchAccount
		}

		pc.state = int64(counter)
		pc.code, err = gen.GenerateWithChallenge(uint64(pc.state), msg)
		return err
	}, p.lockOptions()...)
	if err != nil {
		return nil, err
	}

	return pc, nil
}

// newGenerator decodes secret into an HMAC-SHA1 generator. Secrets that do
// not decode are reported as otp.ErrCrypto.
func newGenerator(secret string, challenge bool) (*otp.Generator, error) {
	signer, err := otp.NewHMACSignerFromSecret(secret)
	if errors.Is(err, otp.ErrDecoding) {
		return nil, errors.Join(otp.ErrCrypto, err)
	}
	if err != nil {
		return nil, err
	}

	length := otp.DefaultLength
	if challenge {
		length = otp.ChallengeLength
	}

	return otp.NewGenerator(signer, length)
}

func hotpLockKey(idx entity.AccountIndex) string {
	return fmt.Sprintf("hotp:%q:%q", idx.Issuer, idx.Name)
}

package usecase

import (
	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
)

// AccountInput identifies one account.
type AccountInput struct {
	Name   string `validate:"required"`
	Issuer string
}

func (in AccountInput) index() entity.AccountIndex {
	return entity.NewAccountIndex(in.Name, in.Issuer)
}

func otpType(s string) entity.OTPType {
	typ, _ := entity.OTPTypeFromString(s)
	return typ
}

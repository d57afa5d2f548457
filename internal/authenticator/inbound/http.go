package inbound

import (
	"context"

	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
	"github.com/shandysiswandi/authvault/internal/authenticator/usecase"
	"github.com/shandysiswandi/authvault/internal/pkg/countdown"
	"github.com/shandysiswandi/authvault/internal/pkg/router"
)

type uc interface {
	ListAccounts(ctx context.Context) ([]entity.AccountInfo, error)
	AddAccount(ctx context.Context, in usecase.AddAccountInput) (*usecase.AddAccountOutput, error)
	AddFromURI(ctx context.Context, in usecase.AddFromURIInput) (*usecase.AddAccountOutput, error)
	AddWillOverwrite(ctx context.Context, in usecase.AccountInput) (bool, error)
	UpdateAccount(ctx context.Context, in usecase.UpdateAccountInput) error
	RenameAccount(ctx context.Context, in usecase.RenameAccountInput) error
	DeleteAccount(ctx context.Context, in usecase.AccountInput) error
	SwapAccounts(ctx context.Context, in usecase.SwapAccountsInput) error

	GenerateCode(ctx context.Context, in usecase.GenerateCodeInput) (*usecase.GenerateCodeOutput, error)
	VerifyCode(ctx context.Context, in usecase.VerifyCodeInput) (bool, error)

	FindGoogleAccount(ctx context.Context, in usecase.FindGoogleAccountInput) (*entity.AccountInfo, error)

	NewCountdown(l countdown.Listener) (*countdown.Scheduler, error)
	Health(ctx context.Context) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/health", end.Health)

	// Accounts
	r.GET("/api/v1/authenticator/accounts", end.ListAccounts)
	r.POST("/api/v1/authenticator/accounts", end.AddAccount)
	r.POST("/api/v1/authenticator/accounts/uri", end.AddFromURI)
	r.POST("/api/v1/authenticator/accounts/overwrite-check", end.AddWillOverwrite)
	r.PATCH("/api/v1/authenticator/accounts", end.UpdateAccount)
	r.PUT("/api/v1/authenticator/accounts/rename", end.RenameAccount)
	r.DELETE("/api/v1/authenticator/accounts", end.DeleteAccount)
	r.POST("/api/v1/authenticator/accounts/swap", end.SwapAccounts)

	// Passcodes
	r.POST("/api/v1/authenticator/codes", end.GenerateCode)
	r.POST("/api/v1/authenticator/codes/verify", end.VerifyCode)
	r.GETRaw("/api/v1/authenticator/countdown", &SSEEndpoint{uc: uc})

	// Google
	r.GET("/api/v1/authenticator/google-account", end.FindGoogleAccount)
}

package inbound

import (
	"net/http"

	"github.com/shandysiswandi/authvault/internal/authenticator/entity"
)

type AccountRequest struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
}

type AccountResponse struct {
	Name         string `json:"name"`
	Issuer       string `json:"issuer,omitempty"`
	DisplayName  string `json:"display_name"`
	StrippedName string `json:"stripped_name"`
	Type         string `json:"type"`
	IsGoogle     bool   `json:"is_google"`
}

func newAccountResponse(info entity.AccountInfo) AccountResponse {
	return AccountResponse{
		Name:         info.Index.Name,
		Issuer:       info.Index.Issuer,
		DisplayName:  info.DisplayName,
		StrippedName: info.StrippedName,
		Type:         info.Type.String(),
		IsGoogle:     info.IsGoogle,
	}
}

type ListAccountsResponse []AccountResponse

func (r ListAccountsResponse) Meta() map[string]any {
	return map[string]any{"total": len(r)}
}

type AddAccountRequest struct {
	Name    string `json:"name"`
	Issuer  string `json:"issuer,omitempty"`
	Secret  string `json:"secret"`
	Type    string `json:"type,omitempty"`
	Counter int32  `json:"counter,omitempty"`
	Google  *bool  `json:"google,omitempty"`
}

type AddFromURIRequest struct {
	URI    string `json:"uri"`
	Google *bool  `json:"google,omitempty"`
}

type AddAccountResponse struct {
	Name        string `json:"name"`
	Issuer      string `json:"issuer,omitempty"`
	DisplayName string `json:"display_name"`
	Overwritten bool   `json:"overwritten"`
}

func (AddAccountResponse) StatusCode() int {
	return http.StatusCreated
}

func (r AddAccountResponse) Message() string {
	if r.Overwritten {
		return "Account has been overwritten"
	}
	return "Account has been added"
}

type OverwriteCheckResponse struct {
	WillOverwrite bool `json:"will_overwrite"`
}

type UpdateAccountRequest struct {
	Name    string  `json:"name"`
	Issuer  string  `json:"issuer,omitempty"`
	Secret  *string `json:"secret,omitempty"`
	Type    *string `json:"type,omitempty"`
	Counter *int32  `json:"counter,omitempty"`
	Google  *bool   `json:"google,omitempty"`
}

type RenameAccountRequest struct {
	Name    string `json:"name"`
	Issuer  string `json:"issuer,omitempty"`
	NewName string `json:"new_name"`
}

type SwapAccountsRequest struct {
	First  AccountRequest `json:"first"`
	Second AccountRequest `json:"second"`
}

// MessageResponse carries only a message for mutations without data.
type MessageResponse struct {
	msg string
}

func (r MessageResponse) Message() string {
	return r.msg
}

type GenerateCodeRequest struct {
	Name      string  `json:"name"`
	Issuer    string  `json:"issuer,omitempty"`
	Challenge *string `json:"challenge,omitempty"`
}

type GenerateCodeResponse struct {
	Code             string `json:"code"`
	Type             string `json:"type"`
	Counter          int64  `json:"counter,omitempty"`
	ExpiresInSeconds int64  `json:"expires_in_seconds,omitempty"`
}

type VerifyCodeRequest struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Code   string `json:"code"`
}

type VerifyCodeResponse struct {
	Valid bool `json:"valid"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

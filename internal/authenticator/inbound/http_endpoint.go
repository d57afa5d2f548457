package inbound

import (
	"github.com/shandysiswandi/authvault/internal/authenticator/usecase"
	"github.com/shandysiswandi/authvault/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for account and passcode workflows.
type HTTPEndpoint struct {
	uc uc
}

// Health reports whether the account store is reachable.
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} router.successResponse{data=HealthResponse}
// @Failure 503 {object} router.errorResponse "Store unreachable"
// @Router /health [get]
func (h *HTTPEndpoint) Health(r *router.Request) (any, error) {
	if err := h.uc.Health(r.Context()); err != nil {
		return nil, err
	}

	return HealthResponse{Status: "ok"}, nil
}

// ListAccounts returns every stored account in list order.
// @Summary List accounts
// @Tags Authenticator, Accounts
// @Produce json
// @Param google query bool false "Only Google (true) or non-Google (false) accounts"
// @Success 200 {object} router.successResponse{data=[]AccountResponse}
// @Failure 400 {object} router.errorResponse "Invalid query"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/authenticator/accounts [get]
func (h *HTTPEndpoint) ListAccounts(r *router.Request) (any, error) {
	google, err := r.GetQueryBool("google")
	if err != nil {
		return nil, err
	}

	items, err := h.uc.ListAccounts(r.Context())
	if err != nil {
		return nil, err
	}

	resp := make(ListAccountsResponse, 0, len(items))
	for _, item := range items {
		if google != nil && item.IsGoogle != *google {
			continue
		}
		resp = append(resp, newAccountResponse(item))
	}

	return resp, nil
}

// AddAccount stores a new account, or overwrites one with the same issuer.
// @Summary Add account
// @Description Issuer-less duplicates are stored as "name(k)".
// @Tags Authenticator, Accounts
// @Accept json
// @Produce json
// @Param request body AddAccountRequest true "Account payload"
// @Success 201 {object} router.successResponse{data=AddAccountResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Too many accounts with the same name"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/authenticator/accounts [post]
func (h *HTTPEndpoint) AddAccount(r *router.Request) (any, error) {
	var req AddAccountRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.AddAccount(r.Context(), usecase.AddAccountInput{
		Name:    req.Name,
		Issuer:  req.Issuer,
		Secret:  req.Secret,
		Type:    req.Type,
		Counter: req.Counter,
		Google:  req.Google,
	})
	if err != nil {
		return nil, err
	}

	return addAccountResponse(resp), nil
}

// AddFromURI stores the account of an otpauth:// provisioning URI.
// @Summary Add account from URI
// @Tags Authenticator, Accounts
// @Accept json
// @Produce json
// @Param request body AddFromURIRequest true "Provisioning URI"
// @Success 201 {object} router.successResponse{data=AddAccountResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/authenticator/accounts/uri [post]
func (h *HTTPEndpoint) AddFromURI(r *router.Request) (any, error) {
	var req AddFromURIRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.AddFromURI(r.Context(), usecase.AddFromURIInput{
		URI:    req.URI,
		Google: req.Google,
	})
	if err != nil {
		return nil, err
	}

	return addAccountResponse(resp), nil
}

func addAccountResponse(out *usecase.AddAccountOutput) AddAccountResponse {
	return AddAccountResponse{
		Name:        out.Account.Name,
		Issuer:      out.Account.Issuer,
		DisplayName: out.Account.String(),
		Overwritten: out.Overwritten,
	}
}

// AddWillOverwrite reports whether adding the account would replace a stored one.
// @Summary Check overwrite
// @Tags Authenticator, Accounts
// @Accept json
// @Produce json
// @Param request body AccountRequest true "Account identity"
// @Success 200 {object} router.successResponse{data=OverwriteCheckResponse}
// @Router /api/v1/authenticator/accounts/overwrite-check [post]
func (h *HTTPEndpoint) AddWillOverwrite(r *router.Request) (any, error) {
	var req AccountRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	ok, err := h.uc.AddWillOverwrite(r.Context(), usecase.AccountInput{Name: req.Name, Issuer: req.Issuer})
	if err != nil {
		return nil, err
	}

	return OverwriteCheckResponse{WillOverwrite: ok}, nil
}

// UpdateAccount changes the secret, type, counter or provider of an account.
// @Summary Update account
// @Tags Authenticator, Accounts
// @Accept json
// @Produce json
// @Param request body UpdateAccountRequest true "Fields to change"
// @Success 200 {object} router.successResponse
// @Failure 404 {object} router.errorResponse "Account not found"
// @Router /api/v1/authenticator/accounts [patch]
func (h *HTTPEndpoint) UpdateAccount(r *router.Request) (any, error) {
	var req UpdateAccountRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.UpdateAccount(r.Context(), usecase.UpdateAccountInput{
		Name:    req.Name,
		Issuer:  req.Issuer,
		Secret:  req.Secret,
		Type:    req.Type,
		Counter: req.Counter,
		Google:  req.Google,
	})
	if err != nil {
		return nil, err
	}

	return MessageResponse{msg: "Account has been updated"}, nil
}

// RenameAccount changes the name of an account, keeping its issuer.
// @Summary Rename account
// @Tags Authenticator, Accounts
// @Accept json
// @Produce json
// @Param request body RenameAccountRequest true "Rename payload"
// @Success 200 {object} router.successResponse
// @Failure 403 {object} router.errorResponse "Account cannot be renamed"
// @Failure 404 {object} router.errorResponse "Account not found"
// @Failure 409 {object} router.errorResponse "Name already taken"
// @Router /api/v1/authenticator/accounts/rename [put]
func (h *HTTPEndpoint) RenameAccount(r *router.Request) (any, error) {
	var req RenameAccountRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.RenameAccount(r.Context(), usecase.RenameAccountInput{
		Name:    req.Name,
		Issuer:  req.Issuer,
		NewName: req.NewName,
	})
	if err != nil {
		return nil, err
	}

	return MessageResponse{msg: "Account has been renamed"}, nil
}

// DeleteAccount removes an account.
// @Summary Delete account
// @Tags Authenticator, Accounts
// @Produce json
// @Param name query string true "Account name"
// @Param issuer query string false "Account issuer"
// @Success 204
// @Failure 404 {object} router.errorResponse "Account not found"
// @Router /api/v1/authenticator/accounts [delete]
func (h *HTTPEndpoint) DeleteAccount(r *router.Request) (any, error) {
	err := h.uc.DeleteAccount(r.Context(), usecase.AccountInput{
		Name:   r.GetQuery("name"),
		Issuer: r.GetQuery("issuer"),
	})
	if err != nil {
		return nil, err
	}

	return nil, nil
}

// SwapAccounts exchanges the list positions of two accounts.
// @Summary Swap accounts
// @Tags Authenticator, Accounts
// @Accept json
// @Produce json
// @Param request body SwapAccountsRequest true "Accounts to swap"
// @Success 200 {object} router.successResponse
// @Failure 404 {object} router.errorResponse "Account not found"
// @Router /api/v1/authenticator/accounts/swap [post]
func (h *HTTPEndpoint) SwapAccounts(r *router.Request) (any, error) {
	var req SwapAccountsRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.SwapAccounts(r.Context(), usecase.SwapAccountsInput{
		First:  usecase.AccountInput{Name: req.First.Name, Issuer: req.First.Issuer},
		Second: usecase.AccountInput{Name: req.Second.Name, Issuer: req.Second.Issuer},
	})
	if err != nil {
		return nil, err
	}

	return MessageResponse{msg: "Accounts have been swapped"}, nil
}

// GenerateCode returns the next code of an account or its challenge response.
// @Summary Generate code
// @Description HOTP accounts advance their counter on every call.
// @Tags Authenticator, Codes
// @Accept json
// @Produce json
// @Param request body GenerateCodeRequest true "Account and optional challenge"
// @Success 200 {object} router.successResponse{data=GenerateCodeResponse}
// @Failure 404 {object} router.errorResponse "Account not found"
// @Failure 429 {object} router.errorResponse "Account is busy"
// @Router /api/v1/authenticator/codes [post]
func (h *HTTPEndpoint) GenerateCode(r *router.Request) (any, error) {
	var req GenerateCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.GenerateCode(r.Context(), usecase.GenerateCodeInput{
		Name:      req.Name,
		Issuer:    req.Issuer,
		Challenge: req.Challenge,
	})
	if err != nil {
		return nil, err
	}

	return GenerateCodeResponse{
		Code:             resp.Code,
		Type:             resp.Type.String(),
		Counter:          resp.Counter,
		ExpiresInSeconds: int64(resp.ExpiresIn.Seconds()),
	}, nil
}

// VerifyCode checks a code without advancing the account.
// @Summary Verify code
// @Tags Authenticator, Codes
// @Accept json
// @Produce json
// @Param request body VerifyCodeRequest true "Account and code"
// @Success 200 {object} router.successResponse{data=VerifyCodeResponse}
// @Failure 404 {object} router.errorResponse "Account not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/authenticator/codes/verify [post]
func (h *HTTPEndpoint) VerifyCode(r *router.Request) (any, error) {
	var req VerifyCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	valid, err := h.uc.VerifyCode(r.Context(), usecase.VerifyCodeInput{
		Name:   req.Name,
		Issuer: req.Issuer,
		Code:   req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyCodeResponse{Valid: valid}, nil
}

// FindGoogleAccount returns the stored account matching a device Google account.
// @Summary Find Google account
// @Tags Authenticator, Google
// @Produce json
// @Param device_account query string true "Device account email"
// @Success 200 {object} router.successResponse{data=AccountResponse}
// @Failure 404 {object} router.errorResponse "No matching account"
// @Router /api/v1/authenticator/google-account [get]
func (h *HTTPEndpoint) FindGoogleAccount(r *router.Request) (any, error) {
	info, err := h.uc.FindGoogleAccount(r.Context(), usecase.FindGoogleAccountInput{
		DeviceAccount: r.GetQuery("device_account"),
	})
	if err != nil {
		return nil, err
	}

	return newAccountResponse(*info), nil
}

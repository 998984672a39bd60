package handlers

import (
	"net/http"

	"github.com/linesmerrill/marketplace-api/api"
	"github.com/linesmerrill/marketplace-api/verification"
)

// Verification exposes email verification and password reset
type Verification struct {
	Service *verification.Service
}

type verifyCodeRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	UserID   string `json:"userId"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// SendCodeHandler emails a fresh verification code to the caller
func (v Verification) SendCodeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	code, err := v.Service.SendCode(ctx, actor.ID)
	if err != nil {
		writeError(w, err, "failed to send verification code")
		return
	}
	writeJSON(w, http.StatusOK, "verification code sent", map[string]interface{}{"expiresAt": code.ExpiresAt})
}

// ResendCodeHandler replaces the caller's code with a new one
func (v Verification) ResendCodeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	code, err := v.Service.Resend(ctx, actor.ID)
	if err != nil {
		writeError(w, err, "failed to resend verification code")
		return
	}
	writeJSON(w, http.StatusOK, "verification code sent", map[string]interface{}{"expiresAt": code.ExpiresAt})
}

// VerifyCodeHandler marks the user verified when the code matches
func (v Verification) VerifyCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := v.Service.VerifyCode(ctx, req.UserID, req.Code); err != nil {
		writeError(w, err, "failed to verify code")
		return
	}
	writeJSON(w, http.StatusOK, "email verified", nil)
}

// ForgotPasswordHandler always answers 200 so callers cannot probe for accounts
func (v Verification) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := v.Service.RequestPasswordReset(ctx, req.Email); err != nil {
		writeError(w, err, "failed to request password reset")
		return
	}
	writeJSON(w, http.StatusOK, "if the account exists a reset link has been sent", nil)
}

// ResetPasswordHandler sets a new password using a reset token
func (v Verification) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := v.Service.ResetPassword(ctx, req.UserID, req.Token, req.Password); err != nil {
		writeError(w, err, "failed to reset password")
		return
	}
	writeJSON(w, http.StatusOK, "password updated", nil)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/linesmerrill/marketplace-api/api"
	"github.com/linesmerrill/marketplace-api/config"
	"go.uber.org/zap"
)

// Auth issues admin tokens
type Auth struct {
	Middleware *api.MiddlewareDB
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLoginHandler exchanges admin credentials for a signed JWT
func (a Auth) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.Middleware.CheckCredentials(ctx, req.Email, req.Password)
	if err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, err)
		return
	}
	if !user.IsAdmin() {
		config.ErrorStatus("access denied", http.StatusForbidden, w, nil)
		return
	}

	token, err := a.Middleware.IssueAdminToken(user, time.Now())
	if err != nil {
		config.ErrorStatus("failed to issue admin token", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("admin logged in", "userId", user.ID.Hex())
	writeJSON(w, http.StatusOK, "success", map[string]interface{}{
		"token": token,
		"admin": map[string]interface{}{
			"id":    user.ID.Hex(),
			"email": user.Email,
			"roles": user.Roles,
		},
	})
}

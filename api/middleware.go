package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/linesmerrill/marketplace-api/databases"
	"github.com/linesmerrill/marketplace-api/models"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminTokenTTL is how long an admin JWT stays valid
const AdminTokenTTL = 12 * time.Hour

// UserTokenTTL is how long a bearer token issued by CreateToken stays cached
const UserTokenTTL = 24 * time.Hour

const adminScope = "admin"

// MiddlewareDB authenticates users against the users collection
type MiddlewareDB struct {
	DB        databases.UserDatabase
	JWTSecret []byte

	authenticator auth.Authenticator
}

// NewMiddleware returns a MiddlewareDB with go-guardian configured
func NewMiddleware(db databases.UserDatabase, jwtSecret string) *MiddlewareDB {
	m := &MiddlewareDB{DB: db, JWTSecret: []byte(jwtSecret)}
	m.SetupGoGuardian(context.Background())
	return m
}

// SetupGoGuardian sets up basic auth backed by the users collection plus
// cached bearer tokens
func (m *MiddlewareDB) SetupGoGuardian(ctx context.Context) {
	m.authenticator = auth.New()
	cache := store.NewFIFO(ctx, UserTokenTTL)
	basicStrategy := basic.New(m.ValidateUser, cache)
	tokenStrategy := bearer.New(bearer.NoOpAuthenticate, cache)

	m.authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	m.authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.Response{Message: message, Status: http.StatusUnauthorized})
}

func actorFromInfo(info auth.Info) models.Actor {
	return models.Actor{ID: info.ID(), Email: info.UserName(), Roles: info.Groups()}
}

// Middleware requires a valid basic auth header or bearer token and stores the
// caller on the request context
func (m *MiddlewareDB) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Debugw("unauthorized", "url", r.URL.String())
			writeUnauthorized(w, "unauthorized")
			return
		}
		zap.S().Debugw("user authenticated", "user", user.UserName())
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actorFromInfo(user))))
	})
}

// CreateToken exchanges basic credentials for a bearer token
func (m *MiddlewareDB) CreateToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "basic auth failed")
		return
	}

	token := uuid.New().String()
	info := auth.NewDefaultUser(actor.Email, actor.ID, actor.Roles, nil)
	tokenStrategy := m.authenticator.Strategy(bearer.CachedStrategyKey)
	if err := auth.Append(tokenStrategy, token, info, r); err != nil {
		zap.S().Errorw("failed to cache token", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(models.Response{Message: "failed to create token", Status: http.StatusInternalServerError})
		return
	}

	_ = json.NewEncoder(w).Encode(models.Response{
		Data: map[string]string{
			"token": token,
			"id":    actor.ID,
		},
		Message: "token created",
		Status:  http.StatusOK,
	})
}

// ValidateUser checks email and password against the stored bcrypt hash
func (m *MiddlewareDB) ValidateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	user, err := m.CheckCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(user.Email, user.ID.Hex(), user.Roles, nil), nil
}

// CheckCredentials returns the user owning email when password matches
func (m *MiddlewareDB) CheckCredentials(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("invalid credentials")
	}
	user, err := m.DB.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return user, nil
}

// RevokeToken revokes the bearer token on the request
func (m *MiddlewareDB) RevokeToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || token == r.Header.Get("Authorization") {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(models.Response{Message: "bearer token required", Status: http.StatusBadRequest})
		return
	}

	tokenStrategy := m.authenticator.Strategy(bearer.CachedStrategyKey)
	if err := auth.Revoke(tokenStrategy, token, r); err != nil {
		zap.S().Errorw("failed to revoke token", "error", err)
	}
	_ = json.NewEncoder(w).Encode(models.Response{Message: "token revoked", Status: http.StatusOK})
}

type adminClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	Scope string   `json:"scope"`
	jwt.RegisteredClaims
}

// IssueAdminToken signs an admin JWT for user
func (m *MiddlewareDB) IssueAdminToken(user *models.User, now time.Time) (string, error) {
	if len(m.JWTSecret) == 0 {
		return "", errors.New("JWT_SECRET is not configured")
	}
	claims := adminClaims{
		Email: user.Email,
		Roles: user.Roles,
		Scope: adminScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AdminTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.JWTSecret)
}

// ParseAdminToken validates an admin JWT and returns its caller
func (m *MiddlewareDB) ParseAdminToken(raw string) (models.Actor, error) {
	if len(m.JWTSecret) == 0 {
		return models.Actor{}, errors.New("JWT_SECRET is not configured")
	}
	claims := &adminClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Actor{}, err
	}
	actor := models.Actor{ID: claims.Subject, Email: claims.Email, Roles: claims.Roles}
	if claims.Scope != adminScope || !actor.IsAdmin() {
		return models.Actor{}, errors.New("token does not carry admin scope")
	}
	return actor, nil
}

// AdminMiddleware requires an admin JWT in the Authorization header
func (m *MiddlewareDB) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			writeUnauthorized(w, "admin token required")
			return
		}
		actor, err := m.ParseAdminToken(raw)
		if err != nil {
			zap.S().Debugw("rejected admin token", "url", r.URL.String(), "error", err)
			writeUnauthorized(w, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

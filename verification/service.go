package verification

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/linesmerrill/marketplace-api/cache"
	"github.com/linesmerrill/marketplace-api/config"
	"github.com/linesmerrill/marketplace-api/databases"
	"github.com/linesmerrill/marketplace-api/mailer"
	"github.com/linesmerrill/marketplace-api/metrics"
	"github.com/linesmerrill/marketplace-api/models"
	templates "github.com/linesmerrill/marketplace-api/templates/html"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted on reset
const MinPasswordLength = 8

// Service issues and checks email verification codes and password reset tokens
type Service struct {
	Users  databases.UserDatabase
	Codes  databases.VerificationCodeDatabase
	Resets databases.PasswordResetDatabase
	Mailer mailer.Mailer

	sendLimiter   *RateLimiter
	verifyLimiter *RateLimiter
	resetLimiter  *RateLimiter

	codeExpiry  time.Duration
	resetExpiry time.Duration
	webBaseURL  string

	now   func() time.Time
	spawn func(func())
}

// NewService wires a Service. All three limiters share counter but use their
// own key prefix.
func NewService(users databases.UserDatabase, codes databases.VerificationCodeDatabase, resets databases.PasswordResetDatabase, m mailer.Mailer, counter cache.Counter, conf *config.Config) *Service {
	return &Service{
		Users:         users,
		Codes:         codes,
		Resets:        resets,
		Mailer:        m,
		sendLimiter:   NewRateLimiter(counter, "send", conf.AttemptWindow, conf.MaxAttempts),
		verifyLimiter: NewRateLimiter(counter, "verify", conf.AttemptWindow, conf.MaxAttempts),
		resetLimiter:  NewRateLimiter(counter, "reset", conf.AttemptWindow, conf.MaxAttempts),
		codeExpiry:    conf.CodeExpiry,
		resetExpiry:   conf.PasswordResetExpiry,
		webBaseURL:    conf.PublicWebBaseURL,
		now:           time.Now,
		spawn:         func(f func()) { go f() },
	}
}

// parseUserID rejects ids that cannot name a user, so they never reach the
// attempt counter
func parseUserID(userID string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(userID))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid user id", models.ErrInvalidInput)
	}
	return oid, nil
}

func (s *Service) findUser(ctx context.Context, userID string) (*models.User, error) {
	oid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.FindOne(ctx, bson.M{"_id": oid})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) gate(ctx context.Context, l *RateLimiter, flow, userID string) error {
	allowed, count, err := l.CheckAndIncrement(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check attempt budget: %w", err)
	}
	if !allowed {
		metrics.VerificationAttempts.WithLabelValues(flow, "limited").Inc()
		zap.S().Warnw("attempt budget exhausted", "flow", flow, "userId", userID, "count", count)
		return fmt.Errorf("%w, please try again later or request a new code", models.ErrTooManyAttempts)
	}
	return nil
}

// SendCode replaces any outstanding code for the user with a fresh one and
// emails it
func (s *Service) SendCode(ctx context.Context, userID string) (*models.VerificationCode, error) {
	if err := s.gate(ctx, s.sendLimiter, "send", userID); err != nil {
		return nil, err
	}
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.EmailVerified {
		return nil, fmt.Errorf("%w: email already verified", models.ErrInvalidInput)
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	if _, err := s.Codes.DeleteMany(ctx, bson.M{"userId": userID}); err != nil {
		return nil, fmt.Errorf("failed to clear previous codes: %w", err)
	}
	now := s.now()
	vc := models.VerificationCode{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Code:      code,
		ExpiresAt: now.Add(s.codeExpiry),
		CreatedAt: now,
	}
	if err := s.Codes.InsertOne(ctx, vc); err != nil {
		return nil, fmt.Errorf("failed to store verification code: %w", err)
	}

	minutes := int(s.codeExpiry.Minutes())
	s.sendEmail(mailer.Message{
		ToEmail:   u.Email,
		ToName:    u.Username,
		Subject:   "Your verification code",
		PlainText: fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes),
		HTML:      templates.RenderVerificationCodeEmail(code, minutes),
	})
	metrics.VerificationAttempts.WithLabelValues("send", "sent").Inc()
	return &vc, nil
}

// Resend is SendCode under the name the resend route uses
func (s *Service) Resend(ctx context.Context, userID string) (*models.VerificationCode, error) {
	return s.SendCode(ctx, userID)
}

// VerifyCode checks code against the user's outstanding code. Every call
// counts against the attempt budget, including the one that succeeds.
func (s *Service) VerifyCode(ctx context.Context, userID, code string) error {
	oid, err := parseUserID(userID)
	if err != nil {
		return err
	}
	userID = oid.Hex()
	if err := s.gate(ctx, s.verifyLimiter, "verify", userID); err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: code is required", models.ErrInvalidInput)
	}

	vc, err := s.Codes.FindOne(ctx, bson.M{"userId": userID})
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.VerificationAttempts.WithLabelValues("verify", "missing").Inc()
		return fmt.Errorf("%w: no verification code found, request a new code", models.ErrInvalidInput)
	}
	if err != nil {
		return err
	}
	if !s.now().Before(vc.ExpiresAt) {
		if _, err := s.Codes.DeleteOne(ctx, bson.M{"_id": vc.ID}); err != nil {
			zap.S().Errorw("failed to delete expired code", "userId", userID, "error", err)
		}
		metrics.VerificationAttempts.WithLabelValues("verify", "expired").Inc()
		return fmt.Errorf("%w: verification code expired, request a new code", models.ErrInvalidInput)
	}
	if subtle.ConstantTimeCompare([]byte(vc.Code), []byte(code)) != 1 {
		metrics.VerificationAttempts.WithLabelValues("verify", "mismatch").Inc()
		return fmt.Errorf("%w: incorrect verification code", models.ErrInvalidInput)
	}

	if _, err := s.Codes.DeleteOne(ctx, bson.M{"_id": vc.ID}); err != nil {
		return fmt.Errorf("failed to consume verification code: %w", err)
	}
	now := s.now()
	if _, err := s.Users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"emailVerified":   true,
		"emailVerifiedAt": now,
	}}); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}

	if err := s.verifyLimiter.Reset(ctx, userID); err != nil {
		zap.S().Errorw("failed to reset verify attempts", "userId", userID, "error", err)
	}
	if err := s.sendLimiter.Reset(ctx, userID); err != nil {
		zap.S().Errorw("failed to reset send attempts", "userId", userID, "error", err)
	}
	metrics.VerificationAttempts.WithLabelValues("verify", "success").Inc()
	return nil
}

// RequestPasswordReset emails a reset link to the account owning email. Unknown
// addresses succeed silently so the endpoint cannot be used to probe accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email is required", models.ErrInvalidInput)
	}
	u, err := s.Users.FindOne(ctx, bson.M{"email": email})
	if errors.Is(err, mongo.ErrNoDocuments) {
		zap.S().Infow("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := generateToken()
	if err != nil {
		return err
	}
	userID := u.ID.Hex()
	if _, err := s.Resets.DeleteMany(ctx, bson.M{"userId": userID}); err != nil {
		return fmt.Errorf("failed to clear previous resets: %w", err)
	}
	now := s.now()
	if err := s.Resets.InsertOne(ctx, models.PasswordReset{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: now.Add(s.resetExpiry),
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("failed to store password reset: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?userId=%s&token=%s",
		strings.TrimRight(s.webBaseURL, "/"), url.QueryEscape(userID), url.QueryEscape(token))
	minutes := int(s.resetExpiry.Minutes())
	s.sendEmail(mailer.Message{
		ToEmail:   u.Email,
		ToName:    u.Username,
		Subject:   "Reset your password",
		PlainText: fmt.Sprintf("Reset your password here: %s (expires in %d minutes)", link, minutes),
		HTML:      templates.RenderPasswordResetEmail(link, minutes),
	})
	return nil
}

// ResetPassword redeems a reset token and sets a new password. Token guesses are
// bounded by the same attempt budget as verification codes.
func (s *Service) ResetPassword(ctx context.Context, userID, token, newPassword string) error {
	oid, err := parseUserID(userID)
	if err != nil {
		return err
	}
	userID = oid.Hex()
	if err := s.gate(ctx, s.resetLimiter, "reset", userID); err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("%w: token is required", models.ErrInvalidInput)
	}
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", models.ErrInvalidInput, MinPasswordLength)
	}

	pr, err := s.Resets.FindOne(ctx, bson.M{"userId": userID})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: invalid or expired reset token", models.ErrInvalidInput)
	}
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(pr.TokenHash), []byte(hashToken(token))) != 1 {
		metrics.VerificationAttempts.WithLabelValues("reset", "mismatch").Inc()
		return fmt.Errorf("%w: invalid or expired reset token", models.ErrInvalidInput)
	}
	if !s.now().Before(pr.ExpiresAt) {
		if _, err := s.Resets.DeleteOne(ctx, bson.M{"_id": pr.ID}); err != nil {
			zap.S().Errorw("failed to delete expired reset", "userId", userID, "error", err)
		}
		return fmt.Errorf("%w: invalid or expired reset token", models.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if _, err := s.Resets.DeleteOne(ctx, bson.M{"_id": pr.ID}); err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if _, err := s.Users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"password": string(hash)}}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.resetLimiter.Reset(ctx, userID); err != nil {
		zap.S().Errorw("failed to reset password attempts", "userId", userID, "error", err)
	}
	metrics.VerificationAttempts.WithLabelValues("reset", "success").Inc()
	return nil
}

// PurgeExpired removes expired codes and reset tokens
func (s *Service) PurgeExpired(ctx context.Context) (int64, int64, error) {
	filter := bson.M{"expiresAt": bson.M{"$lte": s.now()}}
	codes, err := s.Codes.DeleteMany(ctx, filter)
	if err != nil {
		return 0, 0, err
	}
	resets, err := s.Resets.DeleteMany(ctx, filter)
	if err != nil {
		return codes, 0, err
	}
	return codes, resets, nil
}

func (s *Service) sendEmail(msg mailer.Message) {
	s.spawn(func() {
		defer func() {
			if r := recover(); r != nil {
				zap.S().Errorw("panic in verification email goroutine", "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Mailer.Send(ctx, msg); err != nil {
			metrics.SideEffectFailures.WithLabelValues("verificationEmail").Inc()
			zap.S().Errorw("failed to send verification email", "to", msg.ToEmail, "error", err)
		}
	})
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

package config

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL               string
	DatabaseName      string
	BaseURL           string
	Port              string
	Env               string
	RedisAddr         string
	JWTSecret         string
	SendGridAPIKey    string
	MailFrom          string
	AdminNotifyEmails []string
	CloudinaryURL     string
	PublicWebBaseURL  string
	RequestTimeout    time.Duration

	// verification flow
	CodeExpiry          time.Duration
	AttemptWindow       time.Duration
	MaxAttempts         int
	PasswordResetExpiry time.Duration
}

// New sets up all config related services
func New() *Config {
	env := getenv("ENV", "production")

	//setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:                 os.Getenv("DB_URI"),
		DatabaseName:        os.Getenv("DB_NAME"),
		BaseURL:             os.Getenv("BASE_URL"),
		Port:                getenv("PORT", "8080"),
		Env:                 env,
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		SendGridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		MailFrom:            getenv("MAIL_FROM", "no-reply@marketplace.local"),
		AdminNotifyEmails:   splitList(os.Getenv("ADMIN_NOTIFY_EMAILS")),
		CloudinaryURL:       os.Getenv("CLOUDINARY_URL"),
		PublicWebBaseURL:    os.Getenv("PUBLIC_WEB_BASE_URL"),
		RequestTimeout:      envDuration("REQUEST_TIMEOUT_SECONDS", 30*time.Second, time.Second),
		CodeExpiry:          envDuration("VERIFICATION_CODE_EXPIRY_MINUTES", 15*time.Minute, time.Minute),
		AttemptWindow:       envDuration("VERIFICATION_WINDOW_MINUTES", 30*time.Minute, time.Minute),
		MaxAttempts:         envInt("VERIFICATION_MAX_ATTEMPTS", 5),
		PasswordResetExpiry: envDuration("PASSWORD_RESET_EXPIRY_MINUTES", time.Hour, time.Minute),
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With("error", err).Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_ = json.NewEncoder(w).Encode(struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	}{Message: message, Status: httpStatusCode})
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return def
}

// envDuration reads a positive integer env value counted in unit
func envDuration(key string, def time.Duration, unit time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return time.Duration(i) * unit
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, "test", conf.DatabaseName)
}

func TestNewVerificationDefaults(t *testing.T) {
	os.Unsetenv("VERIFICATION_CODE_EXPIRY_MINUTES")
	os.Unsetenv("VERIFICATION_WINDOW_MINUTES")
	os.Unsetenv("VERIFICATION_MAX_ATTEMPTS")
	conf := New()

	assert.Equal(t, 15*time.Minute, conf.CodeExpiry)
	assert.Equal(t, 30*time.Minute, conf.AttemptWindow)
	assert.Equal(t, 5, conf.MaxAttempts)
	assert.Equal(t, time.Hour, conf.PasswordResetExpiry)
}

func TestNewVerificationOverrides(t *testing.T) {
	t.Setenv("VERIFICATION_WINDOW_MINUTES", "10")
	t.Setenv("VERIFICATION_MAX_ATTEMPTS", "3")
	t.Setenv("ADMIN_NOTIFY_EMAILS", "a@example.com, b@example.com,")
	conf := New()

	assert.Equal(t, 10*time.Minute, conf.AttemptWindow)
	assert.Equal(t, 3, conf.MaxAttempts)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, conf.AdminNotifyEmails)
}

func TestNewIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("VERIFICATION_MAX_ATTEMPTS", "zero")
	conf := New()

	assert.Equal(t, 5, conf.MaxAttempts)
}

func TestErrorStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorStatus("error it borked", http.StatusBadRequest, rr, errors.New("bad request"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message": "error it borked", "status": 400}`, rr.Body.String())
}

func TestSetLoggerSetsDevelopmentLogger(t *testing.T) {
	l, err := setLogger("development")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(1))
}

func TestSetLoggerSetsProductionLogger(t *testing.T) {
	l, err := setLogger("production")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(2))
}

func TestSetLoggerSetsLocalLogger(t *testing.T) {
	l, err := setLogger("local")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(0))
}

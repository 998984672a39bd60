package verification

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/linesmerrill/marketplace-api/cache"
	"github.com/linesmerrill/marketplace-api/config"
	"github.com/linesmerrill/marketplace-api/databases/mocks"
	"github.com/linesmerrill/marketplace-api/mailer"
	mailmocks "github.com/linesmerrill/marketplace-api/mailer/mocks"
	"github.com/linesmerrill/marketplace-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	svc    *Service
	users  *mocks.UserDatabase
	codes  *mocks.VerificationCodeDatabase
	resets *mocks.PasswordResetDatabase
	mail   *mailmocks.Mailer
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return newFixtureWithCounter(cache.NewMemory(ctx, time.Hour))
}

func newFixtureWithCounter(counter cache.Counter) *fixture {
	f := &fixture{
		users:  &mocks.UserDatabase{},
		codes:  &mocks.VerificationCodeDatabase{},
		resets: &mocks.PasswordResetDatabase{},
		mail:   &mailmocks.Mailer{},
		now:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	conf := &config.Config{
		CodeExpiry:          15 * time.Minute,
		AttemptWindow:       30 * time.Minute,
		MaxAttempts:         5,
		PasswordResetExpiry: time.Hour,
		PublicWebBaseURL:    "https://market.example",
	}
	f.svc = NewService(f.users, f.codes, f.resets, f.mail, counter, conf)
	f.svc.now = func() time.Time { return f.now }
	f.svc.spawn = func(fn func()) { fn() }
	return f
}

func TestSendCode_StoresCodeAndEmails(t *testing.T) {
	f := newFixture(t)
	uid := primitive.NewObjectID()
	user := &models.User{ID: uid, Email: "ann@example.com", Username: "ann"}

	f.users.On("FindOne", mock.Anything, bson.M{"_id": uid}).Return(user, nil)
	f.codes.On("DeleteMany", mock.Anything, bson.M{"userId": uid.Hex()}).Return(int64(1), nil)
	var stored models.VerificationCode
	f.codes.On("InsertOne", mock.Anything, mock.AnythingOfType("models.VerificationCode")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(models.VerificationCode) }).
		Return(nil)
	f.mail.On("Send", mock.Anything, mock.MatchedBy(func(m mailer.Message) bool {
		return m.ToEmail == "ann@example.com"
	})).Return(nil)

	vc, err := f.svc.SendCode(context.Background(), uid.Hex())
	require.NoError(t, err)
	assert.Len(t, vc.Code, 6)
	assert.Equal(t, stored.Code, vc.Code)
	assert.Equal(t, f.now.Add(15*time.Minute), vc.ExpiresAt)
	f.mail.AssertExpectations(t)
}

func TestSendCode_AlreadyVerified(t *testing.T) {
	f := newFixture(t)
	uid := primitive.NewObjectID()
	f.users.On("FindOne", mock.Anything, bson.M{"_id": uid}).Return(&models.User{ID: uid, EmailVerified: true}, nil)

	_, err := f.svc.SendCode(context.Background(), uid.Hex())
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSendCode_UnknownUser(t *testing.T) {
	f := newFixture(t)
	uid := primitive.NewObjectID()
	f.users.On("FindOne", mock.Anything, bson.M{"_id": uid}).Return(nil, mongo.ErrNoDocuments)

	_, err := f.svc.Resend(context.Background(), uid.Hex())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSendCode_EmailFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	uid := primitive.NewObjectID()
	f.users.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{ID: uid, Email: "a@b.c"}, nil)
	f.codes.On("DeleteMany", mock.Anything, mock.Anything).Return(int64(0), nil)
	f.codes.On("InsertOne", mock.Anything, mock.Anything).Return(nil)
	f.mail.On("Send", mock.Anything, mock.Anything).Return(errors.New("sendgrid down"))

	_, err := f.svc.SendCode(context.Background(), uid.Hex())
	assert.NoError(t, err)
}

func TestVerifyCode_SixthAttemptFailsEvenWithCorrectCode(t *testing.T) {
	f := newFixture(t)
	uid := primitive.NewObjectID().Hex()
	vc := &models.VerificationCode{ID: primitive.NewObjectID(), UserID: uid, Code: "123456", ExpiresAt: f.now.Add(time.Minute)}
	f.codes.On("FindOne", mock.Anything, bson.M{"userId": uid}).Return(vc, nil)

	for i := 0; i < 5; i++ {
		err := f.svc.VerifyCode(context.Background(), uid, "000000")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	}

	err := f.svc.VerifyCode(context.Background(), uid, "123456")
	assert.ErrorIs(t, err, models.ErrTooManyAttempts)
	assert.Contains(t, err.Error(), "try again later or request a new code")
	f.codes.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCode_SuccessResetsBudget(t *testing.T) {
	f := newFixture(t)
	oid := primitive.NewObjectID()
	uid := oid.Hex()
	vc := &models.VerificationCode{ID: primitive.NewObjectID(), UserID: uid, Code: "654321", ExpiresAt: f.now.Add(time.Minute)}
	f.codes.On("FindOne", mock.Anything, bson.M{"userId": uid}).Return(vc, nil)
	f.codes.On("DeleteOne", mock.Anything, bson.M{"_id": vc.ID}).Return(int64(1), nil)
	f.users.On("UpdateOne", mock.Anything, bson.M{"_id": oid}, mock.Anything).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	for i := 0; i < 4; i++ {
		assert.ErrorIs(t, f.svc.VerifyCode(context.Background(), uid, "111111"), models.ErrInvalidInput)
	}
	require.NoError(t, f.svc.VerifyCode(context.Background(), uid, "654321"))

	// a fresh budget means five more attempts before the limiter trips
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, f.svc.VerifyCode(context.Background(), uid, "111111"), models.ErrInvalidInput)
	}
	assert.ErrorIs(t, f.svc.VerifyCode(context.Background(), uid, "111111"), models.ErrTooManyAttempts)
}

func TestVerifyCode_ExpiredCode(t *testing.T) {
	f := newFixture(t)
	uid := primitive.NewObjectID().Hex()
	vc := &models.VerificationCode{ID: primitive.NewObjectID(), UserID: uid, Code: "123456", ExpiresAt: f.now.Add(-time.Second)}
	f.codes.On("FindOne", mock.Anything, mock.Anything).Return(vc, nil)
	f.codes.On("DeleteOne", mock.Anything, bson.M{"_id": vc.ID}).Return(int64(1), nil)

	err := f.svc.VerifyCode(context.Background(), uid, "123456")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Contains(t, err.Error(), "expired")
}

func TestVerifyCode_NoCode(t *testing.T) {
	f := newFixture(t)
	f.codes.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	err := f.svc.VerifyCode(context.Background(), primitive.NewObjectID().Hex(), "123456")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)
	f.users.On("FindOne", mock.Anything, bson.M{"email": "nobody@example.com"}).Return(nil, mongo.ErrNoDocuments)

	assert.NoError(t, f.svc.RequestPasswordReset(context.Background(), " Nobody@Example.com "))
	f.resets.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestPasswordReset_RoundTrip(t *testing.T) {
	f := newFixture(t)
	oid := primitive.NewObjectID()
	uid := oid.Hex()
	f.users.On("FindOne", mock.Anything, bson.M{"email": "ann@example.com"}).Return(&models.User{ID: oid, Email: "ann@example.com"}, nil)
	f.resets.On("DeleteMany", mock.Anything, bson.M{"userId": uid}).Return(int64(0), nil)
	var stored models.PasswordReset
	f.resets.On("InsertOne", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(models.PasswordReset) }).
		Return(nil)
	var link string
	f.mail.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { link = args.Get(1).(mailer.Message).PlainText }).
		Return(nil)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "ann@example.com"))
	assert.Equal(t, f.now.Add(time.Hour), stored.ExpiresAt)
	assert.Contains(t, link, "https://market.example/reset-password?userId="+uid)

	m := regexp.MustCompile(`token=([0-9a-f]{64})`).FindStringSubmatch(link)
	require.Len(t, m, 2)
	token := m[1]
	assert.Equal(t, stored.TokenHash, hashToken(token))

	f.resets.On("FindOne", mock.Anything, bson.M{"userId": uid}).Return(&stored, nil)
	f.resets.On("DeleteOne", mock.Anything, bson.M{"_id": stored.ID}).Return(int64(1), nil)
	var newHash string
	f.users.On("UpdateOne", mock.Anything, bson.M{"_id": oid}, mock.Anything).
		Run(func(args mock.Arguments) {
			newHash = args.Get(2).(bson.M)["$set"].(bson.M)["password"].(string)
		}).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	require.NoError(t, f.svc.ResetPassword(context.Background(), uid, token, "correct horse"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("correct horse")))
}

func TestResetPassword_WrongTokenIsRateLimited(t *testing.T) {
	f := newFixture(t)
	uid := primitive.NewObjectID().Hex()
	pr := &models.PasswordReset{ID: primitive.NewObjectID(), UserID: uid, TokenHash: hashToken("right"), ExpiresAt: f.now.Add(time.Hour)}
	f.resets.On("FindOne", mock.Anything, bson.M{"userId": uid}).Return(pr, nil)

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, f.svc.ResetPassword(context.Background(), uid, "wrong", "longenough"), models.ErrInvalidInput)
	}
	assert.ErrorIs(t, f.svc.ResetPassword(context.Background(), uid, "right", "longenough"), models.ErrTooManyAttempts)
}

func TestResetPassword_ShortPassword(t *testing.T) {
	f := newFixture(t)
	err := f.svc.ResetPassword(context.Background(), primitive.NewObjectID().Hex(), "tok", "short")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestPurgeExpired(t *testing.T) {
	f := newFixture(t)
	filter := bson.M{"expiresAt": bson.M{"$lte": f.now}}
	f.codes.On("DeleteMany", mock.Anything, filter).Return(int64(3), nil)
	f.resets.On("DeleteMany", mock.Anything, filter).Return(int64(1), nil)

	codes, resets, err := f.svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), codes)
	assert.Equal(t, int64(1), resets)
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		c, err := generateCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, c)
	}
}

// countingCounter records every key it is asked to increment
type countingCounter struct {
	cache.Counter
	keys []string
}

func (c *countingCounter) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	c.keys = append(c.keys, key)
	return c.Counter.Increment(ctx, key, ttl)
}

func TestMalformedUserIDNeverReachesCounter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	counter := &countingCounter{Counter: cache.NewMemory(ctx, time.Hour)}
	f := newFixtureWithCounter(counter)

	assert.ErrorIs(t, f.svc.VerifyCode(context.Background(), "not-a-user", "123456"), models.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.ResetPassword(context.Background(), "zzz", "tok", "longenough"), models.ErrInvalidInput)
	assert.Empty(t, counter.keys)
	f.codes.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
	f.resets.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestVerifyCode_UppercaseIDSharesBudget(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	counter := &countingCounter{Counter: cache.NewMemory(ctx, time.Hour)}
	f := newFixtureWithCounter(counter)
	uid := primitive.NewObjectID().Hex()
	f.codes.On("FindOne", mock.Anything, bson.M{"userId": uid}).Return(nil, mongo.ErrNoDocuments)

	_ = f.svc.VerifyCode(context.Background(), uid, "111111")
	_ = f.svc.VerifyCode(context.Background(), strings.ToUpper(uid), "111111")
	assert.Equal(t, []string{"verify:" + uid, "verify:" + uid}, counter.keys)
}

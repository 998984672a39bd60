package databases

// go generate: mockery --name PasswordResetDatabase

import (
	"context"

	"github.com/linesmerrill/marketplace-api/models"
)

const passwordResetName = "passwordResets"

// PasswordResetDatabase contains the methods to use with the password reset database
type PasswordResetDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.PasswordReset, error)
	InsertOne(ctx context.Context, reset models.PasswordReset) error
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
}

type passwordResetDatabase struct {
	db DatabaseHelper
}

// NewPasswordResetDatabase initializes a new instance of password reset database with the provided db connection
func NewPasswordResetDatabase(db DatabaseHelper) PasswordResetDatabase {
	return &passwordResetDatabase{
		db: db,
	}
}

func (pr *passwordResetDatabase) FindOne(ctx context.Context, filter interface{}) (*models.PasswordReset, error) {
	reset := &models.PasswordReset{}
	err := pr.db.Collection(passwordResetName).FindOne(ctx, filter).Decode(&reset)
	if err != nil {
		return nil, err
	}
	return reset, nil
}

func (pr *passwordResetDatabase) InsertOne(ctx context.Context, reset models.PasswordReset) error {
	_, err := pr.db.Collection(passwordResetName).InsertOne(ctx, reset)
	return err
}

func (pr *passwordResetDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return pr.db.Collection(passwordResetName).DeleteOne(ctx, filter)
}

func (pr *passwordResetDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return pr.db.Collection(passwordResetName).DeleteMany(ctx, filter)
}

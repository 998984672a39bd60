package databases

// go generate: mockery --name VerificationCodeDatabase

import (
	"context"

	"github.com/linesmerrill/marketplace-api/models"
)

const verificationCodeName = "verificationCodes"

// VerificationCodeDatabase contains the methods to use with the verification code database
type VerificationCodeDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.VerificationCode, error)
	InsertOne(ctx context.Context, code models.VerificationCode) error
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
}

type verificationCodeDatabase struct {
	db DatabaseHelper
}

// NewVerificationCodeDatabase initializes a new instance of verification code database with the provided db connection
func NewVerificationCodeDatabase(db DatabaseHelper) VerificationCodeDatabase {
	return &verificationCodeDatabase{
		db: db,
	}
}

func (vc *verificationCodeDatabase) FindOne(ctx context.Context, filter interface{}) (*models.VerificationCode, error) {
	code := &models.VerificationCode{}
	err := vc.db.Collection(verificationCodeName).FindOne(ctx, filter).Decode(&code)
	if err != nil {
		return nil, err
	}
	return code, nil
}

func (vc *verificationCodeDatabase) InsertOne(ctx context.Context, code models.VerificationCode) error {
	_, err := vc.db.Collection(verificationCodeName).InsertOne(ctx, code)
	return err
}

func (vc *verificationCodeDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return vc.db.Collection(verificationCodeName).DeleteOne(ctx, filter)
}

func (vc *verificationCodeDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return vc.db.Collection(verificationCodeName).DeleteMany(ctx, filter)
}

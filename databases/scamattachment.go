package databases

// go generate: mockery --name ScamAttachmentDatabase

import (
	"context"

	"github.com/linesmerrill/marketplace-api/models"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const scamAttachmentName = "scamAttachments"

// ScamAttachmentDatabase contains the methods to use with the scam attachment database
type ScamAttachmentDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.ScamAttachment, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ScamAttachment, error)
	InsertOne(ctx context.Context, attachment models.ScamAttachment) error
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
}

type scamAttachmentDatabase struct {
	db DatabaseHelper
}

// NewScamAttachmentDatabase initializes a new instance of scam attachment database with the provided db connection
func NewScamAttachmentDatabase(db DatabaseHelper) ScamAttachmentDatabase {
	return &scamAttachmentDatabase{
		db: db,
	}
}

func (sa *scamAttachmentDatabase) FindOne(ctx context.Context, filter interface{}) (*models.ScamAttachment, error) {
	attachment := &models.ScamAttachment{}
	err := sa.db.Collection(scamAttachmentName).FindOne(ctx, filter).Decode(&attachment)
	if err != nil {
		return nil, err
	}
	return attachment, nil
}

func (sa *scamAttachmentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ScamAttachment, error) {
	cursor, err := sa.db.Collection(scamAttachmentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var attachments []models.ScamAttachment
	if err := cursor.Decode(&attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

func (sa *scamAttachmentDatabase) InsertOne(ctx context.Context, attachment models.ScamAttachment) error {
	_, err := sa.db.Collection(scamAttachmentName).InsertOne(ctx, attachment)
	return err
}

func (sa *scamAttachmentDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return sa.db.Collection(scamAttachmentName).DeleteOne(ctx, filter)
}

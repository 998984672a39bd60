package databases

// go generate: mockery --name ScamDatabase

import (
	"context"

	"github.com/linesmerrill/marketplace-api/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const scamName = "scams"

// ScamDatabase contains the methods to use with the scam report database
type ScamDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.ScamReport, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ScamReport, error)
	InsertOne(ctx context.Context, scam models.ScamReport) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}, results interface{}) error
}

type scamDatabase struct {
	db DatabaseHelper
}

// NewScamDatabase initializes a new instance of scam report database with the provided db connection
func NewScamDatabase(db DatabaseHelper) ScamDatabase {
	return &scamDatabase{
		db: db,
	}
}

func (s *scamDatabase) FindOne(ctx context.Context, filter interface{}) (*models.ScamReport, error) {
	scam := &models.ScamReport{}
	err := s.db.Collection(scamName).FindOne(ctx, filter).Decode(&scam)
	if err != nil {
		return nil, err
	}
	return scam, nil
}

func (s *scamDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ScamReport, error) {
	cursor, err := s.db.Collection(scamName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var scams []models.ScamReport
	if err := cursor.Decode(&scams); err != nil {
		return nil, err
	}
	return scams, nil
}

func (s *scamDatabase) InsertOne(ctx context.Context, scam models.ScamReport) error {
	_, err := s.db.Collection(scamName).InsertOne(ctx, scam)
	return err
}

func (s *scamDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error) {
	return s.db.Collection(scamName).UpdateOne(ctx, filter, update)
}

func (s *scamDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return s.db.Collection(scamName).DeleteOne(ctx, filter)
}

func (s *scamDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return s.db.Collection(scamName).CountDocuments(ctx, filter)
}

func (s *scamDatabase) Aggregate(ctx context.Context, pipeline interface{}, results interface{}) error {
	cursor, err := s.db.Collection(scamName).Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cursor.Decode(results)
}

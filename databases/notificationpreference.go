package databases

// go generate: mockery --name NotificationPreferenceDatabase

import (
	"context"

	"github.com/linesmerrill/marketplace-api/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notificationPreferenceName = "notificationPreferences"

// NotificationPreferenceDatabase contains the methods to use with the notification preference database
type NotificationPreferenceDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.NotificationPreference, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.NotificationPreference, error)
	InsertOne(ctx context.Context, preference models.NotificationPreference) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
}

type notificationPreferenceDatabase struct {
	db DatabaseHelper
}

// NewNotificationPreferenceDatabase initializes a new instance of notification preference database with the provided db connection
func NewNotificationPreferenceDatabase(db DatabaseHelper) NotificationPreferenceDatabase {
	return &notificationPreferenceDatabase{
		db: db,
	}
}

func (np *notificationPreferenceDatabase) FindOne(ctx context.Context, filter interface{}) (*models.NotificationPreference, error) {
	preference := &models.NotificationPreference{}
	err := np.db.Collection(notificationPreferenceName).FindOne(ctx, filter).Decode(&preference)
	if err != nil {
		return nil, err
	}
	return preference, nil
}

func (np *notificationPreferenceDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.NotificationPreference, error) {
	cursor, err := np.db.Collection(notificationPreferenceName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var preferences []models.NotificationPreference
	if err := cursor.Decode(&preferences); err != nil {
		return nil, err
	}
	return preferences, nil
}

func (np *notificationPreferenceDatabase) InsertOne(ctx context.Context, preference models.NotificationPreference) error {
	_, err := np.db.Collection(notificationPreferenceName).InsertOne(ctx, preference)
	return err
}

func (np *notificationPreferenceDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error) {
	return np.db.Collection(notificationPreferenceName).UpdateOne(ctx, filter, update)
}

func (np *notificationPreferenceDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return np.db.Collection(notificationPreferenceName).DeleteOne(ctx, filter)
}

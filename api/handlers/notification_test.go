package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/marketplace-api/api/handlers"
	mocksdb "github.com/linesmerrill/marketplace-api/databases/mocks"
	"github.com/linesmerrill/marketplace-api/models"
)

func TestNotification_NotificationsHandlerUnread(t *testing.T) {
	db := &mocksdb.NotificationDatabase{}
	filter := bson.M{"userId": userActor.ID, "read": false}
	db.On("Find", mock.Anything, filter, mock.MatchedBy(func(o *options.FindOptions) bool {
		return *o.Skip == 10 && *o.Limit == 10
	})).Return([]models.Notification{{ID: primitive.NewObjectID(), UserID: userActor.ID, Message: "hi"}}, nil)
	db.On("CountDocuments", mock.Anything, filter).Return(int64(11), nil)

	req := withActor(httptest.NewRequest("GET", "/api/v1/notifications?unread=true&page=2&size=10", nil), userActor)
	rr := httptest.NewRecorder()
	http.HandlerFunc(handlers.Notification{DB: db}.NotificationsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	data := decodeResponse(t, rr)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["page"])
	assert.Equal(t, float64(11), data["total"])
	assert.Len(t, data["items"], 1)
}

func TestNotification_MarkNotificationReadHandler(t *testing.T) {
	id := primitive.NewObjectID()
	tests := []struct {
		name    string
		matched int64
		want    int
	}{
		{"own notification", 1, http.StatusOK},
		{"someone else's notification", 0, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &mocksdb.NotificationDatabase{}
			db.On("UpdateOne", mock.Anything, bson.M{"_id": id, "userId": userActor.ID}, mock.Anything).
				Return(&mongo.UpdateResult{MatchedCount: tt.matched}, nil)

			req := withActor(httptest.NewRequest("PUT", "/api/v1/notifications/"+id.Hex()+"/read", nil), userActor)
			req = mux.SetURLVars(req, map[string]string{"notificationId": id.Hex()})
			rr := httptest.NewRecorder()
			http.HandlerFunc(handlers.Notification{DB: db}.MarkNotificationReadHandler).ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestNotification_MarkAllNotificationsReadHandler(t *testing.T) {
	db := &mocksdb.NotificationDatabase{}
	db.On("UpdateMany", mock.Anything, bson.M{"userId": userActor.ID, "read": false}, bson.M{"$set": bson.M{"read": true}}).
		Return(&mongo.UpdateResult{MatchedCount: 3, ModifiedCount: 3}, nil)

	req := withActor(httptest.NewRequest("PUT", "/api/v1/notifications/read-all", nil), userActor)
	rr := httptest.NewRecorder()
	http.HandlerFunc(handlers.Notification{DB: db}.MarkAllNotificationsReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	data := decodeResponse(t, rr)["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["updated"])
}

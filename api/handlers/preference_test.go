package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/marketplace-api/api/handlers"
	mocksdb "github.com/linesmerrill/marketplace-api/databases/mocks"
	"github.com/linesmerrill/marketplace-api/models"
)

func TestPreference_CreatePreferenceHandler(t *testing.T) {
	db := &mocksdb.NotificationPreferenceDatabase{}
	db.On("InsertOne", mock.Anything, mock.MatchedBy(func(p models.NotificationPreference) bool {
		return p.UserID == userActor.ID && p.Category != nil && *p.Category == "bikes" && p.City == nil && p.ReceiveEmails
	})).Return(nil)

	body := `{"category":"bikes","city":"","maxPrice":300,"receiveEmails":true}`
	req := withActor(httptest.NewRequest("POST", "/api/v1/preferences", strings.NewReader(body)), userActor)
	rr := httptest.NewRecorder()
	http.HandlerFunc(handlers.Preference{DB: db}.CreatePreferenceHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	db.AssertExpectations(t)
}

func TestPreference_CreatePreferenceHandlerStoresInvertedBounds(t *testing.T) {
	db := &mocksdb.NotificationPreferenceDatabase{}
	db.On("InsertOne", mock.Anything, mock.MatchedBy(func(p models.NotificationPreference) bool {
		return p.MinPrice != nil && *p.MinPrice == 50 && p.MaxPrice != nil && *p.MaxPrice == 10
	})).Return(nil)

	req := withActor(httptest.NewRequest("POST", "/api/v1/preferences", strings.NewReader(`{"minPrice":50,"maxPrice":10}`)), userActor)
	rr := httptest.NewRecorder()
	http.HandlerFunc(handlers.Preference{DB: db}.CreatePreferenceHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	db.AssertExpectations(t)
}

func TestPreference_PreferencesHandlerEmpty(t *testing.T) {
	db := &mocksdb.NotificationPreferenceDatabase{}
	db.On("Find", mock.Anything, bson.M{"userId": userActor.ID}, mock.Anything).Return(nil, nil)

	req := withActor(httptest.NewRequest("GET", "/api/v1/preferences", nil), userActor)
	rr := httptest.NewRecorder()
	http.HandlerFunc(handlers.Preference{DB: db}.PreferencesHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []interface{}{}, decodeResponse(t, rr)["data"])
}

func TestPreference_UpdatePreferenceHandlerClearsFilters(t *testing.T) {
	db := &mocksdb.NotificationPreferenceDatabase{}
	id := primitive.NewObjectID()
	city := "Lyon"
	db.On("FindOne", mock.Anything, bson.M{"_id": id}).Return(&models.NotificationPreference{ID: id, UserID: userActor.ID, City: &city}, nil)
	db.On("UpdateOne", mock.Anything, bson.M{"_id": id}, mock.MatchedBy(func(u bson.M) bool {
		unset, ok := u["$unset"].(bson.M)
		if !ok {
			return false
		}
		_, clearsCity := unset["city"]
		return clearsCity && u["$set"].(bson.M)["category"] == "bikes"
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	req := withActor(httptest.NewRequest("PUT", "/api/v1/preferences/"+id.Hex(), strings.NewReader(`{"category":"bikes"}`)), userActor)
	req = mux.SetURLVars(req, map[string]string{"preferenceId": id.Hex()})
	rr := httptest.NewRecorder()
	http.HandlerFunc(handlers.Preference{DB: db}.UpdatePreferenceHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	db.AssertExpectations(t)
}

func TestPreference_DeletePreferenceHandlerNotOwner(t *testing.T) {
	db := &mocksdb.NotificationPreferenceDatabase{}
	id := primitive.NewObjectID()
	db.On("FindOne", mock.Anything, bson.M{"_id": id}).Return(&models.NotificationPreference{ID: id, UserID: "someone-else"}, nil)

	req := withActor(httptest.NewRequest("DELETE", "/api/v1/preferences/"+id.Hex(), nil), userActor)
	req = mux.SetURLVars(req, map[string]string{"preferenceId": id.Hex()})
	rr := httptest.NewRecorder()
	http.HandlerFunc(handlers.Preference{DB: db}.DeletePreferenceHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	db.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestPreference_DeletePreferenceHandler(t *testing.T) {
	db := &mocksdb.NotificationPreferenceDatabase{}
	id := primitive.NewObjectID()
	db.On("FindOne", mock.Anything, bson.M{"_id": id}).Return(&models.NotificationPreference{ID: id, UserID: userActor.ID}, nil)
	db.On("DeleteOne", mock.Anything, bson.M{"_id": id}).Return(int64(1), nil)

	req := withActor(httptest.NewRequest("DELETE", "/api/v1/preferences/"+id.Hex(), nil), userActor)
	req = mux.SetURLVars(req, map[string]string{"preferenceId": id.Hex()})
	rr := httptest.NewRecorder()
	http.HandlerFunc(handlers.Preference{DB: db}.DeletePreferenceHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

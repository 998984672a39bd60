package handlers_test

import (
	"context"
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
	"github.com/linesmerrill/marketplace-api/notifier"
)

type fakeNotifier struct {
	products []models.Product
}

func (f *fakeNotifier) NotifyInterestedUsers(ctx context.Context, product models.Product) ([]notifier.DispatchResult, int) {
	f.products = append(f.products, product)
	return nil, 0
}

func newProductHandler() (handlers.Product, *mocksdb.ProductDatabase, *fakeNotifier) {
	db := &mocksdb.ProductDatabase{}
	n := &fakeNotifier{}
	return handlers.Product{DB: db, Notifier: n, Spawn: func(f func()) { f() }}, db, n
}

func TestProduct_CreateProductHandler(t *testing.T) {
	h, db, n := newProductHandler()
	db.On("InsertOne", mock.Anything, mock.MatchedBy(func(p models.Product) bool {
		return p.SellerID == userActor.ID && p.Status == models.ProductStatusActive && p.Title == "Road bike"
	})).Return(nil)

	body := `{"title":" Road bike ","category":"bikes","condition":"used","price":250,"city":"Lyon"}`
	req := withActor(httptest.NewRequest("POST", "/api/v1/products", strings.NewReader(body)), userActor)
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateProductHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	if assert.Len(t, n.products, 1) {
		assert.Equal(t, "bikes", n.products[0].Category)
		assert.Equal(t, 250.0, n.products[0].Price)
	}
}

func TestProduct_CreateProductHandlerValidation(t *testing.T) {
	h, db, n := newProductHandler()
	for _, body := range []string{`{"price":10}`, `{"title":"x","price":-1}`, `{"title":"  ","price":1}`} {
		req := withActor(httptest.NewRequest("POST", "/api/v1/products", strings.NewReader(body)), userActor)
		rr := httptest.NewRecorder()
		http.HandlerFunc(h.CreateProductHandler).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
	db.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
	assert.Empty(t, n.products)
}

func TestProduct_UpdateProductHandler(t *testing.T) {
	h, db, n := newProductHandler()
	pid := primitive.NewObjectID()
	db.On("FindOne", mock.Anything, bson.M{"_id": pid}).Return(&models.Product{ID: pid, SellerID: userActor.ID, Status: models.ProductStatusActive, Price: 90}, nil).Once()
	db.On("UpdateOne", mock.Anything, bson.M{"_id": pid}, mock.MatchedBy(func(u bson.M) bool {
		set := u["$set"].(bson.M)
		_, hasTitle := set["title"]
		return set["price"] == 80.0 && !hasTitle
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	db.On("FindOne", mock.Anything, bson.M{"_id": pid}).Return(&models.Product{ID: pid, SellerID: userActor.ID, Status: models.ProductStatusActive, Price: 80}, nil).Once()

	req := withActor(httptest.NewRequest("PUT", "/api/v1/products/"+pid.Hex(), strings.NewReader(`{"price":80}`)), userActor)
	req = mux.SetURLVars(req, map[string]string{"productId": pid.Hex()})
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.UpdateProductHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	if assert.Len(t, n.products, 1) {
		assert.Equal(t, 80.0, n.products[0].Price)
	}
}

func TestProduct_UpdateProductHandlerForbidden(t *testing.T) {
	pid := primitive.NewObjectID()
	tests := []struct {
		name    string
		product models.Product
	}{
		{"not the seller", models.Product{ID: pid, SellerID: "someone-else", Status: models.ProductStatusActive}},
		{"blocked", models.Product{ID: pid, SellerID: userActor.ID, Status: models.ProductStatusBlocked}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, db, n := newProductHandler()
			product := tt.product
			db.On("FindOne", mock.Anything, bson.M{"_id": pid}).Return(&product, nil)

			req := withActor(httptest.NewRequest("PUT", "/api/v1/products/"+pid.Hex(), strings.NewReader(`{"price":1}`)), userActor)
			req = mux.SetURLVars(req, map[string]string{"productId": pid.Hex()})
			rr := httptest.NewRecorder()
			http.HandlerFunc(h.UpdateProductHandler).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusForbidden, rr.Code)
			db.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, n.products)
		})
	}
}

func TestProduct_ProductByIDHandler(t *testing.T) {
	h, db, _ := newProductHandler()
	pid := primitive.NewObjectID()
	db.On("FindOne", mock.Anything, bson.M{"_id": pid}).Return(nil, mongo.ErrNoDocuments)

	req := mux.SetURLVars(httptest.NewRequest("GET", "/api/v1/products/"+pid.Hex(), nil), map[string]string{"productId": pid.Hex()})
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.ProductByIDHandler).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = mux.SetURLVars(httptest.NewRequest("GET", "/api/v1/products/1234", nil), map[string]string{"productId": "1234"})
	rr = httptest.NewRecorder()
	http.HandlerFunc(h.ProductByIDHandler).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

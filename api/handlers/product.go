package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/linesmerrill/marketplace-api/api"
	"github.com/linesmerrill/marketplace-api/config"
	"github.com/linesmerrill/marketplace-api/databases"
	"github.com/linesmerrill/marketplace-api/models"
	"github.com/linesmerrill/marketplace-api/notifier"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// dispatchTimeout bounds a background fan-out started by a product write
const dispatchTimeout = time.Minute

// ProductNotifier fans a product out to interested users
type ProductNotifier interface {
	NotifyInterestedUsers(ctx context.Context, product models.Product) ([]notifier.DispatchResult, int)
}

// Product holds the products collection and the fan-out triggered on writes
type Product struct {
	DB       databases.ProductDatabase
	Notifier ProductNotifier

	// Spawn runs the fan-out. A nil Spawn starts a goroutine.
	Spawn func(func())
}

type productRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Condition   *string  `json:"condition"`
	Price       *float64 `json:"price"`
	City        *string  `json:"city"`
}

func (req productRequest) validate(create bool) error {
	if create && (req.Title == nil || req.Price == nil) {
		return errors.New("title and price are required")
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return errors.New("title must not be blank")
	}
	if req.Price != nil && *req.Price < 0 {
		return errors.New("price must not be negative")
	}
	return nil
}

func (req productRequest) set(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if req.Title != nil {
		set["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Category != nil {
		set["category"] = *req.Category
	}
	if req.Condition != nil {
		set["condition"] = *req.Condition
	}
	if req.Price != nil {
		set["price"] = *req.Price
	}
	if req.City != nil {
		set["city"] = *req.City
	}
	return set
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (p Product) dispatch(product models.Product) {
	if p.Notifier == nil || product.Status == models.ProductStatusBlocked {
		return
	}
	run := func() {
		defer func() {
			if rec := recover(); rec != nil {
				zap.S().Errorw("panic in product fan-out", "productId", product.ID.Hex(), "panic", rec)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		_, sent := p.Notifier.NotifyInterestedUsers(ctx, product)
		zap.S().Infow("product fan-out complete", "productId", product.ID.Hex(), "sent", sent)
	}
	if p.Spawn == nil {
		go run()
		return
	}
	p.Spawn(run)
}

// CreateProductHandler lists a new product for the caller and notifies interested users
func (p Product) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(true); err != nil {
		config.ErrorStatus(err.Error(), http.StatusBadRequest, w, err)
		return
	}

	now := time.Now()
	product := models.Product{
		ID:          primitive.NewObjectID(),
		SellerID:    actor.ID,
		Title:       strings.TrimSpace(*req.Title),
		Description: str(req.Description),
		Category:    str(req.Category),
		Condition:   str(req.Condition),
		Price:       *req.Price,
		City:        str(req.City),
		Status:      models.ProductStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := p.DB.InsertOne(ctx, product); err != nil {
		config.ErrorStatus("failed to create product", http.StatusInternalServerError, w, err)
		return
	}
	p.dispatch(product)
	writeJSON(w, http.StatusCreated, "product created", product)
}

// UpdateProductHandler edits a product owned by the caller and notifies interested users
func (p Product) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		config.ErrorStatus("invalid product id", http.StatusBadRequest, w, err)
		return
	}
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(false); err != nil {
		config.ErrorStatus(err.Error(), http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := p.DB.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus("product not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to get product", http.StatusInternalServerError, w, err)
		return
	}
	if existing.SellerID != actor.ID {
		config.ErrorStatus("access denied", http.StatusForbidden, w, nil)
		return
	}
	if existing.Status == models.ProductStatusBlocked {
		config.ErrorStatus("product is blocked", http.StatusForbidden, w, nil)
		return
	}

	if _, err := p.DB.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": req.set(time.Now())}); err != nil {
		config.ErrorStatus("failed to update product", http.StatusInternalServerError, w, err)
		return
	}
	updated, err := p.DB.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		config.ErrorStatus("failed to get product", http.StatusInternalServerError, w, err)
		return
	}
	p.dispatch(*updated)
	writeJSON(w, http.StatusOK, "product updated", updated)
}

// ProductByIDHandler returns one product
func (p Product) ProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		config.ErrorStatus("invalid product id", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	product, err := p.DB.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus("product not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to get product", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, "success", product)
}

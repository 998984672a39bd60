package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/linesmerrill/marketplace-api/api"
	"github.com/linesmerrill/marketplace-api/config"
	"github.com/linesmerrill/marketplace-api/databases"
	"github.com/linesmerrill/marketplace-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Preference holds the notificationPreferences collection
type Preference struct {
	DB databases.NotificationPreferenceDatabase
}

type preferenceRequest struct {
	Category      *string  `json:"category"`
	Condition     *string  `json:"condition"`
	MinPrice      *float64 `json:"minPrice"`
	MaxPrice      *float64 `json:"maxPrice"`
	City          *string  `json:"city"`
	ReceiveEmails bool     `json:"receiveEmails"`
}

// blank strings clear a filter
func filterValue(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}

// owned loads the preference named in the route and checks the caller owns it
func (p Preference) owned(w http.ResponseWriter, r *http.Request, actor models.Actor) (*models.NotificationPreference, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["preferenceId"])
	if err != nil {
		config.ErrorStatus("invalid preference id", http.StatusBadRequest, w, err)
		return nil, false
	}
	pref, err := p.DB.FindOne(r.Context(), bson.M{"_id": id})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus("preference not found", http.StatusNotFound, w, err)
			return nil, false
		}
		config.ErrorStatus("failed to get preference", http.StatusInternalServerError, w, err)
		return nil, false
	}
	if pref.UserID != actor.ID {
		config.ErrorStatus("access denied", http.StatusForbidden, w, nil)
		return nil, false
	}
	return pref, true
}

// PreferencesHandler lists the caller's preferences
func (p Preference) PreferencesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	prefs, err := p.DB.Find(ctx, bson.M{"userId": actor.ID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		config.ErrorStatus("failed to list preferences", http.StatusInternalServerError, w, err)
		return
	}
	if prefs == nil {
		prefs = []models.NotificationPreference{}
	}
	writeJSON(w, http.StatusOK, "success", prefs)
}

// CreatePreferenceHandler saves a new preference for the caller
func (p Preference) CreatePreferenceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req preferenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	now := time.Now()
	pref := models.NotificationPreference{
		ID:            primitive.NewObjectID(),
		UserID:        actor.ID,
		Category:      filterValue(req.Category),
		Condition:     filterValue(req.Condition),
		MinPrice:      req.MinPrice,
		MaxPrice:      req.MaxPrice,
		City:          filterValue(req.City),
		ReceiveEmails: req.ReceiveEmails,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := p.DB.InsertOne(ctx, pref); err != nil {
		config.ErrorStatus("failed to create preference", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, "preference created", pref)
}

// UpdatePreferenceHandler replaces the filters of a preference the caller owns
func (p Preference) UpdatePreferenceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req preferenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	pref, ok := p.owned(w, r.WithContext(ctx), actor)
	if !ok {
		return
	}

	pref.Category = filterValue(req.Category)
	pref.Condition = filterValue(req.Condition)
	pref.MinPrice = req.MinPrice
	pref.MaxPrice = req.MaxPrice
	pref.City = filterValue(req.City)
	pref.ReceiveEmails = req.ReceiveEmails
	pref.UpdatedAt = time.Now()

	// absent filters are unset so the stored document matches the nil fields
	set := bson.M{"receiveEmails": pref.ReceiveEmails, "updatedAt": pref.UpdatedAt}
	unset := bson.M{}
	for field, v := range map[string]interface{}{
		"category":  pref.Category,
		"condition": pref.Condition,
		"minPrice":  pref.MinPrice,
		"maxPrice":  pref.MaxPrice,
		"city":      pref.City,
	} {
		switch val := v.(type) {
		case *string:
			if val == nil {
				unset[field] = ""
				continue
			}
			set[field] = *val
		case *float64:
			if val == nil {
				unset[field] = ""
				continue
			}
			set[field] = *val
		}
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	if _, err := p.DB.UpdateOne(ctx, bson.M{"_id": pref.ID}, update); err != nil {
		config.ErrorStatus("failed to update preference", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, "preference updated", pref)
}

// DeletePreferenceHandler deletes a preference the caller owns
func (p Preference) DeletePreferenceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	pref, ok := p.owned(w, r.WithContext(ctx), actor)
	if !ok {
		return
	}
	if _, err := p.DB.DeleteOne(ctx, bson.M{"_id": pref.ID}); err != nil {
		config.ErrorStatus("failed to delete preference", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, "preference deleted", nil)
}

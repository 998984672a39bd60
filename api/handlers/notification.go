package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/linesmerrill/marketplace-api/api"
	"github.com/linesmerrill/marketplace-api/config"
	"github.com/linesmerrill/marketplace-api/databases"
	"github.com/linesmerrill/marketplace-api/models"
	"github.com/linesmerrill/marketplace-api/notifier"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification holds the notifications collection and the live hub
type Notification struct {
	DB  databases.NotificationDatabase
	Hub *notifier.Hub
}

// NotificationsHandler returns a page of the caller's notifications, newest
// first. ?unread=true limits it to unread ones.
func (n Notification) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	page, size := pageParams(r)
	filter := bson.M{"userId": actor.ID}
	if r.URL.Query().Get("unread") == "true" {
		filter["read"] = false
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := databases.PageOptions(page, size, "createdAt", "desc")
	notifications, err := n.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to list notifications", http.StatusInternalServerError, w, err)
		return
	}
	total, err := n.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count notifications", http.StatusInternalServerError, w, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, "success", models.Page{
		Items: notifications,
		Page:  int(*opts.Skip / *opts.Limit) + 1,
		Size:  int(*opts.Limit),
		Total: total,
	})
}

// MarkNotificationReadHandler marks one of the caller's notifications read
func (n Notification) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["notificationId"])
	if err != nil {
		config.ErrorStatus("invalid notification id", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := n.DB.UpdateOne(ctx, bson.M{"_id": id, "userId": actor.ID}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		config.ErrorStatus("failed to update notification", http.StatusInternalServerError, w, err)
		return
	}
	if res == nil || res.MatchedCount == 0 {
		config.ErrorStatus("notification not found", http.StatusNotFound, w, nil)
		return
	}
	writeJSON(w, http.StatusOK, "notification marked as read", nil)
}

// MarkAllNotificationsReadHandler marks every unread notification of the caller read
func (n Notification) MarkAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := n.DB.UpdateMany(ctx, bson.M{"userId": actor.ID, "read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		config.ErrorStatus("failed to update notifications", http.StatusInternalServerError, w, err)
		return
	}
	var updated int64
	if res != nil {
		updated = res.ModifiedCount
	}
	writeJSON(w, http.StatusOK, "notifications marked as read", map[string]int64{"updated": updated})
}

// NotificationSocketHandler streams new notifications to the caller
func (n Notification) NotificationSocketHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	n.Hub.Serve(w, r, actor.ID)
}

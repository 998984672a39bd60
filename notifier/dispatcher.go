package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linesmerrill/marketplace-api/databases"
	"github.com/linesmerrill/marketplace-api/mailer"
	"github.com/linesmerrill/marketplace-api/metrics"
	"github.com/linesmerrill/marketplace-api/models"
	templates "github.com/linesmerrill/marketplace-api/templates/html"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DispatchResult is the outcome of notifying one interested user. EmailQueued
// only means a match email was handed to the background sender; delivery
// failures are logged, not reported here.
type DispatchResult struct {
	UserID         string `json:"userId"`
	NotificationID string `json:"notificationId,omitempty"`
	Pushed         bool   `json:"pushed"`
	EmailQueued    bool   `json:"emailQueued"`
	Error          string `json:"error,omitempty"`
}

// OK reports whether the notification was persisted
func (r DispatchResult) OK() bool {
	return r.Error == ""
}

// Dispatcher fans a product out to every user whose preference it matches
type Dispatcher struct {
	Preferences   databases.NotificationPreferenceDatabase
	Notifications databases.NotificationDatabase
	Users         databases.UserDatabase
	Mailer        mailer.Mailer
	Pusher        Pusher

	webBaseURL string
	now        func() time.Time
	spawn      func(func())
}

// NewDispatcher creates a Dispatcher. webBaseURL is used to build product links in emails.
func NewDispatcher(prefs databases.NotificationPreferenceDatabase, notifications databases.NotificationDatabase, users databases.UserDatabase, m mailer.Mailer, p Pusher, webBaseURL string) *Dispatcher {
	return &Dispatcher{
		Preferences:   prefs,
		Notifications: notifications,
		Users:         users,
		Mailer:        m,
		Pusher:        p,
		webBaseURL:    strings.TrimRight(webBaseURL, "/"),
		now:           time.Now,
		spawn:         func(f func()) { go f() },
	}
}

type interest struct {
	userID        string
	receiveEmails bool
}

// optional matches documents where field is unset, null or equal to v
func optional(field string, v interface{}) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{field: nil},
		bson.M{field: v},
	}}
}

// candidateFilter narrows preferences in the store. Results are re-checked
// with Matches so the pushdown never decides on its own.
func candidateFilter(p models.Product) bson.M {
	return bson.M{"$and": bson.A{
		optional("category", p.Category),
		optional("condition", p.Condition),
		optional("city", p.City),
		optional("minPrice", bson.M{"$lte": p.Price}),
		optional("maxPrice", bson.M{"$gte": p.Price}),
	}}
}

func (d *Dispatcher) interested(ctx context.Context, product models.Product) ([]interest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	prefs, err := d.Preferences.Find(ctx, candidateFilter(product), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	var out []interest
	seen := make(map[string]int)
	for _, pref := range prefs {
		if !Matches(product, pref) {
			continue
		}
		if i, ok := seen[pref.UserID]; ok {
			out[i].receiveEmails = out[i].receiveEmails || pref.ReceiveEmails
			continue
		}
		seen[pref.UserID] = len(out)
		out = append(out, interest{userID: pref.UserID, receiveEmails: pref.ReceiveEmails})
	}
	return out, nil
}

// FindInterestedUsers returns the distinct ids of users with at least one
// preference matching product, in preference creation order
func (d *Dispatcher) FindInterestedUsers(ctx context.Context, product models.Product) ([]string, error) {
	interests, err := d.interested(ctx, product)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(interests))
	for _, i := range interests {
		ids = append(ids, i.userID)
	}
	return ids, nil
}

// NotifyInterestedUsers creates one notification per interested user and
// returns the per user results plus the number persisted. A failure for one
// user does not stop the others. Blocked products are never dispatched.
func (d *Dispatcher) NotifyInterestedUsers(ctx context.Context, product models.Product) ([]DispatchResult, int) {
	if product.Status == models.ProductStatusBlocked {
		return nil, 0
	}
	interests, err := d.interested(ctx, product)
	if err != nil {
		zap.S().Errorw("failed to find interested users", "productId", product.ID.Hex(), "error", err)
		return nil, 0
	}

	results := make([]DispatchResult, 0, len(interests))
	sent := 0
	for _, in := range interests {
		n := models.Notification{
			ID:        primitive.NewObjectID(),
			UserID:    in.userID,
			ProductID: product.ID.Hex(),
			Category:  product.Category,
			Message:   fmt.Sprintf("New product matching your preferences: %s", product.Title),
			Read:      false,
			CreatedAt: d.now(),
		}
		res := DispatchResult{UserID: in.userID}
		if err := d.Notifications.InsertOne(ctx, n); err != nil {
			zap.S().Errorw("failed to create notification", "userId", in.userID, "productId", n.ProductID, "error", err)
			metrics.NotificationsDispatched.WithLabelValues("failure").Inc()
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		res.NotificationID = n.ID.Hex()
		if d.Pusher != nil {
			res.Pushed = d.Pusher.Push(in.userID, EventNewNotification, n)
		}
		if in.receiveEmails {
			d.sendMatchEmail(in.userID, product)
			res.EmailQueued = true
		}
		metrics.NotificationsDispatched.WithLabelValues("success").Inc()
		results = append(results, res)
		sent++
	}
	zap.S().Infow("dispatched product notifications", "productId", product.ID.Hex(), "interested", len(interests), "sent", sent)
	return results, sent
}

// sendMatchEmail emails userID about product in the background. Failures are logged only.
func (d *Dispatcher) sendMatchEmail(userID string, product models.Product) {
	d.spawn(func() {
		defer func() {
			if r := recover(); r != nil {
				zap.S().Errorw("panic in match email goroutine", "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := d.emailMatch(ctx, userID, product); err != nil {
			metrics.SideEffectFailures.WithLabelValues("sendMatchEmail").Inc()
			zap.S().Errorw("failed to send match email", "userId", userID, "productId", product.ID.Hex(), "error", err)
		}
	})
}

func (d *Dispatcher) emailMatch(ctx context.Context, userID string, product models.Product) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}
	u, err := d.Users.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	link := fmt.Sprintf("%s/products/%s", d.webBaseURL, product.ID.Hex())
	return d.Mailer.Send(ctx, mailer.Message{
		ToEmail:   u.Email,
		ToName:    u.Username,
		Subject:   "New listing: " + product.Title,
		PlainText: fmt.Sprintf("%s was just listed in %s for %.2f. %s", product.Title, product.Category, product.Price, link),
		HTML:      templates.RenderProductMatchEmail(product.Title, product.Category, product.City, product.Price, link),
	})
}

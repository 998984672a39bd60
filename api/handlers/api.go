package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/marketplace-api/api"
	"github.com/linesmerrill/marketplace-api/blobstore"
	"github.com/linesmerrill/marketplace-api/cache"
	"github.com/linesmerrill/marketplace-api/config"
	"github.com/linesmerrill/marketplace-api/databases"
	"github.com/linesmerrill/marketplace-api/mailer"
	"github.com/linesmerrill/marketplace-api/models"
	"github.com/linesmerrill/marketplace-api/moderation"
	"github.com/linesmerrill/marketplace-api/notifier"
	"github.com/linesmerrill/marketplace-api/verification"
)

// App stores the router and its collaborators, so they can be reused
type App struct {
	Router *mux.Router
	Config config.Config

	dbHelper databases.DatabaseHelper
	client   databases.ClientHelper
	counter  cache.Counter
	blobs    blobstore.Store
	mailer   mailer.Mailer
	hub      *notifier.Hub

	// Moderation and Verification are exposed for the scheduler
	Moderation   *moderation.Service
	Verification *verification.Service
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	users := databases.NewUserDatabase(a.dbHelper)
	m := api.NewMiddleware(users, a.Config.JWTSecret)

	a.Moderation = moderation.NewService(
		databases.NewScamDatabase(a.dbHelper),
		databases.NewScamAttachmentDatabase(a.dbHelper),
		databases.NewProductDatabase(a.dbHelper),
		a.blobs,
		a.mailer,
		a.Config.AdminNotifyEmails,
		a.Config.PublicWebBaseURL,
	)
	a.Verification = verification.NewService(
		users,
		databases.NewVerificationCodeDatabase(a.dbHelper),
		databases.NewPasswordResetDatabase(a.dbHelper),
		a.mailer,
		a.counter,
		&a.Config,
	)
	dispatcher := notifier.NewDispatcher(
		databases.NewNotificationPreferenceDatabase(a.dbHelper),
		databases.NewNotificationDatabase(a.dbHelper),
		users,
		a.mailer,
		a.hub,
		a.Config.PublicWebBaseURL,
	)

	scam := Scam{Moderation: a.Moderation}
	admin := AdminScam{Moderation: a.Moderation}
	v := Verification{Service: a.Verification}
	au := Auth{Middleware: m}
	p := Product{DB: databases.NewProductDatabase(a.dbHelper), Notifier: dispatcher}
	pref := Preference{DB: databases.NewNotificationPreferenceDatabase(a.dbHelper)}
	n := Notification{DB: databases.NewNotificationDatabase(a.dbHelper), Hub: a.hub}

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)
	r.Use(api.WebsocketAware(api.TimeoutMiddleware(a.Config.RequestTimeout)))

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.Handle("/metrics", api.MetricsHandler())

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", m.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", m.Middleware(http.HandlerFunc(m.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/admin/login", http.HandlerFunc(au.AdminLoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/verify/send-code", m.Middleware(http.HandlerFunc(v.SendCodeHandler))).Methods("POST")
	apiCreate.Handle("/auth/verify/verify-code", http.HandlerFunc(v.VerifyCodeHandler)).Methods("POST")
	apiCreate.Handle("/auth/verify/resend", m.Middleware(http.HandlerFunc(v.ResendCodeHandler))).Methods("POST")
	apiCreate.Handle("/auth/password/forgot", http.HandlerFunc(v.ForgotPasswordHandler)).Methods("POST")
	apiCreate.Handle("/auth/password/reset", http.HandlerFunc(v.ResetPasswordHandler)).Methods("POST")

	apiCreate.Handle("/scams", http.HandlerFunc(scam.SubmitScamHandler)).Methods("POST")
	apiCreate.Handle("/scams/{scamId}/attachments", http.HandlerFunc(scam.UploadAttachmentHandler)).Methods("POST")
	apiCreate.Handle("/scams/{scamId}/attachments/batch", http.HandlerFunc(scam.UploadAttachmentsBatchHandler)).Methods("POST")
	apiCreate.Handle("/scams/{scamId}/attachments", http.HandlerFunc(scam.ListAttachmentsHandler)).Methods("GET")
	apiCreate.Handle("/attachments/{attachmentId}", http.HandlerFunc(scam.DeleteAttachmentHandler)).Methods("DELETE")

	// static admin paths must go above /admin/scams/{id}
	apiCreate.Handle("/admin/scams", m.AdminMiddleware(http.HandlerFunc(admin.ListScamsHandler))).Methods("GET")
	apiCreate.Handle("/admin/scams/status/{status}", m.AdminMiddleware(http.HandlerFunc(admin.ScamsByStatusHandler))).Methods("GET")
	apiCreate.Handle("/admin/scams/statistics", m.AdminMiddleware(http.HandlerFunc(admin.ScamStatisticsHandler))).Methods("GET")
	apiCreate.Handle("/admin/scams/count/pending", m.AdminMiddleware(http.HandlerFunc(admin.PendingCountHandler))).Methods("GET")
	apiCreate.Handle("/admin/scams/product/{productId}/bulk-update", m.AdminMiddleware(http.HandlerFunc(admin.BulkUpdateHandler))).Methods("PUT")
	apiCreate.Handle("/admin/scams/{id}", m.AdminMiddleware(http.HandlerFunc(admin.ScamByIDHandler))).Methods("GET")
	apiCreate.Handle("/admin/scams/{id}", m.AdminMiddleware(http.HandlerFunc(admin.UpdateScamStatusHandler))).Methods("PUT")
	apiCreate.Handle("/admin/scams/{id}", m.AdminMiddleware(http.HandlerFunc(admin.DeleteScamHandler))).Methods("DELETE")

	apiCreate.Handle("/products", m.Middleware(http.HandlerFunc(p.CreateProductHandler))).Methods("POST")
	apiCreate.Handle("/products/{productId}", m.Middleware(http.HandlerFunc(p.UpdateProductHandler))).Methods("PUT")
	apiCreate.Handle("/products/{productId}", http.HandlerFunc(p.ProductByIDHandler)).Methods("GET")

	apiCreate.Handle("/preferences", m.Middleware(http.HandlerFunc(pref.PreferencesHandler))).Methods("GET")
	apiCreate.Handle("/preferences", m.Middleware(http.HandlerFunc(pref.CreatePreferenceHandler))).Methods("POST")
	apiCreate.Handle("/preferences/{preferenceId}", m.Middleware(http.HandlerFunc(pref.UpdatePreferenceHandler))).Methods("PUT")
	apiCreate.Handle("/preferences/{preferenceId}", m.Middleware(http.HandlerFunc(pref.DeletePreferenceHandler))).Methods("DELETE")

	apiCreate.Handle("/notifications", m.Middleware(http.HandlerFunc(n.NotificationsHandler))).Methods("GET")
	apiCreate.Handle("/notifications/read-all", m.Middleware(http.HandlerFunc(n.MarkAllNotificationsReadHandler))).Methods("PUT")
	apiCreate.Handle("/notifications/{notificationId}/read", m.Middleware(http.HandlerFunc(n.MarkNotificationReadHandler))).Methods("PUT")
	apiCreate.Handle("/ws/notifications", tokenFromQuery(m.Middleware(http.HandlerFunc(n.NotificationSocketHandler)))).Methods("GET")

	return r
}

// tokenFromQuery lets browsers, which cannot set headers on a websocket
// handshake, pass their bearer token as ?token=
func tokenFromQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := r.URL.Query().Get("token"); token != "" && r.Header.Get("Authorization") == "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		next.ServeHTTP(w, r)
	})
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize(ctx context.Context) error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	a.client = client
	zap.S().Info("marketplace-api has connected to the database")

	if a.Config.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, a.Config.RedisAddr)
		if err != nil {
			zap.S().With(err).Error("failed to connect to redis")
			return err
		}
		a.counter = rc
	} else {
		zap.S().Warn("REDIS_ADDR is not set, attempt counters are kept in process")
		a.counter = cache.NewMemory(ctx, a.Config.AttemptWindow)
	}

	a.blobs, err = blobstore.New(a.Config.CloudinaryURL)
	if err != nil {
		zap.S().With(err).Error("failed to configure blob store")
		return err
	}
	a.mailer = mailer.New(a.Config.SendGridAPIKey, a.Config.MailFrom)
	a.hub = notifier.NewHub()

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Close releases the database and cache connections
func (a *App) Close(ctx context.Context) {
	if rc, ok := a.counter.(*cache.Redis); ok {
		rc.Close()
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}

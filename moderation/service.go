package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linesmerrill/marketplace-api/blobstore"
	"github.com/linesmerrill/marketplace-api/databases"
	"github.com/linesmerrill/marketplace-api/mailer"
	"github.com/linesmerrill/marketplace-api/metrics"
	"github.com/linesmerrill/marketplace-api/models"
	templates "github.com/linesmerrill/marketplace-api/templates/html"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// sortable report fields accepted by ListReports
var sortFields = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"status":    true,
	"type":      true,
	"productId": true,
}

// Service runs scam report moderation and the attachment lifecycle
type Service struct {
	Scams       databases.ScamDatabase
	Attachments databases.ScamAttachmentDatabase
	Products    databases.ProductDatabase
	Blobs       blobstore.Store
	Mailer      mailer.Mailer

	adminEmails []string
	webBaseURL  string

	now   func() time.Time
	spawn func(func())
}

// NewService creates a moderation Service. adminEmails receive a message for
// every new report.
func NewService(scams databases.ScamDatabase, attachments databases.ScamAttachmentDatabase, products databases.ProductDatabase, blobs blobstore.Store, m mailer.Mailer, adminEmails []string, webBaseURL string) *Service {
	return &Service{
		Scams:       scams,
		Attachments: attachments,
		Products:    products,
		Blobs:       blobs,
		Mailer:      m,
		adminEmails: adminEmails,
		webBaseURL:  strings.TrimRight(webBaseURL, "/"),
		now:         time.Now,
		spawn:       func(f func()) { go f() },
	}
}

func parseID(id, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid %s id %q", models.ErrInvalidInput, what, id)
	}
	return oid, nil
}

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: administrator privilege required", models.ErrNotAuthorized)
	}
	return nil
}

// SubmitReport files an anonymous report against productID
func (s *Service) SubmitReport(ctx context.Context, productID, typeCode, description string) (*models.ScamReport, error) {
	scamType, ok := models.ParseScamType(typeCode)
	if !ok {
		return nil, fmt.Errorf("%w: unknown scam type %q", models.ErrInvalidInput, typeCode)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", models.ErrInvalidInput)
	}
	pid, err := parseID(productID, "product")
	if err != nil {
		return nil, err
	}
	if _, err := s.Products.FindOne(ctx, bson.M{"_id": pid}); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: product %s", models.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	now := s.now()
	report := models.ScamReport{
		ID:          primitive.NewObjectID(),
		ProductID:   productID,
		Type:        scamType,
		Description: description,
		Status:      models.ScamStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Scams.InsertOne(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save scam report: %w", err)
	}
	metrics.ScamReportsSubmitted.Inc()
	s.notifyAdmins(report)
	return &report, nil
}

// GetReport returns one report
func (s *Service) GetReport(ctx context.Context, reportID string) (*models.ScamReport, error) {
	oid, err := parseID(reportID, "report")
	if err != nil {
		return nil, err
	}
	r, err := s.Scams.FindOne(ctx, bson.M{"_id": oid})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: scam report %s", models.ErrNotFound, reportID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scam report: %w", err)
	}
	return r, nil
}

// UpdateStatus moves a report to status. Any status may follow any other;
// reapplying the current one overwrites the comment and processing stamp.
// CONFIRMED also blocks the reported product, best effort.
func (s *Service) UpdateStatus(ctx context.Context, reportID string, status models.ScamStatus, comment string, actor models.Actor) (*models.ScamReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, ok := models.ParseScamStatus(string(status)); !ok {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
	}
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var adminComment *string
	if c := strings.TrimSpace(comment); c != "" {
		adminComment = &c
	}
	processedBy := actor.ID
	res, err := s.Scams.UpdateOne(ctx, bson.M{"_id": report.ID}, bson.M{"$set": bson.M{
		"status":       status,
		"adminComment": adminComment,
		"processedBy":  processedBy,
		"processedAt":  now,
		"updatedAt":    now,
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to update scam report: %w", err)
	}
	if res != nil && res.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: scam report %s", models.ErrNotFound, reportID)
	}

	report.Status = status
	report.AdminComment = adminComment
	report.ProcessedBy = &processedBy
	report.ProcessedAt = &now
	report.UpdatedAt = now
	metrics.ScamStatusTransitions.WithLabelValues(string(status)).Inc()
	zap.S().Infow("scam report status updated", "reportId", reportID, "status", status, "admin", actor.ID)

	if status == models.ScamStatusConfirmed {
		s.deactivateProduct(ctx, report.ProductID)
	}
	return report, nil
}

// BulkResult is the outcome of one report inside a bulk status update
type BulkResult struct {
	ReportID string `json:"reportId"`
	Error    string `json:"error,omitempty"`
}

// BulkUpdateResults applies UpdateStatus to every PENDING report of productID
// in creation order. Per report failures are logged and recorded, never returned.
func (s *Service) BulkUpdateResults(ctx context.Context, productID string, status models.ScamStatus, comment string, actor models.Actor) ([]BulkResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	reports, err := s.Scams.Find(ctx, bson.M{"productId": productID, "status": models.ScamStatusPending}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending reports: %w", err)
	}

	results := make([]BulkResult, 0, len(reports))
	for _, r := range reports {
		res := BulkResult{ReportID: r.ID.Hex()}
		if _, err := s.UpdateStatus(ctx, r.ID.Hex(), status, comment, actor); err != nil {
			zap.S().Errorw("bulk status update failed for report", "reportId", res.ReportID, "productId", productID, "error", err)
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results, nil
}

// BulkUpdateStatus is BulkUpdateResults reduced to the number of reports updated
func (s *Service) BulkUpdateStatus(ctx context.Context, productID string, status models.ScamStatus, comment string, actor models.Actor) (int, error) {
	results, err := s.BulkUpdateResults(ctx, productID, status, comment, actor)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range results {
		if r.Error == "" {
			n++
		}
	}
	return n, nil
}

// DeleteReport removes a report together with its attachments
func (s *Service) DeleteReport(ctx context.Context, reportID string, actor models.Actor) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return err
	}
	if _, err := s.DeleteAttachmentsByReport(ctx, reportID); err != nil {
		return err
	}
	if _, err := s.Scams.DeleteOne(ctx, bson.M{"_id": report.ID}); err != nil {
		return fmt.Errorf("failed to delete scam report: %w", err)
	}
	zap.S().Infow("scam report deleted", "reportId", reportID, "admin", actor.ID)
	return nil
}

// ListReports returns one page of reports ordered by sortField
func (s *Service) ListReports(ctx context.Context, page, size int, sortField, sortDir string) (*models.Page, error) {
	if !sortFields[sortField] {
		sortField = "createdAt"
	}
	return s.page(ctx, bson.M{}, page, size, sortField, sortDir)
}

// ListReportsByStatus returns one page of reports in status, newest first
func (s *Service) ListReportsByStatus(ctx context.Context, status models.ScamStatus, page, size int) (*models.Page, error) {
	if _, ok := models.ParseScamStatus(string(status)); !ok {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
	}
	return s.page(ctx, bson.M{"status": status}, page, size, "createdAt", "desc")
}

func (s *Service) page(ctx context.Context, filter bson.M, page, size int, sortField, sortDir string) (*models.Page, error) {
	opts := databases.PageOptions(page, size, sortField, sortDir)
	reports, err := s.Scams.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list scam reports: %w", err)
	}
	total, err := s.Scams.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count scam reports: %w", err)
	}
	if reports == nil {
		reports = []models.ScamReport{}
	}
	return &models.Page{
		Items: reports,
		Page:  int(*opts.Skip / *opts.Limit) + 1,
		Size:  int(*opts.Limit),
		Total: total,
	}, nil
}

// CountPending returns the number of reports awaiting moderation
func (s *Service) CountPending(ctx context.Context) (int64, error) {
	return s.Scams.CountDocuments(ctx, bson.M{"status": models.ScamStatusPending})
}

type productCounts struct {
	Products int64 `bson:"products"`
	Repeated int64 `bson:"repeated"`
}

// GetStatistics aggregates report counts
func (s *Service) GetStatistics(ctx context.Context) (*models.ScamStatistics, error) {
	stats := &models.ScamStatistics{ByStatus: make(map[models.ScamStatus]int64, len(models.ScamStatuses))}

	var err error
	if stats.Total, err = s.Scams.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("failed to count scam reports: %w", err)
	}
	for _, st := range models.ScamStatuses {
		n, err := s.Scams.CountDocuments(ctx, bson.M{"status": st})
		if err != nil {
			return nil, fmt.Errorf("failed to count %s reports: %w", st, err)
		}
		stats.ByStatus[st] = n
	}

	now := s.now()
	windows := []struct {
		since time.Duration
		dst   *int64
	}{
		{24 * time.Hour, &stats.LastDay},
		{7 * 24 * time.Hour, &stats.LastWeek},
		{30 * 24 * time.Hour, &stats.LastMonth},
	}
	for _, w := range windows {
		n, err := s.Scams.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": now.Add(-w.since)}})
		if err != nil {
			return nil, fmt.Errorf("failed to count recent reports: %w", err)
		}
		*w.dst = n
	}

	pipeline := bson.A{
		bson.M{"$group": bson.M{"_id": "$productId", "count": bson.M{"$sum": 1}}},
		bson.M{"$group": bson.M{
			"_id":      nil,
			"products": bson.M{"$sum": 1},
			"repeated": bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$gte": bson.A{"$count", 2}}, 1, 0}}},
		}},
	}
	var counts []productCounts
	if err := s.Scams.Aggregate(ctx, pipeline, &counts); err != nil {
		return nil, fmt.Errorf("failed to aggregate reported products: %w", err)
	}
	if len(counts) > 0 {
		stats.ReportedProducts = counts[0].Products
		stats.RepeatedlyReported = counts[0].Repeated
	}
	return stats, nil
}

// deactivateProduct blocks the listing of a confirmed scam. Failures are logged only.
func (s *Service) deactivateProduct(ctx context.Context, productID string) {
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		metrics.SideEffectFailures.WithLabelValues("deactivateProduct").Inc()
		zap.S().Errorw("cannot deactivate product with invalid id", "productId", productID)
		return
	}
	res, err := s.Products.UpdateOne(ctx, bson.M{"_id": pid}, bson.M{"$set": bson.M{
		"status":    models.ProductStatusBlocked,
		"updatedAt": s.now(),
	}})
	if err != nil {
		metrics.SideEffectFailures.WithLabelValues("deactivateProduct").Inc()
		zap.S().Errorw("failed to deactivate product", "productId", productID, "error", err)
		return
	}
	if res != nil && res.MatchedCount == 0 {
		zap.S().Warnw("product to deactivate no longer exists", "productId", productID)
		return
	}
	zap.S().Infow("product blocked after confirmed scam report", "productId", productID)
}

// notifyAdmins emails the configured admins about a new report in the background
func (s *Service) notifyAdmins(report models.ScamReport) {
	if len(s.adminEmails) == 0 {
		return
	}
	s.spawn(func() {
		defer func() {
			if r := recover(); r != nil {
				zap.S().Errorw("panic in admin notification goroutine", "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		link := fmt.Sprintf("%s/admin/scams/%s", s.webBaseURL, report.ID.Hex())
		for _, to := range s.adminEmails {
			err := s.Mailer.Send(ctx, mailer.Message{
				ToEmail:   to,
				Subject:   fmt.Sprintf("New scam report: %s", report.Type),
				PlainText: fmt.Sprintf("Product %s was reported (%s): %s\n%s", report.ProductID, report.Type, report.Description, link),
				HTML:      templates.RenderAdminScamReportEmail(report.ID.Hex(), report.ProductID, string(report.Type), report.Description, link),
			})
			if err != nil {
				metrics.SideEffectFailures.WithLabelValues("notifyAdmins").Inc()
				zap.S().Errorw("failed to notify admin of scam report", "to", to, "reportId", report.ID.Hex(), "error", err)
			}
		}
	})
}

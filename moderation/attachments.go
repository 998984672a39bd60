package moderation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/linesmerrill/marketplace-api/blobstore"
	"github.com/linesmerrill/marketplace-api/metrics"
	"github.com/linesmerrill/marketplace-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// FileUpload is one uploaded file
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ResolveAttachmentType maps an attachment type code to its type, treating
// unknown or empty codes as OTHER
func ResolveAttachmentType(code string) models.AttachmentType {
	if t, ok := models.ParseAttachmentType(strings.ToUpper(strings.TrimSpace(code))); ok {
		return t
	}
	return models.AttachmentOther
}

// StorageKey returns the blob key for a new attachment of reportID. Keys share
// the scams/{reportId}/ prefix and keep the original extension.
func StorageKey(reportID, filename string) string {
	return fmt.Sprintf("scams/%s/%s%s", reportID, uuid.New().String(), strings.ToLower(filepath.Ext(filename)))
}

// UploadAttachment stores file as evidence for reportID
func (s *Service) UploadAttachment(ctx context.Context, reportID string, file FileUpload, attachmentType models.AttachmentType) (*models.ScamAttachment, error) {
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return s.upload(ctx, report, file, attachmentType)
}

// UploadAttachments stores every file for reportID. It stops at the first
// failure and returns what was stored before it.
func (s *Service) UploadAttachments(ctx context.Context, reportID string, files []FileUpload, attachmentType models.AttachmentType) ([]models.ScamAttachment, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files uploaded", models.ErrInvalidInput)
	}
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ScamAttachment, 0, len(files))
	for _, f := range files {
		a, err := s.upload(ctx, report, f, attachmentType)
		if err != nil {
			return out, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (s *Service) upload(ctx context.Context, report *models.ScamReport, file FileUpload, attachmentType models.AttachmentType) (*models.ScamAttachment, error) {
	if file.Body == nil || strings.TrimSpace(file.Filename) == "" {
		return nil, fmt.Errorf("%w: file is required", models.ErrInvalidInput)
	}
	key := StorageKey(report.ID.Hex(), file.Filename)
	blob, err := s.Blobs.Put(ctx, key, file.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	a := models.ScamAttachment{
		ID:               primitive.NewObjectID(),
		ScamID:           report.ID,
		OriginalFilename: filepath.Base(file.Filename),
		FileURL:          blob.URL,
		StorageKey:       key,
		ResourceType:     blob.ResourceType,
		ContentType:      file.ContentType,
		FileSize:         file.Size,
		Type:             attachmentType,
		UploadedAt:       s.now(),
	}
	if err := s.Attachments.InsertOne(ctx, a); err != nil {
		s.deleteBlob(ctx, blobstore.Blob{Key: key, URL: blob.URL, ResourceType: blob.ResourceType})
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}
	return &a, nil
}

// ListAttachments returns the attachments of reportID in upload order
func (s *Service) ListAttachments(ctx context.Context, reportID string) ([]models.ScamAttachment, error) {
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return s.attachmentsOf(ctx, report.ID)
}

func (s *Service) attachmentsOf(ctx context.Context, reportID primitive.ObjectID) ([]models.ScamAttachment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: 1}})
	attachments, err := s.Attachments.Find(ctx, bson.M{"scamId": reportID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	if attachments == nil {
		attachments = []models.ScamAttachment{}
	}
	return attachments, nil
}

// DeleteAttachment removes the blob, best effort, and then the row
func (s *Service) DeleteAttachment(ctx context.Context, attachmentID string) error {
	oid, err := parseID(attachmentID, "attachment")
	if err != nil {
		return err
	}
	a, err := s.Attachments.FindOne(ctx, bson.M{"_id": oid})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: attachment %s", models.ErrNotFound, attachmentID)
	}
	if err != nil {
		return fmt.Errorf("failed to load attachment: %w", err)
	}
	return s.removeAttachment(ctx, *a)
}

// DeleteAttachmentsByReport removes every attachment of reportID and returns how many
func (s *Service) DeleteAttachmentsByReport(ctx context.Context, reportID string) (int, error) {
	oid, err := parseID(reportID, "report")
	if err != nil {
		return 0, err
	}
	attachments, err := s.attachmentsOf(ctx, oid)
	if err != nil {
		return 0, err
	}
	for i, a := range attachments {
		if err := s.removeAttachment(ctx, a); err != nil {
			return i, err
		}
	}
	return len(attachments), nil
}

func (s *Service) removeAttachment(ctx context.Context, a models.ScamAttachment) error {
	s.deleteBlob(ctx, blobstore.Blob{Key: a.StorageKey, URL: a.FileURL, ResourceType: a.ResourceType})
	if _, err := s.Attachments.DeleteOne(ctx, bson.M{"_id": a.ID}); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

// deleteBlob removes a stored file. Failures are logged only.
func (s *Service) deleteBlob(ctx context.Context, blob blobstore.Blob) {
	if blob.Key == "" {
		return
	}
	if err := s.Blobs.Delete(ctx, blob); err != nil {
		metrics.SideEffectFailures.WithLabelValues("deleteBlob").Inc()
		zap.S().Errorw("failed to delete attachment blob", "key", blob.Key, "resourceType", blob.ResourceType, "error", err)
	}
}

package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/linesmerrill/marketplace-api/api"
	"github.com/linesmerrill/marketplace-api/config"
	"github.com/linesmerrill/marketplace-api/models"
	"github.com/linesmerrill/marketplace-api/moderation"
	"go.uber.org/zap"
)

// maxUploadBytes bounds one multipart upload request
const maxUploadBytes = 32 << 20

// Scam exposes report submission and attachment management
type Scam struct {
	Moderation *moderation.Service
}

type submitScamRequest struct {
	ProductID   string `json:"productId"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// SubmitScamHandler files an anonymous scam report
func (s Scam) SubmitScamHandler(w http.ResponseWriter, r *http.Request) {
	var req submitScamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := s.Moderation.SubmitReport(ctx, req.ProductID, req.Type, req.Description)
	if err != nil {
		writeError(w, err, "failed to submit scam report")
		return
	}
	writeJSON(w, http.StatusCreated, "scam report submitted", report)
}

func fileUploads(headers []*multipart.FileHeader) ([]moderation.FileUpload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	uploads := make([]moderation.FileUpload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)
		uploads = append(uploads, moderation.FileUpload{
			Filename:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Size:        h.Size,
			Body:        f,
		})
	}
	return uploads, closeAll, nil
}

// UploadAttachmentHandler stores the "file" form field as evidence
func (s Scam) UploadAttachmentHandler(w http.ResponseWriter, r *http.Request) {
	scamID := mux.Vars(r)["scamId"]
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		config.ErrorStatus("failed to parse upload", http.StatusBadRequest, w, err)
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) != 1 {
		config.ErrorStatus("exactly one file is required", http.StatusBadRequest, w, nil)
		return
	}
	uploads, closeAll, err := fileUploads(headers)
	if err != nil {
		config.ErrorStatus("failed to read upload", http.StatusBadRequest, w, err)
		return
	}
	defer closeAll()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	a, err := s.Moderation.UploadAttachment(ctx, scamID, uploads[0], moderation.ResolveAttachmentType(r.FormValue("type")))
	if err != nil {
		writeError(w, err, "failed to upload attachment")
		return
	}
	writeJSON(w, http.StatusCreated, "attachment uploaded", a)
}

// UploadAttachmentsBatchHandler stores every "files" form field as evidence
func (s Scam) UploadAttachmentsBatchHandler(w http.ResponseWriter, r *http.Request) {
	scamID := mux.Vars(r)["scamId"]
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		config.ErrorStatus("failed to parse upload", http.StatusBadRequest, w, err)
		return
	}
	uploads, closeAll, err := fileUploads(r.MultipartForm.File["files"])
	if err != nil {
		config.ErrorStatus("failed to read upload", http.StatusBadRequest, w, err)
		return
	}
	defer closeAll()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	out, err := s.Moderation.UploadAttachments(ctx, scamID, uploads, moderation.ResolveAttachmentType(r.FormValue("type")))
	if err != nil {
		if len(out) > 0 {
			zap.S().Warnw("batch upload stopped early", "scamId", scamID, "stored", len(out))
		}
		writeError(w, err, "failed to upload attachments")
		return
	}
	writeJSON(w, http.StatusCreated, "attachments uploaded", out)
}

// ListAttachmentsHandler returns the attachments of a report
func (s Scam) ListAttachmentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	out, err := s.Moderation.ListAttachments(ctx, mux.Vars(r)["scamId"])
	if err != nil {
		writeError(w, err, "failed to list attachments")
		return
	}
	writeJSON(w, http.StatusOK, "success", out)
}

// DeleteAttachmentHandler removes one attachment
func (s Scam) DeleteAttachmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := s.Moderation.DeleteAttachment(ctx, mux.Vars(r)["attachmentId"]); err != nil {
		writeError(w, err, "failed to delete attachment")
		return
	}
	writeJSON(w, http.StatusOK, "attachment deleted", nil)
}

// AdminScam exposes the moderation endpoints
type AdminScam struct {
	Moderation *moderation.Service
}

type updateStatusRequest struct {
	Status       string `json:"status"`
	AdminComment string `json:"adminComment"`
}

func (req updateStatusRequest) parse(w http.ResponseWriter) (models.ScamStatus, bool) {
	status, ok := models.ParseScamStatus(req.Status)
	if !ok {
		config.ErrorStatus("unknown status "+req.Status, http.StatusBadRequest, w, models.ErrInvalidInput)
	}
	return status, ok
}

// ListScamsHandler returns a page of reports, sorted by ?sort=field,dir
func (a AdminScam) ListScamsHandler(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	field, dir := sortParam(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	out, err := a.Moderation.ListReports(ctx, page, size, field, dir)
	if err != nil {
		writeError(w, err, "failed to list scam reports")
		return
	}
	writeJSON(w, http.StatusOK, "success", out)
}

// ScamsByStatusHandler returns a page of reports in one status
func (a AdminScam) ScamsByStatusHandler(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	status, ok := models.ParseScamStatus(mux.Vars(r)["status"])
	if !ok {
		config.ErrorStatus("unknown status "+mux.Vars(r)["status"], http.StatusBadRequest, w, models.ErrInvalidInput)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	out, err := a.Moderation.ListReportsByStatus(ctx, status, page, size)
	if err != nil {
		writeError(w, err, "failed to list scam reports")
		return
	}
	writeJSON(w, http.StatusOK, "success", out)
}

// ScamStatisticsHandler returns aggregate report counts
func (a AdminScam) ScamStatisticsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	stats, err := a.Moderation.GetStatistics(ctx)
	if err != nil {
		writeError(w, err, "failed to compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, "success", stats)
}

// PendingCountHandler returns the number of reports awaiting moderation
func (a AdminScam) PendingCountHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	n, err := a.Moderation.CountPending(ctx)
	if err != nil {
		writeError(w, err, "failed to count pending reports")
		return
	}
	writeJSON(w, http.StatusOK, "success", map[string]int64{"count": n})
}

// ScamByIDHandler returns one report
func (a AdminScam) ScamByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := a.Moderation.GetReport(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "failed to get scam report")
		return
	}
	writeJSON(w, http.StatusOK, "success", report)
}

// UpdateScamStatusHandler transitions one report
func (a AdminScam) UpdateScamStatusHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, ok := req.parse(w)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := a.Moderation.UpdateStatus(ctx, mux.Vars(r)["id"], status, req.AdminComment, actor)
	if err != nil {
		writeError(w, err, "failed to update scam report")
		return
	}
	writeJSON(w, http.StatusOK, "scam report updated", report)
}

// DeleteScamHandler deletes a report and its attachments
func (a AdminScam) DeleteScamHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Moderation.DeleteReport(ctx, mux.Vars(r)["id"], actor); err != nil {
		writeError(w, err, "failed to delete scam report")
		return
	}
	writeJSON(w, http.StatusOK, "scam report deleted", nil)
}

// BulkUpdateHandler transitions every pending report of a product
func (a AdminScam) BulkUpdateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, ok := req.parse(w)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	results, err := a.Moderation.BulkUpdateResults(ctx, mux.Vars(r)["productId"], status, req.AdminComment, actor)
	if err != nil {
		writeError(w, err, "failed to bulk update scam reports")
		return
	}
	updated := 0
	for _, res := range results {
		if res.Error == "" {
			updated++
		}
	}
	writeJSON(w, http.StatusOK, "bulk update complete", map[string]interface{}{
		"updated": updated,
		"results": results,
	})
}

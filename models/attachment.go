package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttachmentType describes what an uploaded piece of evidence shows
type AttachmentType string

// Attachment types
const (
	AttachmentScreenshot   AttachmentType = "SCREENSHOT"
	AttachmentMessage      AttachmentType = "MESSAGE"
	AttachmentPaymentProof AttachmentType = "PAYMENT_PROOF"
	AttachmentProductPhoto AttachmentType = "PRODUCT_PHOTO"
	AttachmentListingURL   AttachmentType = "LISTING_URL"
	AttachmentOther        AttachmentType = "OTHER"
)

var attachmentTypes = map[AttachmentType]bool{
	AttachmentScreenshot:   true,
	AttachmentMessage:      true,
	AttachmentPaymentProof: true,
	AttachmentProductPhoto: true,
	AttachmentListingURL:   true,
	AttachmentOther:        true,
}

// ParseAttachmentType reports whether code names a known attachment type.
// It never substitutes a fallback; the caller decides what unknown means.
func ParseAttachmentType(code string) (AttachmentType, bool) {
	t := AttachmentType(code)
	return t, attachmentTypes[t]
}

// ScamAttachment is a file uploaded as evidence for a scam report
type ScamAttachment struct {
	ID               primitive.ObjectID `json:"id" bson:"_id"`
	ScamID           primitive.ObjectID `json:"scamId" bson:"scamId"`
	OriginalFilename string             `json:"originalFilename" bson:"originalFilename"`
	FileURL          string             `json:"fileUrl" bson:"fileUrl"`
	StorageKey       string             `json:"-" bson:"storageKey"`
	ResourceType     string             `json:"-" bson:"resourceType,omitempty"`
	ContentType      string             `json:"contentType" bson:"contentType"`
	FileSize         int64              `json:"fileSize" bson:"fileSize"`
	Type             AttachmentType     `json:"type" bson:"type"`
	UploadedAt       time.Time          `json:"uploadedAt" bson:"uploadedAt"`
}

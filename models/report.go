package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScamType classifies the fraud a report alleges
type ScamType string

// ScamStatus is the moderation state of a scam report
type ScamStatus string

// Scam types accepted on submission
const (
	ScamTypeFakeProduct      ScamType = "FAKE_PRODUCT"
	ScamTypeAdvancePayment   ScamType = "ADVANCE_PAYMENT"
	ScamTypeSuspiciousPrice  ScamType = "SUSPICIOUS_PRICE"
	ScamTypeCounterfeit      ScamType = "COUNTERFEIT"
	ScamTypeFalseDescription ScamType = "FALSE_DESCRIPTION"
	ScamTypePhishing         ScamType = "PHISHING"
	ScamTypeOther            ScamType = "OTHER"
)

// Moderation states. PENDING is the initial state, the rest are set by admins.
const (
	ScamStatusPending     ScamStatus = "PENDING"
	ScamStatusConfirmed   ScamStatus = "CONFIRMED"
	ScamStatusRejected    ScamStatus = "REJECTED"
	ScamStatusUnderReview ScamStatus = "UNDER_REVIEW"
)

var scamTypes = map[ScamType]bool{
	ScamTypeFakeProduct:      true,
	ScamTypeAdvancePayment:   true,
	ScamTypeSuspiciousPrice:  true,
	ScamTypeCounterfeit:      true,
	ScamTypeFalseDescription: true,
	ScamTypePhishing:         true,
	ScamTypeOther:            true,
}

// ScamStatuses lists every moderation state in display order
var ScamStatuses = []ScamStatus{
	ScamStatusPending,
	ScamStatusConfirmed,
	ScamStatusRejected,
	ScamStatusUnderReview,
}

// ParseScamType returns the scam type for code and whether it is known
func ParseScamType(code string) (ScamType, bool) {
	t := ScamType(code)
	return t, scamTypes[t]
}

// ParseScamStatus returns the status for code and whether it is known
func ParseScamStatus(code string) (ScamStatus, bool) {
	for _, s := range ScamStatuses {
		if string(s) == code {
			return s, true
		}
	}
	return "", false
}

// ScamReport is a fraud report filed against a product. Reports are anonymous,
// so ReporterID stays nil unless a future flow attaches one.
type ScamReport struct {
	ID           primitive.ObjectID `json:"id" bson:"_id"`
	ReporterID   *string            `json:"reporterId,omitempty" bson:"reporterId,omitempty"`
	ProductID    string             `json:"productId" bson:"productId"`
	Type         ScamType           `json:"type" bson:"type"`
	Description  string             `json:"description" bson:"description"`
	Status       ScamStatus         `json:"status" bson:"status"`
	AdminComment *string            `json:"adminComment,omitempty" bson:"adminComment,omitempty"`
	ProcessedBy  *string            `json:"processedBy,omitempty" bson:"processedBy,omitempty"`
	ProcessedAt  *time.Time         `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ScamStatistics holds aggregate counts over all scam reports
type ScamStatistics struct {
	Total              int64                `json:"total"`
	ByStatus           map[ScamStatus]int64 `json:"byStatus"`
	LastDay            int64                `json:"lastDay"`
	LastWeek           int64                `json:"lastWeek"`
	LastMonth          int64                `json:"lastMonth"`
	ReportedProducts   int64                `json:"reportedProducts"`
	RepeatedlyReported int64                `json:"repeatedlyReportedProducts"`
}

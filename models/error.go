package models

import "errors"

// Error kinds shared by the service packages. Wrap them with fmt.Errorf("%w: ...")
// and let the handlers map them to a status code.
var (
	ErrNotFound        = errors.New("not found")
	ErrNotAuthorized   = errors.New("access denied")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTooManyAttempts = errors.New("too many attempts")
)

// Response is the envelope every endpoint writes
type Response struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
}

// Page is a slice of results plus the paging details used to fetch it
type Page struct {
	Items interface{} `json:"items"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
	Total int64       `json:"total"`
}

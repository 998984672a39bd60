package models

// HealthCheckResponse is returned by /health
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}

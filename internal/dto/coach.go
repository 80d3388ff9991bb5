package dto

import "time"

// CoachMessage is one turn of a conversation as sent by the client.
// Ordering is oldest-first and significant.
type CoachMessage struct {
	Role      string    `json:"role"` // user | assistant | system
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// CoachStreamRequest is the body of POST /coach/stream. It is transient:
// only the triggering user message and the final assistant text are logged.
type CoachStreamRequest struct {
	SessionID string         `json:"sessionId,omitempty"`
	Messages  []CoachMessage `json:"messages"`
	Lang      string         `json:"lang"`
}

// UsageResponse backs the UI quota meter.
type UsageResponse struct {
	Used    int    `json:"used"`
	Limit   int    `json:"limit"`
	Tier    string `json:"tier"`
	DateKey string `json:"dateKey"`
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

package models

import "time"

// CoachMessage is one logged turn of a coaching conversation, stored under
// users/{uid}/coach_sessions/{sessionId}/messages.
type CoachMessage struct {
	Role       string         `firestore:"role" json:"role"`
	Content    string         `firestore:"content,omitempty" json:"content,omitempty"`
	Lang       string         `firestore:"lang,omitempty" json:"lang,omitempty"`
	ToolName   string         `firestore:"toolName,omitempty" json:"toolName,omitempty"`
	ToolArgs   map[string]any `firestore:"toolArgs,omitempty" json:"toolArgs,omitempty"`
	ToolResult map[string]any `firestore:"toolResult,omitempty" json:"toolResult,omitempty"`
	CreatedAt  time.Time      `firestore:"createdAt" json:"createdAt"`
}

package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventUserLoggedIn    EventType = "user_logged_in"
	EventUserLoggedOut   EventType = "user_logged_out"
	EventPasswordChanged EventType = "password_changed"
	EventTaskCreated     EventType = "task_created"
	EventTaskDeleted     EventType = "task_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// SessionPayload accompanies login events.
type SessionPayload struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// TaskPayload accompanies task lifecycle events.
type TaskPayload struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
}

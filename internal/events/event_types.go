package events

import (
	"time"

	"github.com/stayhub/booking-api/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated          EventType = "support_ticket_created"
	EventTicketClosed           EventType = "support_ticket_closed"
	EventPasswordResetRequested EventType = "password_reset_requested"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID      string                `json:"ticket_id"`
	Category      domain.TicketCategory `json:"category"`
	Subject       string                `json:"subject"`
	HasSuggestion bool                  `json:"has_suggestion"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	TicketID string    `json:"ticket_id"`
	AuthorID string    `json:"author_id"`
	ClosedAt time.Time `json:"closed_at"`
}

// PasswordResetRequestedPayload payload.
type PasswordResetRequestedPayload struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

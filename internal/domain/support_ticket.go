package domain

import "time"

// TicketStatus enumerates lifecycle states for support tickets.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "OPEN"
	TicketStatusClosed TicketStatus = "CLOSED"
)

// TicketCategory enumerates the fixed set of support topics.
type TicketCategory string

const (
	TicketCategoryBilling   TicketCategory = "BILLING"
	TicketCategoryTechnical TicketCategory = "TECHNICAL"
	TicketCategoryBooking   TicketCategory = "BOOKING"
	TicketCategoryOther     TicketCategory = "OTHER"
)

// ValidTicketCategory reports whether the category is one of the known values.
func ValidTicketCategory(category TicketCategory) bool {
	switch category {
	case TicketCategoryBilling, TicketCategoryTechnical, TicketCategoryBooking, TicketCategoryOther:
		return true
	}
	return false
}

// SupportTicket is the aggregate for support requests.
type SupportTicket struct {
	ID            string
	AuthorID      string
	Category      TicketCategory
	Subject       string
	Message       string
	Status        TicketStatus
	AssignedRepID *string
	AISuggestion  *string
	CreatedAt     time.Time
	ClosedAt      *time.Time
}

// CanBeAccessedBy reports whether the requester may read or close the ticket.
// Authors always retain access to their own tickets; elevated roles see all.
func (t *SupportTicket) CanBeAccessedBy(requesterID string, role Role) bool {
	if t.AuthorID == requesterID {
		return true
	}
	return IsElevated(role)
}

// RepStatistic aggregates open-ticket load for one support representative.
type RepStatistic struct {
	RepID       string `json:"repId"`
	RepName     string `json:"repName"`
	OpenTickets int    `json:"openTickets"`
}

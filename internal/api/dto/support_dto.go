package dto

import (
	"time"

	"github.com/stayhub/booking-api/internal/domain"
)

// CreateSupportRequest payload.
type CreateSupportRequest struct {
	Category domain.TicketCategory `json:"category"`
	Subject  string                `json:"subject"`
	Message  string                `json:"message"`
}

// SupportTicketResponse is the wire shape of a ticket.
type SupportTicketResponse struct {
	ID            string                `json:"id"`
	AuthorID      string                `json:"authorId"`
	Category      domain.TicketCategory `json:"category"`
	Subject       string                `json:"subject"`
	Message       string                `json:"message"`
	Status        domain.TicketStatus   `json:"status"`
	AssignedRepID *string               `json:"assignedRepId"`
	AISuggestion  *string               `json:"aiSuggestion"`
	CreatedAt     time.Time             `json:"createdAt"`
	ClosedAt      *time.Time            `json:"closedAt"`
}

// SupportListResponse is one page of tickets plus the filtered total.
type SupportListResponse struct {
	Items []SupportTicketResponse `json:"items"`
	Total int                     `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

// RepStatisticsSummary aggregates the per-rep counts.
type RepStatisticsSummary struct {
	TotalReps            int `json:"totalReps"`
	TotalOpenTickets     int `json:"totalOpenTickets"`
	AverageTicketsPerRep int `json:"averageTicketsPerRep"`
}

// RepStatisticsResponse is the statistics endpoint payload.
type RepStatisticsResponse struct {
	SupportReps []domain.RepStatistic `json:"supportReps"`
	Summary     RepStatisticsSummary  `json:"summary"`
}

// FromTicket maps a domain ticket to its response shape.
func FromTicket(ticket *domain.SupportTicket) SupportTicketResponse {
	return SupportTicketResponse{
		ID:            ticket.ID,
		AuthorID:      ticket.AuthorID,
		Category:      ticket.Category,
		Subject:       ticket.Subject,
		Message:       ticket.Message,
		Status:        ticket.Status,
		AssignedRepID: ticket.AssignedRepID,
		AISuggestion:  ticket.AISuggestion,
		CreatedAt:     ticket.CreatedAt,
		ClosedAt:      ticket.ClosedAt,
	}
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/stayhub/booking-api/internal/assistant"
	"github.com/stayhub/booking-api/internal/domain"
	"github.com/stayhub/booking-api/internal/events"
	"github.com/stayhub/booking-api/internal/repository"
	apperrors "github.com/stayhub/booking-api/pkg/util"
)

// ListStatus widens TicketStatus with the "all" pseudo-filter accepted by
// the list endpoint.
type ListStatus string

const (
	ListStatusOpen   ListStatus = "open"
	ListStatusClosed ListStatus = "closed"
	ListStatusAll    ListStatus = "all"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SupportService owns the ticket lifecycle, authorization rules, pagination
// and statistics aggregation. It holds no mutable state between calls; all
// durable state lives behind the repositories.
type SupportService struct {
	tickets    repository.SupportTicketRepository
	assistant  assistant.Assistant
	statsCache repository.RepStatsCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// SupportDependencies bundles collaborators for the support service.
type SupportDependencies struct {
	TicketRepo repository.SupportTicketRepository
	Assistant  assistant.Assistant
	StatsCache repository.RepStatsCache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// CreateSupportInput describes ticket creation payload. Field shape checks
// (non-empty, bounded length) happen in the handler before this call.
type CreateSupportInput struct {
	Category domain.TicketCategory
	Subject  string
	Message  string
}

// ListSupportInput describes listing filters.
type ListSupportInput struct {
	Page     int
	Limit    int
	Status   ListStatus
	Category *domain.TicketCategory
}

// SupportList is one page of tickets plus the total size of the filtered
// set, so callers can compute page counts.
type SupportList struct {
	Items []domain.SupportTicket
	Total int
	Page  int
	Limit int
}

// NewSupportService constructs the service.
func NewSupportService(deps SupportDependencies) *SupportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupportService{
		tickets:    deps.TicketRepo,
		assistant:  deps.Assistant,
		statsCache: deps.StatsCache,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateSupportRequest persists a new open ticket for the author. An AI
// suggested first response is requested best-effort: gateway failure leaves
// the suggestion empty and never fails the creation.
func (s *SupportService) CreateSupportRequest(ctx context.Context, authorID string, input CreateSupportInput) (*domain.SupportTicket, error) {
	if !domain.ValidTicketCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown ticket category", map[string]any{"category": input.Category})
	}

	ticket := &domain.SupportTicket{
		AuthorID: authorID,
		Category: input.Category,
		Subject:  strings.TrimSpace(input.Subject),
		Message:  strings.TrimSpace(input.Message),
		Status:   domain.TicketStatusOpen,
	}

	if s.assistant != nil {
		suggestion, err := s.assistant.SuggestReply(ctx, ticket.Subject, ticket.Message)
		if err != nil {
			s.logger.Warn("assistant suggestion failed; creating ticket without one", zap.Error(err))
		} else if suggestion != "" {
			ticket.AISuggestion = &suggestion
		}
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketCreated,
		ActorID: authorID,
		Payload: events.TicketCreatedPayload{
			TicketID:      ticket.ID,
			Category:      ticket.Category,
			Subject:       ticket.Subject,
			HasSuggestion: ticket.AISuggestion != nil,
		},
	})
	return ticket, nil
}

// GetSupportByID fetches a ticket, enforcing that only the author or an
// elevated role may read it.
func (s *SupportService) GetSupportByID(ctx context.Context, ticketID, requesterID string, requesterRole domain.Role) (*domain.SupportTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("support ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	if !ticket.CanBeAccessedBy(requesterID, requesterRole) {
		return nil, apperrors.NewForbidden("not allowed to access this support ticket")
	}
	return ticket, nil
}

// GetSupportList returns one page of tickets. Non-elevated requesters are
// scoped to their own tickets; elevated roles see all authors. Ordering is
// newest first with id as the tie-break.
func (s *SupportService) GetSupportList(ctx context.Context, input ListSupportInput, requesterID string, requesterRole domain.Role) (*SupportList, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := repository.TicketFilter{
		Category: input.Category,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}
	switch input.Status {
	case ListStatusOpen:
		status := domain.TicketStatusOpen
		filter.Status = &status
	case ListStatusClosed:
		status := domain.TicketStatusClosed
		filter.Status = &status
	case ListStatusAll, "":
	default:
		return nil, apperrors.NewValidationError("status must be open, closed or all", nil)
	}
	if !domain.IsElevated(requesterRole) {
		filter.AuthorID = &requesterID
	}

	items, total, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.SupportTicket{}
	}
	return &SupportList{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// CloseSupportRequest transitions a ticket from open to closed. Closing is
// deliberately not idempotent: closing an already-closed ticket is a
// Conflict. The status flip is a single conditional update so that of two
// racing close attempts only one succeeds.
func (s *SupportService) CloseSupportRequest(ctx context.Context, ticketID, requesterID string, requesterRole domain.Role) (*domain.SupportTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("support ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	if !ticket.CanBeAccessedBy(requesterID, requesterRole) {
		return nil, apperrors.NewForbidden("not allowed to close this support ticket")
	}

	closed, err := s.tickets.CloseIfOpen(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("support ticket already closed", map[string]any{"id": ticketID})
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketClosed,
		ActorID: requesterID,
		Payload: events.TicketClosedPayload{
			TicketID: closed.ID,
			AuthorID: closed.AuthorID,
			ClosedAt: derefTime(closed.ClosedAt),
		},
	})
	return closed, nil
}

// GetSupportRepStatistics returns the open-ticket load per support
// representative. The service performs no role check here; the admin guard
// on the route is mandatory.
func (s *SupportService) GetSupportRepStatistics(ctx context.Context) ([]domain.RepStatistic, error) {
	if s.statsCache != nil {
		if stats, ok := s.statsCache.Get(ctx); ok {
			return stats, nil
		}
	}
	stats, err := s.tickets.OpenTicketCountsByRep(ctx)
	if err != nil {
		return nil, err
	}
	if s.statsCache != nil {
		s.statsCache.Set(ctx, stats)
	}
	return stats, nil
}

func (s *SupportService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stayhub/booking-api/internal/domain"
)

// TicketFilter captures listing parameters. A nil AuthorID means no author
// scoping (elevated callers); Status nil means all statuses.
type TicketFilter struct {
	AuthorID *string
	Status   *domain.TicketStatus
	Category *domain.TicketCategory
	Limit    int
	Offset   int
}

// SupportTicketRepository encapsulates ticket persistence.
type SupportTicketRepository interface {
	Create(ctx context.Context, ticket *domain.SupportTicket) error
	GetByID(ctx context.Context, id string) (*domain.SupportTicket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.SupportTicket, int, error)
	// CloseIfOpen atomically transitions the ticket from OPEN to CLOSED.
	// Returns pgx.ErrNoRows when the ticket is absent or already closed, so
	// that of two racing close attempts exactly one succeeds.
	CloseIfOpen(ctx context.Context, id string) (*domain.SupportTicket, error)
	OpenTicketCountsByRep(ctx context.Context) ([]domain.RepStatistic, error)
}

type supportTicketRepository struct {
	pool *pgxpool.Pool
}

// NewSupportTicketRepository instantiates repository.
func NewSupportTicketRepository(pool *pgxpool.Pool) SupportTicketRepository {
	return &supportTicketRepository{pool: pool}
}

const ticketColumns = `id, author_id, category, subject, message, status, assigned_rep_id, ai_suggestion, created_at, closed_at`

func (r *supportTicketRepository) Create(ctx context.Context, ticket *domain.SupportTicket) error {
	const query = `
        INSERT INTO support_tickets (author_id, category, subject, message, status, assigned_rep_id, ai_suggestion)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.AuthorID,
		ticket.Category,
		ticket.Subject,
		ticket.Message,
		ticket.Status,
		ticket.AssignedRepID,
		ticket.AISuggestion,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *supportTicketRepository) GetByID(ctx context.Context, id string) (*domain.SupportTicket, error) {
	query := fmt.Sprintf(`SELECT %s FROM support_tickets WHERE id=$1`, ticketColumns)
	var ticket domain.SupportTicket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *supportTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.SupportTicket, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		clauses = append(clauses, fmt.Sprintf("author_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM support_tickets WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	// id is the tie-break so pages stay stable when tickets share a timestamp.
	query := fmt.Sprintf(`SELECT %s FROM support_tickets WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *supportTicketRepository) CloseIfOpen(ctx context.Context, id string) (*domain.SupportTicket, error) {
	query := fmt.Sprintf(`
        UPDATE support_tickets SET status=$1, closed_at=NOW()
        WHERE id=$2 AND status=$3
        RETURNING %s`, ticketColumns)
	var ticket domain.SupportTicket
	if err := scanTicket(r.pool.QueryRow(ctx, query, domain.TicketStatusClosed, id, domain.TicketStatusOpen), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *supportTicketRepository) OpenTicketCountsByRep(ctx context.Context) ([]domain.RepStatistic, error) {
	const query = `
        SELECT u.id, u.name, COUNT(t.id) FILTER (WHERE t.status = 'OPEN')
        FROM users u
        LEFT JOIN support_tickets t ON t.assigned_rep_id = u.id
        WHERE u.role IN ('SUPPORT', 'ADMIN')
        GROUP BY u.id, u.name
        ORDER BY u.name, u.id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []domain.RepStatistic{}
	for rows.Next() {
		var stat domain.RepStatistic
		if err := rows.Scan(&stat.RepID, &stat.RepName, &stat.OpenTickets); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.SupportTicket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.AuthorID,
		&ticket.Category,
		&ticket.Subject,
		&ticket.Message,
		&ticket.Status,
		&ticket.AssignedRepID,
		&ticket.AISuggestion,
		&ticket.CreatedAt,
		&ticket.ClosedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.SupportTicket, error) {
	var result []domain.SupportTicket
	for rows.Next() {
		var ticket domain.SupportTicket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

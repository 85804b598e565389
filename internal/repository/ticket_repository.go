package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter holds the optional, conjunctive ticket search predicates.
// A nil field does not restrict the result.
type TicketFilter struct {
	TicketID   *int64
	CustomerID *int64
	AssignedTo *int64
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// UpdateStatus writes status and assignee together; a nil assignee unassigns.
	// Both updates return ErrTicketClosed instead of leaving CLOSED.
	UpdateStatus(ctx context.Context, ticket *domain.Ticket) error
	UpdateAssignee(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context) ([]domain.StatusCount, error)
	CountByPriority(ctx context.Context) ([]domain.PriorityCount, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, customer_id, title, description, priority, status, assigned_to, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (customer_id, title, description, priority, status, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.CustomerID,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedTo,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return translate(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.db.QueryRow(ctx, query, id))
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, assigned_to=$2, updated_at=NOW()
        WHERE id=$3 AND (status <> 'CLOSED' OR $4)
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, ticket.Status, ticket.AssignedTo, ticket.ID, ticket.Status.Terminal()).
		Scan(&ticket.UpdatedAt)
	return r.guardMiss(ctx, ticket.ID, translate(err))
}

func (r *ticketRepository) UpdateAssignee(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET assigned_to=$1, updated_at=NOW()
        WHERE id=$2 AND status <> 'CLOSED'
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, ticket.AssignedTo, ticket.ID).Scan(&ticket.UpdatedAt)
	return r.guardMiss(ctx, ticket.ID, translate(err))
}

// guardMiss tells a missing ticket apart from one the CLOSED guard skipped.
func (r *ticketRepository) guardMiss(ctx context.Context, id int64, err error) error {
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrTicketClosed
	}
	return pgx.ErrNoRows
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	query, args := buildTicketListQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.StatusCount{}
	for rows.Next() {
		var row domain.StatusCount
		if err := rows.Scan(&row.Status, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountByPriority(ctx context.Context) ([]domain.PriorityCount, error) {
	rows, err := r.db.Query(ctx, `SELECT priority, COUNT(*) FROM tickets GROUP BY priority ORDER BY priority`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.PriorityCount{}
	for rows.Next() {
		var row domain.PriorityCount
		if err := rows.Scan(&row.Priority, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// buildTicketListQuery composes the fixed set of optional predicates.
// Values only ever travel as bind parameters.
func buildTicketListQuery(filter TicketFilter) (string, []any) {
	clauses := []string{}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if filter.TicketID != nil {
		add("id", *filter.TicketID)
	}
	if filter.CustomerID != nil {
		add("customer_id", *filter.CustomerID)
	}
	if filter.AssignedTo != nil {
		add("assigned_to", *filter.AssignedTo)
	}
	if filter.Status != nil {
		add("status", *filter.Status)
	}
	if filter.Priority != nil {
		add("priority", *filter.Priority)
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	return query, args
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.CustomerID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AssignedTo,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

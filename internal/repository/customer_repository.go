package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CustomerFilter narrows customer listings.
type CustomerFilter struct {
	Name *string
}

// CustomerRepository encapsulates customer persistence.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter CustomerFilter) ([]domain.Customer, error)
	// Delete removes the customer; the store cascades to its tickets.
	Delete(ctx context.Context, id int64) error
}

type customerRepository struct {
	db DBTX
}

// NewCustomerRepository instantiates repository.
func NewCustomerRepository(db DBTX) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (name, email, company)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		customer.Name,
		customer.Email,
		customer.Company,
	).Scan(&customer.ID, &customer.CreatedAt)
	return translate(err)
}

func (r *customerRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *customerRepository) List(ctx context.Context, filter CustomerFilter) ([]domain.Customer, error) {
	query := `SELECT id, name, email, company, created_at FROM customers`
	args := []any{}
	if filter.Name != nil && strings.TrimSpace(*filter.Name) != "" {
		args = append(args, containsPattern(strings.TrimSpace(*filter.Name)))
		query += fmt.Sprintf(` WHERE name ILIKE $%d ESCAPE '\'`, len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Customer{}
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Email,
			&customer.Company,
			&customer.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, customer)
	}
	return result, rows.Err()
}

func (r *customerRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches term literally anywhere in the column.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

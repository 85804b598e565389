package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestCustomerRepository_DeleteCascadesInStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// One statement: the tickets go with the customer through ON DELETE CASCADE.
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE id=$1")).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := NewCustomerRepository(mock)
	require.NoError(t, repo.Delete(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_DeleteNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE id=$1")).
		WithArgs(int64(404)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewCustomerRepository(mock)
	assert.ErrorIs(t, repo.Delete(context.Background(), 404), pgx.ErrNoRows)
}

func TestCustomerRepository_Exists(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewCustomerRepository(mock)
	exists, err := repo.Exists(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_CreateDuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO customers")).
		WithArgs("Alice", "alice@x.com", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	repo := NewCustomerRepository(mock)
	err = repo.Create(context.Background(), &domain.Customer{Name: "Alice", Email: "alice@x.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCustomerRepository_ListMatchesWildcardsLiterally(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE name ILIKE $1 ESCAPE '\'`)).
		WithArgs(`%50\%\_off%`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "company", "created_at"}))

	name := " 50%_off "
	repo := NewCustomerRepository(mock)
	customers, err := repo.List(context.Background(), CustomerFilter{Name: &name})
	require.NoError(t, err)
	assert.Empty(t, customers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%alic%", containsPattern("alic"))
	assert.Equal(t, `%\_%`, containsPattern("_"))
	assert.Equal(t, `%a\\b%`, containsPattern(`a\b`))
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// CustomerService manages customers. Deleting a customer removes its tickets.
type CustomerService struct {
	customers  repository.CustomerRepository
	summary    SummaryInvalidator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CustomerDependencies bundles collaborators for the customer service.
type CustomerDependencies struct {
	CustomerRepo repository.CustomerRepository
	Summary      SummaryInvalidator
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// CustomerCreateInput describes a new customer.
type CustomerCreateInput struct {
	Name    string
	Email   string
	Company *string
}

// NewCustomerService constructs the service.
func NewCustomerService(deps CustomerDependencies) *CustomerService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customers:  deps.CustomerRepo,
		summary:    deps.Summary,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateCustomer stores a customer with a unique email.
func (s *CustomerService) CreateCustomer(ctx context.Context, input CustomerCreateInput) (*domain.Customer, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	details := map[string]any{}
	if name == "" {
		details["name"] = "Name is required"
	}
	if email == "" {
		details["email"] = "Email is required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details)
	}

	customer := &domain.Customer{
		Name:    name,
		Email:   email,
		Company: trimOptional(input.Company),
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("customer email already exists", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	return customer, nil
}

// ListCustomers returns customers newest first, optionally filtered by a
// case-insensitive name substring.
func (s *CustomerService) ListCustomers(ctx context.Context, name *string) ([]domain.Customer, error) {
	filter := repository.CustomerFilter{}
	if name != nil && strings.TrimSpace(*name) != "" {
		trimmed := strings.TrimSpace(*name)
		filter.Name = &trimmed
	}
	customers, err := s.customers.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return customers, nil
}

// DeleteCustomer removes the customer and every ticket that belongs to it.
func (s *CustomerService) DeleteCustomer(ctx context.Context, customerID int64) error {
	if err := s.customers.Delete(ctx, customerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("customer", map[string]any{"customer_id": customerID})
		}
		return apperrors.MapError(err)
	}
	if err := s.summary.Invalidate(ctx); err != nil {
		return err
	}

	if s.dispatcher != nil {
		event := events.Event{Type: events.EventCustomerDeleted, CustomerID: customerID}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("customer event handlers failed", zap.Int64("customer_id", customerID), zap.Error(err))
		}
	}
	return nil
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository/repotest"
)

type fixture struct {
	store      *repotest.Store
	cache      *repotest.Cache
	dispatcher events.Dispatcher
	dashboard  *DashboardService
	tickets    *TicketService
	customers  *CustomerService
	auth       *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.NewStore()
	cache := repotest.NewCache()
	dispatcher := events.NewInMemoryDispatcher()

	dashboard := NewDashboardService(DashboardDependencies{Stats: store.Tickets(), Cache: cache})
	return &fixture{
		store:      store,
		cache:      cache,
		dispatcher: dispatcher,
		dashboard:  dashboard,
		tickets: NewTicketService(TicketDependencies{
			TicketRepo:   store.Tickets(),
			CustomerRepo: store.Customers(),
			UserRepo:     store.Users(),
			Summary:      dashboard,
			Dispatcher:   dispatcher,
		}),
		customers: NewCustomerService(CustomerDependencies{
			CustomerRepo: store.Customers(),
			Summary:      dashboard,
			Dispatcher:   dispatcher,
		}),
		auth: NewAuthService(config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 60, BcryptCost: 4},
			AuthDependencies{UserRepo: store.Users()}),
	}
}

func (f *fixture) customer(t *testing.T, name, email string) *domain.Customer {
	t.Helper()
	customer, err := f.customers.CreateCustomer(context.Background(), CustomerCreateInput{Name: name, Email: email})
	require.NoError(t, err)
	return customer
}

func (f *fixture) user(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Name: "Sam", Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, f.store.Users().Create(context.Background(), user))
	return user
}

func (f *fixture) ticket(t *testing.T, customerID int64, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), TicketCreateInput{
		CustomerID: customerID,
		Title:      "Printer jammed",
		Priority:   priority,
	})
	require.NoError(t, err)
	return ticket
}

func statusCounts(summary *domain.DashboardSummary) map[domain.TicketStatus]int64 {
	out := map[domain.TicketStatus]int64{}
	for _, sc := range summary.ByStatus {
		out[sc.Status] = sc.Count
	}
	return out
}

func priorityCounts(summary *domain.DashboardSummary) map[domain.TicketPriority]int64 {
	out := map[domain.TicketPriority]int64{}
	for _, pc := range summary.ByPriority {
		out[pc.Priority] = pc.Count
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }

// Package repotest provides in-memory repository implementations for tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Store is a shared in-memory database. Deleting a customer cascades to its tickets
// the same way the Postgres schema does.
type Store struct {
	mu        sync.Mutex
	clock     time.Time
	nextID    int64
	users     map[int64]domain.User
	customers map[int64]domain.Customer
	tickets   map[int64]domain.Ticket
	history   map[int64][]domain.TicketHistory

	// Err, when set, is returned by every repository call.
	Err error
	// CountCalls tracks aggregate recomputations.
	CountCalls int
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:     map[int64]domain.User{},
		customers: map[int64]domain.Customer{},
		tickets:   map[int64]domain.Ticket{},
		history:   map[int64][]domain.TicketHistory{},
	}
}

func (s *Store) tick() (int64, time.Time) {
	s.nextID++
	s.clock = s.clock.Add(time.Second)
	return s.nextID, s.clock
}

// Users returns a UserRepository view.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Customers returns a CustomerRepository view.
func (s *Store) Customers() repository.CustomerRepository { return customerRepo{s} }

// Tickets returns a TicketRepository view.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// History returns a TicketHistoryRepository view.
func (s *Store) History() repository.TicketHistoryRepository { return historyRepo{s} }

// TicketCount reports how many tickets are stored.
func (s *Store) TicketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID, user.CreatedAt = r.s.tick()
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) UpdateRole(_ context.Context, id int64, role domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	user, ok := r.s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Role = role
	r.s.users[id] = user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	user, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, user := range r.s.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r userRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	result := []domain.User{}
	for _, user := range r.s.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

type customerRepo struct{ s *Store }

func (r customerRepo) Create(_ context.Context, customer *domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, existing := range r.s.customers {
		if strings.EqualFold(existing.Email, customer.Email) {
			return repository.ErrDuplicate
		}
	}
	customer.ID, customer.CreatedAt = r.s.tick()
	r.s.customers[customer.ID] = *customer
	return nil
}

func (r customerRepo) Exists(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return false, r.s.Err
	}
	_, ok := r.s.customers[id]
	return ok, nil
}

func (r customerRepo) List(_ context.Context, filter repository.CustomerFilter) ([]domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	result := []domain.Customer{}
	for _, customer := range r.s.customers {
		if filter.Name != nil && !strings.Contains(strings.ToLower(customer.Name), strings.ToLower(*filter.Name)) {
			continue
		}
		result = append(result, customer)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (r customerRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.customers[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.customers, id)
	for ticketID, ticket := range r.s.tickets {
		if ticket.CustomerID == id {
			delete(r.s.tickets, ticketID)
			delete(r.s.history, ticketID)
		}
	}
	return nil
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.customers[ticket.CustomerID]; !ok {
		return repository.ErrMissingReference
	}
	var now time.Time
	ticket.ID, now = r.s.tick()
	ticket.CreatedAt, ticket.UpdatedAt = now, now
	r.s.tickets[ticket.ID] = *ticket
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r ticketRepo) UpdateStatus(_ context.Context, ticket *domain.Ticket) error {
	return r.update(ticket.ID, ticket.Status.Terminal(), func(stored *domain.Ticket) {
		stored.Status = ticket.Status
		stored.AssignedTo = ticket.AssignedTo
	}, ticket)
}

func (r ticketRepo) UpdateAssignee(_ context.Context, ticket *domain.Ticket) error {
	return r.update(ticket.ID, false, func(stored *domain.Ticket) {
		stored.AssignedTo = ticket.AssignedTo
	}, ticket)
}

func (r ticketRepo) update(id int64, closedOK bool, apply func(*domain.Ticket), out *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	stored, ok := r.s.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Status.Terminal() && !closedOK {
		return repository.ErrTicketClosed
	}
	apply(&stored)
	r.s.clock = r.s.clock.Add(time.Second)
	stored.UpdatedAt = r.s.clock
	r.s.tickets[id] = stored
	out.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r ticketRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.tickets, id)
	delete(r.s.history, id)
	return nil
}

func (r ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	result := []domain.Ticket{}
	for _, ticket := range r.s.tickets {
		if filter.TicketID != nil && ticket.ID != *filter.TicketID {
			continue
		}
		if filter.CustomerID != nil && ticket.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.AssignedTo != nil && (ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && ticket.Priority != *filter.Priority {
			continue
		}
		result = append(result, ticket)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (r ticketRepo) CountByStatus(_ context.Context) ([]domain.StatusCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	r.s.CountCalls++
	counts := map[domain.TicketStatus]int64{}
	for _, ticket := range r.s.tickets {
		counts[ticket.Status]++
	}
	result := []domain.StatusCount{}
	for status, count := range counts {
		result = append(result, domain.StatusCount{Status: status, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Status < result[j].Status })
	return result, nil
}

func (r ticketRepo) CountByPriority(_ context.Context) ([]domain.PriorityCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	counts := map[domain.TicketPriority]int64{}
	for _, ticket := range r.s.tickets {
		counts[ticket.Priority]++
	}
	result := []domain.PriorityCount{}
	for priority, count := range counts {
		result = append(result, domain.PriorityCount{Priority: priority, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Priority < result[j].Priority })
	return result, nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(_ context.Context, entry *domain.TicketHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.tickets[entry.TicketID]; !ok {
		return repository.ErrMissingReference
	}
	entry.ID, entry.CreatedAt = r.s.tick()
	r.s.history[entry.TicketID] = append(r.s.history[entry.TicketID], *entry)
	return nil
}

func (r historyRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return append([]domain.TicketHistory{}, r.s.history[ticketID]...), nil
}

// Cache is an in-memory cache.Store that ignores TTLs and counts calls.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]byte

	Gets, Sets, Deletes int
	// Err, when set, is returned by every call.
	Err error
}

// NewCache builds an empty cache.
func NewCache() *Cache {
	return &Cache{entries: map[string][]byte{}}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	if c.Err != nil {
		return nil, false, c.Err
	}
	val, ok := c.entries[key]
	return val, ok, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sets++
	if c.Err != nil {
		return c.Err
	}
	c.entries[key] = value
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deletes++
	if c.Err != nil {
		return c.Err
	}
	delete(c.entries, key)
	return nil
}

// Has reports whether key is cached.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

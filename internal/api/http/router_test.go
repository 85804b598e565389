package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository/repotest"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/pkg/util/validate"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app   *fiber.App
	store *repotest.Store
	auth  *service.AuthService
}

func newTestServer(t *testing.T, redisPing error) *testServer {
	t.Helper()
	store := repotest.NewStore()
	logger := zap.NewNop()
	metrics := observability.NewMetrics("helpdesk-test")
	dispatcher := events.NewInMemoryDispatcher()

	dashboard := service.NewDashboardService(service.DashboardDependencies{
		Stats:    store.Tickets(),
		Cache:    repotest.NewCache(),
		Recorder: metrics,
	})
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   store.Tickets(),
		CustomerRepo: store.Customers(),
		UserRepo:     store.Users(),
		Summary:      dashboard,
		Dispatcher:   dispatcher,
	})
	customers := service.NewCustomerService(service.CustomerDependencies{
		CustomerRepo: store.Customers(),
		Summary:      dashboard,
		Dispatcher:   dispatcher,
	})
	history := service.NewTicketHistoryService(service.TicketHistoryDependencies{
		HistoryRepo: store.History(),
		TicketRepo:  store.Tickets(),
		Dispatcher:  dispatcher,
	})
	history.RegisterHandlers()
	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 60, BcryptCost: 4},
		service.AuthDependencies{UserRepo: store.Users()})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 0)
	validator := validate.New()
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk", "test", pinger{}, pinger{err: redisPing}),
		Users:          handlers.NewUsersHandler(authService, validator),
		Customers:      handlers.NewCustomersHandler(customers, validator),
		Tickets:        handlers.NewTicketsHandler(tickets, history, validator),
		Dashboard:      handlers.NewDashboardHandler(dashboard),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users()),
		Metrics:        metrics.Handler(),
	})
	return &testServer{app: app, store: store, auth: authService}
}

func (s *testServer) call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := s.call(t, http.MethodPost, "/login", "", map[string]any{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status, body)
	return body["data"].(map[string]any)["token"].(string)
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, _, err := s.auth.ProvisionAdmin(context.Background(), "Root", "root@x.com", "rootpass1")
	require.NoError(t, err)
	return s.login(t, "root@x.com", "rootpass1")
}

func (s *testServer) agentToken(t *testing.T) (string, int64) {
	t.Helper()
	status, body := s.call(t, http.MethodPost, "/register", "", map[string]any{
		"name": "Sam", "email": "sam@x.com", "password": "agentpass1",
	})
	require.Equal(t, http.StatusCreated, status, body)
	id := int64(body["data"].(map[string]any)["id"].(float64))
	return s.login(t, "sam@x.com", "agentpass1"), id
}

func errorCode(body map[string]any) string {
	return body["error"].(map[string]any)["code"].(string)
}

func TestTicketLifecycleScenario(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.adminToken(t)

	status, body := srv.call(t, http.MethodPost, "/customers", token, map[string]any{"name": "Alice", "email": "alice@x.com"})
	require.Equal(t, http.StatusCreated, status, body)
	customerID := body["data"].(map[string]any)["id"].(float64)

	status, body = srv.call(t, http.MethodPost, "/tickets", token, map[string]any{
		"customer_id": customerID, "title": "Can't log in", "priority": "HIGH",
	})
	require.Equal(t, http.StatusCreated, status, body)
	ticket := body["data"].(map[string]any)
	assert.Equal(t, "OPEN", ticket["status"])
	ticketPath := fmt.Sprintf("/tickets/%d", int64(ticket["id"].(float64)))

	status, body = srv.call(t, http.MethodGet, "/dashboard/summary", token, nil)
	require.Equal(t, http.StatusOK, status)
	byStatus := body["data"].(map[string]any)["by_status"].([]any)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "OPEN", byStatus[0].(map[string]any)["status"])
	assert.EqualValues(t, 1, byStatus[0].(map[string]any)["count"])

	status, body = srv.call(t, http.MethodPut, ticketPath+"/update", token, map[string]any{"status": "CLOSED"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "CLOSED", body["data"].(map[string]any)["status"])

	status, body = srv.call(t, http.MethodPut, ticketPath+"/update", token, map[string]any{"status": "OPEN"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(body))
	assert.Equal(t, "closed tickets cannot be reopened", body["error"].(map[string]any)["message"])

	status, body = srv.call(t, http.MethodGet, "/tickets?ticket_id="+strings.TrimPrefix(ticketPath, "/tickets/"), token, nil)
	require.Equal(t, http.StatusOK, status)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "CLOSED", items[0].(map[string]any)["status"])

	status, body = srv.call(t, http.MethodGet, ticketPath+"/history", token, nil)
	require.Equal(t, http.StatusOK, status)
	history := body["data"].([]any)
	require.Len(t, history, 2)
	assert.Equal(t, "CREATED", history[0].(map[string]any)["change_type"])
	assert.Equal(t, "STATUS_CHANGE", history[1].(map[string]any)["change_type"])

	status, body = srv.call(t, http.MethodGet, "/dashboard/summary", token, nil)
	require.Equal(t, http.StatusOK, status)
	byStatus = body["data"].(map[string]any)["by_status"].([]any)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "CLOSED", byStatus[0].(map[string]any)["status"])
}

func TestRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/tickets", "/customers", "/dashboard/summary", "/users"} {
		status, body := srv.call(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, "UNAUTHORIZED", errorCode(body), path)
	}

	status, _ := srv.call(t, http.MethodGet, "/tickets", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminOnlyRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	adminToken := srv.adminToken(t)
	agentToken, _ := srv.agentToken(t)

	status, body := srv.call(t, http.MethodPost, "/customers", agentToken, map[string]any{"name": "Alice", "email": "alice@x.com"})
	require.Equal(t, http.StatusCreated, status, body)
	customerPath := fmt.Sprintf("/customers/%d", int64(body["data"].(map[string]any)["id"].(float64)))

	status, body = srv.call(t, http.MethodDelete, customerPath, agentToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, _ = srv.call(t, http.MethodGet, "/users", agentToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = srv.call(t, http.MethodGet, "/users?role=AGENT", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	users := body["data"].([]any)
	require.Len(t, users, 1)
	assert.NotContains(t, users[0].(map[string]any), "password_hash")

	status, _ = srv.call(t, http.MethodDelete, customerPath, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, body = srv.call(t, http.MethodDelete, customerPath, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestAssignThroughAPI(t *testing.T) {
	srv := newTestServer(t, nil)
	adminToken := srv.adminToken(t)
	agentToken, agentID := srv.agentToken(t)

	_, body := srv.call(t, http.MethodPost, "/customers", adminToken, map[string]any{"name": "Alice", "email": "alice@x.com"})
	customerID := body["data"].(map[string]any)["id"]
	_, body = srv.call(t, http.MethodPost, "/tickets", agentToken, map[string]any{
		"customer_id": customerID, "title": "Slow VPN", "priority": "LOW",
	})
	ticketPath := fmt.Sprintf("/tickets/%d", int64(body["data"].(map[string]any)["id"].(float64)))

	status, body := srv.call(t, http.MethodPut, ticketPath+"/assign", agentToken, map[string]any{"assigned_to": agentID})
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, agentID, body["data"].(map[string]any)["assigned_to"])

	status, _ = srv.call(t, http.MethodGet, fmt.Sprintf("/tickets?assigned_to=%d&priority=LOW", agentID), agentToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = srv.call(t, http.MethodDelete, ticketPath, agentToken, nil)
	assert.Equal(t, http.StatusForbidden, status, body)
	status, _ = srv.call(t, http.MethodDelete, ticketPath, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestValidationErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.adminToken(t)

	status, body := srv.call(t, http.MethodPost, "/tickets", token, map[string]any{"customer_id": 1, "title": "x", "priority": "URGENT"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	assert.Contains(t, body["error"].(map[string]any)["details"], "priority")

	status, body = srv.call(t, http.MethodPost, "/tickets", token, map[string]any{"customer_id": 999, "title": "x", "priority": "LOW"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
	assert.Zero(t, srv.store.TicketCount())

	status, _ = srv.call(t, http.MethodPut, "/tickets/abc/update", token, map[string]any{"status": "CLOSED"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = srv.call(t, http.MethodGet, "/tickets?customer_id=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = srv.call(t, http.MethodPost, "/customers", token, map[string]any{"name": "Bob", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"].(map[string]any)["details"], "email")
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.call(t, http.MethodPost, "/register", "", map[string]any{
		"name": "Mallory", "email": "m@x.com", "password": "password1", "role": "ADMIN",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = srv.call(t, http.MethodPost, "/login", "", map[string]any{"email": "m@x.com", "password": "password1"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.call(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = srv.call(t, http.MethodPatch, "/dashboard/summary", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "METHOD_NOT_ALLOWED", errorCode(body))
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.call(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "http_requests_total")

	degraded := newTestServer(t, errors.New("connection refused"))
	status, body = degraded.call(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(body))
}

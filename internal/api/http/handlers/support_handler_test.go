package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/stayhub/booking-api/internal/api/http"
	"github.com/stayhub/booking-api/internal/api/http/handlers"
	"github.com/stayhub/booking-api/internal/auth"
	"github.com/stayhub/booking-api/internal/config"
	"github.com/stayhub/booking-api/internal/domain"
	"github.com/stayhub/booking-api/internal/observability"
	"github.com/stayhub/booking-api/internal/repository"
	"github.com/stayhub/booking-api/internal/service"
)

type fakeUserRepo struct {
	users map[string]*domain.User
	seq   int
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.seq++
	user.ID = fmt.Sprintf("acct-%03d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.SupportTicket
	seq     int
	stats   []domain.RepStatistic
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%03d", r.seq)
	ticket.CreatedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(r.seq) * time.Minute)
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.SupportTicket, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []domain.SupportTicket{}
	for _, ticket := range r.tickets {
		if filter.AuthorID != nil && ticket.AuthorID != *filter.AuthorID {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && ticket.Category != *filter.Category {
			continue
		}
		matched = append(matched, *ticket)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	if filter.Offset >= total {
		return []domain.SupportTicket{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

func (r *fakeTicketRepo) CloseIfOpen(_ context.Context, id string) (*domain.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok || ticket.Status != domain.TicketStatusOpen {
		return nil, pgx.ErrNoRows
	}
	now := time.Now()
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) OpenTicketCountsByRep(_ context.Context) ([]domain.RepStatistic, error) {
	return r.stats, nil
}

type fakePasswordResetRepo struct {
	mu     sync.Mutex
	seq    int
	tokens map[string]*repository.PasswordResetToken
}

func (r *fakePasswordResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	token.ID = fmt.Sprintf("reset-%03d", r.seq)
	token.CreatedAt = time.Now()
	r.tokens[token.Token] = token
	return nil
}

func (r *fakePasswordResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return token, nil
}

func (r *fakePasswordResetRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.ID == id {
			now := time.Now()
			token.UsedAt = &now
		}
	}
	return nil
}

type fakeAssistant struct {
	reply string
}

func (a *fakeAssistant) SuggestReply(_ context.Context, _, _ string) (string, error) {
	return a.reply, nil
}

type testEnv struct {
	app     *fiber.App
	tokens  *auth.TokenManager
	tickets *fakeTicketRepo
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := &fakeUserRepo{users: map[string]*domain.User{
		"user-1":  {ID: "user-1", Name: "Mia", Email: "mia@example.com", Role: domain.RoleCustomer, Status: domain.UserStatusActive},
		"user-2":  {ID: "user-2", Name: "Noah", Email: "noah@example.com", Role: domain.RoleCustomer, Status: domain.UserStatusActive},
		"rep-1":   {ID: "rep-1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleSupport, Status: domain.UserStatusActive},
		"admin-1": {ID: "admin-1", Name: "Root", Email: "root@example.com", Role: domain.RoleAdmin, Status: domain.UserStatusActive},
	}}
	tickets := &fakeTicketRepo{tickets: map[string]*domain.SupportTicket{}}

	supportService := service.NewSupportService(service.SupportDependencies{
		TicketRepo: tickets,
		Assistant:  &fakeAssistant{reply: "We are on it."},
	})

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              bcrypt.MinCost,
		},
	}
	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: &fakePasswordResetRepo{tokens: map[string]*repository.PasswordResetToken{}},
	})

	tokens := authService.TokenManager()
	authMiddleware := auth.NewAuthMiddleware(tokens, users)

	logger := zap.NewNop()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("test", "test", nil, nil),
		Users:          handlers.NewUsersHandler(authService),
		Support:        handlers.NewSupportHandler(supportService),
		AuthMiddleware: authMiddleware,
	})

	return &testEnv{app: app, tokens: tokens, tickets: tickets}
}

func (e *testEnv) request(t *testing.T, method, path, userID string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		// The middleware resolves the effective role from the stored user,
		// so the role claim in the test token does not matter.
		token, _, err := e.tokens.GenerateToken(userID, domain.RoleCustomer)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp.StatusCode, env
}

func TestRegisterAndLogin_Endpoints(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(t, http.MethodPost, "/auth/register", "", fiber.Map{
		"name":     "Lena",
		"email":    "lena@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, status)
	require.True(t, body.Success)

	var created struct {
		User struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "CUSTOMER", created.User.Role)
	assert.NotEmpty(t, created.Token)

	status, body = env.request(t, http.MethodPost, "/auth/login", "", fiber.Map{
		"email":    "lena@example.com",
		"password": "correct-horse",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)

	status, body = env.request(t, http.MethodPost, "/auth/login", "", fiber.Map{
		"email":    "lena@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, body.Success)
}

func TestCreateSupportRequest_Endpoint(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(t, http.MethodPost, "/support/", "user-1", fiber.Map{
		"category": "billing",
		"subject":  "Charged twice",
		"message":  "My card was charged twice for one night.",
	})

	require.Equal(t, http.StatusCreated, status)
	assert.True(t, body.Success)
	assert.Equal(t, "Support request created successfully", body.Message)

	var ticket struct {
		ID           string  `json:"id"`
		Status       string  `json:"status"`
		AISuggestion *string `json:"aiSuggestion"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &ticket))
	assert.Equal(t, "OPEN", ticket.Status)
	require.NotNil(t, ticket.AISuggestion)
	assert.Equal(t, "We are on it.", *ticket.AISuggestion)
}

func TestCreateSupportRequest_Validation(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(t, http.MethodPost, "/support/", "user-1", fiber.Map{
		"category": "billing",
		"subject":  "",
		"message":  "text",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, body.Success)
}

func TestSupportEndpoints_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(t, http.MethodGet, "/support/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Message)
}

func TestGetSupport_ForbiddenForStranger(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.request(t, http.MethodPost, "/support/", "user-1", fiber.Map{
		"category": "booking",
		"subject":  "Wrong dates",
		"message":  "Booked the wrong week.",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := env.request(t, http.MethodGet, "/support/ticket-001", "user-2", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.False(t, body.Success)

	status, body = env.request(t, http.MethodGet, "/support/ticket-001", "user-1", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)
}

func TestCloseSupport_SecondCloseConflicts(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.request(t, http.MethodPost, "/support/", "user-1", fiber.Map{
		"category": "technical",
		"subject":  "App crash",
		"message":  "The app crashes on checkout.",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := env.request(t, http.MethodPost, "/support/ticket-001/close", "user-1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)

	status, body = env.request(t, http.MethodPost, "/support/ticket-001/close", "user-1", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, body.Success)
}

func TestRepStatistics_AdminOnlyAndSummary(t *testing.T) {
	env := newTestEnv(t)
	env.tickets.stats = []domain.RepStatistic{
		{RepID: "rep-1", RepName: "Ada", OpenTickets: 3},
		{RepID: "rep-2", RepName: "Grace", OpenTickets: 0},
	}

	// Customer and support roles are rejected by the route guard.
	status, _ := env.request(t, http.MethodGet, "/support/stats/reps", "user-1", nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = env.request(t, http.MethodGet, "/support/stats/reps", "rep-1", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := env.request(t, http.MethodGet, "/support/stats/reps", "admin-1", nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, body.Success)

	var data struct {
		SupportReps []domain.RepStatistic `json:"supportReps"`
		Summary     struct {
			TotalReps            int `json:"totalReps"`
			TotalOpenTickets     int `json:"totalOpenTickets"`
			AverageTicketsPerRep int `json:"averageTicketsPerRep"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Len(t, data.SupportReps, 2)
	assert.Equal(t, 2, data.Summary.TotalReps)
	assert.Equal(t, 3, data.Summary.TotalOpenTickets)
	// mean over [3,0] is 1.5 and rounds half up to 2
	assert.Equal(t, 2, data.Summary.AverageTicketsPerRep)
}

func TestSupportList_Envelope(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		status, _ := env.request(t, http.MethodPost, "/support/", "user-1", fiber.Map{
			"category": "other",
			"subject":  "Question",
			"message":  "General question about my stay.",
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := env.request(t, http.MethodGet, "/support/?page=1&limit=2&status=open", "user-1", nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, body.Success)

	var data struct {
		Items []json.RawMessage `json:"items"`
		Total int               `json:"total"`
		Page  int               `json:"page"`
		Limit int               `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Len(t, data.Items, 2)
	assert.Equal(t, 3, data.Total)
	assert.Equal(t, 1, data.Page)
	assert.Equal(t, 2, data.Limit)
}

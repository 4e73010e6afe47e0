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
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/workspace-service/internal/api/http"
	"github.com/spec-kit/workspace-service/internal/api/http/handlers"
	"github.com/spec-kit/workspace-service/internal/auth"
	"github.com/spec-kit/workspace-service/internal/config"
	"github.com/spec-kit/workspace-service/internal/domain"
	"github.com/spec-kit/workspace-service/internal/observability"
	"github.com/spec-kit/workspace-service/internal/repository"
	"github.com/spec-kit/workspace-service/internal/service"
)

type memUsers struct {
	seq  int
	byID map[string]*domain.User
}

var _ repository.UserRepository = (*memUsers)(nil)

func (f *memUsers) Create(_ context.Context, u *domain.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
		if existing.UserName == u.UserName {
			return repository.ErrDuplicateUserName
		}
	}
	f.seq++
	u.ID = fmt.Sprintf("user-%d", f.seq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cpy := *u
	f.byID[u.ID] = &cpy
	return nil
}

func (f *memUsers) FindByEmailOrUserName(_ context.Context, email, userName string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email || u.UserName == userName {
			cpy := *u
			return &cpy, nil
		}
	}
	return nil, nil
}

func (f *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u.Sanitized(), nil
}

func (f *memUsers) GetByIDWithSecret(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cpy := *u
	return &cpy, nil
}

func (f *memUsers) GetByEmailWithSecret(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cpy := *u
			return &cpy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *memUsers) SetRefreshToken(_ context.Context, id string, token *string) error {
	u, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.RefreshToken = token
	return nil
}

func (f *memUsers) SetPassword(_ context.Context, id, passwordHash string) error {
	u, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.RefreshToken = nil
	return nil
}

type memWorkspaces struct {
	seq    int
	bySlug map[string]*domain.Workspace
}

var _ repository.WorkspaceRepository = (*memWorkspaces)(nil)

func (f *memWorkspaces) Create(_ context.Context, ws *domain.Workspace) error {
	if _, exists := f.bySlug[ws.Slug]; exists {
		return repository.ErrDuplicateSlug
	}
	f.seq++
	ws.ID = fmt.Sprintf("ws-%d", f.seq)
	ws.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	ws.UpdatedAt = ws.CreatedAt
	cpy := *ws
	cpy.Members = append([]domain.Member(nil), ws.Members...)
	f.bySlug[ws.Slug] = &cpy
	return nil
}

func (f *memWorkspaces) FindBySlug(_ context.Context, slug string) (*domain.Workspace, error) {
	ws, ok := f.bySlug[slug]
	if !ok {
		return nil, nil
	}
	cpy := *ws
	return &cpy, nil
}

func (f *memWorkspaces) GetBySlugForUser(_ context.Context, slug, userID string) (*domain.Workspace, error) {
	ws, ok := f.bySlug[slug]
	if !ok || ws.IsArchived || !ws.HasMember(userID) {
		return nil, pgx.ErrNoRows
	}
	cpy := *ws
	return &cpy, nil
}

func (f *memWorkspaces) ListForUser(_ context.Context, userID string) ([]domain.Workspace, error) {
	var out []domain.Workspace
	for _, ws := range f.bySlug {
		if !ws.IsArchived && ws.HasMember(userID) {
			out = append(out, *ws)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := config.Config{
		Auth: config.AuthConfig{
			AccessTokenSecret:     "test-access-secret",
			RefreshTokenSecret:    "test-refresh-secret",
			AccessTokenTTLMinutes: 15,
			RefreshTokenTTLDays:   7,
			BcryptCost:            bcrypt.MinCost,
		},
	}

	users := &memUsers{byID: map[string]*domain.User{}}
	workspaces := &memWorkspaces{bySlug: map[string]*domain.Workspace{}}

	authService := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: users})
	workspaceService := service.NewWorkspaceService(service.WorkspaceDependencies{WorkspaceRepo: workspaces})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("workspace-service", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authService, false),
		Workspaces:     handlers.NewWorkspaceHandler(workspaceService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users),
	})
	return app
}

type testResponse struct {
	status  int
	body    []byte
	parsed  map[string]any
	cookies []*http.Cookie
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any, mutate ...func(*http.Request)) testResponse {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for _, fn := range mutate {
		fn(req)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	parsed := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}
	return testResponse{status: resp.StatusCode, body: raw, parsed: parsed, cookies: resp.Cookies()}
}

func withBearer(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(req *http.Request) {
		req.AddCookie(c)
	}
}

func registerUser(t *testing.T, app *fiber.App, userName, email string) (accessToken string, refreshCookie *http.Cookie) {
	t.Helper()

	resp := doRequest(t, app, fiber.MethodPost, "/register", map[string]string{
		"userName": userName,
		"fullName": "Test User",
		"email":    email,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))

	data := resp.parsed["data"].(map[string]any)
	accessToken = data["accessToken"].(string)
	refreshCookie = findRefreshCookie(resp.cookies)
	require.NotNil(t, refreshCookie)
	return accessToken, refreshCookie
}

func findRefreshCookie(cookies []*http.Cookie) *http.Cookie {
	for _, c := range cookies {
		if c.Name == "refreshToken" {
			return c
		}
	}
	return nil
}

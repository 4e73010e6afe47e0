package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workspace-service/internal/domain"
	"github.com/spec-kit/workspace-service/internal/repository"
)

type fakeWorkspaces struct {
	seq       int
	bySlug    map[string]*domain.Workspace
	createErr error
}

var _ repository.WorkspaceRepository = (*fakeWorkspaces)(nil)

func newFakeWorkspaces() *fakeWorkspaces {
	return &fakeWorkspaces{bySlug: map[string]*domain.Workspace{}}
}

func (f *fakeWorkspaces) Create(_ context.Context, ws *domain.Workspace) error {
	if f.createErr != nil {
		return f.createErr
	}
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

func (f *fakeWorkspaces) FindBySlug(_ context.Context, slug string) (*domain.Workspace, error) {
	ws, ok := f.bySlug[slug]
	if !ok {
		return nil, nil
	}
	cpy := *ws
	return &cpy, nil
}

func (f *fakeWorkspaces) GetBySlugForUser(_ context.Context, slug, userID string) (*domain.Workspace, error) {
	ws, ok := f.bySlug[slug]
	if !ok || ws.IsArchived || !ws.HasMember(userID) {
		return nil, pgx.ErrNoRows
	}
	cpy := *ws
	cpy.Members = append([]domain.Member(nil), ws.Members...)
	return &cpy, nil
}

func (f *fakeWorkspaces) ListForUser(_ context.Context, userID string) ([]domain.Workspace, error) {
	var out []domain.Workspace
	for _, ws := range f.bySlug {
		if !ws.IsArchived && ws.HasMember(userID) {
			out = append(out, *ws)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func newWorkspaceService() (*WorkspaceService, *fakeWorkspaces) {
	repo := newFakeWorkspaces()
	svc := NewWorkspaceService(WorkspaceDependencies{WorkspaceRepo: repo})
	return svc, repo
}

func TestWorkspaceCreate_OwnerAutoEnrolled(t *testing.T) {
	svc, _ := newWorkspaceService()

	ws, err := svc.Create(context.Background(), "user-1", "Design Team", "where the designers live")
	require.NoError(t, err)

	require.Equal(t, "design-team", ws.Slug)
	require.Equal(t, "user-1", ws.OwnerID)
	require.Equal(t, "user-1", ws.CreatedBy)
	require.False(t, ws.IsArchived)
	require.Len(t, ws.Members, 1)
	require.Equal(t, "user-1", ws.Members[0].UserID)
	require.Equal(t, domain.RoleOwner, ws.Members[0].Role)
	require.False(t, ws.Members[0].JoinedAt.IsZero())
}

func TestWorkspaceCreate_NameBoundaries(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"too short", "ab", "workspace name must be at least 3 characters"},
		{"minimum length", "abc", ""},
		{"maximum length", strings.Repeat("a", 100), ""},
		{"too long", strings.Repeat("a", 101), "workspace name must not exceed 100 characters"},
		{"empty after trim", "   ", "workspace name is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newWorkspaceService()
			_, err := svc.Create(ctx, "user-1", tc.input, "")
			if tc.wantErr == "" {
				require.NoError(t, err)
			} else {
				requireDomainError(t, err, 400, tc.wantErr)
			}
		})
	}
}

func TestWorkspaceCreate_DescriptionTooLong(t *testing.T) {
	svc, _ := newWorkspaceService()
	_, err := svc.Create(context.Background(), "user-1", "My Team", strings.Repeat("d", 501))
	requireDomainError(t, err, 400, "workspace description must not exceed 500 characters")
}

func TestWorkspaceCreate_SlugOnlyPunctuation(t *testing.T) {
	svc, _ := newWorkspaceService()
	_, err := svc.Create(context.Background(), "user-1", "!!!", "")
	requireDomainError(t, err, 400, "invalid workspace name")
}

func TestWorkspaceCreate_SlugCollision(t *testing.T) {
	svc, _ := newWorkspaceService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", "My Team!!", "")
	require.NoError(t, err)

	// Differs only in case and punctuation: same derived slug.
	_, err = svc.Create(ctx, "user-2", "my team", "")
	requireDomainError(t, err, 409, "workspace with this name already exists")
}

func TestWorkspaceCreate_InsertRaceSurfacesConflict(t *testing.T) {
	svc, repo := newWorkspaceService()
	ctx := context.Background()

	// Simulate a row landing between the pre-check and the insert:
	// the pre-check misses, the unique index still fires.
	repo.createErr = repository.ErrDuplicateSlug
	_, err := svc.Create(ctx, "user-1", "My Team", "")
	requireDomainError(t, err, 409, "workspace with this name already exists")
}

func TestWorkspaceGetBySlug_AccessIsolation(t *testing.T) {
	svc, _ := newWorkspaceService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", "Secret Club", "")
	require.NoError(t, err)

	// Member sees it.
	ws, err := svc.GetBySlug(ctx, "secret-club", "user-1")
	require.NoError(t, err)
	require.Equal(t, "secret-club", ws.Slug)

	// Non-member and nonexistent slug fail identically.
	_, errDenied := svc.GetBySlug(ctx, "secret-club", "user-2")
	_, errMissing := svc.GetBySlug(ctx, "no-such-workspace", "user-2")
	requireDomainError(t, errDenied, 404, "workspace not found")
	requireDomainError(t, errMissing, 404, "workspace not found")
	require.Equal(t, errDenied.Error(), errMissing.Error())
}

func TestWorkspaceGetBySlug_NormalizesSlug(t *testing.T) {
	svc, _ := newWorkspaceService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", "My Team", "")
	require.NoError(t, err)

	ws, err := svc.GetBySlug(ctx, "  MY-TEAM  ", "user-1")
	require.NoError(t, err)
	require.Equal(t, "my-team", ws.Slug)

	_, err = svc.GetBySlug(ctx, "   ", "user-1")
	requireDomainError(t, err, 400, "workspace slug is required")
}

func TestWorkspaceGetBySlug_ArchivedHidden(t *testing.T) {
	svc, repo := newWorkspaceService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", "Old Team", "")
	require.NoError(t, err)
	repo.bySlug["old-team"].IsArchived = true

	_, err = svc.GetBySlug(ctx, "old-team", "user-1")
	requireDomainError(t, err, 404, "workspace not found")

	workspaces, err := svc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, workspaces)
}

func TestWorkspaceListForUser_NewestFirstAndScoped(t *testing.T) {
	svc, _ := newWorkspaceService()
	ctx := context.Background()

	for _, name := range []string{"Alpha Team", "Beta Team", "Gamma Team"} {
		_, err := svc.Create(ctx, "user-1", name, "")
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "user-2", "Other Team", "")
	require.NoError(t, err)

	workspaces, err := svc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, workspaces, 3)
	require.Equal(t, "gamma-team", workspaces[0].Slug)
	require.Equal(t, "beta-team", workspaces[1].Slug)
	require.Equal(t, "alpha-team", workspaces[2].Slug)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Team", "my-team"},
		{"My Team!!", "my-team"},
		{"  Spaced  Out  ", "spaced-out"},
		{"UPPER-case", "upper-case"},
		{"a--b---c", "a-b-c"},
		{"---", ""},
		{"Team #1 (2024)", "team-1-2024"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, Slugify(tc.in), "Slugify(%q)", tc.in)
	}
}

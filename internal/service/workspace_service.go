package service

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workspace-service/internal/domain"
	"github.com/spec-kit/workspace-service/internal/events"
	"github.com/spec-kit/workspace-service/internal/persistence"
	"github.com/spec-kit/workspace-service/internal/repository"
	apperrors "github.com/spec-kit/workspace-service/pkg/util"
)

const (
	workspaceNameMinLen        = 3
	workspaceNameMaxLen        = 100
	workspaceDescriptionMaxLen = 500
)

// WorkspaceService gates every workspace read and write by membership.
type WorkspaceService struct {
	workspaces repository.WorkspaceRepository
	cache      *persistence.WorkspaceCache
	dispatcher events.Dispatcher
}

// WorkspaceDependencies encapsulates requirements for the workspace
// service.
type WorkspaceDependencies struct {
	WorkspaceRepo repository.WorkspaceRepository
	Cache         *persistence.WorkspaceCache
	Dispatcher    events.Dispatcher
}

// NewWorkspaceService builds the service.
func NewWorkspaceService(deps WorkspaceDependencies) *WorkspaceService {
	return &WorkspaceService{
		workspaces: deps.WorkspaceRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
	}
}

// Create validates the name, derives the slug, and inserts the
// workspace with the creator auto-enrolled as its sole owner-role
// member.
func (s *WorkspaceService) Create(ctx context.Context, ownerID, name, description string) (*domain.Workspace, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return nil, apperrors.NewBadRequest("workspace name is required")
	}
	if utf8.RuneCountInString(name) < workspaceNameMinLen {
		return nil, apperrors.NewBadRequest("workspace name must be at least 3 characters")
	}
	if utf8.RuneCountInString(name) > workspaceNameMaxLen {
		return nil, apperrors.NewBadRequest("workspace name must not exceed 100 characters")
	}
	if utf8.RuneCountInString(description) > workspaceDescriptionMaxLen {
		return nil, apperrors.NewBadRequest("workspace description must not exceed 500 characters")
	}

	slug := Slugify(name)
	if slug == "" {
		return nil, apperrors.NewBadRequest("invalid workspace name")
	}

	existing, err := s.workspaces.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflict("workspace with this name already exists")
	}

	ws := &domain.Workspace{
		Name:        name,
		Description: description,
		Slug:        slug,
		OwnerID:     ownerID,
		CreatedBy:   ownerID,
		Members: []domain.Member{{
			UserID:   ownerID,
			Role:     domain.RoleOwner,
			JoinedAt: time.Now(),
		}},
	}
	if err := s.workspaces.Create(ctx, ws); err != nil {
		// The unique index closes the check-then-insert race.
		if err == repository.ErrDuplicateSlug {
			return nil, apperrors.NewConflict("workspace with this name already exists")
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, ownerID)

	if s.dispatcher != nil {
		s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventWorkspaceCreated,
			UserID:    ownerID,
			Timestamp: time.Now(),
			Payload: events.WorkspaceCreatedPayload{
				WorkspaceID: ws.ID,
				Slug:        ws.Slug,
				Name:        ws.Name,
			},
		})
	}

	return ws, nil
}

// ListForUser returns the non-archived workspaces the user belongs to,
// newest-created first.
func (s *WorkspaceService) ListForUser(ctx context.Context, userID string) ([]domain.Workspace, error) {
	if cached, ok := s.cache.Get(ctx, userID); ok {
		return cached, nil
	}

	workspaces, err := s.workspaces.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, userID, workspaces)
	return workspaces, nil
}

// GetBySlug loads a workspace for a member. A missing slug and a
// workspace the caller has no access to produce the same not-found
// failure; existence is not revealed to non-members.
func (s *WorkspaceService) GetBySlug(ctx context.Context, slug, userID string) (*domain.Workspace, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, apperrors.NewBadRequest("workspace slug is required")
	}

	ws, err := s.workspaces.GetBySlugForUser(ctx, slug, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("workspace not found")
		}
		return nil, err
	}
	return ws, nil
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]`)
	multiDash    = regexp.MustCompile(`-{2,}`)
)

// Slugify derives the canonical URL-safe slug from a workspace name.
// The mapping is deterministic, so names differing only in case or
// punctuation collide.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = multiDash.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

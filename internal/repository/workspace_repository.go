package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workspace-service/internal/domain"
)

// WorkspaceRepository defines persistence access for workspaces and
// their embedded member lists.
type WorkspaceRepository interface {
	// Create inserts the workspace and its initial members in one
	// transaction; a slug race returns ErrDuplicateSlug.
	Create(ctx context.Context, ws *domain.Workspace) error
	// FindBySlug reports absence as (nil, nil); used for the
	// pre-insert uniqueness check.
	FindBySlug(ctx context.Context, slug string) (*domain.Workspace, error)
	// GetBySlugForUser loads a non-archived workspace with members,
	// but only when userID is among them; pgx.ErrNoRows otherwise.
	GetBySlugForUser(ctx context.Context, slug, userID string) (*domain.Workspace, error)
	// ListForUser returns non-archived workspaces the user belongs
	// to, newest-created first, members included.
	ListForUser(ctx context.Context, userID string) ([]domain.Workspace, error)
}

type workspaceRepository struct {
	pool PgxPool
}

// NewWorkspaceRepository returns a Postgres-backed implementation.
func NewWorkspaceRepository(pool PgxPool) WorkspaceRepository {
	return &workspaceRepository{pool: pool}
}

func (r *workspaceRepository) Create(ctx context.Context, ws *domain.Workspace) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertWorkspace = `
        INSERT INTO workspaces (name, description, slug, owner_id, is_archived, created_by)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	if err := tx.QueryRow(ctx, insertWorkspace,
		ws.Name,
		ws.Description,
		ws.Slug,
		ws.OwnerID,
		ws.IsArchived,
		ws.CreatedBy,
	).Scan(&ws.ID, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return mapUniqueViolation(err)
	}

	const insertMember = `
        INSERT INTO workspace_members (workspace_id, user_id, role, joined_at, invited_by)
        VALUES ($1, $2, $3, $4, $5)`

	for _, m := range ws.Members {
		if _, err := tx.Exec(ctx, insertMember,
			ws.ID, m.UserID, m.Role, m.JoinedAt, m.InvitedBy,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *workspaceRepository) FindBySlug(ctx context.Context, slug string) (*domain.Workspace, error) {
	const query = `
        SELECT id, name, description, slug, owner_id, is_archived, created_by, created_at, updated_at
        FROM workspaces WHERE slug=$1`

	var ws domain.Workspace
	err := r.pool.QueryRow(ctx, query, slug).Scan(
		&ws.ID,
		&ws.Name,
		&ws.Description,
		&ws.Slug,
		&ws.OwnerID,
		&ws.IsArchived,
		&ws.CreatedBy,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *workspaceRepository) GetBySlugForUser(ctx context.Context, slug, userID string) (*domain.Workspace, error) {
	const query = `
        SELECT w.id, w.name, w.description, w.slug, w.owner_id, w.is_archived, w.created_by, w.created_at, w.updated_at
        FROM workspaces w
        INNER JOIN workspace_members wm ON wm.workspace_id = w.id
        WHERE w.slug=$1 AND wm.user_id=$2 AND w.is_archived=false`

	var ws domain.Workspace
	if err := r.pool.QueryRow(ctx, query, slug, userID).Scan(
		&ws.ID,
		&ws.Name,
		&ws.Description,
		&ws.Slug,
		&ws.OwnerID,
		&ws.IsArchived,
		&ws.CreatedBy,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	); err != nil {
		return nil, err
	}

	members, err := r.membersFor(ctx, []string{ws.ID})
	if err != nil {
		return nil, err
	}
	ws.Members = members[ws.ID]
	return &ws, nil
}

func (r *workspaceRepository) ListForUser(ctx context.Context, userID string) ([]domain.Workspace, error) {
	const query = `
        SELECT w.id, w.name, w.description, w.slug, w.owner_id, w.is_archived, w.created_by, w.created_at, w.updated_at
        FROM workspaces w
        INNER JOIN workspace_members wm ON wm.workspace_id = w.id
        WHERE wm.user_id=$1 AND w.is_archived=false
        ORDER BY w.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []domain.Workspace
	var ids []string
	for rows.Next() {
		var ws domain.Workspace
		if err := rows.Scan(
			&ws.ID,
			&ws.Name,
			&ws.Description,
			&ws.Slug,
			&ws.OwnerID,
			&ws.IsArchived,
			&ws.CreatedBy,
			&ws.CreatedAt,
			&ws.UpdatedAt,
		); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
		ids = append(ids, ws.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(workspaces) == 0 {
		return workspaces, nil
	}

	members, err := r.membersFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range workspaces {
		workspaces[i].Members = members[workspaces[i].ID]
	}
	return workspaces, nil
}

// membersFor loads member lists for the given workspaces in a single
// query, keyed by workspace id.
func (r *workspaceRepository) membersFor(ctx context.Context, workspaceIDs []string) (map[string][]domain.Member, error) {
	const query = `
        SELECT workspace_id, user_id, role, joined_at, invited_by
        FROM workspace_members
        WHERE workspace_id = ANY($1)
        ORDER BY joined_at`

	rows, err := r.pool.Query(ctx, query, workspaceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make(map[string][]domain.Member)
	for rows.Next() {
		var workspaceID string
		var m domain.Member
		if err := rows.Scan(&workspaceID, &m.UserID, &m.Role, &m.JoinedAt, &m.InvitedBy); err != nil {
			return nil, err
		}
		members[workspaceID] = append(members[workspaceID], m)
	}
	return members, rows.Err()
}

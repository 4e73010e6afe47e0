package dto

import (
	"time"

	"github.com/spec-kit/workspace-service/internal/domain"
)

// CreateWorkspaceRequest payload for new workspaces.
type CreateWorkspaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MemberResponse is the outward member representation.
type MemberResponse struct {
	UserID    string            `json:"userId"`
	Role      domain.MemberRole `json:"role"`
	JoinedAt  time.Time         `json:"joinedAt"`
	InvitedBy *string           `json:"invitedBy,omitempty"`
}

// WorkspaceResponse is the outward workspace representation.
type WorkspaceResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Slug        string           `json:"slug"`
	OwnerID     string           `json:"ownerId"`
	Members     []MemberResponse `json:"members"`
	IsArchived  bool             `json:"isArchived"`
	CreatedBy   string           `json:"createdBy"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// NewWorkspaceResponse maps a domain workspace to its outward form.
func NewWorkspaceResponse(ws *domain.Workspace) WorkspaceResponse {
	members := make([]MemberResponse, 0, len(ws.Members))
	for _, m := range ws.Members {
		members = append(members, MemberResponse{
			UserID:    m.UserID,
			Role:      m.Role,
			JoinedAt:  m.JoinedAt,
			InvitedBy: m.InvitedBy,
		})
	}
	return WorkspaceResponse{
		ID:          ws.ID,
		Name:        ws.Name,
		Description: ws.Description,
		Slug:        ws.Slug,
		OwnerID:     ws.OwnerID,
		Members:     members,
		IsArchived:  ws.IsArchived,
		CreatedBy:   ws.CreatedBy,
		CreatedAt:   ws.CreatedAt,
		UpdatedAt:   ws.UpdatedAt,
	}
}

// NewWorkspaceListResponse maps a slice of workspaces.
func NewWorkspaceListResponse(workspaces []domain.Workspace) []WorkspaceResponse {
	out := make([]WorkspaceResponse, 0, len(workspaces))
	for i := range workspaces {
		out = append(out, NewWorkspaceResponse(&workspaces[i]))
	}
	return out
}

package domain

import "time"

// MemberRole enumerates the allowed roles inside a workspace.
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
	RoleGuest  MemberRole = "guest"
)

// Valid reports whether the role is one of the fixed enumeration.
func (r MemberRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleGuest:
		return true
	}
	return false
}

// Member is a role-tagged membership record owned by its Workspace.
// It has no identity of its own.
type Member struct {
	UserID    string
	Role      MemberRole
	JoinedAt  time.Time
	InvitedBy *string
}

// Workspace is the tenant boundary. Every read and write against it is
// gated by a membership lookup; the owner is always present in Members.
type Workspace struct {
	ID          string
	Name        string
	Description string
	Slug        string
	OwnerID     string
	Members     []Member
	IsArchived  bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasMember reports whether the given user appears in the member list.
func (w *Workspace) HasMember(userID string) bool {
	for _, m := range w.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

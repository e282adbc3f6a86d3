package types

import "time"

type MemberRole string

const (
	MemberRoleNone   MemberRole = "NONE"
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// IsValid reports whether the role is one a member row may carry.
func (r MemberRole) IsValid() bool {
	return r == MemberRoleAdmin || r == MemberRoleMember
}

// IsAuthorizedFor reports whether the role satisfies the required role.
// Admins satisfy every requirement; members satisfy the member requirement.
func (r MemberRole) IsAuthorizedFor(required MemberRole) bool {
	if r == MemberRoleAdmin {
		return true
	}
	return r == required
}

// Member is a participant in a group. UserID is nil for placeholder members
// added by an admin for people who have no login; it is never an empty string.
type Member struct {
	ID          string     `json:"id"`
	GroupID     string     `json:"groupId"`
	UserID      *string    `json:"userId,omitempty"`
	DisplayName string     `json:"displayName"`
	Email       string     `json:"email,omitempty"`
	Role        MemberRole `json:"role"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// IsPlaceholder reports whether the member has no registered identity.
func (m *Member) IsPlaceholder() bool {
	return m.UserID == nil || *m.UserID == ""
}

type AddMemberParams struct {
	GroupID     string     `json:"groupId"`
	UserID      *string    `json:"userId,omitempty"`
	DisplayName string     `json:"displayName"`
	Email       string     `json:"email,omitempty"`
	Role        MemberRole `json:"role"`
}

package model

import (
	"slices"

	"gorm.io/datatypes"
)

// DefaultRoleName is the catch-all role every project keeps.
const DefaultRoleName = "Default"

// AdminRoleName is the role granted to a project's creator.
const AdminRoleName = "Admin"

// Permission indexes into Role.Permissions. The order is part of the API.
type Permission int

const (
	PermCreateTickets Permission = iota
	PermEditTickets
	PermDeleteTickets
	PermManageColumns
	PermManageEpics
	PermManageRoles
	PermInviteMembers
	PermRemoveMembers
	PermEndSprint
	PermDeleteProject
)

// PermissionNames is the global permission list, index-aligned with Permission.
var PermissionNames = []string{
	"Create tickets",
	"Edit tickets",
	"Delete tickets",
	"Manage columns",
	"Manage epics",
	"Manage roles",
	"Invite members",
	"Remove members",
	"End sprint",
	"Delete project",
}

func (p Permission) String() string {
	if p < 0 || int(p) >= len(PermissionNames) {
		return "Unknown"
	}
	return PermissionNames[p]
}

type Role struct {
	ID          int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID   int64                       `gorm:"not null;index;uniqueIndex:uq_roles_project_name,priority:1" json:"project_id"`
	Name        string                      `gorm:"not null;uniqueIndex:uq_roles_project_name,priority:2" json:"name"`
	Permissions datatypes.JSONSlice[bool]   `gorm:"not null" json:"permissions"`
	Members     datatypes.JSONSlice[string] `gorm:"not null" json:"members"`
}

// Allows reports whether the role grants p. Vectors shorter than the
// permission list deny the missing entries.
func (r *Role) Allows(p Permission) bool {
	return int(p) >= 0 && int(p) < len(r.Permissions) && r.Permissions[p]
}

func (r *Role) HasMember(email string) bool {
	return slices.Contains(r.Members, email)
}

// DefaultPermissions is the vector seeded into a new project's Default role.
func DefaultPermissions() []bool {
	perms := make([]bool, len(PermissionNames))
	for _, p := range []Permission{PermCreateTickets, PermEditTickets, PermDeleteTickets, PermManageEpics, PermEndSprint} {
		perms[p] = true
	}
	return perms
}

// AllPermissions grants every permission.
func AllPermissions() []bool {
	perms := make([]bool, len(PermissionNames))
	for i := range perms {
		perms[i] = true
	}
	return perms
}

// Package permissions implements the static role/permission model for
// workspace memberships. Policy lives here; the repository layer stays a
// pure mechanism and never re-validates hierarchy.
package permissions

import "workspace-service/internal/models"

// Permission identifiers
const (
	PermissionRead            = "read"
	PermissionWrite           = "write"
	PermissionManageMembers   = "manage_members"
	PermissionManageWorkspace = "manage_workspace"
	PermissionDeleteWorkspace = "delete_workspace"
)

// Action identifiers for CanPerformAction
const (
	ActionInvite     = "invite"
	ActionRemove     = "remove"
	ActionChangeRole = "change_role"
)

// rolePermissions maps each role to its permission set. Each role is a
// strict superset of the role below it, so a higher role implicitly holds
// every permission of every lower role.
var rolePermissions = map[string][]string{
	models.MembershipRoleViewer: {
		PermissionRead,
	},
	models.MembershipRoleMember: {
		PermissionRead,
		PermissionWrite,
	},
	models.MembershipRoleManager: {
		PermissionRead,
		PermissionWrite,
		PermissionManageMembers,
	},
	models.MembershipRoleAdmin: {
		PermissionRead,
		PermissionWrite,
		PermissionManageMembers,
		PermissionManageWorkspace,
	},
	models.MembershipRoleOwner: {
		PermissionRead,
		PermissionWrite,
		PermissionManageMembers,
		PermissionManageWorkspace,
		PermissionDeleteWorkspace,
	},
}

// roleRanks orders roles from lowest to highest privilege. Unknown roles
// rank below viewer.
var roleRanks = map[string]int{
	models.MembershipRoleViewer:  1,
	models.MembershipRoleMember:  2,
	models.MembershipRoleManager: 3,
	models.MembershipRoleAdmin:   4,
	models.MembershipRoleOwner:   5,
}

// RolePermissions returns the permission set for a role (nil for unknown roles)
func RolePermissions(role string) []string {
	return rolePermissions[role]
}

// RoleRank returns the hierarchy level of a role (0 for unknown roles)
func RoleRank(role string) int {
	return roleRanks[role]
}

// IsValidRole reports whether role is one of the five membership roles
func IsValidRole(role string) bool {
	_, ok := roleRanks[role]
	return ok
}

// HasPermission reports whether role grants permission. Pure lookup,
// unknown roles yield false.
func HasPermission(role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// CanPerformAction decides whether an actor with actorRole may perform a
// membership action against targetRole:
//   - invite: actor must be manager or above; targetRole here is the role
//     being granted, so only the actor's own rank gates the action
//   - remove, change_role: actor's rank must be strictly greater than the
//     target's, so peers can never demote or remove each other
func CanPerformAction(actorRole, targetRole, action string) bool {
	actorRank := roleRanks[actorRole]
	if actorRank == 0 {
		return false
	}

	switch action {
	case ActionInvite:
		return actorRank >= roleRanks[models.MembershipRoleManager]
	case ActionRemove, ActionChangeRole:
		return actorRank > roleRanks[targetRole]
	default:
		return false
	}
}

// Package authz holds the pure authorization decision functions: role
// hierarchy, the resource/action permission table, department scoping,
// and ownership checks. Nothing here performs I/O; decisions are made
// entirely from the request's Identity and the resource's tags.
package authz

import (
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/domain"
	autherror "github.com/Jawa090/Rush-Management-system-sub000/internal/errors"
)

type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

type Resource string

const (
	ResourceLeave        Resource = "leave"
	ResourceDocument     Resource = "document"
	ResourceEmployee     Resource = "employee"
	ResourceDepartment   Resource = "department"
	ResourceNotification Resource = "notification"
	ResourceProfile      Resource = "profile"
)

// permissions is the closed resource × role → actions table. A resource
// missing from the table is denied for every role (fail-closed); admin
// short-circuits in CanPerform and is not listed.
var permissions = map[Resource]map[domain.Role][]Action{
	ResourceLeave: {
		domain.RoleEmployee: {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		domain.RoleManager:  {ActionRead, ActionApprove, ActionReject},
	},
	ResourceDocument: {
		domain.RoleEmployee: {ActionRead},
		domain.RoleManager:  {ActionCreate, ActionRead, ActionUpdate},
	},
	ResourceEmployee: {
		domain.RoleEmployee: {ActionRead},
		domain.RoleManager:  {ActionRead, ActionUpdate},
	},
	ResourceDepartment: {
		domain.RoleEmployee: {ActionRead},
		domain.RoleManager:  {ActionRead},
	},
	ResourceNotification: {
		domain.RoleEmployee: {ActionRead, ActionUpdate, ActionDelete},
		domain.RoleManager:  {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	},
	ResourceProfile: {
		domain.RoleEmployee: {ActionRead, ActionUpdate},
		domain.RoleManager:  {ActionRead, ActionUpdate},
	},
}

// HasRole reports whether actual is at least as privileged as required.
// Authorization is "at least this privileged", never exact-match.
func HasRole(actual, required domain.Role) bool {
	return actual.Rank() >= required.Rank() && actual.Rank() > 0
}

// CanPerform looks up the permission table. Admin may perform every
// action on every known resource.
func CanPerform(role domain.Role, action Action, resource Resource) bool {
	byRole, ok := permissions[resource]
	if !ok {
		return false
	}

	if role == domain.RoleAdmin {
		return true
	}

	for _, a := range byRole[role] {
		if a == action {
			return true
		}
	}

	return false
}

// mutating reports whether the action changes state.
func mutating(action Action) bool {
	return action != ActionRead
}

// CheckDepartment applies the department scoping rules: admin bypasses
// all checks; a resource with no department tag is globally accessible;
// a manager may act within their own department; an employee may only
// read within their own department.
func CheckDepartment(identity *domain.Identity, resourceDepartment string, action Action) *autherror.Error {
	if identity == nil {
		return autherror.ErrNotAuthenticated
	}
	if identity.Role == domain.RoleAdmin {
		return nil
	}
	if resourceDepartment == "" {
		return nil
	}
	if identity.Department != resourceDepartment {
		return autherror.ErrDepartmentAccessDenied
	}
	if identity.Role == domain.RoleEmployee && mutating(action) {
		return autherror.ErrDepartmentAccessDenied
	}

	return nil
}

// IsOwnerOrAdmin is the final gate for personal records: true for admin
// or when the identity owns the resource.
func IsOwnerOrAdmin(identity *domain.Identity, resourceOwnerID string) bool {
	if identity == nil {
		return false
	}

	return identity.Role == domain.RoleAdmin || identity.UserID == resourceOwnerID
}

// Authorize runs the full decision chain for one request: permission
// table, then department scope. It returns nil when the action is
// allowed, otherwise a typed error with a stable machine code.
func Authorize(identity *domain.Identity, action Action, resource Resource, resourceDepartment string) *autherror.Error {
	if identity == nil {
		return autherror.ErrNotAuthenticated
	}
	if !CanPerform(identity.Role, action, resource) {
		return autherror.ErrInsufficientPermissions
	}

	return CheckDepartment(identity, resourceDepartment, action)
}

// AuthorizeOwned is Authorize plus the ownership gate for personal
// records (own profile, own leave requests, notifications).
func AuthorizeOwned(identity *domain.Identity, action Action, resource Resource, resourceOwnerID string) *autherror.Error {
	if identity == nil {
		return autherror.ErrNotAuthenticated
	}
	if !CanPerform(identity.Role, action, resource) {
		return autherror.ErrInsufficientPermissions
	}
	if !IsOwnerOrAdmin(identity, resourceOwnerID) {
		return autherror.ErrResourceAccessDenied
	}

	return nil
}

package fulfillment

import (
	"slices"

	"github.com/google/uuid"
)

// Role is the role carried by an authenticated caller
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleStaffAdmin Role = "staff_admin"
	RoleWarehouse  Role = "warehouse"
	RoleClient     Role = "client"
)

// Role groups allowed to run each command
var (
	WarehouseRoles = []Role{RoleAdmin, RoleStaffAdmin, RoleWarehouse}
	FinanceRoles   = []Role{RoleAdmin, RoleStaffAdmin}
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStaffAdmin, RoleWarehouse, RoleClient:
		return true
	}
	return false
}

// AuthContext identifies the caller of a command. It is passed explicitly to
// every operation and never read from ambient state.
type AuthContext struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	Role      Role
}

// HasAnyRole reports whether the caller holds one of the given roles
func (a AuthContext) HasAnyRole(roles ...Role) bool {
	return slices.Contains(roles, a.Role)
}

// RequireAnyRole returns a PermissionError unless the caller holds one of the roles
func (a AuthContext) RequireAnyRole(roles ...Role) error {
	if a.UserID == uuid.Nil {
		return &PermissionError{Reason: "unauthenticated caller"}
	}
	if !a.HasAnyRole(roles...) {
		return &PermissionError{Reason: "role " + string(a.Role) + " may not perform this action"}
	}
	return nil
}

// RequireCompany returns a PermissionError unless the caller belongs to companyID
func (a AuthContext) RequireCompany(companyID uuid.UUID) error {
	if a.UserID == uuid.Nil {
		return &PermissionError{Reason: "unauthenticated caller"}
	}
	if a.CompanyID == uuid.Nil || a.CompanyID != companyID {
		return &PermissionError{Reason: "order belongs to another company"}
	}
	return nil
}

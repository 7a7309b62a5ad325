package model

import (
	"strings"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleAdmin        UserRole = "ADMIN"
	UserRoleFleetManager UserRole = "FLEET_MANAGER"
	UserRoleSupervisor   UserRole = "SUPERVISOR"
	UserRoleStaff        UserRole = "STAFF"
	UserRoleDriver       UserRole = "DRIVER"
)

// Principal is the authenticated caller as carried in the access token.
type Principal struct {
	UserID       uuid.UUID
	MinistryID   uuid.UUID
	DepartmentID *uuid.UUID
	Role         UserRole
	DriverID     *uuid.UUID
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) IsFleetManager() bool {
	return p.Role == UserRoleFleetManager
}

func (p Principal) IsSupervisor() bool {
	return p.Role == UserRoleSupervisor
}

func (p Principal) IsDriver() bool {
	return p.Role == UserRoleDriver
}

// RoleAllowed reports whether role matches any of the allowed role names,
// case-insensitively. It is the single authorization primitive used by the
// route middleware.
func RoleAllowed(role UserRole, allowed ...UserRole) bool {
	for _, a := range allowed {
		if strings.EqualFold(string(role), string(a)) {
			return true
		}
	}
	return false
}

// Package domain contains core business types and interfaces.
//
// This file defines the User type. Authentication itself lives in the
// platform's identity proxy; this service only mirrors the identities it is
// told about, so there is no credential material here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole controls what a user may do in the admin service.
type UserRole string

const (
	// UserRoleAdmin may create tasks, manage example images, and administer
	// assignments.
	UserRoleAdmin UserRole = "admin"

	// UserRoleLabeler answers questions; mirrored here so assignment
	// details can show who is working.
	UserRoleLabeler UserRole = "labeler"
)

// IsValid returns true if the role is a recognized value.
func (r UserRole) IsValid() bool {
	return r == UserRoleAdmin || r == UserRoleLabeler
}

// User is a mirrored identity from the platform's auth layer.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Role      UserRole
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user may use the administrative endpoints.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

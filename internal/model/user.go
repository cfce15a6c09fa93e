// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// User roles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// User is a managed member record in the users collection. This is distinct
// from a login account: accounts authenticate, user records are content.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u *User) RecordID() string { return u.ID }

func (u *User) SetID(id string) { u.ID = id }

func (u *User) Clone() *User {
	cp := *u
	return &cp
}

func (u *User) MediaRefs() []*MediaRef { return nil }

// IsProtected reports whether the record is shielded from the standard
// edit and delete paths. Admin records are read-only in the UI.
func (u *User) IsProtected() bool {
	return u.Role == RoleAdmin
}

func (u *User) Validate() error {
	ve := ValidationError{}
	requireNonEmpty(ve, map[string]string{
		"name": u.Name,
		"role": u.Role,
	})
	switch u.Role {
	case "", RoleAdmin, RoleEditor, RoleViewer:
	default:
		ve["role"] = "is not a known role"
	}
	if len(ve) > 0 {
		return ve
	}
	return nil
}

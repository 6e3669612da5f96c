package domain

import "slices"

// RoleAdmin is the privileged role; every other role is restricted.
const RoleAdmin = "admin"

// Permissions are the explicit customer and project sets a restricted caller may act on.
type Permissions struct {
	Customers []CustomerID
	Projects  []ProjectID
}

// HasCustomer reports whether id is in the customer set.
func (p Permissions) HasCustomer(id CustomerID) bool { return slices.Contains(p.Customers, id) }

// HasProject reports whether id is in the project set.
func (p Permissions) HasProject(id ProjectID) bool { return slices.Contains(p.Projects, id) }

// Credentials are supplied per request and never persisted.
type Credentials struct {
	Subject     string
	Role        string
	Permissions Permissions
}

// IsAdmin reports whether the caller holds the privileged role.
func (c Credentials) IsAdmin() bool { return c.Role == RoleAdmin }

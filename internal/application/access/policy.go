// Package access decides whether a caller may run a project lifecycle operation.
// It makes no external calls.
package access

import (
	"fmt"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
)

// Action is a mutating lifecycle operation.
type Action string

const (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionDeleteAll Action = "deleteAll"
)

// Request is what the caller wants to act on. Customer is read for ActionCreate,
// ProjectID for ActionUpdate and ActionDelete.
type Request struct {
	Action    Action
	Customer  domain.CustomerID
	ProjectID domain.ProjectID
}

// Authorize returns nil when creds may perform req, otherwise an error wrapping ErrUnauthorized.
func Authorize(creds domain.Credentials, req Request) error {
	if creds.IsAdmin() {
		return nil
	}
	switch req.Action {
	case ActionCreate:
		if creds.Permissions.HasCustomer(req.Customer) {
			return nil
		}
		return fmt.Errorf("project creation for customer %s: %w", req.Customer, domerrors.ErrUnauthorized)
	case ActionUpdate, ActionDelete:
		if creds.Permissions.HasProject(req.ProjectID) {
			return nil
		}
		return fmt.Errorf("%s project %s: %w", req.Action, req.ProjectID, domerrors.ErrUnauthorized)
	default:
		return fmt.Errorf("%s requires the %s role: %w", req.Action, domain.RoleAdmin, domerrors.ErrUnauthorized)
	}
}

// ReadScope returns the scope a read must be narrowed to: nil for admins, otherwise
// "customer in Customers OR project in Projects". Reads are scoped, never rejected.
func ReadScope(creds domain.Credentials) *ports.AccessScope {
	if creds.IsAdmin() {
		return nil
	}
	return &ports.AccessScope{
		Customers: creds.Permissions.Customers,
		Projects:  creds.Permissions.Projects,
	}
}

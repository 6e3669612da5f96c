package ports

import (
	"context"
	"time"

	"github.com/amirhosseinghanipour/provisioner/internal/domain"
)

// AccessScope narrows a read to projects owned by Customers or listed in Projects.
// A nil scope means unrestricted.
type AccessScope struct {
	Customers []domain.CustomerID
	Projects  []domain.ProjectID
}

// ProjectFilter holds the optional predicates of a project listing; all set predicates must hold.
type ProjectFilter struct {
	CreatedAfter *time.Time
	GitURL       string
	Scope        *AccessScope
}

// ProjectRepository defines durable storage for projects. Lookups return (nil, nil) when nothing matches.
type ProjectRepository interface {
	List(ctx context.Context, filter ProjectFilter) ([]*domain.Project, error)
	GetByID(ctx context.Context, id domain.ProjectID) (*domain.Project, error)
	GetByName(ctx context.Context, name string, scope *AccessScope) (*domain.Project, error)
	GetByGitURL(ctx context.Context, gitURL string, scope *AccessScope) (*domain.Project, error)
	GetByEnvironmentID(ctx context.Context, environmentID int, scope *AccessScope) (*domain.Project, error)
	// Create applies defaults to omitted fields and returns the stored row.
	Create(ctx context.Context, spec domain.ProjectSpec) (*domain.Project, error)
	// Update rejects an empty patch with ErrEmptyPatch.
	Update(ctx context.Context, id domain.ProjectID, patch domain.ProjectPatch) error
	DeleteByID(ctx context.Context, id domain.ProjectID) error
	DeleteAll(ctx context.Context) error
	ListNames(ctx context.Context) ([]string, error)
}

// CustomerRepository looks up customers.
type CustomerRepository interface {
	GetByID(ctx context.Context, id domain.CustomerID) (*domain.Customer, error)
}

// MembershipRepository derives group membership from customer and project grants.
type MembershipRepository interface {
	// ListCustomerOnlyMembers returns members of customerID that have no direct grant on projectID.
	ListCustomerOnlyMembers(ctx context.Context, projectID domain.ProjectID, customerID domain.CustomerID) ([]*domain.GroupMember, error)
}

// PermissionRepository resolves the explicit permission sets of a restricted caller.
type PermissionRepository interface {
	GetPermissions(ctx context.Context, subject string) (domain.Permissions, error)
}

package postgres

import (
	"context"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/persistence/db"
)

// MembershipRepository reads customer_user and project_user grants.
type MembershipRepository struct {
	q *db.Queries
}

func NewMembershipRepository(q *db.Queries) *MembershipRepository {
	return &MembershipRepository{q: q}
}

func (r *MembershipRepository) ListCustomerOnlyMembers(ctx context.Context, projectID domain.ProjectID, customerID domain.CustomerID) ([]*domain.GroupMember, error) {
	rows, err := r.q.ListCustomerOnlyMembers(ctx, int32(projectID), int32(customerID))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.GroupMember, 0, len(rows))
	for _, m := range rows {
		out = append(out, &domain.GroupMember{UserID: int(m.ID), Username: m.Email})
	}
	return out, nil
}

// GetPermissions returns the customers and projects the user with email subject was granted.
// Unknown subjects get empty sets.
func (r *MembershipRepository) GetPermissions(ctx context.Context, subject string) (domain.Permissions, error) {
	customers, err := r.q.ListUserCustomerIDs(ctx, subject)
	if err != nil {
		return domain.Permissions{}, err
	}
	projects, err := r.q.ListUserProjectIDs(ctx, subject)
	if err != nil {
		return domain.Permissions{}, err
	}
	perms := domain.Permissions{
		Customers: make([]domain.CustomerID, 0, len(customers)),
		Projects:  make([]domain.ProjectID, 0, len(projects)),
	}
	for _, c := range customers {
		perms.Customers = append(perms.Customers, domain.CustomerID(c))
	}
	for _, p := range projects {
		perms.Projects = append(perms.Projects, domain.ProjectID(p))
	}
	return perms, nil
}

var (
	_ ports.MembershipRepository = (*MembershipRepository)(nil)
	_ ports.PermissionRepository = (*MembershipRepository)(nil)
)

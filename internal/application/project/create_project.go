package project

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/application/access"
	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
)

const opCreate = "addProject"

// CreateProjectInput is the new project as supplied by the caller.
type CreateProjectInput struct {
	Project domain.ProjectSpec
}

// CreateProject inserts the project row and provisions its group, role and index patterns.
type CreateProject struct {
	projects  ports.ProjectRepository
	customers ports.CustomerRepository
	groups    ports.GroupManager
	roles     ports.RoleManager
	patterns  ports.IndexPatternProvisioner
	log       zerolog.Logger
}

// NewCreateProject builds the use case.
func NewCreateProject(projects ports.ProjectRepository, customers ports.CustomerRepository, groups ports.GroupManager, roles ports.RoleManager, patterns ports.IndexPatternProvisioner, log zerolog.Logger) *CreateProject {
	return &CreateProject{
		projects:  projects,
		customers: customers,
		groups:    groups,
		roles:     roles,
		patterns:  patterns,
		log:       log,
	}
}

// Execute runs the create steps in order. A fatal step aborts the rest but does not
// revert the row, group or role created before it.
func (uc *CreateProject) Execute(ctx context.Context, creds domain.Credentials, input CreateProjectInput) (*domain.Project, error) {
	if err := access.Authorize(creds, access.Request{Action: access.ActionCreate, Customer: input.Project.Customer}); err != nil {
		return nil, err
	}

	project, err := uc.projects.Create(ctx, input.Project)
	if err != nil {
		return nil, domerrors.Fail(opCreate, "insert project", err)
	}
	log := uc.log.With().Str("project", project.Name).Logger()

	err = uc.groups.CreateGroup(ctx, project.Name)
	switch ports.Classify(err) {
	case ports.OutcomeSuccess:
		log.Debug().Msg("created identity group")
	case ports.OutcomeConflict:
		log.Warn().Err(err).Msg("identity group already exists")
	default:
		return nil, domerrors.Fail(opCreate, "create group", err)
	}

	customer, err := uc.customers.GetByID(ctx, project.Customer)
	if err != nil {
		return nil, domerrors.Fail(opCreate, "load customer", err)
	}
	if customer == nil {
		return nil, domerrors.Fail(opCreate, "load customer", fmt.Errorf("customer %s: %w", project.Customer, domerrors.ErrCustomerNotFound))
	}
	log = log.With().Str("tenant", customer.Name).Logger()

	if err := uc.roles.CreateRole(ctx, project.Name, customer.Name); err != nil {
		log.Error().Err(err).Msg("create authorization role failed")
		return nil, domerrors.Fail(opCreate, "create role", err)
	}

	// Index patterns and the default index are non-critical.
	if err := uc.patterns.ProvisionIndexPatterns(ctx, project.Name, customer.Name); err != nil {
		log.Error().Err(err).Msg("index pattern provisioning incomplete")
	}
	if err := uc.patterns.EnsureDefaultIndex(ctx, project.Name, customer.Name); err != nil {
		log.Error().Err(err).Msg("configure default index failed")
	}

	return project, nil
}

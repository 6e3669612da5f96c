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

// StatusSuccess is returned by the delete operations.
const StatusSuccess = "success"

const opDelete = "deleteProject"

// DeleteProjectInput names the project to delete.
type DeleteProjectInput struct {
	Name string
}

// DeleteProject removes the project row, its identity group and its authorization role.
type DeleteProject struct {
	projects ports.ProjectRepository
	groups   ports.GroupManager
	roles    ports.RoleManager
	log      zerolog.Logger
}

// NewDeleteProject builds the use case.
func NewDeleteProject(projects ports.ProjectRepository, groups ports.GroupManager, roles ports.RoleManager, log zerolog.Logger) *DeleteProject {
	return &DeleteProject{projects: projects, groups: groups, roles: roles, log: log}
}

// Execute deletes the project. A role deletion failure is returned even though the row
// and group are already gone.
func (uc *DeleteProject) Execute(ctx context.Context, creds domain.Credentials, input DeleteProjectInput) (string, error) {
	project, err := uc.projects.GetByName(ctx, input.Name, nil)
	if err != nil {
		return "", domerrors.Fail(opDelete, "resolve project", err)
	}
	if project == nil {
		return "", fmt.Errorf("project %q: %w", input.Name, domerrors.ErrProjectNotFound)
	}
	if err := access.Authorize(creds, access.Request{Action: access.ActionDelete, ProjectID: project.ID}); err != nil {
		return "", err
	}
	log := uc.log.With().Str("project", project.Name).Logger()

	if err := uc.projects.DeleteByID(ctx, project.ID); err != nil {
		return "", domerrors.Fail(opDelete, "delete project", err)
	}

	if err := uc.groups.DeleteGroup(ctx, project.Name); err != nil {
		log.Error().Err(err).Msg("delete identity group failed")
	} else {
		log.Debug().Msg("deleted identity group")
	}

	if err := uc.roles.DeleteRole(ctx, project.Name); err != nil {
		log.Error().Err(err).Msg("delete authorization role failed")
		return "", domerrors.Fail(opDelete, "delete role", err)
	}
	return StatusSuccess, nil
}

package project

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/application/access"
	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
)

const opDeleteAll = "deleteAllProjects"

// DeleteAllProjects truncates the project store and drops every project's identity group.
type DeleteAllProjects struct {
	projects ports.ProjectRepository
	groups   ports.GroupManager
	log      zerolog.Logger
}

// NewDeleteAllProjects builds the use case.
func NewDeleteAllProjects(projects ports.ProjectRepository, groups ports.GroupManager, log zerolog.Logger) *DeleteAllProjects {
	return &DeleteAllProjects{projects: projects, groups: groups, log: log}
}

// Execute is admin-only. Group deletions are attempted independently; their failures are logged.
func (uc *DeleteAllProjects) Execute(ctx context.Context, creds domain.Credentials) (string, error) {
	if err := access.Authorize(creds, access.Request{Action: access.ActionDeleteAll}); err != nil {
		return "", err
	}

	names, err := uc.projects.ListNames(ctx)
	if err != nil {
		return "", domerrors.Fail(opDeleteAll, "list projects", err)
	}
	if err := uc.projects.DeleteAll(ctx); err != nil {
		return "", domerrors.Fail(opDeleteAll, "truncate projects", err)
	}

	failed := 0
	for _, name := range names {
		if err := uc.groups.DeleteGroup(ctx, name); err != nil {
			failed++
			uc.log.Error().Err(err).Str("project", name).Msg("delete identity group failed")
		}
	}
	uc.log.Info().Int("projects", len(names)).Int("group_failures", failed).Msg("deleted all projects")
	return StatusSuccess, nil
}

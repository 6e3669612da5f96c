package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/application/access"
	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
)

const opUpdate = "updateProject"

// UpdateProjectInput identifies the project and the fields to change.
type UpdateProjectInput struct {
	ID    domain.ProjectID
	Patch domain.ProjectPatch
}

// UpdateProject patches the project row and keeps its identity group in step with
// renames and customer moves.
type UpdateProject struct {
	projects ports.ProjectRepository
	members  ports.MembershipRepository
	groups   ports.GroupManager
	log      zerolog.Logger
}

// NewUpdateProject builds the use case.
func NewUpdateProject(projects ports.ProjectRepository, members ports.MembershipRepository, groups ports.GroupManager, log zerolog.Logger) *UpdateProject {
	return &UpdateProject{projects: projects, members: members, groups: groups, log: log}
}

// Execute applies the patch and returns the reloaded project.
//
// On a customer move, members that reach the project only through the old customer are
// removed from the group before the row changes, and members that reach it only through
// the new customer are added after the rename, against the final group name.
func (uc *UpdateProject) Execute(ctx context.Context, creds domain.Credentials, input UpdateProjectInput) (*domain.Project, error) {
	if err := access.Authorize(creds, access.Request{Action: access.ActionUpdate, ProjectID: input.ID}); err != nil {
		return nil, err
	}
	if input.Patch.IsEmpty() {
		return nil, domerrors.ErrEmptyPatch
	}

	original, err := uc.projects.GetByID(ctx, input.ID)
	if err != nil {
		return nil, domerrors.Fail(opUpdate, "load project", err)
	}
	if original == nil {
		return nil, fmt.Errorf("project %s: %w", input.ID, domerrors.ErrProjectNotFound)
	}
	log := uc.log.With().Str("project", original.Name).Logger()
	moved := input.Patch.MovesFrom(original)
	renamed := input.Patch.RenamesFrom(original)

	if moved {
		err := uc.eachCustomerOnlyMember(ctx, original.ID, original.Customer, original.Name, func(userID, groupID string, m *domain.GroupMember) error {
			if err := uc.groups.RemoveUserFromGroup(ctx, userID, groupID); err != nil {
				return err
			}
			log.Debug().Str("user", m.Username).Str("group", original.Name).Msg("removed user from identity group")
			return nil
		})
		if err != nil {
			return nil, domerrors.Fail(opUpdate, "remove customer members", err)
		}
	}

	if err := uc.projects.Update(ctx, input.ID, input.Patch); err != nil {
		return nil, domerrors.Fail(opUpdate, "update project", err)
	}

	groupName := original.Name
	if renamed {
		groupName = *input.Patch.Name
		if err := uc.groups.RenameGroup(ctx, original.Name, groupName); err != nil {
			return nil, domerrors.Fail(opUpdate, "rename group", err)
		}
		log.Debug().Str("group", groupName).Msg("renamed identity group")
	}

	if moved {
		err := uc.eachCustomerOnlyMember(ctx, original.ID, *input.Patch.Customer, groupName, func(userID, groupID string, m *domain.GroupMember) error {
			if err := uc.groups.AddUserToGroup(ctx, userID, groupID); err != nil {
				return err
			}
			log.Debug().Str("user", m.Username).Str("group", groupName).Msg("added user to identity group")
			return nil
		})
		if err != nil {
			return nil, domerrors.Fail(opUpdate, "add customer members", err)
		}
	}

	updated, err := uc.projects.GetByID(ctx, input.ID)
	if err != nil {
		return nil, domerrors.Fail(opUpdate, "reload project", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("project %s: %w", input.ID, domerrors.ErrProjectNotFound)
	}
	return updated, nil
}

// eachCustomerOnlyMember calls fn for every member of customerID without a direct grant on
// projectID, resolved to identity-service ids. The group is looked up only when there are members.
// Members without an identity account have no group membership to change and are skipped.
func (uc *UpdateProject) eachCustomerOnlyMember(ctx context.Context, projectID domain.ProjectID, customerID domain.CustomerID, groupName string, fn func(userID, groupID string, m *domain.GroupMember) error) error {
	members, err := uc.members.ListCustomerOnlyMembers(ctx, projectID, customerID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	groupID, err := uc.groups.FindGroupIDByName(ctx, groupName)
	if err != nil {
		return err
	}
	for _, m := range members {
		userID, err := uc.groups.FindUserIDByUsername(ctx, m.Username)
		if errors.Is(err, domerrors.ErrUserNotFound) {
			uc.log.Warn().Str("user", m.Username).Msg("no identity account for customer member")
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(userID, groupID, m); err != nil {
			return err
		}
	}
	return nil
}

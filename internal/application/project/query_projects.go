package project

import (
	"context"
	"time"

	"github.com/amirhosseinghanipour/provisioner/internal/application/access"
	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
)

// ListProjectsInput holds the optional filters of a listing.
type ListProjectsInput struct {
	CreatedAfter *time.Time
	GitURL       string
}

// QueryProjects answers project reads. Restricted callers see only projects of their
// customers or projects they were granted; nothing is rejected.
type QueryProjects struct {
	projects ports.ProjectRepository
}

// NewQueryProjects builds the read use case.
func NewQueryProjects(projects ports.ProjectRepository) *QueryProjects {
	return &QueryProjects{projects: projects}
}

// All lists visible projects matching input.
func (uc *QueryProjects) All(ctx context.Context, creds domain.Credentials, input ListProjectsInput) ([]*domain.Project, error) {
	return uc.projects.List(ctx, ports.ProjectFilter{
		CreatedAfter: input.CreatedAfter,
		GitURL:       input.GitURL,
		Scope:        access.ReadScope(creds),
	})
}

// ByName returns the visible project called name, or nil.
func (uc *QueryProjects) ByName(ctx context.Context, creds domain.Credentials, name string) (*domain.Project, error) {
	return uc.projects.GetByName(ctx, name, access.ReadScope(creds))
}

// ByGitURL returns the first visible project cloned from gitURL, or nil.
func (uc *QueryProjects) ByGitURL(ctx context.Context, creds domain.Credentials, gitURL string) (*domain.Project, error) {
	return uc.projects.GetByGitURL(ctx, gitURL, access.ReadScope(creds))
}

// ByEnvironmentID returns the visible project owning the environment, or nil.
func (uc *QueryProjects) ByEnvironmentID(ctx context.Context, creds domain.Credentials, environmentID int) (*domain.Project, error) {
	return uc.projects.GetByEnvironmentID(ctx, environmentID, access.ReadScope(creds))
}

// Package searchguard manages one read role per project over its log indices.
package searchguard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/restapi"
)

// RoleManager implements ports.RoleManager against the SearchGuard REST API
// (e.g. http://logs-db:9200/_searchguard/api).
type RoleManager struct {
	api *restapi.Client
	log zerolog.Logger
}

func NewRoleManager(api *restapi.Client, log zerolog.Logger) *RoleManager {
	return &RoleManager{api: api, log: log}
}

type roleBody struct {
	Indices map[string]map[string][]string `json:"indices"`
	Tenants map[string]string              `json:"tenants"`
}

// IndexPattern is the index wildcard a project role grants.
func IndexPattern(projectName string) string {
	return "*-" + projectName + "-*"
}

// CreateRole grants READ on the project's indices and RW on the customer tenant.
func (m *RoleManager) CreateRole(ctx context.Context, projectName, tenant string) error {
	body := roleBody{
		Indices: map[string]map[string][]string{
			IndexPattern(projectName): {"*": {"READ"}},
		},
		Tenants: map[string]string{tenant: "RW"},
	}
	if _, err := m.api.Do(ctx, http.MethodPut, "roles/"+url.PathEscape(projectName), body, nil); err != nil {
		return fmt.Errorf("create role %q: %w", projectName, err)
	}
	m.log.Debug().Str("project", projectName).Str("tenant", tenant).Msg("created authorization role")
	return nil
}

func (m *RoleManager) DeleteRole(ctx context.Context, projectName string) error {
	if _, err := m.api.Do(ctx, http.MethodDelete, "roles/"+url.PathEscape(projectName), nil, nil); err != nil {
		return fmt.Errorf("delete role %q: %w", projectName, err)
	}
	m.log.Debug().Str("project", projectName).Msg("deleted authorization role")
	return nil
}

var _ ports.RoleManager = (*RoleManager)(nil)

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/provisioner/internal/application/project"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/http/middleware"
)

var (
	admin = domain.Credentials{Subject: "ops@example.com", Role: domain.RoleAdmin}
	dev   = domain.Credentials{Subject: "dev@example.com", Role: "user", Permissions: domain.Permissions{Customers: []domain.CustomerID{7}}}
)

type testAPI struct {
	router   http.Handler
	projects *memProjects
	events   *recordingEnqueuer
}

func newTestAPI(roles stubRoles) *testAPI {
	log := zerolog.Nop()
	projects := &memProjects{}
	customers := memCustomers{7: "acme"}
	events := &recordingEnqueuer{}
	h := NewProjectsHandler(
		project.NewCreateProject(projects, customers, okGroups{}, roles, okPatterns{}, log),
		project.NewUpdateProject(projects, noMembers{}, okGroups{}, log),
		project.NewDeleteProject(projects, okGroups{}, roles, log),
		project.NewDeleteAllProjects(projects, okGroups{}, log),
		project.NewQueryProjects(projects),
		events,
		log,
	)
	r := chi.NewRouter()
	r.Get("/projects", h.List)
	r.Post("/projects", h.Create)
	r.Delete("/projects", h.DeleteAll)
	r.Get("/projects/by-name/{name}", h.GetByName)
	r.Get("/projects/by-git-url", h.GetByGitURL)
	r.Patch("/projects/{id}", h.Update)
	r.Delete("/projects/{name}", h.Delete)
	return &testAPI{router: r, projects: projects, events: events}
}

func (a *testAPI) do(t *testing.T, creds *domain.Credentials, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if creds != nil {
		req = req.WithContext(middleware.WithCredentials(context.Background(), *creds))
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestProjectsHandler_CreateAndRead(t *testing.T) {
	api := newTestAPI(stubRoles{})

	rec, out := api.do(t, &dev, http.MethodPost, "/projects", `{"name":" Shop ","customer":7,"gitUrl":"git@example.com:acme/shop.git"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "shop", out["name"])
	assert.Equal(t, domain.DefaultDeploySystem, out["activeSystemsDeploy"])
	assert.Equal(t, float64(5), out["developmentEnvironmentsLimit"])

	rec, out = api.do(t, &dev, http.MethodGet, "/projects/by-name/shop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "git@example.com:acme/shop.git", out["gitUrl"])

	rec, out = api.do(t, &dev, http.MethodGet, "/projects?gitUrl=git@example.com:acme/shop.git", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["projects"], 1)

	require.Len(t, api.events.events, 1)
	assert.Equal(t, EventProjectCreated, api.events.events[0].Event)
	assert.True(t, api.events.events[0].Success)
	assert.Equal(t, "dev@example.com", api.events.events[0].Subject)
	assert.NotEmpty(t, api.events.events[0].ID)
}

func TestProjectsHandler_ErrorMapping(t *testing.T) {
	api := newTestAPI(stubRoles{})
	api.projects.rows = []*domain.Project{{ID: 1, Name: "shop", Customer: 7}}

	tests := []struct {
		name   string
		creds  *domain.Credentials
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"no credentials", nil, http.MethodGet, "/projects", "", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"invalid name", &admin, http.MethodPost, "/projects", `{"name":"no spaces allowed","customer":7,"gitUrl":"x"}`, http.StatusBadRequest, ErrCodeInvalidRequest},
		{"missing customer", &admin, http.MethodPost, "/projects", `{"name":"web","gitUrl":"x"}`, http.StatusBadRequest, ErrCodeInvalidRequest},
		{"foreign customer", &dev, http.MethodPost, "/projects", `{"name":"web","customer":9,"gitUrl":"x"}`, http.StatusForbidden, ErrCodeForbidden},
		{"duplicate name", &admin, http.MethodPost, "/projects", `{"name":"shop","customer":7,"gitUrl":"x"}`, http.StatusConflict, ErrCodeConflict},
		{"zero environment limit", &admin, http.MethodPost, "/projects", `{"name":"web","customer":7,"gitUrl":"x","developmentEnvironmentsLimit":0}`, http.StatusBadRequest, ErrCodeInvalidRequest},
		{"zero environment limit patch", &admin, http.MethodPatch, "/projects/1", `{"patch":{"developmentEnvironmentsLimit":0}}`, http.StatusBadRequest, ErrCodeInvalidRequest},
		{"empty patch", &admin, http.MethodPatch, "/projects/1", `{"patch":{}}`, http.StatusBadRequest, ErrCodeEmptyPatch},
		{"bad id", &admin, http.MethodPatch, "/projects/abc", `{"patch":{"gitUrl":"y"}}`, http.StatusBadRequest, ErrCodeInvalidRequest},
		{"missing project", &admin, http.MethodDelete, "/projects/ghost", "", http.StatusNotFound, ErrCodeNotFound},
		{"restricted delete all", &dev, http.MethodDelete, "/projects", "", http.StatusForbidden, ErrCodeForbidden},
		{"invisible read", &dev, http.MethodGet, "/projects/by-name/other", "", http.StatusNotFound, ErrCodeNotFound},
		{"bad createdAfter", &admin, http.MethodGet, "/projects?createdAfter=yesterday", "", http.StatusBadRequest, ErrCodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := api.do(t, tt.creds, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, out["code"])
		})
	}
}

func TestProjectsHandler_FatalStepIsInternal(t *testing.T) {
	api := newTestAPI(stubRoles{createErr: errors.New("searchguard: 502")})

	rec, out := api.do(t, &admin, http.MethodPost, "/projects", `{"name":"web","customer":7,"gitUrl":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrCodeInternal, out["code"])
	assert.NotContains(t, rec.Body.String(), "searchguard")

	require.Len(t, api.events.events, 1)
	assert.False(t, api.events.events[0].Success)
	assert.Contains(t, api.events.events[0].Err, "create role")
}

func TestProjectsHandler_UpdateAndDelete(t *testing.T) {
	api := newTestAPI(stubRoles{})
	api.projects.rows = []*domain.Project{{ID: 1, Name: "shop", Customer: 7}}

	rec, out := api.do(t, &admin, http.MethodPatch, "/projects/1", `{"patch":{"name":"shop-v2"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "shop-v2", out["name"])

	rec, out = api.do(t, &admin, http.MethodDelete, "/projects/shop-v2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, project.StatusSuccess, out["status"])
	assert.Empty(t, api.projects.rows)

	rec, out = api.do(t, &admin, http.MethodDelete, "/projects", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", out["status"])
}

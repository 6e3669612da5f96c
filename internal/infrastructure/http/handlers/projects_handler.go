package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/application/project"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/http/middleware"
)

// ProjectsHandler serves the project lifecycle and read endpoints. Requires credentials in context.
type ProjectsHandler struct {
	create    *project.CreateProject
	update    *project.UpdateProject
	delete    *project.DeleteProject
	deleteAll *project.DeleteAllProjects
	query     *project.QueryProjects
	enqueuer  ports.TaskEnqueuer
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewProjectsHandler creates the projects handler. enqueuer may be nil.
func NewProjectsHandler(create *project.CreateProject, update *project.UpdateProject, del *project.DeleteProject, deleteAll *project.DeleteAllProjects, query *project.QueryProjects, enqueuer ports.TaskEnqueuer, log zerolog.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		create:    create,
		update:    update,
		delete:    del,
		deleteAll: deleteAll,
		query:     query,
		enqueuer:  enqueuer,
		validate:  newValidator(),
		log:       log,
	}
}

type projectResponse struct {
	ID                           int       `json:"id"`
	Name                         string    `json:"name"`
	Customer                     int       `json:"customer"`
	GitURL                       string    `json:"gitUrl"`
	Subfolder                    *string   `json:"subfolder"`
	Openshift                    int       `json:"openshift"`
	OpenshiftProjectPattern      *string   `json:"openshiftProjectPattern"`
	ActiveSystemsDeploy          string    `json:"activeSystemsDeploy"`
	ActiveSystemsPromote         string    `json:"activeSystemsPromote"`
	ActiveSystemsRemove          string    `json:"activeSystemsRemove"`
	Branches                     string    `json:"branches"`
	Pullrequests                 string    `json:"pullrequests"`
	ProductionEnvironment        *string   `json:"productionEnvironment"`
	AutoIdle                     bool      `json:"autoIdle"`
	StorageCalc                  bool      `json:"storageCalc"`
	DevelopmentEnvironmentsLimit int       `json:"developmentEnvironmentsLimit"`
	Created                      time.Time `json:"created"`
}

func toResponse(p *domain.Project) projectResponse {
	return projectResponse{
		ID:                           int(p.ID),
		Name:                         p.Name,
		Customer:                     int(p.Customer),
		GitURL:                       p.GitURL,
		Subfolder:                    p.Subfolder,
		Openshift:                    p.Openshift,
		OpenshiftProjectPattern:      p.OpenshiftProjectPattern,
		ActiveSystemsDeploy:          p.ActiveSystemsDeploy,
		ActiveSystemsPromote:         p.ActiveSystemsPromote,
		ActiveSystemsRemove:          p.ActiveSystemsRemove,
		Branches:                     p.Branches,
		Pullrequests:                 p.Pullrequests,
		ProductionEnvironment:        p.ProductionEnvironment,
		AutoIdle:                     p.AutoIdle,
		StorageCalc:                  p.StorageCalc,
		DevelopmentEnvironmentsLimit: p.DevelopmentEnvironmentsLimit,
		Created:                      p.Created,
	}
}

type createProjectRequest struct {
	Name                         string  `json:"name" validate:"required,max=100,project_name"`
	Customer                     int     `json:"customer" validate:"required,gt=0"`
	GitURL                       string  `json:"gitUrl" validate:"required,max=300"`
	Subfolder                    *string `json:"subfolder" validate:"omitempty,max=300"`
	Openshift                    int     `json:"openshift" validate:"gte=0"`
	OpenshiftProjectPattern      *string `json:"openshiftProjectPattern" validate:"omitempty,max=300"`
	ActiveSystemsDeploy          *string `json:"activeSystemsDeploy" validate:"omitempty,max=300"`
	ActiveSystemsPromote         *string `json:"activeSystemsPromote" validate:"omitempty,max=300"`
	ActiveSystemsRemove          *string `json:"activeSystemsRemove" validate:"omitempty,max=300"`
	Branches                     *string `json:"branches" validate:"omitempty,max=300"`
	Pullrequests                 *string `json:"pullrequests" validate:"omitempty,max=300"`
	ProductionEnvironment        *string `json:"productionEnvironment" validate:"omitempty,max=100"`
	AutoIdle                     *bool   `json:"autoIdle"`
	StorageCalc                  *bool   `json:"storageCalc"`
	DevelopmentEnvironmentsLimit *int    `json:"developmentEnvironmentsLimit" validate:"omitempty,gt=0"`
}

func (b createProjectRequest) spec() domain.ProjectSpec {
	return domain.ProjectSpec{
		Name:                         b.Name,
		Customer:                     domain.CustomerID(b.Customer),
		GitURL:                       b.GitURL,
		Subfolder:                    b.Subfolder,
		Openshift:                    b.Openshift,
		OpenshiftProjectPattern:      b.OpenshiftProjectPattern,
		ActiveSystemsDeploy:          b.ActiveSystemsDeploy,
		ActiveSystemsPromote:         b.ActiveSystemsPromote,
		ActiveSystemsRemove:          b.ActiveSystemsRemove,
		Branches:                     b.Branches,
		Pullrequests:                 b.Pullrequests,
		ProductionEnvironment:        b.ProductionEnvironment,
		AutoIdle:                     b.AutoIdle,
		StorageCalc:                  b.StorageCalc,
		DevelopmentEnvironmentsLimit: b.DevelopmentEnvironmentsLimit,
	}
}

type projectPatchRequest struct {
	Name                         *string `json:"name" validate:"omitempty,max=100,project_name"`
	Customer                     *int    `json:"customer" validate:"omitempty,gt=0"`
	GitURL                       *string `json:"gitUrl" validate:"omitempty,max=300"`
	Subfolder                    *string `json:"subfolder" validate:"omitempty,max=300"`
	ActiveSystemsDeploy          *string `json:"activeSystemsDeploy" validate:"omitempty,max=300"`
	ActiveSystemsPromote         *string `json:"activeSystemsPromote" validate:"omitempty,max=300"`
	ActiveSystemsRemove          *string `json:"activeSystemsRemove" validate:"omitempty,max=300"`
	Branches                     *string `json:"branches" validate:"omitempty,max=300"`
	ProductionEnvironment        *string `json:"productionEnvironment" validate:"omitempty,max=100"`
	AutoIdle                     *bool   `json:"autoIdle"`
	StorageCalc                  *bool   `json:"storageCalc"`
	Pullrequests                 *string `json:"pullrequests" validate:"omitempty,max=300"`
	Openshift                    *int    `json:"openshift" validate:"omitempty,gte=0"`
	OpenshiftProjectPattern      *string `json:"openshiftProjectPattern" validate:"omitempty,max=300"`
	DevelopmentEnvironmentsLimit *int    `json:"developmentEnvironmentsLimit" validate:"omitempty,gt=0"`
}

func (b projectPatchRequest) patch() domain.ProjectPatch {
	p := domain.ProjectPatch{
		Name:                         b.Name,
		GitURL:                       b.GitURL,
		Subfolder:                    b.Subfolder,
		ActiveSystemsDeploy:          b.ActiveSystemsDeploy,
		ActiveSystemsPromote:         b.ActiveSystemsPromote,
		ActiveSystemsRemove:          b.ActiveSystemsRemove,
		Branches:                     b.Branches,
		ProductionEnvironment:        b.ProductionEnvironment,
		AutoIdle:                     b.AutoIdle,
		StorageCalc:                  b.StorageCalc,
		Pullrequests:                 b.Pullrequests,
		Openshift:                    b.Openshift,
		OpenshiftProjectPattern:      b.OpenshiftProjectPattern,
		DevelopmentEnvironmentsLimit: b.DevelopmentEnvironmentsLimit,
	}
	if b.Customer != nil {
		c := domain.CustomerID(*b.Customer)
		p.Customer = &c
	}
	return p
}

func (h *ProjectsHandler) credentials(w http.ResponseWriter, r *http.Request) (domain.Credentials, bool) {
	creds, ok := middleware.CredentialsFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "", "missing credentials")
	}
	return creds, ok
}

// Create handles POST /projects.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.credentials(w, r)
	if !ok {
		return
	}
	var body createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	body.Name = SanitizeProjectName(body.Name)
	if err := h.validate.Struct(&body); err != nil {
		writeOpErr(w, h.log, validationErr(err))
		return
	}
	p, err := h.create.Execute(r.Context(), creds, project.CreateProjectInput{Project: body.spec()})
	middleware.RecordProjectOperation("create", err)
	h.audit(r, EventProjectCreated, body.Name, creds, err)
	if err != nil {
		writeOpErr(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(p))
}

// Update handles PATCH /projects/{id}. Body: { "patch": { ... } }.
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.credentials(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeErr(w, http.StatusBadRequest, "", "invalid project id")
		return
	}
	var body struct {
		Patch projectPatchRequest `json:"patch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if body.Patch.Name != nil {
		name := SanitizeProjectName(*body.Patch.Name)
		body.Patch.Name = &name
	}
	if err := h.validate.Struct(&body.Patch); err != nil {
		writeOpErr(w, h.log, validationErr(err))
		return
	}
	p, err := h.update.Execute(r.Context(), creds, project.UpdateProjectInput{ID: domain.ProjectID(id), Patch: body.Patch.patch()})
	middleware.RecordProjectOperation("update", err)
	subjectProject := strconv.Itoa(id)
	if p != nil {
		subjectProject = p.Name
	}
	h.audit(r, EventProjectUpdated, subjectProject, creds, err)
	if err != nil {
		writeOpErr(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(p))
}

// Delete handles DELETE /projects/{name}.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.credentials(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	if name == "" {
		writeErr(w, http.StatusBadRequest, "", "project name required")
		return
	}
	status, err := h.delete.Execute(r.Context(), creds, project.DeleteProjectInput{Name: name})
	middleware.RecordProjectOperation("delete", err)
	h.audit(r, EventProjectDeleted, name, creds, err)
	if err != nil {
		writeOpErr(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// DeleteAll handles DELETE /projects. Admin only.
func (h *ProjectsHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.credentials(w, r)
	if !ok {
		return
	}
	status, err := h.deleteAll.Execute(r.Context(), creds)
	middleware.RecordProjectOperation("delete_all", err)
	h.audit(r, EventProjectsDeleteAll, "", creds, err)
	if err != nil {
		writeOpErr(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// List handles GET /projects?createdAfter=<RFC3339>&gitUrl=<url>.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.credentials(w, r)
	if !ok {
		return
	}
	var input project.ListProjectsInput
	if v := r.URL.Query().Get("createdAfter"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "", "createdAfter must be RFC3339")
			return
		}
		input.CreatedAfter = &t
	}
	input.GitURL = r.URL.Query().Get("gitUrl")
	projects, err := h.query.All(r.Context(), creds, input)
	if err != nil {
		writeOpErr(w, h.log, err)
		return
	}
	items := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		items = append(items, toResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": items})
}

// GetByName handles GET /projects/by-name/{name}.
func (h *ProjectsHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.credentials(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	p, err := h.query.ByName(r.Context(), creds, name)
	h.writeOne(w, p, err, fmt.Sprintf("project %q", name))
}

// GetByGitURL handles GET /projects/by-git-url?gitUrl=<url>.
func (h *ProjectsHandler) GetByGitURL(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.credentials(w, r)
	if !ok {
		return
	}
	gitURL := r.URL.Query().Get("gitUrl")
	if gitURL == "" {
		writeErr(w, http.StatusBadRequest, "", "gitUrl required")
		return
	}
	p, err := h.query.ByGitURL(r.Context(), creds, gitURL)
	h.writeOne(w, p, err, "project for "+gitURL)
}

// GetByEnvironment handles GET /environments/{id}/project.
func (h *ProjectsHandler) GetByEnvironment(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.credentials(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeErr(w, http.StatusBadRequest, "", "invalid environment id")
		return
	}
	p, err := h.query.ByEnvironmentID(r.Context(), creds, id)
	h.writeOne(w, p, err, "project of environment "+strconv.Itoa(id))
}

// writeOne answers a single-project read; an invisible project is a 404.
func (h *ProjectsHandler) writeOne(w http.ResponseWriter, p *domain.Project, err error, what string) {
	if err != nil {
		writeOpErr(w, h.log, err)
		return
	}
	if p == nil {
		writeOpErr(w, h.log, fmt.Errorf("%s: %w", what, domerrors.ErrProjectNotFound))
		return
	}
	writeJSON(w, http.StatusOK, toResponse(p))
}

func (h *ProjectsHandler) audit(r *http.Request, event, projectName string, creds domain.Credentials, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	AuditEmit(h.log, r, h.enqueuer, event, projectName, creds.Subject, err == nil, errMsg)
}

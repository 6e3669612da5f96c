package handlers

import (
	"context"
	"sync"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
)

type memProjects struct {
	mu   sync.Mutex
	rows []*domain.Project
}

func (m *memProjects) visible(p *domain.Project, scope *ports.AccessScope) bool {
	if scope == nil {
		return true
	}
	for _, c := range scope.Customers {
		if c == p.Customer {
			return true
		}
	}
	for _, id := range scope.Projects {
		if id == p.ID {
			return true
		}
	}
	return false
}

func (m *memProjects) find(match func(*domain.Project) bool) *domain.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if match(p) {
			cp := *p
			return &cp
		}
	}
	return nil
}

func (m *memProjects) List(ctx context.Context, f ports.ProjectFilter) ([]*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Project
	for _, p := range m.rows {
		if (f.GitURL == "" || p.GitURL == f.GitURL) && m.visible(p, f.Scope) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memProjects) GetByID(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	return m.find(func(p *domain.Project) bool { return p.ID == id }), nil
}

func (m *memProjects) GetByName(ctx context.Context, name string, scope *ports.AccessScope) (*domain.Project, error) {
	return m.find(func(p *domain.Project) bool { return p.Name == name && m.visible(p, scope) }), nil
}

func (m *memProjects) GetByGitURL(ctx context.Context, url string, scope *ports.AccessScope) (*domain.Project, error) {
	return m.find(func(p *domain.Project) bool { return p.GitURL == url && m.visible(p, scope) }), nil
}

func (m *memProjects) GetByEnvironmentID(ctx context.Context, id int, scope *ports.AccessScope) (*domain.Project, error) {
	return nil, nil
}

func (m *memProjects) Create(ctx context.Context, spec domain.ProjectSpec) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.Name == spec.Name {
			return nil, domerrors.ErrProjectExists
		}
	}
	p := spec.Resolve(domain.ProjectDefaults{})
	p.ID = domain.ProjectID(len(m.rows) + 1)
	m.rows = append(m.rows, &p)
	cp := p
	return &cp, nil
}

func (m *memProjects) Update(ctx context.Context, id domain.ProjectID, patch domain.ProjectPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.ID == id {
			if patch.Name != nil {
				p.Name = *patch.Name
			}
			if patch.GitURL != nil {
				p.GitURL = *patch.GitURL
			}
			return nil
		}
	}
	return domerrors.ErrProjectNotFound
}

func (m *memProjects) DeleteByID(ctx context.Context, id domain.ProjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.rows {
		if p.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return domerrors.ErrProjectNotFound
}

func (m *memProjects) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	return nil
}

func (m *memProjects) ListNames(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, p := range m.rows {
		out = append(out, p.Name)
	}
	return out, nil
}

type memCustomers map[domain.CustomerID]string

func (m memCustomers) GetByID(ctx context.Context, id domain.CustomerID) (*domain.Customer, error) {
	name, ok := m[id]
	if !ok {
		return nil, nil
	}
	return &domain.Customer{ID: id, Name: name}, nil
}

type noMembers struct{}

func (noMembers) ListCustomerOnlyMembers(ctx context.Context, projectID domain.ProjectID, customerID domain.CustomerID) ([]*domain.GroupMember, error) {
	return nil, nil
}

// okGroups accepts every group call.
type okGroups struct{}

func (okGroups) CreateGroup(ctx context.Context, name string) error                 { return nil }
func (okGroups) RenameGroup(ctx context.Context, currentName, newName string) error { return nil }
func (okGroups) DeleteGroup(ctx context.Context, name string) error                 { return nil }
func (okGroups) FindGroupIDByName(ctx context.Context, name string) (string, error) {
	return "g-" + name, nil
}
func (okGroups) FindUserIDByUsername(ctx context.Context, username string) (string, error) {
	return "u-" + username, nil
}
func (okGroups) AddUserToGroup(ctx context.Context, userID, groupID string) error      { return nil }
func (okGroups) RemoveUserFromGroup(ctx context.Context, userID, groupID string) error { return nil }

type stubRoles struct {
	createErr error
}

func (s stubRoles) CreateRole(ctx context.Context, projectName, tenant string) error { return s.createErr }
func (s stubRoles) DeleteRole(ctx context.Context, projectName string) error         { return nil }

type okPatterns struct{}

func (okPatterns) ProvisionIndexPatterns(ctx context.Context, projectName, tenant string) error {
	return nil
}
func (okPatterns) EnsureDefaultIndex(ctx context.Context, projectName, tenant string) error {
	return nil
}

type recordingEnqueuer struct {
	mu     sync.Mutex
	events []ports.AuditEvent
}

func (r *recordingEnqueuer) EnqueueWebhook(ctx context.Context, event ports.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

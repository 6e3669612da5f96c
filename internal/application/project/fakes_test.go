package project

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
)

// recorder collects collaborator calls across fakes so tests can assert ordering.
type recorder struct {
	calls []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

type fakeProjects struct {
	rec       *recorder
	rows      map[domain.ProjectID]*domain.Project
	envs      map[int]domain.ProjectID
	nextID    domain.ProjectID
	createErr error
	updateErr error
	deleteErr error
}

func newFakeProjects(rec *recorder) *fakeProjects {
	return &fakeProjects{rec: rec, rows: map[domain.ProjectID]*domain.Project{}, envs: map[int]domain.ProjectID{}, nextID: 1}
}

func (f *fakeProjects) seed(p domain.Project) {
	cp := p
	f.rows[p.ID] = &cp
	if p.ID >= f.nextID {
		f.nextID = p.ID + 1
	}
}

func inScope(p *domain.Project, scope *ports.AccessScope) bool {
	if scope == nil {
		return true
	}
	return slices.Contains(scope.Customers, p.Customer) || slices.Contains(scope.Projects, p.ID)
}

func (f *fakeProjects) sorted() []*domain.Project {
	out := make([]*domain.Project, 0, len(f.rows))
	for _, p := range f.rows {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeProjects) List(ctx context.Context, filter ports.ProjectFilter) ([]*domain.Project, error) {
	var out []*domain.Project
	for _, p := range f.sorted() {
		if filter.GitURL != "" && p.GitURL != filter.GitURL {
			continue
		}
		if filter.CreatedAfter != nil && p.Created.Before(*filter.CreatedAfter) {
			continue
		}
		if inScope(p, filter.Scope) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjects) GetByID(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjects) GetByName(ctx context.Context, name string, scope *ports.AccessScope) (*domain.Project, error) {
	for _, p := range f.sorted() {
		if p.Name == name && inScope(p, scope) {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProjects) GetByGitURL(ctx context.Context, gitURL string, scope *ports.AccessScope) (*domain.Project, error) {
	for _, p := range f.sorted() {
		if p.GitURL == gitURL && inScope(p, scope) {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProjects) GetByEnvironmentID(ctx context.Context, environmentID int, scope *ports.AccessScope) (*domain.Project, error) {
	id, ok := f.envs[environmentID]
	if !ok {
		return nil, nil
	}
	p, ok := f.rows[id]
	if !ok || !inScope(p, scope) {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjects) Create(ctx context.Context, spec domain.ProjectSpec) (*domain.Project, error) {
	f.rec.add("store.create %s", spec.Name)
	if f.createErr != nil {
		return nil, f.createErr
	}
	p := spec.Resolve(domain.ProjectDefaults{})
	p.ID = f.nextID
	p.Created = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f.nextID++
	f.seed(p)
	return &p, nil
}

func (f *fakeProjects) Update(ctx context.Context, id domain.ProjectID, patch domain.ProjectPatch) error {
	f.rec.add("store.update %d", id)
	if f.updateErr != nil {
		return f.updateErr
	}
	if patch.IsEmpty() {
		return domerrors.ErrEmptyPatch
	}
	p, ok := f.rows[id]
	if !ok {
		return domerrors.ErrProjectNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Customer != nil {
		p.Customer = *patch.Customer
	}
	if patch.GitURL != nil {
		p.GitURL = *patch.GitURL
	}
	if patch.DevelopmentEnvironmentsLimit != nil {
		p.DevelopmentEnvironmentsLimit = *patch.DevelopmentEnvironmentsLimit
	}
	return nil
}

func (f *fakeProjects) DeleteByID(ctx context.Context, id domain.ProjectID) error {
	f.rec.add("store.delete %d", id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeProjects) DeleteAll(ctx context.Context) error {
	f.rec.add("store.truncate")
	f.rows = map[domain.ProjectID]*domain.Project{}
	return nil
}

func (f *fakeProjects) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	for _, p := range f.sorted() {
		names = append(names, p.Name)
	}
	return names, nil
}

type fakeCustomers struct {
	rec  *recorder
	rows map[domain.CustomerID]*domain.Customer
}

func (f *fakeCustomers) GetByID(ctx context.Context, id domain.CustomerID) (*domain.Customer, error) {
	f.rec.add("customer.get %d", id)
	c, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

// fakeMembership derives customer-only access the way the store does: members of the
// customer without a direct grant on the project.
type fakeMembership struct {
	customerMembers map[domain.CustomerID][]*domain.GroupMember
	directGrants    map[domain.ProjectID][]int
}

func (f *fakeMembership) ListCustomerOnlyMembers(ctx context.Context, projectID domain.ProjectID, customerID domain.CustomerID) ([]*domain.GroupMember, error) {
	var out []*domain.GroupMember
	for _, m := range f.customerMembers[customerID] {
		if !slices.Contains(f.directGrants[projectID], m.UserID) {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeGroups struct {
	rec     *recorder
	byName  map[string]string          // group name -> group id
	members map[string]map[string]bool // group id -> user ids
	users   map[string]string          // username -> user id
	nextID  int
	errs    map[string]error // method -> error
}

func newFakeGroups(rec *recorder) *fakeGroups {
	return &fakeGroups{
		rec:     rec,
		byName:  map[string]string{},
		members: map[string]map[string]bool{},
		users:   map[string]string{},
		errs:    map[string]error{},
	}
}

func (f *fakeGroups) addGroup(name string, userIDs ...string) string {
	f.nextID++
	id := fmt.Sprintf("g%d", f.nextID)
	f.byName[name] = id
	f.members[id] = map[string]bool{}
	for _, u := range userIDs {
		f.members[id][u] = true
	}
	return id
}

func (f *fakeGroups) membersOf(name string) []string {
	var out []string
	for u := range f.members[f.byName[name]] {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func (f *fakeGroups) CreateGroup(ctx context.Context, name string) error {
	f.rec.add("group.create %s", name)
	if err := f.errs["CreateGroup"]; err != nil {
		return err
	}
	if _, ok := f.byName[name]; ok {
		return fmt.Errorf("group %q: %w", name, domerrors.ErrConflict)
	}
	f.addGroup(name)
	return nil
}

func (f *fakeGroups) RenameGroup(ctx context.Context, currentName, newName string) error {
	f.rec.add("group.rename %s %s", currentName, newName)
	if err := f.errs["RenameGroup"]; err != nil {
		return err
	}
	id, ok := f.byName[currentName]
	if !ok {
		return domerrors.ErrGroupNotFound
	}
	delete(f.byName, currentName)
	f.byName[newName] = id
	return nil
}

func (f *fakeGroups) DeleteGroup(ctx context.Context, name string) error {
	f.rec.add("group.delete %s", name)
	if err := f.errs["DeleteGroup"]; err != nil {
		return err
	}
	id, ok := f.byName[name]
	if !ok {
		return nil
	}
	delete(f.byName, name)
	delete(f.members, id)
	return nil
}

func (f *fakeGroups) FindGroupIDByName(ctx context.Context, name string) (string, error) {
	f.rec.add("group.find %s", name)
	id, ok := f.byName[name]
	if !ok {
		return "", domerrors.ErrGroupNotFound
	}
	return id, nil
}

func (f *fakeGroups) FindUserIDByUsername(ctx context.Context, username string) (string, error) {
	id, ok := f.users[username]
	if !ok {
		return "", domerrors.ErrUserNotFound
	}
	return id, nil
}

func (f *fakeGroups) AddUserToGroup(ctx context.Context, userID, groupID string) error {
	f.rec.add("group.add %s %s", userID, groupID)
	f.members[groupID][userID] = true
	return nil
}

func (f *fakeGroups) RemoveUserFromGroup(ctx context.Context, userID, groupID string) error {
	f.rec.add("group.remove %s %s", userID, groupID)
	delete(f.members[groupID], userID)
	return nil
}

type fakeRoles struct {
	rec       *recorder
	roles     map[string]string // project -> tenant
	createErr error
	deleteErr error
}

func (f *fakeRoles) CreateRole(ctx context.Context, projectName, tenant string) error {
	f.rec.add("role.create %s %s", projectName, tenant)
	if f.createErr != nil {
		return f.createErr
	}
	f.roles[projectName] = tenant
	return nil
}

func (f *fakeRoles) DeleteRole(ctx context.Context, projectName string) error {
	f.rec.add("role.delete %s", projectName)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.roles, projectName)
	return nil
}

type fakePatterns struct {
	rec          *recorder
	provisionErr error
	defaultErr   error
}

func (f *fakePatterns) ProvisionIndexPatterns(ctx context.Context, projectName, tenant string) error {
	f.rec.add("patterns.provision %s %s", projectName, tenant)
	return f.provisionErr
}

func (f *fakePatterns) EnsureDefaultIndex(ctx context.Context, projectName, tenant string) error {
	f.rec.add("patterns.default %s %s", projectName, tenant)
	return f.defaultErr
}

var (
	_ ports.ProjectRepository       = (*fakeProjects)(nil)
	_ ports.CustomerRepository      = (*fakeCustomers)(nil)
	_ ports.MembershipRepository    = (*fakeMembership)(nil)
	_ ports.GroupManager            = (*fakeGroups)(nil)
	_ ports.RoleManager             = (*fakeRoles)(nil)
	_ ports.IndexPatternProvisioner = (*fakePatterns)(nil)
)

package project

import (
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/domain"
)

var (
	adminCreds = domain.Credentials{Subject: "ops@example.com", Role: domain.RoleAdmin}
	devCreds   = domain.Credentials{
		Subject: "dev@example.com",
		Role:    "user",
		Permissions: domain.Permissions{
			Customers: []domain.CustomerID{7},
			Projects:  []domain.ProjectID{1},
		},
	}
)

type harness struct {
	rec       *recorder
	projects  *fakeProjects
	customers *fakeCustomers
	members   *fakeMembership
	groups    *fakeGroups
	roles     *fakeRoles
	patterns  *fakePatterns
}

func newHarness() *harness {
	rec := &recorder{}
	return &harness{
		rec:      rec,
		projects: newFakeProjects(rec),
		customers: &fakeCustomers{rec: rec, rows: map[domain.CustomerID]*domain.Customer{
			3:  {ID: 3, Name: "globex"},
			7:  {ID: 7, Name: "acme"},
			10: {ID: 10, Name: "initech"},
			11: {ID: 11, Name: "umbrella"},
		}},
		members: &fakeMembership{
			customerMembers: map[domain.CustomerID][]*domain.GroupMember{},
			directGrants:    map[domain.ProjectID][]int{},
		},
		groups:   newFakeGroups(rec),
		roles:    &fakeRoles{rec: rec, roles: map[string]string{}},
		patterns: &fakePatterns{rec: rec},
	}
}

func (h *harness) create() *CreateProject {
	return NewCreateProject(h.projects, h.customers, h.groups, h.roles, h.patterns, zerolog.Nop())
}

func (h *harness) update() *UpdateProject {
	return NewUpdateProject(h.projects, h.members, h.groups, zerolog.Nop())
}

func (h *harness) delete() *DeleteProject {
	return NewDeleteProject(h.projects, h.groups, h.roles, zerolog.Nop())
}

func (h *harness) deleteAll() *DeleteAllProjects {
	return NewDeleteAllProjects(h.projects, h.groups, zerolog.Nop())
}

func (h *harness) query() *QueryProjects {
	return NewQueryProjects(h.projects)
}

func strPtr(s string) *string { return &s }

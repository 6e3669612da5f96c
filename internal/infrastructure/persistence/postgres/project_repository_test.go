package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/persistence/db"
)

func TestFilterPredicate(t *testing.T) {
	after := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   ports.ProjectFilter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "git url only",
			filter:   ports.ProjectFilter{GitURL: "git@example.com:acme/site.git"},
			wantSQL:  "(git_url = ?)",
			wantArgs: []interface{}{"git@example.com:acme/site.git"},
		},
		{
			name: "all predicates",
			filter: ports.ProjectFilter{
				CreatedAfter: &after,
				GitURL:       "git://x",
				Scope:        &ports.AccessScope{Customers: []domain.CustomerID{7, 9}, Projects: []domain.ProjectID{1}},
			},
			wantSQL:  "(created >= ? AND git_url = ? AND (customer IN (?,?) OR id IN (?)))",
			wantArgs: []interface{}{after, "git://x", int32(7), int32(9), int32(1)},
		},
		{
			name:     "scope without customers",
			filter:   ports.ProjectFilter{Scope: &ports.AccessScope{Projects: []domain.ProjectID{4}}},
			wantSQL:  "((id IN (?)))",
			wantArgs: []interface{}{int32(4)},
		},
		{
			name:     "empty scope matches nothing",
			filter:   ports.ProjectFilter{Scope: &ports.AccessScope{}},
			wantSQL:  "(FALSE)",
			wantArgs: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred := filterPredicate(tt.filter)
			require.NotNil(t, pred)
			sql, args, err := pred.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFilterPredicate_NoneSet(t *testing.T) {
	assert.Nil(t, filterPredicate(ports.ProjectFilter{}))

	sql, _, err := db.SelectProjectsQuery(nil).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
}

func TestSelectProjectsQuery_UsesDollarPlaceholders(t *testing.T) {
	pred := filterPredicate(ports.ProjectFilter{GitURL: "'; DROP TABLE project; --"})
	sql, args, err := db.SelectProjectsQuery(pred).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "FROM project WHERE (git_url = $1) ORDER BY id"), sql)
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []interface{}{"'; DROP TABLE project; --"}, args)
}

func TestScopePredicate_QualifiesEnvironmentJoin(t *testing.T) {
	assert.Nil(t, scopePredicate(nil, "p."))

	sql, args, err := db.SelectProjectByEnvironmentQuery(12, scopePredicate(&ports.AccessScope{Customers: []domain.CustomerID{3}}, "p.")).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM environment e JOIN project p ON e.project = p.id WHERE e.id = $1 AND (p.customer IN ($2)) LIMIT 1")
	assert.Equal(t, []interface{}{12, int32(3)}, args)
}

func TestWithScope(t *testing.T) {
	sql, args, err := withScope(sq.Eq{"name": "shop"}, &ports.AccessScope{Customers: []domain.CustomerID{7}}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(name = ? AND (customer IN (?)))", sql)
	assert.Equal(t, []interface{}{"shop", int32(7)}, args)

	sql, _, err = withScope(sq.Eq{"name": "shop"}, nil).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "name = ?", sql)
}

func TestPatchColumns(t *testing.T) {
	name := "renamed"
	customer := domain.CustomerID(11)
	limit := 2
	set := patchColumns(domain.ProjectPatch{Name: &name, Customer: &customer, DevelopmentEnvironmentsLimit: &limit, ProductionEnvironment: &name})

	assert.Equal(t, map[string]interface{}{
		"name":                           "renamed",
		"customer":                       int32(11),
		"development_environments_limit": int32(2),
		"production_environment":         pgtype.Text{String: "renamed", Valid: true},
	}, set)
	assert.Empty(t, patchColumns(domain.ProjectPatch{}))
}

func TestMapWriteErr(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "project_name_key"})
	assert.True(t, errors.Is(mapWriteErr(unique, "shop"), domerrors.ErrProjectExists))

	fk := &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "project_customer_fkey"}
	assert.True(t, errors.Is(mapWriteErr(fk, "shop"), domerrors.ErrCustomerNotFound))

	other := errors.New("conn closed")
	assert.Equal(t, other, mapWriteErr(other, "shop"))
}

func TestDBProjectToDomain(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := dbProjectToDomain(db.Project{
		ID:                           5,
		Name:                         "shop",
		Customer:                     7,
		Subfolder:                    pgtype.Text{String: "web", Valid: true},
		DevelopmentEnvironmentsLimit: 5,
		Created:                      created,
	})
	assert.Equal(t, domain.ProjectID(5), p.ID)
	assert.Equal(t, domain.CustomerID(7), p.Customer)
	require.NotNil(t, p.Subfolder)
	assert.Equal(t, "web", *p.Subfolder)
	assert.Nil(t, p.ProductionEnvironment)
	assert.Equal(t, created, p.Created)
}

func TestMigrationNames(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "migrations/0001_init.sql", names[0])
}

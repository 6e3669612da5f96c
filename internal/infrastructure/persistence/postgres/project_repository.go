package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/persistence/db"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type ProjectRepository struct {
	q        *db.Queries
	pool     *pgxpool.Pool
	defaults domain.ProjectDefaults
}

func NewProjectRepository(q *db.Queries, pool *pgxpool.Pool, defaults domain.ProjectDefaults) *ProjectRepository {
	return &ProjectRepository{q: q, pool: pool, defaults: defaults}
}

func (r *ProjectRepository) inTx(ctx context.Context, fn func(*db.Queries) error) error {
	if r.pool == nil {
		return fn(r.q)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(r.q.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ProjectRepository) List(ctx context.Context, filter ports.ProjectFilter) ([]*domain.Project, error) {
	rows, err := r.q.ListProjects(ctx, filterPredicate(filter))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Project, 0, len(rows))
	for _, row := range rows {
		out = append(out, dbProjectToDomain(row))
	}
	return out, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	return r.getOne(ctx, sq.Eq{"id": int32(id)})
}

func (r *ProjectRepository) GetByName(ctx context.Context, name string, scope *ports.AccessScope) (*domain.Project, error) {
	return r.getOne(ctx, withScope(sq.Eq{"name": name}, scope))
}

func (r *ProjectRepository) GetByGitURL(ctx context.Context, gitURL string, scope *ports.AccessScope) (*domain.Project, error) {
	return r.getOne(ctx, withScope(sq.Eq{"git_url": gitURL}, scope))
}

func (r *ProjectRepository) GetByEnvironmentID(ctx context.Context, environmentID int, scope *ports.AccessScope) (*domain.Project, error) {
	row, err := r.q.GetProjectByEnvironment(ctx, environmentID, scopePredicate(scope, "p."))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return dbProjectToDomain(row), nil
}

func (r *ProjectRepository) getOne(ctx context.Context, where sq.Sqlizer) (*domain.Project, error) {
	row, err := r.q.GetProject(ctx, where)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return dbProjectToDomain(row), nil
}

// Create checks the customer and inserts the row in one transaction.
func (r *ProjectRepository) Create(ctx context.Context, spec domain.ProjectSpec) (*domain.Project, error) {
	p := spec.Resolve(r.defaults)
	var row db.Project
	err := r.inTx(ctx, func(q *db.Queries) error {
		if _, err := q.GetCustomer(ctx, int32(p.Customer)); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("customer %s: %w", p.Customer, domerrors.ErrCustomerNotFound)
			}
			return err
		}
		var err error
		row, err = q.InsertProject(ctx, insertParams(p))
		return err
	})
	if err != nil {
		return nil, mapWriteErr(err, p.Name)
	}
	return dbProjectToDomain(row), nil
}

func (r *ProjectRepository) Update(ctx context.Context, id domain.ProjectID, patch domain.ProjectPatch) error {
	if patch.IsEmpty() {
		return domerrors.ErrEmptyPatch
	}
	n, err := r.q.UpdateProject(ctx, int32(id), patchColumns(patch))
	if err != nil {
		name := ""
		if patch.Name != nil {
			name = *patch.Name
		}
		return mapWriteErr(err, name)
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, domerrors.ErrProjectNotFound)
	}
	return nil
}

// DeleteByID removes the project's user grants and the row together.
func (r *ProjectRepository) DeleteByID(ctx context.Context, id domain.ProjectID) error {
	return r.inTx(ctx, func(q *db.Queries) error {
		if err := q.DeleteProjectGrants(ctx, int32(id)); err != nil {
			return err
		}
		n, err := q.DeleteProject(ctx, int32(id))
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("project %s: %w", id, domerrors.ErrProjectNotFound)
		}
		return nil
	})
}

func (r *ProjectRepository) DeleteAll(ctx context.Context) error {
	return r.q.TruncateProjects(ctx)
}

func (r *ProjectRepository) ListNames(ctx context.Context) ([]string, error) {
	return r.q.ListProjectNames(ctx)
}

// filterPredicate ANDs the set predicates of filter. It returns nil when none is set.
func filterPredicate(filter ports.ProjectFilter) sq.Sqlizer {
	and := sq.And{}
	if filter.CreatedAfter != nil {
		and = append(and, sq.GtOrEq{"created": *filter.CreatedAfter})
	}
	if filter.GitURL != "" {
		and = append(and, sq.Eq{"git_url": filter.GitURL})
	}
	if s := scopePredicate(filter.Scope, ""); s != nil {
		and = append(and, s)
	}
	if len(and) == 0 {
		return nil
	}
	return and
}

func withScope(base sq.Sqlizer, scope *ports.AccessScope) sq.Sqlizer {
	s := scopePredicate(scope, "")
	if s == nil {
		return base
	}
	return sq.And{base, s}
}

// scopePredicate renders "customer IN (...) OR id IN (...)". Empty sets add no clause;
// a scope with both sets empty matches nothing. A nil scope is unrestricted.
func scopePredicate(scope *ports.AccessScope, prefix string) sq.Sqlizer {
	if scope == nil {
		return nil
	}
	or := sq.Or{}
	if len(scope.Customers) > 0 {
		ids := make([]int32, 0, len(scope.Customers))
		for _, c := range scope.Customers {
			ids = append(ids, int32(c))
		}
		or = append(or, sq.Eq{prefix + "customer": ids})
	}
	if len(scope.Projects) > 0 {
		ids := make([]int32, 0, len(scope.Projects))
		for _, p := range scope.Projects {
			ids = append(ids, int32(p))
		}
		or = append(or, sq.Eq{prefix + "id": ids})
	}
	if len(or) == 0 {
		return sq.Expr("FALSE")
	}
	return or
}

// patchColumns maps the set fields of patch to column values.
func patchColumns(patch domain.ProjectPatch) map[string]interface{} {
	set := map[string]interface{}{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Customer != nil {
		set["customer"] = int32(*patch.Customer)
	}
	if patch.GitURL != nil {
		set["git_url"] = *patch.GitURL
	}
	if patch.Subfolder != nil {
		set["subfolder"] = textOf(patch.Subfolder)
	}
	if patch.ActiveSystemsDeploy != nil {
		set["active_systems_deploy"] = *patch.ActiveSystemsDeploy
	}
	if patch.ActiveSystemsPromote != nil {
		set["active_systems_promote"] = *patch.ActiveSystemsPromote
	}
	if patch.ActiveSystemsRemove != nil {
		set["active_systems_remove"] = *patch.ActiveSystemsRemove
	}
	if patch.Branches != nil {
		set["branches"] = *patch.Branches
	}
	if patch.ProductionEnvironment != nil {
		set["production_environment"] = textOf(patch.ProductionEnvironment)
	}
	if patch.AutoIdle != nil {
		set["auto_idle"] = *patch.AutoIdle
	}
	if patch.StorageCalc != nil {
		set["storage_calc"] = *patch.StorageCalc
	}
	if patch.Pullrequests != nil {
		set["pullrequests"] = *patch.Pullrequests
	}
	if patch.Openshift != nil {
		set["openshift"] = int32(*patch.Openshift)
	}
	if patch.OpenshiftProjectPattern != nil {
		set["openshift_project_pattern"] = textOf(patch.OpenshiftProjectPattern)
	}
	if patch.DevelopmentEnvironmentsLimit != nil {
		set["development_environments_limit"] = int32(*patch.DevelopmentEnvironmentsLimit)
	}
	return set
}

func mapWriteErr(err error, name string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("project %q: %w", name, domerrors.ErrProjectExists)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, domerrors.ErrCustomerNotFound)
		}
	}
	return err
}

func insertParams(p domain.Project) db.InsertProjectParams {
	return db.InsertProjectParams{
		Name:                         p.Name,
		Customer:                     int32(p.Customer),
		GitURL:                       p.GitURL,
		Subfolder:                    textOf(p.Subfolder),
		Openshift:                    int32(p.Openshift),
		OpenshiftProjectPattern:      textOf(p.OpenshiftProjectPattern),
		ActiveSystemsDeploy:          p.ActiveSystemsDeploy,
		ActiveSystemsPromote:         p.ActiveSystemsPromote,
		ActiveSystemsRemove:          p.ActiveSystemsRemove,
		Branches:                     p.Branches,
		Pullrequests:                 p.Pullrequests,
		ProductionEnvironment:        textOf(p.ProductionEnvironment),
		AutoIdle:                     p.AutoIdle,
		StorageCalc:                  p.StorageCalc,
		DevelopmentEnvironmentsLimit: int32(p.DevelopmentEnvironmentsLimit),
	}
}

func textOf(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func stringOf(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func dbProjectToDomain(p db.Project) *domain.Project {
	return &domain.Project{
		ID:                           domain.ProjectID(p.ID),
		Name:                         p.Name,
		Customer:                     domain.CustomerID(p.Customer),
		GitURL:                       p.GitURL,
		Subfolder:                    stringOf(p.Subfolder),
		Openshift:                    int(p.Openshift),
		OpenshiftProjectPattern:      stringOf(p.OpenshiftProjectPattern),
		ActiveSystemsDeploy:          p.ActiveSystemsDeploy,
		ActiveSystemsPromote:         p.ActiveSystemsPromote,
		ActiveSystemsRemove:          p.ActiveSystemsRemove,
		Branches:                     p.Branches,
		Pullrequests:                 p.Pullrequests,
		ProductionEnvironment:        stringOf(p.ProductionEnvironment),
		AutoIdle:                     p.AutoIdle,
		StorageCalc:                  p.StorageCalc,
		DevelopmentEnvironmentsLimit: int(p.DevelopmentEnvironmentsLimit),
		Created:                      p.Created,
	}
}

// Ensure ProjectRepository implements ports.ProjectRepository.
var _ ports.ProjectRepository = (*ProjectRepository)(nil)

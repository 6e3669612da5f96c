package db

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// SelectProjectsQuery builds the listing statement. A nil where selects every row.
func SelectProjectsQuery(where sq.Sqlizer) sq.SelectBuilder {
	q := psql.Select(projectColumns("")...).From("project").OrderBy("id")
	if where != nil {
		q = q.Where(where)
	}
	return q
}

// SelectProjectByEnvironmentQuery builds the lookup of the project owning environment eid.
// scope is evaluated against the "p" alias.
func SelectProjectByEnvironmentQuery(eid int, scope sq.Sqlizer) sq.SelectBuilder {
	q := psql.Select(projectColumns("p")...).
		From("environment e").
		Join("project p ON e.project = p.id").
		Where(sq.Eq{"e.id": eid}).
		Limit(1)
	if scope != nil {
		q = q.Where(scope)
	}
	return q
}

func (q *Queries) collectProjects(ctx context.Context, b sq.SelectBuilder) ([]Project, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Project])
}

func (q *Queries) ListProjects(ctx context.Context, where sq.Sqlizer) ([]Project, error) {
	return q.collectProjects(ctx, SelectProjectsQuery(where))
}

// GetProject returns the first row matching where, or pgx.ErrNoRows.
func (q *Queries) GetProject(ctx context.Context, where sq.Sqlizer) (Project, error) {
	rows, err := q.collectProjects(ctx, SelectProjectsQuery(where).Limit(1))
	if err != nil {
		return Project{}, err
	}
	if len(rows) == 0 {
		return Project{}, pgx.ErrNoRows
	}
	return rows[0], nil
}

func (q *Queries) GetProjectByEnvironment(ctx context.Context, eid int, scope sq.Sqlizer) (Project, error) {
	rows, err := q.collectProjects(ctx, SelectProjectByEnvironmentQuery(eid, scope))
	if err != nil {
		return Project{}, err
	}
	if len(rows) == 0 {
		return Project{}, pgx.ErrNoRows
	}
	return rows[0], nil
}

type InsertProjectParams struct {
	Name                         string
	Customer                     int32
	GitURL                       string
	Subfolder                    pgtype.Text
	Openshift                    int32
	OpenshiftProjectPattern      pgtype.Text
	ActiveSystemsDeploy          string
	ActiveSystemsPromote         string
	ActiveSystemsRemove          string
	Branches                     string
	Pullrequests                 string
	ProductionEnvironment        pgtype.Text
	AutoIdle                     bool
	StorageCalc                  bool
	DevelopmentEnvironmentsLimit int32
}

func (q *Queries) InsertProject(ctx context.Context, arg InsertProjectParams) (Project, error) {
	query, args, err := psql.Insert("project").
		SetMap(sq.Eq{
			"name":                           arg.Name,
			"customer":                       arg.Customer,
			"git_url":                        arg.GitURL,
			"subfolder":                      arg.Subfolder,
			"openshift":                      arg.Openshift,
			"openshift_project_pattern":      arg.OpenshiftProjectPattern,
			"active_systems_deploy":          arg.ActiveSystemsDeploy,
			"active_systems_promote":         arg.ActiveSystemsPromote,
			"active_systems_remove":          arg.ActiveSystemsRemove,
			"branches":                       arg.Branches,
			"pullrequests":                   arg.Pullrequests,
			"production_environment":         arg.ProductionEnvironment,
			"auto_idle":                      arg.AutoIdle,
			"storage_calc":                   arg.StorageCalc,
			"development_environments_limit": arg.DevelopmentEnvironmentsLimit,
		}).
		Suffix("RETURNING " + strings.Join(projectColumns(""), ", ")).
		ToSql()
	if err != nil {
		return Project{}, err
	}
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return Project{}, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByPos[Project])
}

// UpdateProject writes set to the row with id and returns the number of rows touched.
func (q *Queries) UpdateProject(ctx context.Context, id int32, set map[string]interface{}) (int64, error) {
	query, args, err := psql.Update("project").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := q.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteProjectGrantsSQL = `DELETE FROM project_user WHERE pid = $1`

func (q *Queries) DeleteProjectGrants(ctx context.Context, id int32) error {
	_, err := q.db.Exec(ctx, deleteProjectGrantsSQL, id)
	return err
}

const deleteProjectSQL = `DELETE FROM project WHERE id = $1`

func (q *Queries) DeleteProject(ctx context.Context, id int32) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteProjectSQL, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const truncateProjectsSQL = `TRUNCATE TABLE project CASCADE`

func (q *Queries) TruncateProjects(ctx context.Context) error {
	_, err := q.db.Exec(ctx, truncateProjectsSQL)
	return err
}

const listProjectNamesSQL = `SELECT name FROM project ORDER BY id`

func (q *Queries) ListProjectNames(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listProjectNamesSQL)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

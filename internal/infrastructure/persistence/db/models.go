package db

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type Project struct {
	ID                           int32       `db:"id"`
	Name                         string      `db:"name"`
	Customer                     int32       `db:"customer"`
	GitURL                       string      `db:"git_url"`
	Subfolder                    pgtype.Text `db:"subfolder"`
	Openshift                    int32       `db:"openshift"`
	OpenshiftProjectPattern      pgtype.Text `db:"openshift_project_pattern"`
	ActiveSystemsDeploy          string      `db:"active_systems_deploy"`
	ActiveSystemsPromote         string      `db:"active_systems_promote"`
	ActiveSystemsRemove          string      `db:"active_systems_remove"`
	Branches                     string      `db:"branches"`
	Pullrequests                 string      `db:"pullrequests"`
	ProductionEnvironment        pgtype.Text `db:"production_environment"`
	AutoIdle                     bool        `db:"auto_idle"`
	StorageCalc                  bool        `db:"storage_calc"`
	DevelopmentEnvironmentsLimit int32       `db:"development_environments_limit"`
	Created                      time.Time   `db:"created"`
}

type Customer struct {
	ID   int32  `db:"id"`
	Name string `db:"name"`
}

type Member struct {
	ID    int32  `db:"id"`
	Email string `db:"email"`
}

// projectColumns lists the project columns in Project field order, optionally qualified.
func projectColumns(table string) []string {
	cols := []string{
		"id", "name", "customer", "git_url", "subfolder", "openshift", "openshift_project_pattern",
		"active_systems_deploy", "active_systems_promote", "active_systems_remove", "branches",
		"pullrequests", "production_environment", "auto_idle", "storage_calc",
		"development_environments_limit", "created",
	}
	if table == "" {
		return cols
	}
	for i, c := range cols {
		cols[i] = table + "." + c
	}
	return cols
}

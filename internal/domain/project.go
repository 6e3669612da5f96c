package domain

import (
	"strconv"
	"time"
)

// ProjectID is the store-assigned numeric identity of a project.
type ProjectID int

// String returns the decimal form.
func (p ProjectID) String() string { return strconv.Itoa(int(p)) }

// Project is a deployable application tied to one customer.
// Name mirrors the identity group and authorization role of the project.
type Project struct {
	ID                           ProjectID
	Name                         string
	Customer                     CustomerID
	GitURL                       string
	Subfolder                    *string
	Openshift                    int
	OpenshiftProjectPattern      *string
	ActiveSystemsDeploy          string
	ActiveSystemsPromote         string
	ActiveSystemsRemove          string
	Branches                     string
	Pullrequests                 string
	ProductionEnvironment        *string
	AutoIdle                     bool
	StorageCalc                  bool
	DevelopmentEnvironmentsLimit int
	Created                      time.Time
}

// ProjectDefaults are applied by the store to fields omitted on create.
type ProjectDefaults struct {
	DeploySystem string
	RemoveSystem string
}

// Platform defaults for deploy and remove tasks.
const (
	DefaultDeploySystem                 = "lagoon_openshiftBuildDeploy"
	DefaultRemoveSystem                 = "lagoon_openshiftRemove"
	DefaultDevelopmentEnvironmentsLimit = 5
)

// ProjectSpec is the caller-supplied shape of a new project. Nil pointers are omitted fields.
type ProjectSpec struct {
	Name                         string
	Customer                     CustomerID
	GitURL                       string
	Subfolder                    *string
	Openshift                    int
	OpenshiftProjectPattern      *string
	ActiveSystemsDeploy          *string
	ActiveSystemsPromote         *string
	ActiveSystemsRemove          *string
	Branches                     *string
	Pullrequests                 *string
	ProductionEnvironment        *string
	AutoIdle                     *bool
	StorageCalc                  *bool
	DevelopmentEnvironmentsLimit *int
}

// Resolve fills omitted fields from d and returns the project to insert.
// ID and Created are left for the store.
func (s ProjectSpec) Resolve(d ProjectDefaults) Project {
	if d.DeploySystem == "" {
		d.DeploySystem = DefaultDeploySystem
	}
	if d.RemoveSystem == "" {
		d.RemoveSystem = DefaultRemoveSystem
	}
	p := Project{
		Name:                         s.Name,
		Customer:                     s.Customer,
		GitURL:                       s.GitURL,
		Subfolder:                    s.Subfolder,
		Openshift:                    s.Openshift,
		OpenshiftProjectPattern:      s.OpenshiftProjectPattern,
		ActiveSystemsDeploy:          stringOr(s.ActiveSystemsDeploy, d.DeploySystem),
		ActiveSystemsPromote:         stringOr(s.ActiveSystemsPromote, d.DeploySystem),
		ActiveSystemsRemove:          stringOr(s.ActiveSystemsRemove, d.RemoveSystem),
		Branches:                     stringOr(s.Branches, "true"),
		Pullrequests:                 stringOr(s.Pullrequests, "true"),
		ProductionEnvironment:        s.ProductionEnvironment,
		AutoIdle:                     true,
		StorageCalc:                  true,
		DevelopmentEnvironmentsLimit: DefaultDevelopmentEnvironmentsLimit,
	}
	if s.AutoIdle != nil {
		p.AutoIdle = *s.AutoIdle
	}
	if s.StorageCalc != nil {
		p.StorageCalc = *s.StorageCalc
	}
	if s.DevelopmentEnvironmentsLimit != nil && *s.DevelopmentEnvironmentsLimit > 0 {
		p.DevelopmentEnvironmentsLimit = *s.DevelopmentEnvironmentsLimit
	}
	return p
}

func stringOr(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}

// ProjectPatch is a partial update. Only non-nil fields are written.
type ProjectPatch struct {
	Name                         *string
	Customer                     *CustomerID
	GitURL                       *string
	Subfolder                    *string
	ActiveSystemsDeploy          *string
	ActiveSystemsPromote         *string
	ActiveSystemsRemove          *string
	Branches                     *string
	ProductionEnvironment        *string
	AutoIdle                     *bool
	StorageCalc                  *bool
	Pullrequests                 *string
	Openshift                    *int
	OpenshiftProjectPattern      *string
	DevelopmentEnvironmentsLimit *int
}

// IsEmpty reports whether the patch sets no field at all.
func (p ProjectPatch) IsEmpty() bool {
	return p.Name == nil && p.Customer == nil && p.GitURL == nil && p.Subfolder == nil &&
		p.ActiveSystemsDeploy == nil && p.ActiveSystemsPromote == nil && p.ActiveSystemsRemove == nil &&
		p.Branches == nil && p.ProductionEnvironment == nil && p.AutoIdle == nil && p.StorageCalc == nil &&
		p.Pullrequests == nil && p.Openshift == nil && p.OpenshiftProjectPattern == nil &&
		p.DevelopmentEnvironmentsLimit == nil
}

// RenamesFrom reports whether the patch changes the name of original.
func (p ProjectPatch) RenamesFrom(original *Project) bool {
	return p.Name != nil && *p.Name != original.Name
}

// MovesFrom reports whether the patch moves original to another customer.
func (p ProjectPatch) MovesFrom(original *Project) bool {
	return p.Customer != nil && *p.Customer != original.Customer
}

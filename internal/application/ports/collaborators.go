package ports

import "context"

// GroupManager keeps one identity group per project, named after the project.
// CreateGroup wraps ErrConflict when the group exists; DeleteGroup of a missing group succeeds.
type GroupManager interface {
	CreateGroup(ctx context.Context, name string) error
	RenameGroup(ctx context.Context, currentName, newName string) error
	DeleteGroup(ctx context.Context, name string) error
	FindGroupIDByName(ctx context.Context, name string) (string, error)
	FindUserIDByUsername(ctx context.Context, username string) (string, error)
	AddUserToGroup(ctx context.Context, userID, groupID string) error
	RemoveUserFromGroup(ctx context.Context, userID, groupID string) error
}

// RoleManager keeps one authorization role per project over its log indices.
type RoleManager interface {
	CreateRole(ctx context.Context, projectName, tenant string) error
	DeleteRole(ctx context.Context, projectName string) error
}

// LogCategories are the index-pattern families provisioned for every project, in order.
var LogCategories = []string{"application-logs", "router-logs", "container-logs", "lagoon-logs"}

// IndexPatternProvisioner creates saved index patterns in the customer's tenant.
// Both calls are best-effort for the caller.
type IndexPatternProvisioner interface {
	// ProvisionIndexPatterns attempts every category; conflicts are ignored and the
	// remaining failures are returned together.
	ProvisionIndexPatterns(ctx context.Context, projectName, tenant string) error
	// EnsureDefaultIndex sets the tenant default index only when none is set.
	EnsureDefaultIndex(ctx context.Context, projectName, tenant string) error
}

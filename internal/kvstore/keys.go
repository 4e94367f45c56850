package kvstore

import "fmt"

// Key builders shared across repositories. Drafts are keyed by user first,
// so finding a project's drafts means listing KeyDraftPrefix; the lease
// record under KeyLock is the index that avoids that scan on the hot path.
const (
	ProjectPrefix = "project:"
	DraftPrefix   = "draft:"
	LockPrefix    = "lock:"
	UserPrefix    = "user:"

	RolesKey   = "roles"
	CatalogKey = "catalog"
)

func KeyProject(projectID string) string {
	return ProjectPrefix + projectID
}

func KeyStack(projectID string) string {
	return "stack:" + projectID
}

func KeySubsystem(projectID, subsystemID string) string {
	return fmt.Sprintf("subsystem:%s:%s", projectID, subsystemID)
}

func KeySubsystemPrefix(projectID string) string {
	return fmt.Sprintf("subsystem:%s:", projectID)
}

func KeyDraft(userSub, projectID string) string {
	return fmt.Sprintf("%s%s:%s", DraftPrefix, userSub, projectID)
}

func KeyLock(projectID string) string {
	return LockPrefix + projectID
}

func KeyCommits(projectID string) string {
	return "commits:" + projectID
}

func KeyUser(userSub string) string {
	return UserPrefix + userSub
}

package domain

import (
	"errors"
	"fmt"
	"time"
)

// LockTTL is how long a lease blocks other editors, measured from
// acquisition. Expiry is advisory and computed at request time; nothing
// purges a stale draft.
const LockTTL = 30 * time.Minute

var (
	ErrNotFound  = errors.New("draft not found")
	ErrForbidden = errors.New("insufficient rights")
)

// LockConflictError is returned when another user's unexpired lease blocks
// access. It carries enough for the client to explain the wait.
type LockConflictError struct {
	LockedBy string    `json:"lockedBy"`
	LockedAt time.Time `json:"lockedAt"`
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("project is locked by %s since %s", e.LockedBy, e.LockedAt.Format(time.RFC3339))
}

// Lease records who is editing a project and since when. It is stored
// separately from the draft payload so the lock can be inspected, listed,
// and broken without touching draft content.
type Lease struct {
	ProjectID  string    `json:"projectId"`
	HolderSub  string    `json:"holderSub"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// Expired reports whether the lease no longer blocks other editors.
// Strictly elapsed > LockTTL: at exactly the boundary the lock holds.
func (l Lease) Expired(now time.Time) bool {
	return now.Sub(l.AcquiredAt) > LockTTL
}

type WorkingStack struct {
	Items     []string `json:"items"`
	Providers []string `json:"providers,omitempty"`
}

type WorkingSubsystem struct {
	Name       string   `json:"name"`
	Additions  []string `json:"additions"`
	Exclusions []string `json:"exclusions"`
}

// Draft is one user's working copy of a project's stack and subsystems.
// At most one draft exists per (user, project). LockedAt mirrors the
// lease's acquisition time and survives intermediate saves; UpdatedAt
// advances on every save.
type Draft struct {
	ProjectID  string                      `json:"projectId"`
	Stack      WorkingStack                `json:"stack"`
	Subsystems map[string]WorkingSubsystem `json:"subsystems"`
	LockedBy   string                      `json:"lockedBy"`
	LockedAt   time.Time                   `json:"lockedAt"`
	UpdatedAt  time.Time                   `json:"updatedAt"`
}

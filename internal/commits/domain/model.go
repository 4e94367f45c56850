package domain

import (
	"errors"
	"time"
)

var (
	ErrNothingToCommit = errors.New("nothing to commit")
	ErrEmptyMessage    = errors.New("commit message required")
	ErrForbidden       = errors.New("insufficient rights")
)

type SnapshotStack struct {
	Items     []string `json:"items"`
	Providers []string `json:"providers,omitempty"`
}

type SnapshotSubsystem struct {
	Name       string   `json:"name"`
	Additions  []string `json:"additions"`
	Exclusions []string `json:"exclusions"`
}

// Snapshot is a full, independent copy of the committed state. It is a
// copy rather than a delta so any two commits diff without replaying
// history, and it is never mutated after creation.
type Snapshot struct {
	Stack      SnapshotStack                `json:"stack"`
	Subsystems map[string]SnapshotSubsystem `json:"subsystems"`
}

type Commit struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	AuthorName string    `json:"authorName"`
	AuthorSub  string    `json:"authorSub"`
	CreatedAt  time.Time `json:"createdAt"`
	Snapshot   Snapshot  `json:"snapshot"`
}

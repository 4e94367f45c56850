package domain

import (
	"errors"
	"regexp"
	"time"
)

var (
	ErrNotFound = errors.New("project not found")
	ErrConflict = errors.New("identifier already in use")
)

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidSlug reports whether id is usable as a project or subsystem id.
func ValidSlug(id string) bool {
	return len(id) <= 64 && slugRe.MatchString(id)
}

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Stack is the durable per-project technology set. It is replaced
// wholesale on commit, never merged field by field.
type Stack struct {
	Items     []string  `json:"items"`
	Providers []string  `json:"providers,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// Subsystem narrows or extends the parent stack. It stores only the
// delta: explicit additions and exclusions, never a full item list, so a
// later stack addition propagates to every subsystem that has not
// excluded it.
type Subsystem struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Additions   []string  `json:"additions"`
	Exclusions  []string  `json:"exclusions"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EffectiveItems derives a subsystem's item set:
// (parent stack items ∪ additions) − exclusions.
func EffectiveItems(stackItems, additions, exclusions []string) []string {
	excluded := make(map[string]bool, len(exclusions))
	for _, id := range exclusions {
		excluded[id] = true
	}

	seen := make(map[string]bool, len(stackItems)+len(additions))
	out := make([]string, 0, len(stackItems)+len(additions))
	for _, id := range stackItems {
		if !excluded[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range additions {
		if !excluded[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

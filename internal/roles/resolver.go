package roles

import (
	"context"

	"github.com/stackdeck-app/stackdeck-backend/internal/auth"
)

// Resolver answers capability checks. Membership in the platform admin
// group short-circuits before the stored document is consulted.
type Resolver struct {
	repo       *Repo
	adminGroup string
}

func NewResolver(repo *Repo, adminGroup string) *Resolver {
	return &Resolver{repo: repo, adminGroup: adminGroup}
}

func (r *Resolver) IsAdmin(ctx context.Context, ident auth.Identity) (bool, error) {
	for _, g := range ident.Groups {
		if g == r.adminGroup {
			return true, nil
		}
	}

	doc, err := r.repo.Get(ctx)
	if err != nil {
		return false, err
	}
	return doc.HasAdmin(ident.Subject), nil
}

// IsEditor reports whether the identity may mutate the given project.
// Admins are editors everywhere.
func (r *Resolver) IsEditor(ctx context.Context, ident auth.Identity, projectID string) (bool, error) {
	admin, err := r.IsAdmin(ctx, ident)
	if err != nil {
		return false, err
	}
	if admin {
		return true, nil
	}

	doc, err := r.repo.Get(ctx)
	if err != nil {
		return false, err
	}
	return doc.HasEditor(projectID, ident.Subject), nil
}

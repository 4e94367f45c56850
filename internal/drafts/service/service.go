package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/stackdeck-app/stackdeck-backend/internal/auth"
	"github.com/stackdeck-app/stackdeck-backend/internal/drafts/domain"
	"github.com/stackdeck-app/stackdeck-backend/internal/drafts/repository"
	projrepo "github.com/stackdeck-app/stackdeck-backend/internal/projects/repository"
	"github.com/stackdeck-app/stackdeck-backend/internal/roles"
	"github.com/stackdeck-app/stackdeck-backend/internal/users"
)

// Service serializes concurrent edit attempts on a project to exactly one
// active editor, tolerating abandoned sessions via the soft lease TTL.
type Service struct {
	drafts   *repository.Repo
	projects *projrepo.Repo
	resolver *roles.Resolver
	registry *users.Repo

	now func() time.Time
}

func New(drafts *repository.Repo, projects *projrepo.Repo, resolver *roles.Resolver, registry *users.Repo) *Service {
	return &Service{
		drafts:   drafts,
		projects: projects,
		resolver: resolver,
		registry: registry,
		now:      time.Now,
	}
}

// SetNow overrides the clock. Tests only.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// acquire enforces the single-writer rule and returns the caller's lease.
//
// Lease creation goes through the store's conditional create, so two
// simultaneous first acquisitions resolve to one winner; the loser
// re-reads the lease and gets a lock conflict. Re-acquisition by the
// holder preserves AcquiredAt, so a long session never resets its expiry
// clock. An expired lease is overwritten in place and the previous
// holder's draft is left orphaned until discarded or overwritten.
func (s *Service) acquire(ctx context.Context, ident auth.Identity, projectID string, now time.Time) (*domain.Lease, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}

	editor, err := s.resolver.IsEditor(ctx, ident, projectID)
	if err != nil {
		return nil, err
	}
	if !editor {
		return nil, domain.ErrForbidden
	}

	lease, err := s.drafts.GetLease(ctx, projectID)
	if errors.Is(err, domain.ErrNotFound) {
		fresh := &domain.Lease{ProjectID: projectID, HolderSub: ident.Subject, AcquiredAt: now}
		created, err := s.drafts.PutLeaseIfAbsent(ctx, fresh)
		if err != nil {
			return nil, err
		}
		if created {
			return fresh, nil
		}
		// Lost the creation race; re-read and fall through.
		lease, err = s.drafts.GetLease(ctx, projectID)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if lease.HolderSub == ident.Subject {
		return lease, nil
	}
	if !lease.Expired(now) {
		return nil, &domain.LockConflictError{LockedBy: lease.HolderSub, LockedAt: lease.AcquiredAt}
	}

	takeover := &domain.Lease{ProjectID: projectID, HolderSub: ident.Subject, AcquiredAt: now}
	if err := s.drafts.PutLease(ctx, takeover); err != nil {
		return nil, err
	}
	return takeover, nil
}

// Get returns the caller's draft, creating an empty one (and taking the
// lock) on first access.
func (s *Service) Get(ctx context.Context, ident auth.Identity, projectID string) (*domain.Draft, error) {
	now := s.now().UTC()
	lease, err := s.acquire(ctx, ident, projectID, now)
	if err != nil {
		return nil, err
	}

	draft, err := s.drafts.Get(ctx, ident.Subject, projectID)
	if errors.Is(err, domain.ErrNotFound) {
		draft = &domain.Draft{
			ProjectID:  projectID,
			Stack:      domain.WorkingStack{Items: []string{}},
			Subsystems: map[string]domain.WorkingSubsystem{},
			LockedBy:   ident.Subject,
			LockedAt:   lease.AcquiredAt,
			UpdatedAt:  lease.AcquiredAt,
		}
		if err := s.drafts.Put(ctx, ident.Subject, draft); err != nil {
			return nil, err
		}
		return draft, nil
	}
	if err != nil {
		return nil, err
	}

	// The stored stamp can predate a takeover cycle; the lease is
	// authoritative for who holds the lock and since when.
	draft.LockedBy = lease.HolderSub
	draft.LockedAt = lease.AcquiredAt
	return draft, nil
}

// Put replaces the caller's working state. LockedAt is the lease's
// acquisition time, unchanged across saves; UpdatedAt is bumped.
func (s *Service) Put(ctx context.Context, ident auth.Identity, projectID string, stack domain.WorkingStack, subsystems map[string]domain.WorkingSubsystem) (*domain.Draft, error) {
	now := s.now().UTC()
	lease, err := s.acquire(ctx, ident, projectID, now)
	if err != nil {
		return nil, err
	}

	if stack.Items == nil {
		stack.Items = []string{}
	}
	if subsystems == nil {
		subsystems = map[string]domain.WorkingSubsystem{}
	}

	draft := &domain.Draft{
		ProjectID:  projectID,
		Stack:      stack,
		Subsystems: subsystems,
		LockedBy:   ident.Subject,
		LockedAt:   lease.AcquiredAt,
		UpdatedAt:  now,
	}
	if err := s.drafts.Put(ctx, ident.Subject, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Discard deletes ownerSub's draft of the project and releases the lease
// if ownerSub holds it. Only the owner or an admin may discard; an admin
// discarding someone else's draft is the lock-break path. Returns
// ErrNotFound when there was neither a draft nor a held lease to release.
func (s *Service) Discard(ctx context.Context, ident auth.Identity, projectID, ownerSub string) error {
	if ownerSub == "" {
		ownerSub = ident.Subject
	}
	if ownerSub != ident.Subject {
		admin, err := s.resolver.IsAdmin(ctx, ident)
		if err != nil {
			return err
		}
		if !admin {
			return domain.ErrForbidden
		}
	}

	// The draft record may be missing while a lease for ownerSub still
	// exists (the write of the draft never happened). The lease must fall
	// regardless, or the project stays locked until the TTL runs out.
	draftErr := s.drafts.Delete(ctx, ownerSub, projectID)
	if draftErr != nil && !errors.Is(draftErr, domain.ErrNotFound) {
		return draftErr
	}

	lease, err := s.drafts.GetLease(ctx, projectID)
	if errors.Is(err, domain.ErrNotFound) {
		return draftErr
	}
	if err != nil {
		return err
	}
	if lease.HolderSub == ownerSub {
		return s.drafts.DeleteLease(ctx, projectID)
	}
	return draftErr
}

// LockInfo is one active lock in the admin listing, enriched with the
// holder's registered email.
type LockInfo struct {
	ProjectID   string    `json:"projectId"`
	LockedBy    string    `json:"lockedBy"`
	LockedEmail string    `json:"lockedEmail,omitempty"`
	LockedAt    time.Time `json:"lockedAt"`
}

// ListLocks returns every unexpired lease across all projects. Admin only.
func (s *Service) ListLocks(ctx context.Context, ident auth.Identity) ([]LockInfo, error) {
	admin, err := s.resolver.IsAdmin(ctx, ident)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, domain.ErrForbidden
	}

	leases, err := s.drafts.ListLeases(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	out := make([]LockInfo, 0, len(leases))
	for _, l := range leases {
		if l.Expired(now) {
			continue
		}
		email, err := s.registry.Email(ctx, l.HolderSub)
		if err != nil {
			return nil, err
		}
		out = append(out, LockInfo{
			ProjectID:   l.ProjectID,
			LockedBy:    l.HolderSub,
			LockedEmail: email,
			LockedAt:    l.AcquiredAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out, nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/stackdeck-app/stackdeck-backend/internal/auth"
	"github.com/stackdeck-app/stackdeck-backend/internal/commits/domain"
	"github.com/stackdeck-app/stackdeck-backend/internal/commits/repository"
	draftdomain "github.com/stackdeck-app/stackdeck-backend/internal/drafts/domain"
	draftrepo "github.com/stackdeck-app/stackdeck-backend/internal/drafts/repository"
	projdomain "github.com/stackdeck-app/stackdeck-backend/internal/projects/domain"
	projrepo "github.com/stackdeck-app/stackdeck-backend/internal/projects/repository"
	"github.com/stackdeck-app/stackdeck-backend/internal/roles"
	"github.com/stackdeck-app/stackdeck-backend/internal/util"
)

// Service promotes a draft into durable project state and an immutable
// history entry, then clears the draft.
type Service struct {
	commits  *repository.Repo
	drafts   *draftrepo.Repo
	projects *projrepo.Repo
	resolver *roles.Resolver

	now func() time.Time
}

func New(commits *repository.Repo, drafts *draftrepo.Repo, projects *projrepo.Repo, resolver *roles.Resolver) *Service {
	return &Service{
		commits:  commits,
		drafts:   drafts,
		projects: projects,
		resolver: resolver,
		now:      time.Now,
	}
}

// SetNow overrides the clock. Tests only.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// Commit applies the caller's draft. Durable state (stack, subsystems,
// project timestamp) is written first, then the history entry, then the
// draft and lease are cleared. A crash mid-sequence leaves state updated
// with the log or cleanup pending, which is safe to retry; it can produce
// a duplicate-looking commit entry but never a lost one.
func (s *Service) Commit(ctx context.Context, ident auth.Identity, projectID, message string) (*domain.Commit, error) {
	editor, err := s.resolver.IsEditor(ctx, ident, projectID)
	if err != nil {
		return nil, err
	}
	if !editor {
		return nil, domain.ErrForbidden
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrEmptyMessage
	}

	draft, err := s.drafts.Get(ctx, ident.Subject, projectID)
	if errors.Is(err, draftdomain.ErrNotFound) {
		return nil, domain.ErrNothingToCommit
	}
	if err != nil {
		return nil, err
	}

	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	stack := &projdomain.Stack{
		Items:     copyStrings(draft.Stack.Items),
		Providers: copyStrings(draft.Stack.Providers),
		UpdatedAt: now,
		UpdatedBy: ident.Subject,
	}
	if err := s.projects.PutStack(ctx, projectID, stack); err != nil {
		return nil, err
	}

	if err := s.reconcileSubsystems(ctx, ident, projectID, draft, now); err != nil {
		return nil, err
	}

	project.UpdatedAt = now
	if err := s.projects.Put(ctx, project); err != nil {
		return nil, err
	}

	id, err := util.NewToken(4)
	if err != nil {
		return nil, err
	}
	commit := &domain.Commit{
		ID:         id,
		Message:    message,
		AuthorName: ident.DisplayName(),
		AuthorSub:  ident.Subject,
		CreatedAt:  now,
		Snapshot:   snapshotOf(draft),
	}
	if err := s.commits.Append(ctx, projectID, commit); err != nil {
		return nil, err
	}

	if err := s.drafts.Delete(ctx, ident.Subject, projectID); err != nil && !errors.Is(err, draftdomain.ErrNotFound) {
		return nil, err
	}
	if lease, err := s.drafts.GetLease(ctx, projectID); err == nil && lease.HolderSub == ident.Subject {
		if err := s.drafts.DeleteLease(ctx, projectID); err != nil {
			return nil, err
		}
	} else if err != nil && !errors.Is(err, draftdomain.ErrNotFound) {
		return nil, err
	}

	return commit, nil
}

// reconcileSubsystems treats the draft's subsystem-id set as the full
// authoritative membership: every entry is upserted (createdBy/createdAt
// and description preserved from the existing record), every durable
// subsystem absent from the draft is deleted.
func (s *Service) reconcileSubsystems(ctx context.Context, ident auth.Identity, projectID string, draft *draftdomain.Draft, now time.Time) error {
	existing, err := s.projects.ListSubsystems(ctx, projectID)
	if err != nil {
		return err
	}
	existingByID := make(map[string]projdomain.Subsystem, len(existing))
	for _, sub := range existing {
		existingByID[sub.ID] = sub
	}

	for id, ws := range draft.Subsystems {
		record := projdomain.Subsystem{
			ID:         id,
			ProjectID:  projectID,
			Name:       ws.Name,
			Additions:  copyStrings(ws.Additions),
			Exclusions: copyStrings(ws.Exclusions),
			CreatedBy:  ident.Subject,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if prev, ok := existingByID[id]; ok {
			record.CreatedBy = prev.CreatedBy
			record.CreatedAt = prev.CreatedAt
			record.Description = prev.Description
		}
		if record.Additions == nil {
			record.Additions = []string{}
		}
		if record.Exclusions == nil {
			record.Exclusions = []string{}
		}
		if err := s.projects.PutSubsystem(ctx, &record); err != nil {
			return err
		}
	}

	for id := range existingByID {
		if _, ok := draft.Subsystems[id]; !ok {
			if err := s.projects.DeleteSubsystem(ctx, projectID, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// List returns the project's commit history, newest first.
func (s *Service) List(ctx context.Context, projectID string) ([]domain.Commit, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.commits.List(ctx, projectID)
}

// snapshotOf deep-copies the draft's working state so later edits can
// never reach back into a recorded commit.
func snapshotOf(draft *draftdomain.Draft) domain.Snapshot {
	snap := domain.Snapshot{
		Stack: domain.SnapshotStack{
			Items:     copyStrings(draft.Stack.Items),
			Providers: copyStrings(draft.Stack.Providers),
		},
		Subsystems: make(map[string]domain.SnapshotSubsystem, len(draft.Subsystems)),
	}
	for id, ws := range draft.Subsystems {
		snap.Subsystems[id] = domain.SnapshotSubsystem{
			Name:       ws.Name,
			Additions:  copyStrings(ws.Additions),
			Exclusions: copyStrings(ws.Exclusions),
		}
	}
	return snap
}

func copyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdeck-app/stackdeck-backend/internal/auth"
	"github.com/stackdeck-app/stackdeck-backend/internal/commits/domain"
	"github.com/stackdeck-app/stackdeck-backend/internal/commits/repository"
	draftdomain "github.com/stackdeck-app/stackdeck-backend/internal/drafts/domain"
	draftrepo "github.com/stackdeck-app/stackdeck-backend/internal/drafts/repository"
	draftsvc "github.com/stackdeck-app/stackdeck-backend/internal/drafts/service"
	"github.com/stackdeck-app/stackdeck-backend/internal/kvstore"
	projdomain "github.com/stackdeck-app/stackdeck-backend/internal/projects/domain"
	projrepo "github.com/stackdeck-app/stackdeck-backend/internal/projects/repository"
	"github.com/stackdeck-app/stackdeck-backend/internal/roles"
	"github.com/stackdeck-app/stackdeck-backend/internal/users"
)

var (
	userA = auth.Identity{Subject: "user-a", Email: "a@example.com", Name: "Alice"}
	userB = auth.Identity{Subject: "user-b", Email: "b@example.com"}
)

type fixture struct {
	svc      *Service
	draftSvc *draftsvc.Service
	drafts   *draftrepo.Repo
	projects *projrepo.Repo
	clock    time.Time
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := kvstore.NewRedisStore(client)

	projects := projrepo.New(store)
	_, err := projects.Create(ctx, "p1", "Project One", "", "root")
	require.NoError(t, err)

	rolesRepo := roles.NewRepo(store)
	require.NoError(t, rolesRepo.Save(ctx, &roles.Document{
		Editors: map[string][]roles.Entry{
			"p1": {{Subject: userA.Subject}, {Subject: userB.Subject}},
		},
	}))
	resolver := roles.NewResolver(rolesRepo, "platform-admins")

	drafts := draftrepo.New(store)
	registry := users.NewRepo(store)

	f := &fixture{
		svc:      New(repository.New(store), drafts, projects, resolver),
		draftSvc: draftsvc.New(drafts, projects, resolver, registry),
		drafts:   drafts,
		projects: projects,
		clock:    time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	}
	f.svc.SetNow(func() time.Time { return f.clock })
	f.draftSvc.SetNow(func() time.Time { return f.clock })
	return f
}

func (f *fixture) putDraft(t *testing.T, ident auth.Identity, items []string, subsystems map[string]draftdomain.WorkingSubsystem) {
	t.Helper()
	_, err := f.draftSvc.Put(context.Background(), ident, "p1", draftdomain.WorkingStack{Items: items}, subsystems)
	require.NoError(t, err)
}

func TestCommit_Lifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.putDraft(t, userA, []string{"react", "node"}, map[string]draftdomain.WorkingSubsystem{
		"sub1": {Name: "Frontend", Additions: []string{"vite"}, Exclusions: []string{}},
	})

	f.advance(time.Minute)
	commit, err := f.svc.Commit(ctx, userA, "p1", "Initial commit")
	require.NoError(t, err)

	assert.NotEmpty(t, commit.ID)
	assert.Equal(t, "Initial commit", commit.Message)
	assert.Equal(t, "Alice", commit.AuthorName)
	assert.Equal(t, userA.Subject, commit.AuthorSub)
	assert.Equal(t, []string{"react", "node"}, commit.Snapshot.Stack.Items)
	require.Contains(t, commit.Snapshot.Subsystems, "sub1")
	assert.Equal(t, []string{"vite"}, commit.Snapshot.Subsystems["sub1"].Additions)

	// durable stack replaced wholesale
	stack, err := f.projects.GetStack(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"react", "node"}, stack.Items)
	assert.Equal(t, userA.Subject, stack.UpdatedBy)

	// subsystem created
	sub, err := f.projects.GetSubsystem(ctx, "p1", "sub1")
	require.NoError(t, err)
	assert.Equal(t, "Frontend", sub.Name)
	assert.Equal(t, []string{"vite"}, sub.Additions)
	assert.Equal(t, userA.Subject, sub.CreatedBy)

	// project timestamp bumped
	p, err := f.projects.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, f.clock, p.UpdatedAt)

	// draft and lock cleared
	_, err = f.drafts.Get(ctx, userA.Subject, "p1")
	assert.ErrorIs(t, err, draftdomain.ErrNotFound)
	_, err = f.drafts.GetLease(ctx, "p1")
	assert.ErrorIs(t, err, draftdomain.ErrNotFound)

	// history entry appended
	commits, err := f.svc.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, commit.ID, commits[0].ID)
}

func TestCommit_Preconditions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("requires editor rights", func(t *testing.T) {
		_, err := f.svc.Commit(ctx, auth.Identity{Subject: "stranger"}, "p1", "msg")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("requires a message", func(t *testing.T) {
		_, err := f.svc.Commit(ctx, userA, "p1", "   ")
		assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	})

	t.Run("requires a draft", func(t *testing.T) {
		_, err := f.svc.Commit(ctx, userA, "p1", "msg")
		assert.ErrorIs(t, err, domain.ErrNothingToCommit)
	})

	t.Run("requires the project", func(t *testing.T) {
		_, err := f.svc.List(ctx, "nope")
		assert.ErrorIs(t, err, projdomain.ErrNotFound)
	})
}

func TestCommit_SnapshotImmutability(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	items := []string{"react"}
	f.putDraft(t, userA, items, map[string]draftdomain.WorkingSubsystem{
		"sub1": {Name: "Frontend", Additions: []string{"vite"}, Exclusions: []string{}},
	})
	first, err := f.svc.Commit(ctx, userA, "p1", "first")
	require.NoError(t, err)

	// mutate everything that could alias the snapshot
	items[0] = "mutated"
	first.Snapshot.Stack.Items[0] = "also-mutated"

	f.advance(time.Minute)
	f.putDraft(t, userA, []string{"vue", "deno"}, map[string]draftdomain.WorkingSubsystem{
		"sub2": {Name: "Backend", Additions: []string{}, Exclusions: []string{"vue"}},
	})
	_, err = f.svc.Commit(ctx, userA, "p1", "second")
	require.NoError(t, err)

	commits, err := f.svc.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, commits, 2)

	// newest first
	assert.Equal(t, "second", commits[0].Message)
	assert.Equal(t, "first", commits[1].Message)

	// the first snapshot is untouched by later edits and mutations
	assert.Equal(t, []string{"react"}, commits[1].Snapshot.Stack.Items)
	require.Contains(t, commits[1].Snapshot.Subsystems, "sub1")
	assert.NotContains(t, commits[1].Snapshot.Subsystems, "sub2")
}

func TestCommit_SubsystemReconciliation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.putDraft(t, userA, []string{"react"}, map[string]draftdomain.WorkingSubsystem{
		"keep":    {Name: "Keep", Additions: []string{}, Exclusions: []string{}},
		"discard": {Name: "Discard", Additions: []string{}, Exclusions: []string{}},
	})
	_, err := f.svc.Commit(ctx, userA, "p1", "seed")
	require.NoError(t, err)

	// give "keep" a description out of band so preservation is observable
	kept, err := f.projects.GetSubsystem(ctx, "p1", "keep")
	require.NoError(t, err)
	kept.Description = "a description"
	require.NoError(t, f.projects.PutSubsystem(ctx, kept))
	createdAt := kept.CreatedAt

	f.advance(time.Hour)
	f.putDraft(t, userA, []string{"react"}, map[string]draftdomain.WorkingSubsystem{
		"keep": {Name: "Keep Renamed", Additions: []string{"redis"}, Exclusions: []string{}},
		"new":  {Name: "New", Additions: []string{}, Exclusions: []string{}},
	})
	_, err = f.svc.Commit(ctx, userA, "p1", "reconcile")
	require.NoError(t, err)

	// the draft's id set is the full authoritative membership
	subsystems, err := f.projects.ListSubsystems(ctx, "p1")
	require.NoError(t, err)
	ids := make([]string, 0, len(subsystems))
	for _, s := range subsystems {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"keep", "new"}, ids)

	// upsert preserved provenance and description
	kept, err = f.projects.GetSubsystem(ctx, "p1", "keep")
	require.NoError(t, err)
	assert.Equal(t, "Keep Renamed", kept.Name)
	assert.Equal(t, []string{"redis"}, kept.Additions)
	assert.Equal(t, "a description", kept.Description)
	assert.Equal(t, createdAt, kept.CreatedAt)
	assert.Equal(t, userA.Subject, kept.CreatedBy)
}

func TestCommit_UnlocksForOtherEditors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.putDraft(t, userA, []string{"react"}, nil)
	_, err := f.svc.Commit(ctx, userA, "p1", "done")
	require.NoError(t, err)

	draft, err := f.draftSvc.Get(ctx, userB, "p1")
	require.NoError(t, err)
	assert.Equal(t, userB.Subject, draft.LockedBy)
}

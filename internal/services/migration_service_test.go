package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/identity"
	"github.com/tbourn/careerfix-backend/internal/repo"
)

func TestMigrate_GuestToNewAccountScenario(t *testing.T) {
	db := newSvcDB(t)
	usage := NewUsageService(db, DefaultPolicy())
	m := NewMigrationService(db, usage)
	ctx := context.Background()

	guest := domain.Anonymous("fp-browser0001")
	acct := domain.Account("acct-new")
	roadmap := seedArtifact(t, db, guest, domain.ResourceRoadmap, "Data Analyst Roadmap", domain.RoadmapContent{Markdown: "# plan"})
	if _, err := usage.Increment(ctx, guest, domain.ResourceRoadmap); err != nil {
		t.Fatalf("seed usage: %v", err)
	}
	if err := (&SubmissionGuard{DB: db}).Remember(ctx, guest, domain.ResourceRoadmap, []string{"x"}, roadmap.ID); err != nil {
		t.Fatalf("seed submission: %v", err)
	}

	store := identity.NewMemoryStore()
	store.Set(identity.DeviceKeyName, "fp-browser0001")

	out := m.Migrate(ctx, "acct-new", "Ada", store)
	if out.Failed() || out.ArtifactsMoved != 1 || out.RoadmapsMoved != 1 || out.RoadmapUsageFolded != 1 || out.ResumeUsageFolded != 0 {
		t.Fatalf("outcome = %+v", out)
	}
	if _, ok := store.Get(identity.DeviceKeyName); ok {
		t.Fatalf("device key should be cleared after migration")
	}

	u := usage.Get(ctx, acct, domain.ResourceRoadmap)
	if u.Count != 1 || u.Quota != 3 {
		t.Fatalf("account usage = %+v", u)
	}
	moved, err := repo.GetArtifact(ctx, db, roadmap.ID, acct.String())
	if err != nil || moved.MigratedFrom != guest.String() {
		t.Fatalf("artifact after migration = %+v, %v", moved, err)
	}
	if _, err := repo.GetArtifact(ctx, db, roadmap.ID, guest.String()); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("guest must no longer see the artifact")
	}
	if !usage.Get(ctx, guest, domain.ResourceRoadmap).Retired {
		t.Fatalf("guest record should be retired")
	}
	if sub, err := repo.GetLastSubmission(ctx, db, acct.String(), domain.ResourceRoadmap); err != nil || sub.ArtifactID != roadmap.ID {
		t.Fatalf("submission not moved: %+v, %v", sub, err)
	}
	rec, _ := repo.GetUsageRecord(ctx, db, acct.String())
	if rec == nil || rec.DisplayName != "Ada" {
		t.Fatalf("display name not stored: %+v", rec)
	}

	again := m.Migrate(ctx, "acct-new", "Ada", store)
	if again.ArtifactsMoved != 0 || again.Failed() || again.FromDeviceKey != "" {
		t.Fatalf("second call = %+v", again)
	}
	if got := usage.Get(ctx, acct, domain.ResourceRoadmap).Count; got != 1 {
		t.Fatalf("account count after repeat = %d, want 1", got)
	}
}

func TestMigrate_ReplayedDeviceKeyDoesNotDoubleFold(t *testing.T) {
	db := newSvcDB(t)
	usage := NewUsageService(db, DefaultPolicy())
	m := NewMigrationService(db, usage)
	ctx := context.Background()

	guest := domain.Anonymous("tok-replay001")
	if _, err := usage.Increment(ctx, guest, domain.ResourceResumeReview); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := identity.NewMemoryStore()
	store.Set(identity.DeviceKeyName, "tok-replay001")
	if out := m.Migrate(ctx, "acct-x", "", store); out.ResumeUsageFolded != 1 {
		t.Fatalf("first = %+v", out)
	}

	// A stale copy of the key comes back, e.g. from another tab.
	store.Set(identity.DeviceKeyName, "tok-replay001")
	out := m.Migrate(ctx, "acct-x", "", store)
	if !out.AlreadyMigrated || out.ResumeUsageFolded != 0 || out.Failed() {
		t.Fatalf("replayed = %+v", out)
	}
	if got := usage.Get(ctx, domain.Account("acct-x"), domain.ResourceResumeReview).Count; got != 1 {
		t.Fatalf("account count = %d, want 1", got)
	}
	if _, ok := store.Get(identity.DeviceKeyName); ok {
		t.Fatalf("stale key should be cleared")
	}
}

func TestMigrate_FoldsIntoExistingAccountUsage(t *testing.T) {
	db := newSvcDB(t)
	usage := NewUsageService(db, DefaultPolicy())
	m := NewMigrationService(db, usage)
	ctx := context.Background()

	acct := domain.Account("acct-old")
	for i := 0; i < 2; i++ {
		if _, err := usage.Increment(ctx, acct, domain.ResourceRoadmap); err != nil {
			t.Fatalf("seed account: %v", err)
		}
	}
	guest := domain.Anonymous("tok-existing1")
	if _, err := usage.Increment(ctx, guest, domain.ResourceRoadmap); err != nil {
		t.Fatalf("seed guest: %v", err)
	}
	seedArtifact(t, db, guest, domain.ResourceResumeReview, "Resume Review", domain.ResumeReview{Summary: "ok"})

	store := identity.NewMemoryStore()
	store.Set(identity.DeviceKeyName, guest.Key)
	out := m.Migrate(ctx, acct.Key, "", store)
	if out.ReviewsMoved != 1 || out.RoadmapUsageFolded != 1 {
		t.Fatalf("outcome = %+v", out)
	}
	u := usage.Get(ctx, acct, domain.ResourceRoadmap)
	if u.Count != 3 || u.Allowed() {
		t.Fatalf("account usage = %+v", u)
	}
}

func TestMigrate_NoDeviceKeyIsNoop(t *testing.T) {
	db := newSvcDB(t)
	m := NewMigrationService(db, NewUsageService(db, DefaultPolicy()))
	store := identity.NewMemoryStore()
	store.Set(identity.DeviceKeyName, "not a key")

	out := m.Migrate(context.Background(), "acct", "", store)
	if out.ArtifactsMoved != 0 || out.Failed() || out.FromDeviceKey != "" {
		t.Fatalf("outcome = %+v", out)
	}
	if got := m.Migrate(context.Background(), "acct", "", nil); got.Failed() {
		t.Fatalf("nil store should be a no-op")
	}
}

func TestMigrate_FailureKeepsKeyAndRollsBack(t *testing.T) {
	db := newSvcDB(t)
	usage := NewUsageService(db, DefaultPolicy())
	m := NewMigrationService(db, usage)
	ctx := context.Background()

	guest := domain.Anonymous("tok-rollback1")
	art := seedArtifact(t, db, guest, domain.ResourceRoadmap, "Plan", domain.RoadmapContent{Markdown: "x"})
	if _, err := usage.Increment(ctx, guest, domain.ResourceRoadmap); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// The fold's upsert fails after artifacts were reassigned in the same transaction.
	failCreatesOn(t, db, "usage_records")

	store := identity.NewMemoryStore()
	store.Set(identity.DeviceKeyName, guest.Key)
	out := m.Migrate(ctx, "acct-rb", "", store)
	if !out.Failed() || out.Notice != NoticeMigrationDeferred {
		t.Fatalf("outcome = %+v", out)
	}
	if _, ok := store.Get(identity.DeviceKeyName); !ok {
		t.Fatalf("device key must be kept for a retry")
	}
	if _, err := repo.GetArtifact(ctx, db, art.ID, guest.String()); err != nil {
		t.Fatalf("artifact reassignment should have rolled back: %v", err)
	}
	if _, err := repo.GetMigrationFrom(ctx, db, guest.String()); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("migration log should have rolled back: %v", err)
	}
}

func TestMigrate_EmptySignInThenGuestWorkMovesOnNextSignIn(t *testing.T) {
	db := newSvcDB(t)
	usage := NewUsageService(db, DefaultPolicy())
	m := NewMigrationService(db, usage)
	gen := NewGenerationService(db, usage, &fakeGen{}, nil, nil)
	ctx := context.Background()

	guest := domain.Anonymous("fp-browser0001")
	acct := domain.Account("acct-return")
	store := identity.NewMemoryStore()

	// Sign-in from a browser that never generated anything.
	store.Set(identity.DeviceKeyName, guest.Key)
	first := m.Migrate(ctx, acct.Key, "", store)
	if first.Failed() || first.ArtifactsMoved != 0 || first.AlreadyMigrated {
		t.Fatalf("empty sign-in = %+v", first)
	}
	if _, err := repo.GetMigrationFrom(ctx, db, guest.String()); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("an empty sign-in must not be logged: %v", err)
	}

	// Signed out again, the same fingerprint resolves to the same guest.
	res, err := gen.GenerateRoadmap(ctx, guest, roadmapInput("Data Engineer"), RequestMeta{})
	if err != nil || res.Artifact == nil {
		t.Fatalf("guest generation = %+v, %v", res, err)
	}

	store.Set(identity.DeviceKeyName, guest.Key)
	second := m.Migrate(ctx, acct.Key, "", store)
	if second.Failed() || second.AlreadyMigrated || second.ArtifactsMoved != 1 || second.RoadmapUsageFolded != 1 {
		t.Fatalf("second sign-in = %+v", second)
	}
	if _, err := repo.GetArtifact(ctx, db, res.Artifact.ID, acct.String()); err != nil {
		t.Fatalf("artifact should belong to the account: %v", err)
	}
	if got := usage.Get(ctx, acct, domain.ResourceRoadmap).Count; got != 1 {
		t.Fatalf("account roadmap count = %d, want 1", got)
	}

	store.Set(identity.DeviceKeyName, guest.Key)
	third := m.Migrate(ctx, acct.Key, "", store)
	if !third.AlreadyMigrated || third.ArtifactsMoved != 0 || third.RoadmapUsageFolded != 0 {
		t.Fatalf("third sign-in = %+v", third)
	}
	if got := usage.Get(ctx, acct, domain.ResourceRoadmap).Count; got != 1 {
		t.Fatalf("account roadmap count after repeat = %d, want 1", got)
	}
}

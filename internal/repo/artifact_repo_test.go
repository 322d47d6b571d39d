package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

func seedArtifact(t *testing.T, owner string, kind domain.Resource, at time.Time) *domain.Artifact {
	t.Helper()
	return &domain.Artifact{
		OwnerIdentityKey: owner,
		Kind:             kind,
		Title:            string(kind) + " " + at.Format(time.RFC3339),
		Payload:          datatypes.JSON(`{"markdown":"# plan"}`),
		SourceInputs:     datatypes.JSON(`{}`),
		CreatedAt:        at,
	}
}

func TestArtifacts_CreateGetListCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		a := seedArtifact(t, "device:a", domain.ResourceRoadmap, base.Add(time.Duration(i)*time.Minute))
		if err := CreateArtifact(ctx, db, a); err != nil {
			t.Fatalf("create: %v", err)
		}
		if a.ID == "" {
			t.Fatalf("CreateArtifact should assign an id")
		}
	}
	review := seedArtifact(t, "device:a", domain.ResourceResumeReview, base.Add(10*time.Minute))
	if err := CreateArtifact(ctx, db, review); err != nil {
		t.Fatalf("create review: %v", err)
	}

	all, err := ListArtifactsPage(ctx, db, "device:a", "", 0, 10)
	if err != nil || len(all) != 4 {
		t.Fatalf("list all = %d, %v", len(all), err)
	}
	if all[0].ID != review.ID {
		t.Fatalf("newest first expected, got %s", all[0].Kind)
	}
	roadmaps, _ := ListArtifactsPage(ctx, db, "device:a", domain.ResourceRoadmap, 1, 1)
	if len(roadmaps) != 1 || roadmaps[0].Kind != domain.ResourceRoadmap {
		t.Fatalf("paged kind filter unexpected: %+v", roadmaps)
	}
	if n, _ := CountArtifacts(ctx, db, "device:a", domain.ResourceRoadmap); n != 3 {
		t.Fatalf("count roadmaps = %d", n)
	}

	if _, err := GetArtifact(ctx, db, review.ID, "device:other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign owner should get ErrNotFound, got %v", err)
	}
	got, err := GetArtifact(ctx, db, review.ID, "device:a")
	if err != nil || got.Kind != domain.ResourceResumeReview {
		t.Fatalf("get = %+v, %v", got, err)
	}
}

func TestReassignArtifacts_MovesOnlyMatchingOwnerAndKind(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, a := range []*domain.Artifact{
		seedArtifact(t, "device:g", domain.ResourceRoadmap, now),
		seedArtifact(t, "device:g", domain.ResourceRoadmap, now.Add(time.Second)),
		seedArtifact(t, "device:g", domain.ResourceResumeReview, now),
		seedArtifact(t, "device:other", domain.ResourceRoadmap, now),
	} {
		if err := CreateArtifact(ctx, db, a); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	moved, err := ReassignArtifacts(ctx, db, "device:g", "account:u", domain.ResourceRoadmap)
	if err != nil || moved != 2 {
		t.Fatalf("moved = %d, %v", moved, err)
	}
	again, err := ReassignArtifacts(ctx, db, "device:g", "account:u", domain.ResourceRoadmap)
	if err != nil || again != 0 {
		t.Fatalf("repeat should move nothing, got %d, %v", again, err)
	}
	list, _ := ListArtifactsPage(ctx, db, "account:u", "", 0, 10)
	if len(list) != 2 || list[0].MigratedFrom != "device:g" {
		t.Fatalf("account artifacts unexpected: %+v", list)
	}
	if n, _ := CountArtifacts(ctx, db, "device:g", domain.ResourceResumeReview); n != 1 {
		t.Fatalf("review should stay with the device, count=%d", n)
	}
}

func TestArtifactsStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	n, latest, err := ArtifactsStats(ctx, db, "device:s", "")
	if err != nil || n != 0 || latest != nil {
		t.Fatalf("empty stats = %d, %v, %v", n, latest, err)
	}
	a := seedArtifact(t, "device:s", domain.ResourceRoadmap, time.Now().UTC())
	if err := CreateArtifact(ctx, db, a); err != nil {
		t.Fatalf("seed: %v", err)
	}
	n, latest, err = ArtifactsStats(ctx, db, "device:s", domain.ResourceRoadmap)
	if err != nil || n != 1 || latest == nil {
		t.Fatalf("stats = %d, %v, %v", n, latest, err)
	}
}

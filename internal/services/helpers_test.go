package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/repo"
)

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// failCreatesOn makes every INSERT into table fail.
func failCreatesOn(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errors.New("injected failure on " + table))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
}

func closeDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	_ = sqlDB.Close()
}

type fakeGen struct {
	mu           sync.Mutex
	roadmapCalls int
	reviewCalls  int
	markdown     string
	review       domain.ResumeReview
	err          error
	delay        time.Duration
}

func (f *fakeGen) GenerateRoadmap(_ context.Context, in domain.RoadmapInput) (string, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roadmapCalls++
	if f.err != nil {
		return "", f.err
	}
	if f.markdown != "" {
		return f.markdown, nil
	}
	return "## Executive Summary\nMove from " + in.CurrentRole + " to " + in.CareerGoal, nil
}

func (f *fakeGen) ReviewResume(_ context.Context, _ string) (domain.ResumeReview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviewCalls++
	if f.err != nil {
		return domain.ResumeReview{}, f.err
	}
	if f.review.Summary != "" {
		return f.review, nil
	}
	return domain.ResumeReview{Summary: "Solid resume", Scores: domain.Scores{Overall: 72}}, nil
}

func (f *fakeGen) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roadmapCalls, f.reviewCalls
}

func seedArtifact(t *testing.T, db *gorm.DB, owner domain.Identity, kind domain.Resource, title string, content any) *domain.Artifact {
	t.Helper()
	raw, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	a := &domain.Artifact{
		OwnerIdentityKey: owner.String(),
		Kind:             kind,
		Title:            title,
		Payload:          datatypes.JSON(raw),
		SourceInputs:     datatypes.JSON(`{}`),
	}
	if err := repo.CreateArtifact(context.Background(), db, a); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}
	return a
}

func roadmapInput(goal string) domain.RoadmapInput {
	return domain.RoadmapInput{
		CurrentRole: "Support Engineer",
		CareerGoal:  goal,
		Skills:      "SQL, Python",
		Timeline:    "12 months",
	}
}

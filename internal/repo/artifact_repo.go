// Package repo implements the data persistence layer for domain entities,
// backed by GORM.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They contain no business rules: quota
// decisions, migration sequencing and soft-failure policy live in the
// services package.
//
// Error semantics:
//   - Missing rows are reported as ErrNotFound (an alias of
//     gorm.ErrRecordNotFound).
//   - Unique-index violations are reported as ErrDuplicate.
//   - Any other driver error is propagated unchanged.
//
// Functions in this file:
//
//   - CreateArtifact(ctx, db, a) -> error
//   - GetArtifact(ctx, db, id, ownerKey) -> *domain.Artifact, error
//   - ListArtifactsPage(ctx, db, ownerKey, kind, offset, limit) -> []domain.Artifact, error
//   - CountArtifacts(ctx, db, ownerKey, kind) -> int64, error
//   - ReassignArtifacts(ctx, db, fromKey, toKey, kind) -> int64, error
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

// CreateArtifact inserts a. A missing ID is filled with a UUID and
// timestamps default to now (UTC).
func CreateArtifact(ctx context.Context, db *gorm.DB, a *domain.Artifact) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt
	return db.WithContext(ctx).Create(a).Error
}

// GetArtifact fetches an artifact by id, scoped to its current owner.
func GetArtifact(ctx context.Context, db *gorm.DB, id, ownerKey string) (*domain.Artifact, error) {
	var a domain.Artifact
	err := db.WithContext(ctx).
		Where("id = ? AND owner_identity_key = ?", id, ownerKey).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func ownedBy(db *gorm.DB, ownerKey string, kind domain.Resource) *gorm.DB {
	q := db.Model(&domain.Artifact{}).Where("owner_identity_key = ?", ownerKey)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	return q
}

// ListArtifactsPage returns an owner's artifacts newest first. An empty kind
// lists every kind.
func ListArtifactsPage(ctx context.Context, db *gorm.DB, ownerKey string, kind domain.Resource, offset, limit int) ([]domain.Artifact, error) {
	var out []domain.Artifact
	err := ownedBy(db.WithContext(ctx), ownerKey, kind).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, err
}

// CountArtifacts returns how many artifacts ownerKey holds.
func CountArtifacts(ctx context.Context, db *gorm.DB, ownerKey string, kind domain.Resource) (int64, error) {
	var n int64
	err := ownedBy(db.WithContext(ctx), ownerKey, kind).Count(&n).Error
	return n, err
}

// ReassignArtifacts moves every artifact of kind owned by fromKey to toKey in
// one conditional UPDATE and returns the number of rows moved. Rows already
// owned by someone else are untouched, so the call is safe to repeat.
func ReassignArtifacts(ctx context.Context, db *gorm.DB, fromKey, toKey string, kind domain.Resource) (int64, error) {
	res := db.WithContext(ctx).Model(&domain.Artifact{}).
		Where("owner_identity_key = ? AND kind = ?", fromKey, kind).
		Updates(map[string]any{
			"owner_identity_key": toKey,
			"migrated_from":      fromKey,
			"updated_at":         time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

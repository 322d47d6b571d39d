package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

// GetLastSubmission returns the last successful submission of kind for
// identityKey, or ErrNotFound.
func GetLastSubmission(ctx context.Context, db *gorm.DB, identityKey string, kind domain.Resource) (*domain.Submission, error) {
	var s domain.Submission
	err := db.WithContext(ctx).
		Where("identity_key = ? AND kind = ?", identityKey, kind).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// PutLastSubmission replaces the stored fingerprint for (identityKey, kind).
func PutLastSubmission(ctx context.Context, db *gorm.DB, identityKey string, kind domain.Resource, fingerprint, artifactID string) error {
	now := time.Now().UTC()
	row := domain.Submission{
		ID:          uuid.NewString(),
		IdentityKey: identityKey,
		Kind:        kind,
		Fingerprint: fingerprint,
		ArtifactID:  artifactID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity_key"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"fingerprint", "artifact_id", "updated_at"}),
	}).Create(&row).Error
}

// ReassignSubmissions moves the duplicate-guard state of a device to an
// account. Rows the account already has for the same kind win.
func ReassignSubmissions(ctx context.Context, db *gorm.DB, fromKey, toKey string) error {
	var taken []domain.Resource
	if err := db.WithContext(ctx).Model(&domain.Submission{}).
		Where("identity_key = ?", toKey).
		Pluck("kind", &taken).Error; err != nil {
		return err
	}
	if len(taken) > 0 {
		if err := db.WithContext(ctx).
			Where("identity_key = ? AND kind IN ?", fromKey, taken).
			Delete(&domain.Submission{}).Error; err != nil {
			return err
		}
	}
	return db.WithContext(ctx).Model(&domain.Submission{}).
		Where("identity_key = ?", fromKey).
		Updates(map[string]any{"identity_key": toKey, "updated_at": time.Now().UTC()}).Error
}

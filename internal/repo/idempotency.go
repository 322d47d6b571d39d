package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

// GetIdempotency returns a non-expired record for (identityKey, kind, key)
// or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, identityKey string, kind domain.Resource, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("identity_key = ? AND kind = ? AND key = ? AND expires_at > ?", identityKey, kind, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateIdempotency inserts a record and returns ErrDuplicate on unique
// violation. Expired rows for the same tuple are purged first so a key can
// be reused once its TTL has passed.
func CreateIdempotency(ctx context.Context, db *gorm.DB, identityKey string, kind domain.Resource, key, artifactID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	if err := db.WithContext(ctx).
		Where("identity_key = ? AND kind = ? AND key = ? AND expires_at <= ?", identityKey, kind, key, now).
		Delete(&domain.Idempotency{}).Error; err != nil {
		return nil, err
	}
	rec := &domain.Idempotency{
		ID:          uuid.NewString(),
		IdentityKey: identityKey,
		Kind:        kind,
		Key:         key,
		ArtifactID:  artifactID,
		Status:      status,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

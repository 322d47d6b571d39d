package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

// CreateMigration logs a completed transfer with its counts.
func CreateMigration(ctx context.Context, db *gorm.DB, m *domain.Migration) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(m).Error
}

// GetMigrationFrom returns the latest migration out of fromKey, or
// ErrNotFound.
func GetMigrationFrom(ctx context.Context, db *gorm.DB, fromKey string) (*domain.Migration, error) {
	var m domain.Migration
	err := db.WithContext(ctx).
		Where("from_identity_key = ?", fromKey).
		Order("created_at DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

// ArtifactsStats returns the number of artifacts ownerKey holds (optionally
// of one kind) and the latest UpdatedAt among them, for ETag generation.
// maxUpdatedAt is nil when there are no rows.
func ArtifactsStats(ctx context.Context, db *gorm.DB, ownerKey string, kind domain.Resource) (count int64, maxUpdatedAt *time.Time, err error) {
	q := ownedBy(db.WithContext(ctx), ownerKey, kind)
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// ORDER BY instead of MAX(): SQLite would hand MAX() back as TEXT.
	var row struct {
		UpdatedAt time.Time
	}
	if err = ownedBy(db.WithContext(ctx), ownerKey, kind).
		Select("updated_at").Order("updated_at DESC").Limit(1).
		Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

// GetUsageRecord returns the usage record for identityKey or ErrNotFound.
// It never creates a record.
func GetUsageRecord(ctx context.Context, db *gorm.DB, identityKey string) (*domain.UsageRecord, error) {
	var rec domain.UsageRecord
	err := db.WithContext(ctx).Where("identity_key = ?", identityKey).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// IncrementUsage adds delta to the counter for r in a single
// INSERT .. ON CONFLICT DO UPDATE statement. When no record exists, seed is
// inserted with the counter set to delta; seed must carry the identity key,
// kind and default quotas. The counter is never read back and rewritten, so
// concurrent callers cannot lose updates. The returned record is a fresh read
// taken after the increment and is informational only.
func IncrementUsage(ctx context.Context, db *gorm.DB, seed domain.UsageRecord, r domain.Resource, delta int64) (*domain.UsageRecord, error) {
	if delta <= 0 {
		return nil, errors.New("repo: increment delta must be positive")
	}
	now := time.Now().UTC()
	col := domain.CountColumn(r)

	row := seed
	row.RoadmapCount, row.ResumeCount = 0, 0
	if r == domain.ResourceResumeReview {
		row.ResumeCount = delta
	} else {
		row.RoadmapCount = delta
	}
	row.CreatedAt, row.UpdatedAt = now, now

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "identity_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			col:          gorm.Expr("usage_records."+col+" + ?", delta),
			"updated_at": now,
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return GetUsageRecord(ctx, db, seed.IdentityKey)
}

// ReserveUsage takes one unit of r for seed.IdentityKey when the counter is
// below its quota. The check and the increment are one conditional UPDATE, so
// concurrent requests can never push the counter past the quota. A stored
// quota of zero falls back to defQuota. Retired records are never reserved.
// A missing record is inserted with the counter at 1; if a concurrent request
// created it first, the conditional UPDATE is retried once.
// ErrLimitReached means nothing was reserved.
func ReserveUsage(ctx context.Context, db *gorm.DB, seed domain.UsageRecord, r domain.Resource, defQuota int64) (*domain.UsageRecord, error) {
	ok, err := reserveExisting(ctx, db, seed.IdentityKey, r, defQuota)
	if err != nil {
		return nil, err
	}
	if !ok {
		row := seed
		row.RoadmapCount, row.ResumeCount = 0, 0
		if row.Quota(r) <= 0 && defQuota <= 0 {
			return nil, ErrLimitReached
		}
		if r == domain.ResourceResumeReview {
			row.ResumeCount = 1
		} else {
			row.RoadmapCount = 1
		}
		now := time.Now().UTC()
		row.CreatedAt, row.UpdatedAt = now, now

		ins := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identity_key"}},
			DoNothing: true,
		}).Create(&row)
		if ins.Error != nil {
			return nil, ins.Error
		}
		if ins.RowsAffected == 0 {
			if ok, err = reserveExisting(ctx, db, seed.IdentityKey, r, defQuota); err != nil {
				return nil, err
			}
			if !ok {
				return nil, ErrLimitReached
			}
		}
	}
	return GetUsageRecord(ctx, db, seed.IdentityKey)
}

func reserveExisting(ctx context.Context, db *gorm.DB, identityKey string, r domain.Resource, defQuota int64) (bool, error) {
	col, qcol := domain.CountColumn(r), domain.QuotaColumn(r)
	res := db.WithContext(ctx).Model(&domain.UsageRecord{}).
		Where("identity_key = ? AND retired_at IS NULL", identityKey).
		Where(col+" < CASE WHEN "+qcol+" > 0 THEN "+qcol+" ELSE ? END", defQuota).
		Updates(map[string]any{
			col:          gorm.Expr(col + " + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseUsage gives back one unit of r taken by ReserveUsage. The counter
// never drops below zero.
func ReleaseUsage(ctx context.Context, db *gorm.DB, identityKey string, r domain.Resource) error {
	col := domain.CountColumn(r)
	return db.WithContext(ctx).Model(&domain.UsageRecord{}).
		Where("identity_key = ? AND "+col+" > 0", identityKey).
		Updates(map[string]any{
			col:          gorm.Expr(col + " - 1"),
			"updated_at": time.Now().UTC(),
		}).Error
}

// TouchUsage stores last-write-wins metadata on an existing record. Empty
// strings leave the stored value untouched. A missing record is not an error.
func TouchUsage(ctx context.Context, db *gorm.DB, identityKey, displayName, ip, userAgent string, at time.Time) error {
	updates := map[string]any{"last_used_at": at.UTC()}
	if displayName != "" {
		updates["display_name"] = displayName
	}
	if ip != "" {
		updates["ip_address"] = ip
	}
	if userAgent != "" {
		if len(userAgent) > 512 {
			userAgent = userAgent[:512]
		}
		updates["user_agent"] = userAgent
	}
	return db.WithContext(ctx).Model(&domain.UsageRecord{}).
		Where("identity_key = ?", identityKey).
		Updates(updates).Error
}

// RetireUsageRecord marks an anonymous record as folded into intoKey. It
// reports false when the record is missing or was already retired.
func RetireUsageRecord(ctx context.Context, db *gorm.DB, identityKey, intoKey string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Model(&domain.UsageRecord{}).
		Where("identity_key = ? AND retired_at IS NULL", identityKey).
		Updates(map[string]any{"retired_at": at.UTC(), "retired_into": intoKey})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

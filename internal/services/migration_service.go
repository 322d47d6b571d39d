// Package services – MigrationService
//
// MigrationService moves a guest's history and usage to an account on
// sign-in. The whole reconciliation is one database transaction: artifacts
// are reassigned, the guest record is retired and its counters are folded
// into the account by atomic increment, and the transfer is logged. Either
// all of it commits or none of it does, so usage is never folded for
// artifacts that stayed behind. Repeating a migration is harmless: only the
// run that retires the guest record folds usage, and anything the device
// produced after an earlier sign-in is moved by the next one.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/identity"
	"github.com/tbourn/careerfix-backend/internal/observability"
	"github.com/tbourn/careerfix-backend/internal/repo"
)

// NoticeMigrationDeferred is reported when the transfer failed. The device
// key is kept so the next sign-in retries.
const NoticeMigrationDeferred = "Signed in. Your guest history could not be moved yet; it will be retried the next time you sign in."

// MigrationOutcome reports what a sign-in migration did.
type MigrationOutcome struct {
	FromDeviceKey      string `json:"from_device_key,omitempty"`
	AccountID          string `json:"account_id"`
	RoadmapsMoved      int64  `json:"roadmaps_moved"`
	ReviewsMoved       int64  `json:"reviews_moved"`
	ArtifactsMoved     int64  `json:"artifacts_moved"`
	RoadmapUsageFolded int64  `json:"roadmap_usage_folded"`
	ResumeUsageFolded  int64  `json:"resume_usage_folded"`
	AlreadyMigrated    bool   `json:"already_migrated,omitempty"`
	Notice             string `json:"notice,omitempty"`
}

// Failed reports whether the migration was deferred.
func (o MigrationOutcome) Failed() bool { return o.Notice != "" }

var errNothingToMigrate = errors.New("nothing to migrate")

// MigrationService reconciles guest state into an account.
type MigrationService struct {
	DB    *gorm.DB
	Usage *UsageService

	now func() time.Time
}

// NewMigrationService constructs a MigrationService.
func NewMigrationService(db *gorm.DB, usage *UsageService) *MigrationService {
	return &MigrationService{DB: db, Usage: usage, now: time.Now}
}

// Migrate moves everything recorded under the device key held in store to
// accountID. It never returns an error: failures are logged and reported in
// the outcome's Notice. With no device key in store it does nothing.
func (s *MigrationService) Migrate(ctx context.Context, accountID, displayName string, store identity.KeyStore) MigrationOutcome {
	tr := otel.Tracer("services/MigrationService")
	ctx, span := tr.Start(ctx, "Migrate", trace.WithAttributes(attribute.String("account.id", accountID)))
	defer span.End()

	out := MigrationOutcome{AccountID: accountID}
	if store == nil || accountID == "" {
		return out
	}
	deviceKey, ok := store.Get(identity.DeviceKeyName)
	if !ok || !identity.ValidDeviceKey(deviceKey) {
		observability.RecordMigration("noop", 0)
		return out
	}
	out.FromDeviceKey = deviceKey

	from := domain.Anonymous(deviceKey)
	to := domain.Account(accountID)
	logger := log.Ctx(ctx).With().Str("from", from.String()).Str("to", to.String()).Logger()

	m, err := s.reconcile(ctx, from, to)
	if err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Str("op", "migration").Msg("guest migration failed; will retry on next sign-in")
		observability.RecordMigration("failed", 0)
		out.Notice = NoticeMigrationDeferred
		return out
	}

	store.Remove(identity.DeviceKeyName)
	if m == nil {
		if _, err := repo.GetMigrationFrom(ctx, s.DB, from.String()); err == nil {
			out.AlreadyMigrated = true
		}
		observability.RecordMigration("noop", 0)
		return out
	}

	out.RoadmapsMoved = m.RoadmapsMoved
	out.ReviewsMoved = m.ReviewsMoved
	out.ArtifactsMoved = m.ArtifactsMoved()
	out.RoadmapUsageFolded = m.RoadmapUsageFolded
	out.ResumeUsageFolded = m.ResumeUsageFolded
	observability.RecordMigration("migrated", out.ArtifactsMoved)

	if displayName != "" {
		if err := s.Usage.Touch(ctx, to, Metadata{DisplayName: displayName}); err != nil {
			logger.Debug().Err(err).Msg("display name not stored")
		}
	}
	logger.Info().
		Int64("artifacts", out.ArtifactsMoved).
		Int64("roadmap_usage", out.RoadmapUsageFolded).
		Int64("resume_usage", out.ResumeUsageFolded).
		Msg("guest migrated")
	return out
}

// reconcile runs the transfer in one transaction. Every step is safe to
// repeat: artifacts and submissions move with conditional updates, and the
// usage fold only happens for the caller that flips the guest record to
// retired. A nil migration means there was nothing to move.
func (s *MigrationService) reconcile(ctx context.Context, from, to domain.Identity) (*domain.Migration, error) {
	now := time.Now().UTC()
	if s.now != nil {
		now = s.now().UTC()
	}
	m := &domain.Migration{
		ID:              uuid.NewString(),
		FromIdentityKey: from.String(),
		ToIdentityKey:   to.String(),
		CreatedAt:       now,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if m.RoadmapsMoved, err = repo.ReassignArtifacts(ctx, tx, from.String(), to.String(), domain.ResourceRoadmap); err != nil {
			return err
		}
		if m.ReviewsMoved, err = repo.ReassignArtifacts(ctx, tx, from.String(), to.String(), domain.ResourceResumeReview); err != nil {
			return err
		}
		if err := repo.ReassignSubmissions(ctx, tx, from.String(), to.String()); err != nil {
			return err
		}

		retired, err := repo.RetireUsageRecord(ctx, tx, from.String(), to.String(), now)
		if err != nil {
			return err
		}
		if retired {
			guest, err := repo.GetUsageRecord(ctx, tx, from.String())
			if err != nil {
				return err
			}
			m.RoadmapUsageFolded = guest.RoadmapCount
			m.ResumeUsageFolded = guest.ResumeCount
			for r, n := range map[domain.Resource]int64{
				domain.ResourceRoadmap:      guest.RoadmapCount,
				domain.ResourceResumeReview: guest.ResumeCount,
			} {
				if n <= 0 {
					continue
				}
				if _, err := s.Usage.incrementBy(ctx, tx, to, r, n); err != nil {
					return err
				}
			}
		}

		if m.ArtifactsMoved() == 0 && !retired {
			return errNothingToMigrate
		}
		return repo.CreateMigration(ctx, tx, m)
	})
	if errors.Is(err, errNothingToMigrate) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Package services – UsageService
//
// UsageService is the entitlement store adapter and quota gate. Reads never
// create records; increments go through a single atomic upsert so concurrent
// requests for the same identity cannot lose updates. Generations reserve
// their unit up front with a conditional update, which keeps the quota
// enforced even without the cool-down guard. When the store cannot be read
// the gate fails closed.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/careerfix-backend/internal/config"
	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/observability"
	"github.com/tbourn/careerfix-backend/internal/repo"
)

// QuotaPolicy holds the default ceilings applied when a usage record is
// first created.
type QuotaPolicy struct {
	GuestRoadmap   int64
	AccountRoadmap int64
	GuestResume    int64
	AccountResume  int64
}

// DefaultPolicy is the free tier: one of each for guests, three roadmaps and
// two reviews for accounts.
func DefaultPolicy() QuotaPolicy {
	return QuotaPolicy{GuestRoadmap: 1, AccountRoadmap: 3, GuestResume: 1, AccountResume: 2}
}

// PolicyFromConfig builds a QuotaPolicy from configuration.
func PolicyFromConfig(c config.QuotaConfig) QuotaPolicy {
	return QuotaPolicy{
		GuestRoadmap:   c.GuestRoadmap,
		AccountRoadmap: c.AccountRoadmap,
		GuestResume:    c.GuestResume,
		AccountResume:  c.AccountResume,
	}
}

// Default returns the ceiling for r under the given identity kind.
func (p QuotaPolicy) Default(kind domain.IdentityKind, r domain.Resource) int64 {
	account := kind == domain.IdentityAccount
	switch {
	case r == domain.ResourceResumeReview && account:
		return p.AccountResume
	case r == domain.ResourceResumeReview:
		return p.GuestResume
	case account:
		return p.AccountRoadmap
	default:
		return p.GuestRoadmap
	}
}

// Usage is the entitlement snapshot for one (identity, resource) pair.
type Usage struct {
	Resource  domain.Resource `json:"resource"`
	Count     int64           `json:"count"`
	Quota     int64           `json:"quota"`
	Remaining int64           `json:"remaining"`
	// Degraded is set when the store could not be read; Count is then
	// pinned to Quota.
	Degraded bool `json:"degraded,omitempty"`
	// Retired is set for a guest record already folded into an account.
	Retired bool `json:"retired,omitempty"`
}

// Allowed reports whether another generation may start.
func (u Usage) Allowed() bool {
	return !u.Degraded && !u.Retired && CanGenerate(u.Count, u.Quota)
}

// CanGenerate is the gate condition.
func CanGenerate(count, quota int64) bool { return count < quota }

// Remaining is max(0, quota-count). It is for display only.
func Remaining(count, quota int64) int64 {
	if count >= quota {
		return 0
	}
	return quota - count
}

// Metadata is last-write-wins information stored alongside the counters.
type Metadata struct {
	DisplayName string
	IP          string
	UserAgent   string
}

// UsageService reads, gates and increments per-identity usage.
type UsageService struct {
	DB     *gorm.DB
	Policy QuotaPolicy

	now func() time.Time
}

// NewUsageService constructs a UsageService.
func NewUsageService(db *gorm.DB, p QuotaPolicy) *UsageService {
	return &UsageService{DB: db, Policy: p, now: time.Now}
}

func (s *UsageService) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// Get returns the live usage for id and r without creating a record.
func (s *UsageService) Get(ctx context.Context, id domain.Identity, r domain.Resource) Usage {
	tr := otel.Tracer("services/UsageService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(
		attribute.String("identity.kind", string(id.Kind)),
		attribute.String("resource", string(r)),
	))
	defer span.End()

	def := s.Policy.Default(id.Kind, r)
	rec, err := repo.GetUsageRecord(ctx, s.DB, id.String())
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return s.usageOf(domain.UsageRecord{}, id, r)
	case err != nil:
		span.RecordError(err)
		log.Ctx(ctx).Warn().Err(err).Str("identity", id.String()).Str("resource", string(r)).
			Msg("usage read failed; denying")
		observability.RecordSoftFailure("usage_read")
		return Usage{Resource: r, Count: def, Quota: def, Degraded: true}
	}
	return s.usageOf(*rec, id, r)
}

// Snapshot returns Get for every resource kind.
func (s *UsageService) Snapshot(ctx context.Context, id domain.Identity) []Usage {
	out := make([]Usage, 0, len(domain.Resources))
	for _, r := range domain.Resources {
		out = append(out, s.Get(ctx, id, r))
	}
	return out
}

// Check gates a new generation against a fresh read. It returns
// ErrQuotaExhausted or ErrEntitlementUnavailable when denied.
func (s *UsageService) Check(ctx context.Context, id domain.Identity, r domain.Resource) (Usage, error) {
	u := s.Get(ctx, id, r)
	switch {
	case u.Degraded:
		return u, ErrEntitlementUnavailable
	case !u.Allowed():
		observability.RecordQuotaDenial(string(r), string(id.Kind))
		return u, ErrQuotaExhausted
	}
	return u, nil
}

// CanGenerate is the boolean form of Check.
func (s *UsageService) CanGenerate(ctx context.Context, id domain.Identity, r domain.Resource) bool {
	_, err := s.Check(ctx, id, r)
	return err == nil
}

// Remaining returns how many generations of r are left for display.
func (s *UsageService) Remaining(ctx context.Context, id domain.Identity, r domain.Resource) int64 {
	return s.Get(ctx, id, r).Remaining
}

// Increment atomically adds one to the counter of r, creating the record
// with the default quotas when missing. Store errors are returned as is.
func (s *UsageService) Increment(ctx context.Context, id domain.Identity, r domain.Resource) (Usage, error) {
	return s.incrementBy(ctx, s.DB, id, r, 1)
}

func (s *UsageService) incrementBy(ctx context.Context, db *gorm.DB, id domain.Identity, r domain.Resource, delta int64) (Usage, error) {
	tr := otel.Tracer("services/UsageService")
	ctx, span := tr.Start(ctx, "Increment", trace.WithAttributes(
		attribute.String("identity.kind", string(id.Kind)),
		attribute.String("resource", string(r)),
		attribute.Int64("delta", delta),
	))
	defer span.End()

	rec, err := repo.IncrementUsage(ctx, db, s.seed(id), r, delta)
	if err != nil {
		span.RecordError(err)
		return Usage{}, err
	}
	return s.usageOf(*rec, id, r), nil
}

// Reserve takes one generation of r for id before the AI call. The quota
// check and the increment happen in one conditional statement, so parallel
// requests from the same identity cannot overspend. It returns
// ErrQuotaExhausted when nothing is left and ErrEntitlementUnavailable when
// the store fails. A reservation is returned with Release if the generation
// does not complete.
func (s *UsageService) Reserve(ctx context.Context, id domain.Identity, r domain.Resource) (Usage, error) {
	tr := otel.Tracer("services/UsageService")
	ctx, span := tr.Start(ctx, "Reserve", trace.WithAttributes(
		attribute.String("identity.kind", string(id.Kind)),
		attribute.String("resource", string(r)),
	))
	defer span.End()

	rec, err := repo.ReserveUsage(ctx, s.DB, s.seed(id), r, s.Policy.Default(id.Kind, r))
	switch {
	case errors.Is(err, repo.ErrLimitReached):
		observability.RecordQuotaDenial(string(r), string(id.Kind))
		return s.Get(ctx, id, r), ErrQuotaExhausted
	case err != nil:
		span.RecordError(err)
		log.Ctx(ctx).Warn().Err(err).Str("op", "usage_reserve").Str("identity", id.String()).
			Msg("usage reservation failed; denying")
		observability.RecordSoftFailure("usage_reserve")
		def := s.Policy.Default(id.Kind, r)
		return Usage{Resource: r, Count: def, Quota: def, Degraded: true}, ErrEntitlementUnavailable
	}
	return s.usageOf(*rec, id, r), nil
}

// Release returns a unit taken by Reserve.
func (s *UsageService) Release(ctx context.Context, id domain.Identity, r domain.Resource) error {
	return repo.ReleaseUsage(ctx, s.DB, id.String(), r)
}

// Touch stores request metadata on an existing record.
func (s *UsageService) Touch(ctx context.Context, id domain.Identity, m Metadata) error {
	return repo.TouchUsage(ctx, s.DB, id.String(), m.DisplayName, m.IP, m.UserAgent, s.clock())
}

func (s *UsageService) seed(id domain.Identity) domain.UsageRecord {
	return domain.UsageRecord{
		IdentityKey:  id.String(),
		IdentityKind: id.Kind,
		RoadmapQuota: s.Policy.Default(id.Kind, domain.ResourceRoadmap),
		ResumeQuota:  s.Policy.Default(id.Kind, domain.ResourceResumeReview),
	}
}

// usageOf applies the policy default when the stored quota is unset. A
// stored non-zero quota wins so operators can raise it in place.
func (s *UsageService) usageOf(rec domain.UsageRecord, id domain.Identity, r domain.Resource) Usage {
	quota := rec.Quota(r)
	if quota <= 0 {
		quota = s.Policy.Default(id.Kind, r)
	}
	u := Usage{
		Resource:  r,
		Count:     rec.Count(r),
		Quota:     quota,
		Remaining: Remaining(rec.Count(r), quota),
		Retired:   rec.Retired(),
	}
	if u.Retired {
		u.Remaining = 0
	}
	return u
}

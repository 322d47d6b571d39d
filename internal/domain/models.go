// Package domain defines the persistence models and typed payloads of the
// service: per-identity usage records, generated artifacts, the last
// successful submission per identity, and the one-time migration log that
// moves anonymous content to an account.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// UsageRecord holds the entitlement counters for one identity.
//
// Fields:
//   - IdentityKey: Identity.String(), primary key.
//   - RoadmapCount / ResumeCount: generations consumed. Only ever changed by
//     an atomic increment.
//   - RoadmapQuota / ResumeQuota: ceilings fixed when the record is created
//     from the default policy; operators may raise them in place.
//   - DisplayName, IPAddress, UserAgent, LastUsedAt: last-write-wins metadata.
//   - RetiredAt / RetiredInto: set once an anonymous record has been folded
//     into an account.
type UsageRecord struct {
	IdentityKey  string       `json:"identity_key"  gorm:"type:varchar(160);primaryKey"`
	IdentityKind IdentityKind `json:"identity_kind" gorm:"type:varchar(16);not null;check:identity_kind IN ('anonymous','account')"`
	RoadmapCount int64        `json:"roadmap_count" gorm:"not null"`
	RoadmapQuota int64        `json:"roadmap_quota" gorm:"not null"`
	ResumeCount  int64        `json:"resume_count"  gorm:"not null"`
	ResumeQuota  int64        `json:"resume_quota"  gorm:"not null"`
	DisplayName  string       `json:"display_name,omitempty" gorm:"type:varchar(255)"`
	IPAddress    string       `json:"-"             gorm:"type:varchar(64)"`
	UserAgent    string       `json:"-"             gorm:"type:varchar(512)"`
	LastUsedAt   *time.Time   `json:"last_used_at,omitempty"`
	RetiredAt    *time.Time   `json:"retired_at,omitempty" gorm:"index"`
	RetiredInto  string       `json:"retired_into,omitempty" gorm:"type:varchar(160)"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName returns the database table name for UsageRecord.
func (UsageRecord) TableName() string { return "usage_records" }

// Count returns the consumed count for r.
func (u UsageRecord) Count(r Resource) int64 {
	if r == ResourceResumeReview {
		return u.ResumeCount
	}
	return u.RoadmapCount
}

// Quota returns the stored ceiling for r, zero when unset.
func (u UsageRecord) Quota(r Resource) int64 {
	if r == ResourceResumeReview {
		return u.ResumeQuota
	}
	return u.RoadmapQuota
}

// Retired reports whether the record was folded into an account.
func (u UsageRecord) Retired() bool { return u.RetiredAt != nil }

// CountColumn maps a resource to its counter column.
func CountColumn(r Resource) string {
	if r == ResourceResumeReview {
		return "resume_count"
	}
	return "roadmap_count"
}

// QuotaColumn returns the usage_records column holding the ceiling for r.
func QuotaColumn(r Resource) string {
	if r == ResourceResumeReview {
		return "resume_quota"
	}
	return "roadmap_quota"
}

// Artifact is a persisted roadmap or resume review. Apart from the owner,
// which migration reassigns, an artifact is immutable after creation.
//
// Fields:
//   - OwnerIdentityKey: Identity.String() of the current owner.
//   - Payload: RoadmapContent or ResumeReview as JSON, per Kind.
//   - SourceInputs: RoadmapInput or ResumeInput as JSON, per Kind.
//   - MigratedFrom: previous owner key when the artifact came from a guest.
type Artifact struct {
	ID               string         `json:"id"           gorm:"type:char(36);primaryKey"`
	OwnerIdentityKey string         `json:"-"            gorm:"type:varchar(160);not null;index:idx_owner_artifacts,priority:1"`
	Kind             Resource       `json:"kind"         gorm:"type:varchar(32);not null;index:idx_owner_artifacts,priority:2;check:kind IN ('roadmap','resume_review')"`
	Title            string         `json:"title"        gorm:"type:varchar(255);not null"`
	Payload          datatypes.JSON `json:"payload"`
	SourceInputs     datatypes.JSON `json:"source_inputs"`
	MigratedFrom     string         `json:"migrated_from_guest,omitempty" gorm:"type:varchar(160)"`
	CreatedAt        time.Time      `json:"created_at"   gorm:"index:idx_owner_artifacts,priority:3"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TableName returns the database table name for Artifact.
func (Artifact) TableName() string { return "artifacts" }

// Submission is the fingerprint of the last successful generation request
// per (identity, kind). A proposal with the same fingerprint is a duplicate.
type Submission struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	IdentityKey string    `json:"identity_key" gorm:"type:varchar(160);not null;uniqueIndex:ux_submission_identity_kind"`
	Kind        Resource  `json:"kind"         gorm:"type:varchar(32);not null;uniqueIndex:ux_submission_identity_kind"`
	Fingerprint string    `json:"fingerprint"  gorm:"type:char(64);not null"`
	ArtifactID  string    `json:"artifact_id"  gorm:"type:varchar(36)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Submission.
func (Submission) TableName() string { return "submissions" }

// Migration logs one transfer of a device's artifacts and usage to an
// account. Only transfers that moved or folded something are logged, and a
// device may appear more than once if it kept generating after an earlier
// sign-in. The fold itself is made once-only by retiring the guest record.
type Migration struct {
	ID                 string    `json:"id"                   gorm:"type:char(36);primaryKey"`
	FromIdentityKey    string    `json:"from_identity_key"    gorm:"type:varchar(160);not null;index:idx_migrations_from_key"`
	ToIdentityKey      string    `json:"to_identity_key"      gorm:"type:varchar(160);not null;index"`
	RoadmapsMoved      int64     `json:"roadmaps_moved"`
	ReviewsMoved       int64     `json:"reviews_moved"`
	RoadmapUsageFolded int64     `json:"roadmap_usage_folded"`
	ResumeUsageFolded  int64     `json:"resume_usage_folded"`
	CreatedAt          time.Time `json:"created_at"`
}

// TableName returns the database table name for Migration.
func (Migration) TableName() string { return "migrations" }

// ArtifactsMoved is the total number of artifacts reassigned.
func (m Migration) ArtifactsMoved() int64 { return m.RoadmapsMoved + m.ReviewsMoved }

package domain

import "time"

// Idempotency records which artifact a client-supplied Idempotency-Key
// produced for an identity and resource, so that a retried POST replays the
// stored artifact instead of calling the AI service and charging usage again.
type Idempotency struct {
	ID          string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	IdentityKey string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_identity_kind_key,priority:1"`
	Kind        Resource  `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_identity_kind_key,priority:2"`
	Key         string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_identity_kind_key,priority:3"`
	ArtifactID  string    `gorm:"type:TEXT NOT NULL"`
	Status      int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	ExpiresAt   time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

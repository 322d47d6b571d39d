package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/observability"
	"github.com/tbourn/careerfix-backend/internal/repo"
)

// SubmissionGuard rejects a generation request identical to the previous
// successful one for the same identity and kind. It is advisory: a store
// failure lets the request through and quota enforcement still applies.
type SubmissionGuard struct {
	DB *gorm.DB
}

// Fingerprint hashes the ordered field list. Each field is length-prefixed
// so that moving text between fields changes the hash.
func Fingerprint(kind domain.Resource, fields []string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, f := range fields {
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(len(f))))
		h.Write([]byte{':'})
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Check returns ErrDuplicateSubmission when fields match the last
// remembered submission.
func (g *SubmissionGuard) Check(ctx context.Context, id domain.Identity, kind domain.Resource, fields []string) error {
	if g == nil || g.DB == nil {
		return nil
	}
	last, err := repo.GetLastSubmission(ctx, g.DB, id.String(), kind)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("identity", id.String()).Msg("submission guard read failed")
		observability.RecordSoftFailure("submission_read")
		return nil
	}
	if last.Fingerprint == Fingerprint(kind, fields) {
		observability.RecordGuardRejection("duplicate")
		return ErrDuplicateSubmission
	}
	return nil
}

// Remember records fields as the last successful submission.
func (g *SubmissionGuard) Remember(ctx context.Context, id domain.Identity, kind domain.Resource, fields []string, artifactID string) error {
	if g == nil || g.DB == nil {
		return nil
	}
	return repo.PutLastSubmission(ctx, g.DB, id.String(), kind, Fingerprint(kind, fields), artifactID)
}

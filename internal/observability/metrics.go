package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Domain counters. Label values are bounded: resource is roadmap or
// resume_review, identity is anonymous or account, outcome and op come from
// fixed sets in the services package.
var (
	generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerfix_generations_total",
			Help: "Generation attempts by resource and outcome.",
		},
		[]string{"resource", "outcome"},
	)

	quotaDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerfix_quota_denials_total",
			Help: "Generation requests refused by the quota gate.",
		},
		[]string{"resource", "identity"},
	)

	migrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerfix_migrations_total",
			Help: "Guest-to-account migrations by outcome.",
		},
		[]string{"outcome"},
	)

	migratedArtifacts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "careerfix_migrated_artifacts_total",
			Help: "Artifacts reassigned from devices to accounts.",
		},
	)

	softFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerfix_soft_failures_total",
			Help: "Best-effort operations that failed without failing the request.",
		},
		[]string{"op"},
	)

	guardRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerfix_guard_rejections_total",
			Help: "Requests rejected by the duplicate-submission or cool-down guards.",
		},
		[]string{"guard"},
	)
)

func init() {
	prometheus.MustRegister(generations, quotaDenials, migrations, migratedArtifacts, softFailures, guardRejections)
}

// RecordGeneration counts one generation attempt.
func RecordGeneration(resource, outcome string) {
	generations.WithLabelValues(resource, outcome).Inc()
}

// RecordQuotaDenial counts one refusal by the quota gate.
func RecordQuotaDenial(resource, identityKind string) {
	quotaDenials.WithLabelValues(resource, identityKind).Inc()
}

// RecordMigration counts one migration and the artifacts it moved.
func RecordMigration(outcome string, artifacts int64) {
	migrations.WithLabelValues(outcome).Inc()
	if artifacts > 0 {
		migratedArtifacts.Add(float64(artifacts))
	}
}

// RecordSoftFailure counts one swallowed failure.
func RecordSoftFailure(op string) {
	softFailures.WithLabelValues(op).Inc()
}

// RecordGuardRejection counts one guard rejection.
func RecordGuardRejection(guard string) {
	guardRejections.WithLabelValues(guard).Inc()
}

package domain

import (
	"fmt"
	"strings"
)

// IdentityKind distinguishes signed-in accounts from anonymous devices.
type IdentityKind string

const (
	IdentityAnonymous IdentityKind = "anonymous"
	IdentityAccount   IdentityKind = "account"
)

// Identity is the actor under which usage and artifacts are recorded.
// Exactly one of the two variants applies to a request.
type Identity struct {
	Kind IdentityKind `json:"kind"`
	// Key is the account id for accounts and the device key for anonymous visitors.
	Key string `json:"key"`
}

// Account returns the account variant.
func Account(accountID string) Identity {
	return Identity{Kind: IdentityAccount, Key: accountID}
}

// Anonymous returns the device variant.
func Anonymous(deviceKey string) Identity {
	return Identity{Kind: IdentityAnonymous, Key: deviceKey}
}

// IsAccount reports whether the identity is a signed-in account.
func (i Identity) IsAccount() bool { return i.Kind == IdentityAccount }

// IsZero reports whether the identity was never resolved.
func (i Identity) IsZero() bool { return i.Key == "" }

// String returns the storage key. Prefixes keep device keys and account
// ids in disjoint namespaces.
func (i Identity) String() string {
	if i.IsAccount() {
		return "account:" + i.Key
	}
	return "device:" + i.Key
}

// ParseIdentity is the inverse of Identity.String.
func ParseIdentity(s string) (Identity, error) {
	switch {
	case strings.HasPrefix(s, "account:") && len(s) > len("account:"):
		return Account(strings.TrimPrefix(s, "account:")), nil
	case strings.HasPrefix(s, "device:") && len(s) > len("device:"):
		return Anonymous(strings.TrimPrefix(s, "device:")), nil
	}
	return Identity{}, fmt.Errorf("domain: malformed identity key %q", s)
}

// Resource is a countable generation kind. It doubles as the artifact kind.
type Resource string

const (
	ResourceRoadmap      Resource = "roadmap"
	ResourceResumeReview Resource = "resume_review"
)

// Resources lists every countable resource in display order.
var Resources = []Resource{ResourceRoadmap, ResourceResumeReview}

// ParseResource accepts the canonical names plus a few URL-friendly aliases.
func ParseResource(s string) (Resource, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "roadmap", "roadmaps":
		return ResourceRoadmap, true
	case "resume_review", "resume-review", "resume-reviews", "resume", "review":
		return ResourceResumeReview, true
	}
	return "", false
}

// Package identity decides who is acting on a request: a signed-in account,
// or an anonymous device identified by a browser fingerprint or by a random
// token persisted on the device.
package identity

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

// DeviceKeyName is the KeyStore entry holding the anonymous device key.
const DeviceKeyName = "careerfix_device_key"

// AuthState carries the outcome of authentication for one request.
type AuthState struct {
	AccountID   string
	DisplayName string
}

// Authenticated reports whether a session exists.
func (a AuthState) Authenticated() bool { return strings.TrimSpace(a.AccountID) != "" }

// FingerprintSource produces a device fingerprint. Implementations may fail
// for any reason; the resolver treats failure as absence.
type FingerprintSource interface {
	Fingerprint(ctx context.Context) (string, error)
}

// FingerprintFunc adapts a function to FingerprintSource.
type FingerprintFunc func(ctx context.Context) (string, error)

// Fingerprint calls f.
func (f FingerprintFunc) Fingerprint(ctx context.Context) (string, error) { return f(ctx) }

// KeyStore is device-scoped key/value string storage that survives reloads.
type KeyStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

var tokenRE = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// Resolver turns request state into an Identity. The zero value is usable.
type Resolver struct {
	// NewToken creates the random device token; defaults to a UUID.
	NewToken func() string
}

// Resolve returns Account when auth carries an account id. Otherwise it
// returns Anonymous with a device key taken, in order, from the fingerprint
// source, the key store, or a freshly generated token. The chosen key is
// written back to store when the store does not already hold it. Resolve
// never fails.
func (r Resolver) Resolve(ctx context.Context, auth AuthState, fp FingerprintSource, store KeyStore) domain.Identity {
	if auth.Authenticated() {
		return domain.Account(strings.TrimSpace(auth.AccountID))
	}

	key := r.fromFingerprint(ctx, fp)

	var stored string
	var ok bool
	if store != nil {
		stored, ok = store.Get(DeviceKeyName)
		ok = ok && ValidDeviceKey(stored)
	}
	if key == "" && ok {
		key = stored
	}
	if key == "" {
		key = "tok-" + r.token()
	}
	if store != nil && (!ok || stored != key) {
		store.Set(DeviceKeyName, key)
	}
	return domain.Anonymous(key)
}

func (r Resolver) fromFingerprint(ctx context.Context, fp FingerprintSource) string {
	if fp == nil {
		return ""
	}
	v, err := fp.Fingerprint(ctx)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("fingerprint unavailable")
		return ""
	}
	v = strings.TrimSpace(v)
	if !tokenRE.MatchString(v) {
		return ""
	}
	return "fp-" + v
}

func (r Resolver) token() string {
	if r.NewToken != nil {
		if t := r.NewToken(); tokenRE.MatchString(t) {
			return t
		}
	}
	return uuid.NewString()
}

// ValidDeviceKey reports whether s has the shape of a key Resolve produces.
func ValidDeviceKey(s string) bool {
	switch {
	case strings.HasPrefix(s, "fp-"):
		return tokenRE.MatchString(strings.TrimPrefix(s, "fp-"))
	case strings.HasPrefix(s, "tok-"):
		return tokenRE.MatchString(strings.TrimPrefix(s, "tok-"))
	}
	return false
}

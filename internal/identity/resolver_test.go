package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

func fixedFP(v string, err error) FingerprintSource {
	return FingerprintFunc(func(context.Context) (string, error) { return v, err })
}

func TestResolve_AccountWins(t *testing.T) {
	store := NewMemoryStore()
	store.Set(DeviceKeyName, "tok-existing-token")

	id := Resolver{}.Resolve(context.Background(), AuthState{AccountID: " u-1 "}, fixedFP("abcdefgh12", nil), store)
	if id != domain.Account("u-1") {
		t.Fatalf("want account u-1, got %+v", id)
	}
	if v, _ := store.Get(DeviceKeyName); v != "tok-existing-token" {
		t.Fatalf("account resolution must leave the device key alone, got %q", v)
	}
}

func TestResolve_FingerprintFirstAndPersisted(t *testing.T) {
	store := NewMemoryStore()
	id := Resolver{}.Resolve(context.Background(), AuthState{}, fixedFP("visitor_12345", nil), store)
	if id != domain.Anonymous("fp-visitor_12345") {
		t.Fatalf("unexpected identity %+v", id)
	}
	if v, _ := store.Get(DeviceKeyName); v != "fp-visitor_12345" {
		t.Fatalf("fingerprint key should be persisted, got %q", v)
	}
}

func TestResolve_FingerprintFailureFallsBackToStoredToken(t *testing.T) {
	store := NewMemoryStore()
	store.Set(DeviceKeyName, "tok-0123456789")

	id := Resolver{}.Resolve(context.Background(), AuthState{}, fixedFP("", errors.New("blocked")), store)
	if id.Key != "tok-0123456789" {
		t.Fatalf("want stored token, got %+v", id)
	}
}

func TestResolve_GeneratesAndPersistsFreshToken(t *testing.T) {
	store := NewMemoryStore()
	r := Resolver{NewToken: func() string { return "fixed-token-1" }}

	id := r.Resolve(context.Background(), AuthState{}, nil, store)
	if id.Key != "tok-fixed-token-1" || id.IsAccount() {
		t.Fatalf("unexpected identity %+v", id)
	}
	if v, _ := store.Get(DeviceKeyName); v != id.Key {
		t.Fatalf("token not persisted: %q", v)
	}

	// second call reuses the persisted token
	r.NewToken = func() string { return "another-token" }
	if again := r.Resolve(context.Background(), AuthState{}, nil, store); again != id {
		t.Fatalf("want stable key %q, got %q", id.Key, again.Key)
	}
}

func TestResolve_RejectsMalformedInputs(t *testing.T) {
	store := NewMemoryStore()
	store.Set(DeviceKeyName, "device:../../etc")

	id := Resolver{NewToken: func() string { return "bad token!" }}.
		Resolve(context.Background(), AuthState{}, fixedFP("short", nil), store)
	if !strings.HasPrefix(id.Key, "tok-") || !ValidDeviceKey(id.Key) {
		t.Fatalf("want a generated uuid token, got %q", id.Key)
	}
	if v, _ := store.Get(DeviceKeyName); v != id.Key {
		t.Fatalf("malformed stored key should be replaced, got %q", v)
	}
}

func TestResolve_NilStoreNeverPanics(t *testing.T) {
	id := Resolver{}.Resolve(context.Background(), AuthState{}, nil, nil)
	if id.IsZero() || id.IsAccount() {
		t.Fatalf("want anonymous identity, got %+v", id)
	}
}

func TestMemoryStore(t *testing.T) {
	var s MemoryStore
	s.Set("k", "v")
	if v, ok := s.Get("k"); !ok || v != "v" {
		t.Fatalf("Get = %q,%v", v, ok)
	}
	s.Remove("k")
	if _, ok := s.Get("k"); ok {
		t.Fatalf("Remove did not delete")
	}
}

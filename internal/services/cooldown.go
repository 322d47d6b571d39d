package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/careerfix-backend/internal/observability"
)

// Cooldown enforces a minimum interval between starts of an action per key.
// Acquire returns a *CooldownError inside the window. On success the caller
// must call release when the action completes; the key then stays busy for
// at least the floor duration.
type Cooldown interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Default guard timings.
const (
	DefaultCooldownInterval = 2 * time.Second
	DefaultBusyFloor        = time.Second
)

func cooldownTimings(interval, floor time.Duration) (time.Duration, time.Duration) {
	if interval <= 0 {
		interval = DefaultCooldownInterval
	}
	if floor <= 0 {
		floor = DefaultBusyFloor
	}
	return interval, floor
}

// MemoryCooldown keeps cool-down state in process. It suits a single
// replica; use RedisCooldown when several replicas share traffic.
type MemoryCooldown struct {
	Interval time.Duration
	Floor    time.Duration

	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*cooldownEntry
}

type cooldownEntry struct {
	started time.Time
	busy    bool
	until   time.Time
}

// NewMemoryCooldown returns an in-process Cooldown.
func NewMemoryCooldown(interval, floor time.Duration) *MemoryCooldown {
	interval, floor = cooldownTimings(interval, floor)
	return &MemoryCooldown{
		Interval: interval,
		Floor:    floor,
		now:      time.Now,
		entries:  make(map[string]*cooldownEntry),
	}
}

const sweepThreshold = 4096

// Acquire implements Cooldown.
func (c *MemoryCooldown) Acquire(_ context.Context, key string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.entries) > sweepThreshold {
		for k, e := range c.entries {
			if !e.busy && !now.Before(e.until) {
				delete(c.entries, k)
			}
		}
	}

	if e, ok := c.entries[key]; ok {
		if e.busy {
			wait := e.started.Add(c.Interval).Sub(now)
			if wait < c.Floor {
				wait = c.Floor
			}
			observability.RecordGuardRejection("cooldown")
			return nil, &CooldownError{RetryAfter: wait}
		}
		if now.Before(e.until) {
			observability.RecordGuardRejection("cooldown")
			return nil, &CooldownError{RetryAfter: e.until.Sub(now)}
		}
	}

	e := &cooldownEntry{started: now, busy: true, until: now.Add(c.Interval)}
	c.entries[key] = e

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			done := c.now()
			e.busy = false
			if floor := done.Add(c.Floor); floor.After(e.until) {
				e.until = floor
			}
		})
	}, nil
}

// redisCooldownClient is the subset of *redis.Client used by RedisCooldown.
type redisCooldownClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
	PExpire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisCooldown shares cool-down state between replicas. A key is claimed
// with SET NX PX for the interval plus HoldMax; release re-arms its TTL to
// whatever is left of the interval, and at least the floor. Redis errors
// let the action through.
type RedisCooldown struct {
	Interval time.Duration
	Floor    time.Duration
	// HoldMax bounds how long a crashed holder can keep a key busy.
	HoldMax time.Duration
	Prefix  string

	client redisCooldownClient
	now    func() time.Time
}

// NewRedisCooldown returns a Cooldown backed by client.
func NewRedisCooldown(client *redis.Client, interval, floor time.Duration) *RedisCooldown {
	return newRedisCooldown(client, interval, floor)
}

func newRedisCooldown(client redisCooldownClient, interval, floor time.Duration) *RedisCooldown {
	interval, floor = cooldownTimings(interval, floor)
	return &RedisCooldown{
		Interval: interval,
		Floor:    floor,
		HoldMax:  2 * time.Minute,
		Prefix:   "careerfix:cooldown:",
		client:   client,
		now:      time.Now,
	}
}

// Acquire implements Cooldown.
func (c *RedisCooldown) Acquire(ctx context.Context, key string) (func(), error) {
	k := c.Prefix + key
	ok, err := c.client.SetNX(ctx, k, uuid.NewString(), c.Interval+c.HoldMax).Result()
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cooldown store unavailable; allowing")
		observability.RecordSoftFailure("cooldown_acquire")
		return func() {}, nil
	}
	if !ok {
		wait, terr := c.client.PTTL(ctx, k).Result()
		if terr != nil || wait <= 0 || wait > c.Interval {
			wait = c.Floor
		}
		observability.RecordGuardRejection("cooldown")
		return nil, &CooldownError{RetryAfter: wait}
	}

	started := c.now()
	var once sync.Once
	return func() {
		once.Do(func() {
			rearm := c.Interval - c.now().Sub(started)
			if rearm < c.Floor {
				rearm = c.Floor
			}
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := c.client.PExpire(rctx, k, rearm).Err(); err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cooldown re-arm failed")
			}
		})
	}, nil
}

// NewRedisClient parses url, connects and pings.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// DownloadKey and GenerateKey name the guarded actions.
func DownloadKey(identityKey string) string { return "download:" + identityKey }

func GenerateKey(identityKey, kind string) string { return "generate:" + identityKey + ":" + kind }

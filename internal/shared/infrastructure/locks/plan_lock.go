// Package locks provides application-level locking for plan writes. Two
// concurrent schedule regenerations or reschedule applies for the same plan
// would both delete and reinsert the plan's placement rows, so writers must
// hold the plan lock for the duration of the write.
package locks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrPlanLocked is returned when another writer holds the plan lock.
var ErrPlanLocked = errors.New("plan is locked by another operation")

// DefaultLockTTL bounds lock lifetime so a crashed writer cannot wedge a plan.
const DefaultLockTTL = 30 * time.Second

// PlanLocker serializes writes per plan.
type PlanLocker interface {
	// Acquire takes the lock for a plan and returns a release function.
	// Returns ErrPlanLocked when the lock is already held.
	Acquire(ctx context.Context, planID uuid.UUID) (release func(), err error)
}

// RedisPlanLocker implements PlanLocker with a Redis SET NX lease.
type RedisPlanLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPlanLocker creates a Redis-backed plan locker.
func NewRedisPlanLocker(client *redis.Client, ttl time.Duration) *RedisPlanLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisPlanLocker{client: client, ttl: ttl}
}

func (l *RedisPlanLocker) Acquire(ctx context.Context, planID uuid.UUID) (func(), error) {
	key := "waypoint:plan-lock:" + planID.String()
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPlanLocked
	}

	release := func() {
		// Release only our own lease: the lock may have expired and been
		// re-acquired by another writer.
		const script = `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			end
			return 0
		`
		_ = l.client.Eval(context.Background(), script, []string{key}, token).Err()
	}
	return release, nil
}

// LocalPlanLocker is an in-process PlanLocker for local mode and tests.
type LocalPlanLocker struct {
	mu    sync.Mutex
	plans map[uuid.UUID]struct{}
}

// NewLocalPlanLocker creates an in-process plan locker.
func NewLocalPlanLocker() *LocalPlanLocker {
	return &LocalPlanLocker{plans: make(map[uuid.UUID]struct{})}
}

func (l *LocalPlanLocker) Acquire(ctx context.Context, planID uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.plans[planID]; held {
		return nil, ErrPlanLocked
	}
	l.plans[planID] = struct{}{}

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.plans, planID)
	}
	return release, nil
}

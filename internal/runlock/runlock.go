// Package runlock serializes allocation runs per event.  Two concurrent
// runs over the same seats would both see them free; the lock makes the
// second caller fail fast instead of losing at commit time.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRunInProgress is returned by Acquire when another run holds the
// event's lock.
var ErrRunInProgress = errors.New("allocation run already in progress")

// Lease is a held lock.  Release is idempotent and only removes the lock
// if it is still owned by this lease.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out per-event leases.
type Locker interface {
	Acquire(ctx context.Context, eventID uint64) (Lease, error)
}

// RedisLocker stores one key per event with SET NX PX.  The value is a
// random token so that an expired lease cannot release a successor's lock.
// A held lease is renewed every third of the TTL until it is released, so
// the TTL only bounds how long a crashed holder blocks the event.
type RedisLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisLocker creates a locker whose leases expire after ttl.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl, prefix: "seating:lock:event"}
}

// Key returns the Redis key guarding eventID.
func (l *RedisLocker) Key(eventID uint64) string {
	return fmt.Sprintf("%s:%d", l.prefix, eventID)
}

// Acquire implements Locker.
func (l *RedisLocker) Acquire(ctx context.Context, eventID uint64) (Lease, error) {
	token := uuid.NewString()
	key := l.Key(eventID)
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("runlock: acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	lease := &redisLease{
		rdb:   l.rdb,
		key:   key,
		token: token,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	if l.ttl > 0 {
		go lease.keepAlive(l.ttl)
	} else {
		close(lease.done)
	}
	return lease, nil
}

var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

var renewScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('PEXPIRE', KEYS[1], ARGV[2])
	end
	return 0
`)

type redisLease struct {
	rdb   *redis.Client
	key   string
	token string
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
	err   error
}

// keepAlive extends the key's TTL while the lease is held.  It stops on
// Release or once the key no longer carries this lease's token.
func (l *redisLease) keepAlive(ttl time.Duration) {
	defer close(l.done)
	every := max(ttl/3, time.Millisecond)
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-tick.C:
			ctx, cancel := context.WithTimeout(context.Background(), every)
			n, err := renewScript.Run(ctx, l.rdb, []string{l.key}, l.token, ttl.Milliseconds()).Int()
			cancel()
			if err == nil && n == 0 {
				return
			}
		}
	}
}

func (l *redisLease) Release(ctx context.Context) error {
	l.once.Do(func() {
		close(l.stop)
		<-l.done
		if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err(); err != nil {
			l.err = fmt.Errorf("runlock: release %s: %w", l.key, err)
		}
	})
	return l.err
}

// LocalLocker is the in-process Locker used when Redis is unavailable.
// It only serializes runs within one server instance.
type LocalLocker struct {
	mu   sync.Mutex
	held map[uint64]struct{}
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[uint64]struct{}{}}
}

// Acquire implements Locker.
func (l *LocalLocker) Acquire(_ context.Context, eventID uint64) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[eventID]; busy {
		return nil, ErrRunInProgress
	}
	l.held[eventID] = struct{}{}
	return &localLease{l: l, eventID: eventID}, nil
}

type localLease struct {
	l       *LocalLocker
	eventID uint64
	once    sync.Once
}

func (l *localLease) Release(context.Context) error {
	l.once.Do(func() {
		l.l.mu.Lock()
		delete(l.l.held, l.eventID)
		l.l.mu.Unlock()
	})
	return nil
}

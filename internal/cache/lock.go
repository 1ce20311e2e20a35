package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"workforce/storage/redis"
)

// 员工级别的短锁，防止同一员工的重复提交（多设备、连点）
const lockPrefix = "lock:employee"

// ErrLockHeld 锁已被其他请求持有
var ErrLockHeld = errors.New("lock is held by another request")

// Locker hands out short-lived locks keyed by string.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

type Lock interface {
	Key() string
	Release(ctx context.Context) error
}

// EmployeeKey 员工锁的键名
func EmployeeKey(employeeID int64) string {
	return redis.Key(lockPrefix, strconv.FormatInt(employeeID, 10))
}

// RedisLocker 基于 SetNX 的分布式锁，只尝试一次，不重试
type RedisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(client *goredis.Client) *RedisLocker {
	return &RedisLocker{client: redislock.New(client)}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, err
	}
	return redisLock{lock: lock}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

func (l redisLock) Key() string {
	return l.lock.Key()
}

// Release 只删除自己持有的锁；已过期视为成功
func (l redisLock) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

// MemoryLocker 进程内实现，Redis 关闭时和测试中使用
type MemoryLocker struct {
	now   func() time.Time
	locks map[string]memoryEntry
	mu    sync.Mutex
	seq   uint64
}

type memoryEntry struct {
	expiresAt time.Time
	token     uint64
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		now:   time.Now,
		locks: make(map[string]memoryEntry),
	}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.locks[key]; ok && now.Before(held.expiresAt) {
		return nil, ErrLockHeld
	}

	l.seq++
	l.locks[key] = memoryEntry{expiresAt: now.Add(ttl), token: l.seq}
	return &memoryLock{owner: l, key: key, token: l.seq}, nil
}

type memoryLock struct {
	owner *MemoryLocker
	key   string
	token uint64
}

func (l *memoryLock) Key() string {
	return l.key
}

func (l *memoryLock) Release(_ context.Context) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()

	if held, ok := l.owner.locks[l.key]; ok && held.token == l.token {
		delete(l.owner.locks, l.key)
	}
	return nil
}

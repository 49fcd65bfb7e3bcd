package scheduler

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"anoa.com/learnhub/pkg/database"
	"anoa.com/learnhub/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSyncer struct {
	calls int
	err   error
}

func (c *countingSyncer) SyncSearchIndex(context.Context) (int, error) {
	c.calls++
	return 3, c.err
}

func TestRunIndexSyncWithoutRedis(t *testing.T) {
	syncer := &countingSyncer{}
	s := New(syncer, nil, "0 3 * * *", logger.Nop())

	require.NoError(t, s.RunIndexSync(context.Background()))
	assert.Equal(t, 1, syncer.calls)
}

func TestRunIndexSyncPropagatesError(t *testing.T) {
	syncer := &countingSyncer{err: errors.New("db down")}
	s := New(syncer, nil, "0 3 * * *", logger.Nop())

	assert.EqualError(t, s.RunIndexSync(context.Background()), "db down")
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(&countingSyncer{}, nil, "every tuesday", logger.Nop())
	assert.Error(t, s.Start())
}

func TestStartEmptyScheduleIsNoop(t *testing.T) {
	syncer := &countingSyncer{}
	s := New(syncer, nil, "", logger.Nop())

	require.NoError(t, s.Start())
	s.Stop()
	assert.Zero(t, syncer.calls)
}

func TestStartAndStop(t *testing.T) {
	s := New(&countingSyncer{}, nil, "@daily", logger.Nop())
	require.NoError(t, s.Start())
	s.Stop()
}

// memoryLocker mimics SETNX plus compare-and-delete on a single key space.
type memoryLocker struct {
	mu    sync.Mutex
	held  map[string]string
	tries int
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{held: map[string]string{}}
}

func (m *memoryLocker) Acquire(_ context.Context, key, token string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tries++
	if _, ok := m.held[key]; ok {
		return false, nil
	}
	m.held[key] = token
	return true, nil
}

func (m *memoryLocker) Release(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] == token {
		delete(m.held, key)
	}
	return nil
}

func (m *memoryLocker) set(key, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[key] = token
}

func (m *memoryLocker) owner(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.held[key]
	return token, ok
}

// takeoverSyncer simulates the lock expiring mid-run and another instance claiming it.
type takeoverSyncer struct {
	lock *memoryLocker
}

func (t *takeoverSyncer) SyncSearchIndex(context.Context) (int, error) {
	t.lock.set(indexSyncLock, "other-instance")
	return 1, nil
}

func TestRunIndexSyncReleasesOwnLock(t *testing.T) {
	lock := newMemoryLocker()
	syncer := &countingSyncer{}
	s := New(syncer, nil, "0 3 * * *", logger.Nop())
	s.lock = lock

	require.NoError(t, s.RunIndexSync(context.Background()))
	assert.Equal(t, 1, syncer.calls)
	_, held := lock.owner(indexSyncLock)
	assert.False(t, held)
}

func TestRunIndexSyncSkipsWhileLocked(t *testing.T) {
	lock := newMemoryLocker()
	lock.set(indexSyncLock, "other-instance")
	syncer := &countingSyncer{}
	s := New(syncer, nil, "0 3 * * *", logger.Nop())
	s.lock = lock

	require.NoError(t, s.RunIndexSync(context.Background()))
	assert.Zero(t, syncer.calls)
	owner, _ := lock.owner(indexSyncLock)
	assert.Equal(t, "other-instance", owner)
}

func TestRunIndexSyncKeepsLockTakenOverByAnotherInstance(t *testing.T) {
	lock := newMemoryLocker()
	s := New(&takeoverSyncer{lock: lock}, nil, "0 3 * * *", logger.Nop())
	s.lock = lock

	require.NoError(t, s.RunIndexSync(context.Background()))
	owner, held := lock.owner(indexSyncLock)
	require.True(t, held)
	assert.Equal(t, "other-instance", owner)
}

func TestRedisLockerReleaseChecksToken(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := database.ConnectRedis(ctx, url)
	require.NoError(t, err)
	defer rdb.Close()

	key := "scheduler:test:" + t.Name()
	l := redisLocker{rdb: rdb}
	defer rdb.Del(ctx, key)

	ok, err := l.Acquire(ctx, key, "mine", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Acquire(ctx, key, "theirs", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, key, "theirs"))
	assert.Equal(t, "mine", rdb.Get(ctx, key).Val())

	require.NoError(t, l.Release(ctx, key, "mine"))
	assert.Zero(t, rdb.Exists(ctx, key).Val())
}

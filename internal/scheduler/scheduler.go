package scheduler

import (
	"context"
	"fmt"
	"time"

	"anoa.com/learnhub/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

const (
	indexSyncLock    = "scheduler:index_sync"
	indexSyncLockTTL = 30 * time.Minute
)

type IndexSyncer interface {
	SyncSearchIndex(ctx context.Context) (int, error)
}

// releaseScript deletes the lock only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type locker interface {
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

type redisLocker struct {
	rdb *redis.Client
}

func (l redisLocker) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, token, ttl).Result()
}

func (l redisLocker) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
}

type Scheduler struct {
	cron    *cron.Cron
	courses IndexSyncer
	lock    locker
	spec    string
	log     *logger.Logger
}

// New builds a scheduler for the search index sync. An empty spec disables it.
func New(courses IndexSyncer, redisClient *redis.Client, spec string, log *logger.Logger) *Scheduler {
	s := &Scheduler{
		cron:    cron.New(),
		courses: courses,
		spec:    spec,
		log:     log,
	}
	if redisClient != nil {
		s.lock = redisLocker{rdb: redisClient}
	}
	return s
}

func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.log.Info("search index sync disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.RunIndexSync(context.Background()); err != nil {
			s.log.Error("search index sync failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid index sync schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.log.Info("scheduler started", "index_sync", s.spec)
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunIndexSync skips the run while another instance holds the redis lock.
func (s *Scheduler) RunIndexSync(ctx context.Context) error {
	if s.lock != nil {
		token := uuid.NewString()
		acquired, err := s.lock.Acquire(ctx, indexSyncLock, token, indexSyncLockTTL)
		if err != nil {
			s.log.Warn("index sync lock unavailable, running without it", "error", err)
		} else if !acquired {
			s.log.Debug("index sync already running on another instance")
			return nil
		} else {
			defer func() {
				if err := s.lock.Release(context.Background(), indexSyncLock, token); err != nil {
					s.log.Warn("failed to release index sync lock", "error", err)
				}
			}()
		}
	}

	started := time.Now()
	indexed, err := s.courses.SyncSearchIndex(ctx)
	if err != nil {
		return err
	}
	s.log.Info("search index synced", "courses", indexed, "took", time.Since(started).String())
	return nil
}

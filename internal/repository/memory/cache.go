package memory

import (
	"context"
	"exam_engine_backend/internal/model"
	"sync"
	"time"
)

type versionedStats struct {
	version int64
	stats   model.ExamStatistics
}

// ResultsCache 统计缓存的内存实现，忽略过期时间
type ResultsCache struct {
	mu            sync.Mutex
	versions      map[uint]int64
	stats         map[uint]versionedStats
	Hits          int
	Invalidations int
}

func NewResultsCache() *ResultsCache {
	return &ResultsCache{
		versions: make(map[uint]int64),
		stats:    make(map[uint]versionedStats),
	}
}

func (c *ResultsCache) Version(_ context.Context, examID uint) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[examID], nil
}

func (c *ResultsCache) Get(_ context.Context, examID uint, version int64) (*model.ExamStatistics, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.stats[examID]
	if !ok || e.version != version {
		return nil, false, nil
	}
	c.Hits++
	return &e.stats, true, nil
}

// Set 版本已过期的写入直接丢弃
func (c *ResultsCache) Set(_ context.Context, examID uint, version int64, stats model.ExamStatistics, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if version != c.versions[examID] {
		return nil
	}
	c.stats[examID] = versionedStats{version: version, stats: stats}
	return nil
}

func (c *ResultsCache) Invalidate(_ context.Context, examID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[examID]++
	delete(c.stats, examID)
	c.Invalidations++
	return nil
}

// Locker 进程内的开考锁
type Locker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocker() *Locker {
	return &Locker{slots: make(map[string]chan struct{})}
}

func (l *Locker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *Locker) Acquire(ctx context.Context, key string, _ time.Duration, wait time.Duration) (bool, func(), error) {
	ch := l.slot(key)
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return true, func() { once.Do(func() { <-ch }) }, nil
	case <-timer.C:
		return false, func() {}, nil
	case <-ctx.Done():
		return false, func() {}, ctx.Err()
	}
}

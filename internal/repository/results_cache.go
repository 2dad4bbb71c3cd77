package repository

import (
	"context"
	"encoding/json"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/util"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ResultsCache 考试成绩统计缓存
type ResultsCache struct {
	Redis *redis.Client
}

func NewResultsCache(rdb *redis.Client) *ResultsCache {
	return &ResultsCache{Redis: rdb}
}

func versionKey(examID uint) string {
	return fmt.Sprintf("%sver:%d", util.ExamStatsKeyPrefix, examID)
}

// statsKey 统计按版本分键，旧版本的写入落在没人读的键上，靠 TTL 过期
func statsKey(examID uint, version int64) string {
	return fmt.Sprintf("%s%d:v%d", util.ExamStatsKeyPrefix, examID, version)
}

func (c *ResultsCache) Version(ctx context.Context, examID uint) (int64, error) {
	v, err := c.Redis.Get(ctx, versionKey(examID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

func (c *ResultsCache) Get(ctx context.Context, examID uint, version int64) (*model.ExamStatistics, bool, error) {
	val, err := c.Redis.Get(ctx, statsKey(examID, version)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	var stats model.ExamStatistics
	if err := json.Unmarshal(val, &stats); err != nil {
		return nil, false, err
	}
	return &stats, true, nil
}

func (c *ResultsCache) Set(ctx context.Context, examID uint, version int64, stats model.ExamStatistics, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.Redis.Set(ctx, statsKey(examID, version), data, ttl).Err()
}

// Invalidate 版本号加一，之前算出的统计全部作废
func (c *ResultsCache) Invalidate(ctx context.Context, examID uint) error {
	return c.Redis.Incr(ctx, versionKey(examID)).Err()
}

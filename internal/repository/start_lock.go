package repository

import (
	"context"
	"exam_engine_backend/internal/util"
	"exam_engine_backend/pkg/logger"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 只删除自己持有的锁
var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

const lockPollInterval = 50 * time.Millisecond

// StartLock 基于 Redis SetNX 的 (考试, 学生) 维度开考锁
type StartLock struct {
	Redis *redis.Client
}

func NewStartLock(rdb *redis.Client) *StartLock {
	return &StartLock{Redis: rdb}
}

func StartLockKey(examID, studentID uint) string {
	return fmt.Sprintf("%s%d:%d", util.StartLockKeyPrefix, examID, studentID)
}

// Acquire 在 wait 内轮询获取锁，拿到返回 true 和释放函数
func (l *StartLock) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (bool, func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.Redis.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return false, func() {}, err
		}
		if ok {
			return true, func() { l.release(key, token) }, nil
		}
		if time.Now().After(deadline) {
			return false, func() {}, nil
		}

		select {
		case <-ctx.Done():
			return false, func() {}, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (l *StartLock) release(key, token string) {
	// 请求 ctx 可能已取消，释放使用独立的短超时
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := releaseLockScript.Run(ctx, l.Redis, []string{key}, token).Err(); err != nil && err != redis.Nil {
		logger.Log.Warn("release start lock failed", zap.String("key", key), zap.Error(err))
	}
}

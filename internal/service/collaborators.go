package service

import (
	"context"
	"exam_engine_backend/internal/model"
	"time"
)

// 考试引擎依赖的外部能力，由用户服务和班级服务提供

type RoleResolver interface {
	GetRole(ctx context.Context, userID uint) (model.UserRole, error)
}

type ClassDirectory interface {
	FindClass(ctx context.Context, classID uint) (*model.Class, error)
	ClassIDsByTeacher(ctx context.Context, teacherID uint) ([]uint, error)
}

type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, studentID, classID uint) (bool, error)
	ActiveClassIDs(ctx context.Context, studentID uint) ([]uint, error)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// StartLocker (考试, 学生) 维度的互斥锁，拿不到锁时返回 false
type StartLocker interface {
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (bool, func(), error)
}

// ResultsCache 统计缓存，按版本读写，Invalidate 使版本号递增
type ResultsCache interface {
	Version(ctx context.Context, examID uint) (int64, error)
	Get(ctx context.Context, examID uint, version int64) (*model.ExamStatistics, bool, error)
	Set(ctx context.Context, examID uint, version int64, stats model.ExamStatistics, ttl time.Duration) error
	Invalidate(ctx context.Context, examID uint) error
}

package service

import (
	"context"
	"exam_engine_backend/internal/config"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/repository"
	"exam_engine_backend/pkg/logger"
	"exam_engine_backend/pkg/tracing"
	"sync"
	"time"

	"go.uber.org/zap"
)

type ResultsService struct {
	Exams    repository.ExamStore
	Attempts repository.AttemptStore
	Cache    ResultsCache // 可为 nil
	Clock    Clock
	access   accessPolicy

	mu       sync.RWMutex
	cacheTTL time.Duration
}

func NewResultsService(
	exams repository.ExamStore,
	attempts repository.AttemptStore,
	roles RoleResolver,
	classes ClassDirectory,
	cache ResultsCache,
	clock Clock,
	cfg config.ExamConfig,
) *ResultsService {
	return &ResultsService{
		Exams:    exams,
		Attempts: attempts,
		Cache:    cache,
		Clock:    clock,
		access:   accessPolicy{roles: roles, classes: classes},
		cacheTTL: cfg.ResultsCacheTTL,
	}
}

func (s *ResultsService) ApplyConfig(cfg config.ExamConfig) {
	s.mu.Lock()
	s.cacheTTL = cfg.ResultsCacheTTL
	s.mu.Unlock()
}

func (s *ResultsService) ttl() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cacheTTL
}

type ExamResults struct {
	Exam       *model.Exam          `json:"exam"`
	Attempts   []model.ExamAttempt  `json:"attempts"`
	Statistics model.ExamStatistics `json:"statistics"`
}

// AggregateResults 只统计已交卷的作答，没有作答时全部为 0
func AggregateResults(attempts []model.ExamAttempt) model.ExamStatistics {
	var stats model.ExamStatistics
	sum, passed := 0, 0
	for i := range attempts {
		res, ok := attempts[i].Result()
		if !ok {
			continue
		}
		if stats.Count == 0 || res.TotalScore < stats.MinScore {
			stats.MinScore = res.TotalScore
		}
		if stats.Count == 0 || res.TotalScore > stats.MaxScore {
			stats.MaxScore = res.TotalScore
		}
		stats.Count++
		sum += res.TotalScore
		if res.Passed {
			passed++
		}
	}
	if stats.Count == 0 {
		return stats
	}
	stats.MeanScore = round2(float64(sum) / float64(stats.Count))
	stats.PassRate = round2(float64(passed) / float64(stats.Count) * 100)
	return stats
}

// ExamResults 已交卷作答按时间倒序，附带统计
func (s *ResultsService) ExamResults(ctx context.Context, examID, actorID uint) (*ExamResults, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ResultsService.ExamResults")
	defer span.End()

	exam, err := s.loadManaged(ctx, actorID, examID)
	if err != nil {
		return nil, err
	}
	version, cacheable := s.version(ctx, examID)
	attempts, err := s.Attempts.ListByExam(ctx, examID, model.AttemptSubmitted, true)
	if err != nil {
		return nil, err
	}

	stats := AggregateResults(attempts)
	if cacheable {
		s.store(ctx, examID, version, stats)
	}
	return &ExamResults{Exam: exam, Attempts: attempts, Statistics: stats}, nil
}

// ExamStatistics 只返回统计，优先读缓存
func (s *ResultsService) ExamStatistics(ctx context.Context, examID, actorID uint) (model.ExamStatistics, error) {
	if _, err := s.loadManaged(ctx, actorID, examID); err != nil {
		return model.ExamStatistics{}, err
	}

	// 先取版本再读库，统计期间有交卷时这次结果不会进缓存
	version, cacheable := s.version(ctx, examID)
	if cacheable {
		cached, ok, err := s.Cache.Get(ctx, examID, version)
		if err != nil {
			logger.Log.Warn("results cache read failed", zap.Uint("examId", examID), zap.Error(err))
		} else if ok {
			return *cached, nil
		}
	}

	attempts, err := s.Attempts.ListByExam(ctx, examID, model.AttemptSubmitted, false)
	if err != nil {
		return model.ExamStatistics{}, err
	}
	stats := AggregateResults(attempts)
	if cacheable {
		s.store(ctx, examID, version, stats)
	}
	return stats, nil
}

// ListExamAttempts 所有状态的作答，包括进行中的
func (s *ResultsService) ListExamAttempts(ctx context.Context, examID, actorID uint) ([]AttemptView, error) {
	exam, err := s.loadManaged(ctx, actorID, examID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.Attempts.ListByExam(ctx, examID, "", false)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	views := make([]AttemptView, 0, len(attempts))
	for _, a := range attempts {
		views = append(views, attemptView(a, exam, now))
	}
	return views, nil
}

func (s *ResultsService) loadManaged(ctx context.Context, actorID, examID uint) (*model.Exam, error) {
	exam, err := s.Exams.FindByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.access.canManageExam(ctx, actorID, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *ResultsService) version(ctx context.Context, examID uint) (int64, bool) {
	if s.Cache == nil {
		return 0, false
	}
	v, err := s.Cache.Version(ctx, examID)
	if err != nil {
		logger.Log.Warn("results cache version read failed", zap.Uint("examId", examID), zap.Error(err))
		return 0, false
	}
	return v, true
}

func (s *ResultsService) store(ctx context.Context, examID uint, version int64, stats model.ExamStatistics) {
	if err := s.Cache.Set(ctx, examID, version, stats, s.ttl()); err != nil {
		logger.Log.Warn("results cache write failed", zap.Uint("examId", examID), zap.Error(err))
	}
}

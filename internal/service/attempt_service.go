package service

import (
	"context"
	"errors"
	"exam_engine_backend/internal/config"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/repository"
	"exam_engine_backend/internal/util"
	"exam_engine_backend/pkg/logger"
	"exam_engine_backend/pkg/monitoring"
	"exam_engine_backend/pkg/tracing"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const cacheInvalidateTimeout = 2 * time.Second

type AttemptService struct {
	Exams      repository.ExamStore
	Attempts   repository.AttemptStore
	Enrollment EnrollmentChecker
	Clock      Clock
	Locker     StartLocker  // 可为 nil，此时只依赖唯一索引
	Cache      ResultsCache // 可为 nil
	access     accessPolicy

	mu  sync.RWMutex
	cfg config.ExamConfig
}

func NewAttemptService(
	exams repository.ExamStore,
	attempts repository.AttemptStore,
	roles RoleResolver,
	classes ClassDirectory,
	enrollment EnrollmentChecker,
	clock Clock,
	locker StartLocker,
	cache ResultsCache,
	cfg config.ExamConfig,
) *AttemptService {
	return &AttemptService{
		Exams:      exams,
		Attempts:   attempts,
		Enrollment: enrollment,
		Clock:      clock,
		Locker:     locker,
		Cache:      cache,
		access:     accessPolicy{roles: roles, classes: classes},
		cfg:        cfg,
	}
}

// ApplyConfig 配置热更新回调
func (s *AttemptService) ApplyConfig(cfg config.ExamConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *AttemptService) config() config.ExamConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

type StartExamResult struct {
	Attempt   model.ExamAttempt `json:"attempt"`
	Exam      ExamSummary       `json:"exam"`
	Questions []QuestionView    `json:"questions"`
	Deadline  time.Time         `json:"deadline"`
}

type SubmitExamResult struct {
	Attempt        model.ExamAttempt `json:"attempt"`
	TotalScore     int               `json:"totalScore"`
	MaxScore       int               `json:"maxScore"`
	Percentage     float64           `json:"percentage"`
	Passed         bool              `json:"passed"`
	IgnoredAnswers []uint            `json:"ignoredAnswers,omitempty"`
}

// StartExam 校验选课、状态、时间窗口和次数后创建一次作答
func (s *AttemptService) StartExam(ctx context.Context, examID, studentID uint) (*StartExamResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "AttemptService.StartExam")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("exam.id", int64(examID)),
		attribute.Int64("student.id", int64(studentID)),
	)

	res, err := s.startExam(ctx, examID, studentID)
	if err != nil {
		monitoring.StartRejected.WithLabelValues(errorKind(err)).Inc()
		tracing.RecordError(span, err, util.StatusOf(err) >= 500)
		return nil, err
	}
	monitoring.AttemptsStarted.Inc()
	logger.Log.Info("attempt started",
		zap.Uint("examId", examID),
		zap.Uint("studentId", studentID),
		zap.Uint("attemptId", res.Attempt.ID),
		zap.Int("attemptNumber", res.Attempt.AttemptNumber),
	)
	return res, nil
}

func (s *AttemptService) startExam(ctx context.Context, examID, studentID uint) (*StartExamResult, error) {
	cfg := s.config()

	exam, err := s.Exams.FindByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.Enrollment.IsEnrolled(ctx, studentID, exam.ClassID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, util.ErrNotEnrolled
	}
	if err := s.startable(exam); err != nil {
		return nil, err
	}

	if s.Locker != nil {
		key := repository.StartLockKey(examID, studentID)
		ok, release, err := s.Locker.Acquire(ctx, key, cfg.StartLockTTL, cfg.StartLockWait)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, err
		case err != nil:
			logger.Log.Warn("start lock unavailable, relying on unique index", zap.String("key", key), zap.Error(err))
		case !ok:
			logger.Log.Warn("start lock wait timed out, relying on unique index", zap.String("key", key))
		}
		if release != nil {
			defer release()
		}
		// 等锁期间考试可能被取消
		if exam, err = s.Exams.FindByID(ctx, examID); err != nil {
			return nil, err
		}
		if err := s.startable(exam); err != nil {
			return nil, err
		}
	}

	var attempt *model.ExamAttempt
	for try := 0; try <= cfg.StartRetries; try++ {
		attempt, err = s.createAttempt(ctx, exam, studentID, cfg)
		if !errors.Is(err, util.ErrAttemptConflict) {
			break
		}
		monitoring.StartConflicts.Inc()
		logger.Log.Debug("attempt number conflict, retrying",
			zap.Uint("examId", examID),
			zap.Uint("studentId", studentID),
			zap.Int("try", try+1),
		)
	}
	if errors.Is(err, util.ErrAttemptConflict) {
		return nil, util.ErrConcurrentStart
	}
	if err != nil {
		return nil, err
	}

	questions, err := s.Exams.ListQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	views, err := sanitizeQuestions(questions)
	if err != nil {
		return nil, err
	}
	summary, err := summarize(exam)
	if err != nil {
		return nil, err
	}
	return &StartExamResult{
		Attempt:   *attempt,
		Exam:      summary,
		Questions: views,
		Deadline:  attempt.Deadline(exam.Duration()),
	}, nil
}

func (s *AttemptService) startable(exam *model.Exam) error {
	switch exam.Status {
	case model.ExamPublished:
	case model.ExamCancelled:
		return util.ErrExamCancelled
	default:
		return util.ErrExamNotPublished
	}
	if !exam.WindowOpen(s.Clock.Now()) {
		return util.ErrExamWindowClosed
	}
	return nil
}

// createAttempt 读取已有作答后插入下一次，编号冲突时返回 util.ErrAttemptConflict
func (s *AttemptService) createAttempt(ctx context.Context, exam *model.Exam, studentID uint, cfg config.ExamConfig) (*model.ExamAttempt, error) {
	existing, err := s.Attempts.ListByExamAndStudent(ctx, exam.ID, studentID)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	maxNumber := 0
	for i := range existing {
		a := &existing[i]
		if a.AttemptNumber > maxNumber {
			maxNumber = a.AttemptNumber
		}
		if a.Status != model.AttemptInProgress {
			continue
		}
		// 超过截止时间加宽限期的作答先收卷，再继续判断
		if s.pastGrace(a, exam, cfg) {
			if err := s.expire(ctx, a.ID, exam); err != nil && !errors.Is(err, util.ErrAttemptNotInProgress) {
				return nil, err
			}
			continue
		}
		return nil, util.ErrAttemptInProgress
	}

	if len(existing) >= exam.AttemptsAllowed {
		return nil, util.ErrAttemptLimitReached
	}

	attempt := &model.ExamAttempt{
		ExamID:        exam.ID,
		StudentID:     studentID,
		AttemptNumber: maxNumber + 1,
		Status:        model.AttemptInProgress,
		MaxScore:      exam.TotalMarks,
		StartedAt:     now,
	}
	if err := s.Attempts.Create(ctx, attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// SubmitExam 判分并在同一事务内写入答案和成绩，重复交卷返回 InvalidState
func (s *AttemptService) SubmitExam(ctx context.Context, attemptID, studentID uint, answers []AnswerInput, timeSpent int) (*SubmitExamResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "AttemptService.SubmitExam")
	defer span.End()
	span.SetAttributes(attribute.Int64("attempt.id", int64(attemptID)))

	res, err := s.submitExam(ctx, attemptID, studentID, answers, timeSpent)
	if err != nil {
		tracing.RecordError(span, err, util.StatusOf(err) >= 500)
		return nil, err
	}
	return res, nil
}

func (s *AttemptService) submitExam(ctx context.Context, attemptID, studentID uint, answers []AnswerInput, timeSpent int) (*SubmitExamResult, error) {
	if timeSpent < 0 {
		return nil, util.ValidationError("timeSpent must not be negative")
	}

	attempt, err := s.Attempts.FindByID(ctx, attemptID, false)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, util.ErrNotAttemptOwner
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, util.ErrAttemptNotInProgress
	}

	exam, err := s.Exams.FindByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	cfg := s.config()
	if s.pastGrace(attempt, exam, cfg) {
		if err := s.expire(ctx, attempt.ID, exam); err != nil {
			return nil, err
		}
		return nil, util.ErrAttemptExpired
	}

	questions, err := s.Exams.ListQuestions(ctx, exam.ID)
	if err != nil {
		return nil, err
	}

	sheet := Score(questions, answers)
	if len(sheet.Unmatched) > 0 {
		if cfg.RejectUnknownAnswers {
			return nil, util.ValidationError("answers reference unknown questions: %v", sheet.Unmatched)
		}
		logger.Log.Warn("ignoring answers for unknown questions",
			zap.Uint("attemptId", attemptID),
			zap.Uints("questionIds", sheet.Unmatched),
		)
	}

	var (
		result  model.AttemptResult
		expired bool
	)
	finalized, err := s.Attempts.Finalize(ctx, attemptID, func(locked *model.ExamAttempt) ([]model.ExamAnswer, error) {
		if !locked.Status.CanTransitionTo(model.AttemptSubmitted) {
			return nil, util.ErrAttemptNotInProgress
		}
		// 判分期间越过宽限期，同一事务内按超时收卷
		if s.pastGrace(locked, exam, cfg) {
			expired = true
			locked.Complete(s.expiredResult(locked, exam))
			return nil, nil
		}
		result = model.AttemptResult{
			TotalScore:  sheet.TotalScore,
			MaxScore:    locked.MaxScore,
			Percentage:  Percentage(sheet.TotalScore, locked.MaxScore),
			Passed:      Passed(sheet.TotalScore, exam.PassingMarks),
			SubmittedAt: s.Clock.Now(),
			TimeSpent:   timeSpent,
			EndReason:   model.EndSubmitted,
		}
		locked.Complete(result)
		return sheet.Answers(), nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		s.expired(ctx, attemptID, exam)
		return nil, util.ErrAttemptExpired
	}

	s.invalidate(ctx, exam.ID)
	monitoring.AttemptsFinished.WithLabelValues(string(model.EndSubmitted)).Inc()
	monitoring.ScorePercentage.Observe(result.Percentage)
	logger.Log.Info("attempt submitted",
		zap.Uint("attemptId", attemptID),
		zap.Uint("examId", exam.ID),
		zap.Uint("studentId", studentID),
		zap.Int("totalScore", result.TotalScore),
		zap.Int("maxScore", result.MaxScore),
		zap.Bool("passed", result.Passed),
	)

	return &SubmitExamResult{
		Attempt:        *finalized,
		TotalScore:     result.TotalScore,
		MaxScore:       result.MaxScore,
		Percentage:     result.Percentage,
		Passed:         result.Passed,
		IgnoredAnswers: sheet.Unmatched,
	}, nil
}

// pastGrace 超过截止时间加宽限期
func (s *AttemptService) pastGrace(a *model.ExamAttempt, exam *model.Exam, cfg config.ExamConfig) bool {
	return a.Expired(s.Clock.Now().Add(-cfg.ExpiryGrace), exam.Duration())
}

// expiredResult 超时收卷：0 分、不写答案
func (s *AttemptService) expiredResult(a *model.ExamAttempt, exam *model.Exam) model.AttemptResult {
	return model.AttemptResult{
		TotalScore:  0,
		MaxScore:    a.MaxScore,
		Percentage:  0,
		Passed:      false,
		SubmittedAt: s.Clock.Now(),
		TimeSpent:   exam.DurationMinutes,
		EndReason:   model.EndExpired,
	}
}

func (s *AttemptService) expire(ctx context.Context, attemptID uint, exam *model.Exam) error {
	_, err := s.Attempts.Finalize(ctx, attemptID, func(locked *model.ExamAttempt) ([]model.ExamAnswer, error) {
		if !locked.Status.CanTransitionTo(model.AttemptSubmitted) {
			return nil, util.ErrAttemptNotInProgress
		}
		locked.Complete(s.expiredResult(locked, exam))
		return nil, nil
	})
	if err != nil {
		return err
	}
	s.expired(ctx, attemptID, exam)
	return nil
}

func (s *AttemptService) expired(ctx context.Context, attemptID uint, exam *model.Exam) {
	s.invalidate(ctx, exam.ID)
	monitoring.AttemptsFinished.WithLabelValues(string(model.EndExpired)).Inc()
	logger.Log.Info("attempt expired", zap.Uint("attemptId", attemptID), zap.Uint("examId", exam.ID))
}

// ExpireAbandoned 收掉超过截止时间加宽限期仍未交卷的作答，返回处理条数
func (s *AttemptService) ExpireAbandoned(ctx context.Context) (int, error) {
	ctx, span := tracing.Tracer.Start(ctx, "AttemptService.ExpireAbandoned")
	defer span.End()

	cfg := s.config()
	cutoff := s.Clock.Now().Add(-cfg.ExpiryGrace)
	overdue, err := s.Attempts.ListOverdue(ctx, cutoff, cfg.ExpirySweepBatch)
	if err != nil {
		tracing.RecordError(span, err, true)
		return 0, err
	}

	exams := make(map[uint]*model.Exam)
	expired := 0
	for _, a := range overdue {
		exam, ok := exams[a.ExamID]
		if !ok {
			exam, err = s.Exams.FindByID(ctx, a.ExamID)
			if err != nil {
				logger.Log.Warn("expiry: exam lookup failed", zap.Uint("attemptId", a.ID), zap.Error(err))
				continue
			}
			exams[a.ExamID] = exam
		}
		if err := s.expire(ctx, a.ID, exam); err != nil {
			// 学生在清理期间交卷属于正常竞争
			if !errors.Is(err, util.ErrAttemptNotInProgress) {
				logger.Log.Warn("expiry: finalize failed", zap.Uint("attemptId", a.ID), zap.Error(err))
			}
			continue
		}
		expired++
	}
	span.SetAttributes(attribute.Int("attempts.expired", expired))
	return expired, nil
}

// GetAttempt 作答本人、班级教师或管理员可以查看
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID, userID uint) (*AttemptView, error) {
	attempt, err := s.Attempts.FindByID(ctx, attemptID, true)
	if err != nil {
		return nil, err
	}
	exam, err := s.Exams.FindByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != userID {
		if err := s.access.canManageExam(ctx, userID, exam); err != nil {
			if errors.Is(err, util.ErrForbidden) {
				return nil, util.ErrNotAttemptOwner
			}
			return nil, err
		}
	}
	view := attemptView(*attempt, exam, s.Clock.Now())
	return &view, nil
}

// ListMyAttempts 学生在某场考试下的全部作答
func (s *AttemptService) ListMyAttempts(ctx context.Context, examID, studentID uint) ([]AttemptView, error) {
	exam, err := s.Exams.FindByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.Attempts.ListByExamAndStudent(ctx, examID, studentID)
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

func (s *AttemptService) invalidate(ctx context.Context, examID uint) {
	if s.Cache == nil {
		return
	}
	// 已提交的成绩不能因为客户端断开而留下旧统计
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheInvalidateTimeout)
	defer cancel()
	if err := s.Cache.Invalidate(ctx, examID); err != nil {
		logger.Log.Warn("results cache invalidate failed", zap.Uint("examId", examID), zap.Error(err))
	}
}

// errorKind 指标标签
func errorKind(err error) string {
	switch {
	case errors.Is(err, util.ErrNotFound):
		return "not_found"
	case errors.Is(err, util.ErrForbidden):
		return "forbidden"
	case errors.Is(err, util.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, util.ErrWindowClosed):
		return "window_closed"
	case errors.Is(err, util.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, util.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

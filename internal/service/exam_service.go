package service

import (
	"context"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/repository"
	"exam_engine_backend/internal/util"
	"exam_engine_backend/pkg/logger"
	"exam_engine_backend/pkg/tracing"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ExamService struct {
	Exams      repository.ExamStore
	Attempts   repository.AttemptStore
	Enrollment EnrollmentChecker
	Clock      Clock
	access     accessPolicy
}

func NewExamService(
	exams repository.ExamStore,
	attempts repository.AttemptStore,
	roles RoleResolver,
	classes ClassDirectory,
	enrollment EnrollmentChecker,
	clock Clock,
) *ExamService {
	return &ExamService{
		Exams:      exams,
		Attempts:   attempts,
		Enrollment: enrollment,
		Clock:      clock,
		access:     accessPolicy{roles: roles, classes: classes},
	}
}

type ExamCreateRequest struct {
	Title           string    `json:"title" binding:"required,max=200"`
	Description     string    `json:"description"`
	Instructions    string    `json:"instructions"`
	ClassID         uint      `json:"classId" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"required,min=1,max=480"`
	PassingMarks    int       `json:"passingMarks" binding:"min=0"`
	AttemptsAllowed int       `json:"attemptsAllowed" binding:"required,min=1,max=10"`
	StartTime       time.Time `json:"startTime" binding:"required"`
	EndTime         time.Time `json:"endTime" binding:"required"`
}

// ExamUpdateRequest 草稿阶段修改考试信息，未传的字段保持不变
type ExamUpdateRequest struct {
	Title           *string    `json:"title" binding:"omitempty,max=200"`
	Description     *string    `json:"description"`
	Instructions    *string    `json:"instructions"`
	DurationMinutes *int       `json:"durationMinutes" binding:"omitempty,min=1,max=480"`
	PassingMarks    *int       `json:"passingMarks" binding:"omitempty,min=0"`
	AttemptsAllowed *int       `json:"attemptsAllowed" binding:"omitempty,min=1,max=10"`
	StartTime       *time.Time `json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
}

type ExamListQuery struct {
	ClassID uint
	Status  model.ExamStatus
	Page    int
	Limit   int
}

type ExamListItem struct {
	model.Exam
	QuestionCount int64 `json:"questionCount"`
	AttemptCount  int64 `json:"attemptCount"`
}

type StudentExamItem struct {
	ExamSummary
	AttemptsUsed int64 `json:"attemptsUsed"`
	Available    bool  `json:"available"` // 当前处于开放窗口且仍有剩余次数
}

// DeleteOutcome 已有作答记录的考试不会被删除，而是改为取消
type DeleteOutcome string

const (
	OutcomeDeleted   DeleteOutcome = "deleted"
	OutcomeCancelled DeleteOutcome = "cancelled"
)

func validateExamDefinition(exam *model.Exam) error {
	switch {
	case strings.TrimSpace(exam.Title) == "":
		return util.ValidationError("title is required")
	case exam.DurationMinutes < 1 || exam.DurationMinutes > 480:
		return util.ValidationError("durationMinutes must be between 1 and 480")
	case exam.AttemptsAllowed < 1 || exam.AttemptsAllowed > 10:
		return util.ValidationError("attemptsAllowed must be between 1 and 10")
	case exam.PassingMarks < 0:
		return util.ValidationError("passingMarks must not be negative")
	case exam.StartTime.IsZero() || exam.EndTime.IsZero():
		return util.ValidationError("startTime and endTime are required")
	case !exam.StartTime.Before(exam.EndTime):
		return util.ValidationError("startTime must be before endTime")
	}
	return nil
}

// CreateExam 只有班级的任课教师或管理员可以创建，初始为草稿、总分 0
func (s *ExamService) CreateExam(ctx context.Context, authorID uint, req ExamCreateRequest) (*model.Exam, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ExamService.CreateExam")
	defer span.End()

	if err := s.access.canManageClass(ctx, authorID, req.ClassID); err != nil {
		return nil, err
	}

	exam := &model.Exam{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Instructions:    req.Instructions,
		ClassID:         req.ClassID,
		CreatedByID:     authorID,
		Status:          model.ExamDraft,
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      0,
		PassingMarks:    req.PassingMarks,
		AttemptsAllowed: req.AttemptsAllowed,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
	}
	if err := validateExamDefinition(exam); err != nil {
		return nil, err
	}

	if err := s.Exams.Create(ctx, exam); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("exam.id", int64(exam.ID)))
	logger.Log.Info("exam created",
		zap.Uint("examId", exam.ID),
		zap.Uint("classId", exam.ClassID),
		zap.Uint("authorId", authorID),
	)
	return exam, nil
}

// loadManaged 读取考试并校验管理权限
func (s *ExamService) loadManaged(ctx context.Context, actorID, examID uint) (*model.Exam, error) {
	exam, err := s.Exams.FindByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.access.canManageExam(ctx, actorID, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *ExamService) UpdateExam(ctx context.Context, actorID, examID uint, req ExamUpdateRequest) (*model.Exam, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ExamService.UpdateExam")
	defer span.End()

	if _, err := s.loadManaged(ctx, actorID, examID); err != nil {
		return nil, err
	}

	var updated *model.Exam
	err := s.Exams.WithLockedExam(ctx, examID, func(tx repository.ExamTx, exam *model.Exam) error {
		if !exam.QuestionsEditable() {
			return util.ErrExamNotDraft
		}
		if req.Title != nil {
			exam.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			exam.Description = *req.Description
		}
		if req.Instructions != nil {
			exam.Instructions = *req.Instructions
		}
		if req.DurationMinutes != nil {
			exam.DurationMinutes = *req.DurationMinutes
		}
		if req.PassingMarks != nil {
			exam.PassingMarks = *req.PassingMarks
		}
		if req.AttemptsAllowed != nil {
			exam.AttemptsAllowed = *req.AttemptsAllowed
		}
		if req.StartTime != nil {
			exam.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			exam.EndTime = *req.EndTime
		}
		if err := validateExamDefinition(exam); err != nil {
			return err
		}
		if err := tx.SaveExam(exam); err != nil {
			return err
		}
		updated = exam
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetExam 教师视角的完整考试，包含标准答案
func (s *ExamService) GetExam(ctx context.Context, actorID, examID uint) (*model.Exam, error) {
	exam, err := s.loadManaged(ctx, actorID, examID)
	if err != nil {
		return nil, err
	}
	questions, err := s.Exams.ListQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	exam.Questions = questions
	return exam, nil
}

// ListExams 管理员看全部，教师只看自己班级
func (s *ExamService) ListExams(ctx context.Context, actorID uint, q ExamListQuery) ([]ExamListItem, int64, error) {
	role, err := s.access.role(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	if !role.CanAuthor() {
		return nil, 0, util.ErrPermissionDenied
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, util.ValidationError("unknown exam status %q", q.Status)
	}

	filter := repository.ExamFilter{Status: q.Status, Page: q.Page, Limit: q.Limit}
	if q.ClassID != 0 {
		filter.ClassIDs = []uint{q.ClassID}
	}
	if role == model.Teacher {
		owned, err := s.access.classes.ClassIDsByTeacher(ctx, actorID)
		if err != nil {
			return nil, 0, err
		}
		if q.ClassID != 0 {
			if !containsID(owned, q.ClassID) {
				return nil, 0, util.ErrNotClassTeacher
			}
		} else {
			if len(owned) == 0 {
				return []ExamListItem{}, 0, nil
			}
			filter.ClassIDs = owned
		}
	}

	exams, total, err := s.Exams.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, 0, len(exams))
	for _, e := range exams {
		ids = append(ids, e.ID)
	}
	questionCounts, err := s.Exams.QuestionCounts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	attemptCounts, err := s.Attempts.CountByExams(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	items := make([]ExamListItem, 0, len(exams))
	for _, e := range exams {
		items = append(items, ExamListItem{
			Exam:          e,
			QuestionCount: questionCounts[e.ID],
			AttemptCount:  attemptCounts[e.ID],
		})
	}
	return items, total, nil
}

// ListStudentExams 学生所在班级中已发布的考试，已取消的不展示
func (s *ExamService) ListStudentExams(ctx context.Context, studentID uint) ([]StudentExamItem, error) {
	classIDs, err := s.Enrollment.ActiveClassIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}
	exams, err := s.Exams.ListPublishedByClasses(ctx, classIDs)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(exams))
	for _, e := range exams {
		ids = append(ids, e.ID)
	}
	used, err := s.Attempts.CountByStudent(ctx, studentID, ids)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	items := make([]StudentExamItem, 0, len(exams))
	for i := range exams {
		summary, err := summarize(&exams[i])
		if err != nil {
			return nil, err
		}
		items = append(items, StudentExamItem{
			ExamSummary:  summary,
			AttemptsUsed: used[exams[i].ID],
			Available:    exams[i].WindowOpen(now) && used[exams[i].ID] < int64(exams[i].AttemptsAllowed),
		})
	}
	return items, nil
}

// PublishExam DRAFT -> PUBLISHED，至少一道题且及格分不超过总分
func (s *ExamService) PublishExam(ctx context.Context, actorID, examID uint) (*model.Exam, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ExamService.PublishExam")
	defer span.End()

	if _, err := s.loadManaged(ctx, actorID, examID); err != nil {
		return nil, err
	}

	var published *model.Exam
	err := s.Exams.WithLockedExam(ctx, examID, func(tx repository.ExamTx, exam *model.Exam) error {
		if !exam.Status.CanTransitionTo(model.ExamPublished) {
			return util.ErrExamNotDraft
		}
		questions, err := tx.Questions()
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return util.ErrNoQuestions
		}
		exam.TotalMarks = model.TotalPoints(questions)
		if exam.PassingMarks > exam.TotalMarks {
			return util.ValidationError("passingMarks (%d) exceeds totalMarks (%d)", exam.PassingMarks, exam.TotalMarks)
		}

		now := s.Clock.Now()
		exam.Status = model.ExamPublished
		exam.PublishedAt = &now
		if err := tx.SaveExam(exam); err != nil {
			return err
		}
		published = exam
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("exam published",
		zap.Uint("examId", examID),
		zap.Int("totalMarks", published.TotalMarks),
		zap.Uint("actorId", actorID),
	)
	return published, nil
}

// CancelExam 草稿或已发布均可取消；进行中的作答仍允许交卷
func (s *ExamService) CancelExam(ctx context.Context, actorID, examID uint) (*model.Exam, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ExamService.CancelExam")
	defer span.End()

	if _, err := s.loadManaged(ctx, actorID, examID); err != nil {
		return nil, err
	}

	var cancelled *model.Exam
	err := s.Exams.WithLockedExam(ctx, examID, func(tx repository.ExamTx, exam *model.Exam) error {
		if err := s.cancelLocked(tx, exam); err != nil {
			return err
		}
		cancelled = exam
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("exam cancelled", zap.Uint("examId", examID), zap.Uint("actorId", actorID))
	return cancelled, nil
}

func (s *ExamService) cancelLocked(tx repository.ExamTx, exam *model.Exam) error {
	if !exam.Status.CanTransitionTo(model.ExamCancelled) {
		return util.ErrExamCancelled
	}
	now := s.Clock.Now()
	exam.Status = model.ExamCancelled
	exam.CancelledAt = &now
	return tx.SaveExam(exam)
}

// DeleteExam 没有作答记录时物理删除，否则转为取消以保留历史成绩
func (s *ExamService) DeleteExam(ctx context.Context, actorID, examID uint) (DeleteOutcome, error) {
	if _, err := s.loadManaged(ctx, actorID, examID); err != nil {
		return "", err
	}

	var outcome DeleteOutcome
	err := s.Exams.WithLockedExam(ctx, examID, func(tx repository.ExamTx, exam *model.Exam) error {
		attempts, err := tx.CountAttempts(exam.ID)
		if err != nil {
			return err
		}
		if attempts == 0 {
			outcome = OutcomeDeleted
			return tx.DeleteExam(exam.ID)
		}

		outcome = OutcomeCancelled
		if exam.Status == model.ExamCancelled {
			return nil
		}
		return s.cancelLocked(tx, exam)
	})
	if err != nil {
		return "", err
	}

	logger.Log.Info("exam removed",
		zap.Uint("examId", examID),
		zap.String("outcome", string(outcome)),
		zap.Uint("actorId", actorID),
	)
	return outcome, nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

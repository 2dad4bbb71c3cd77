package repository

import (
	"context"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/util"
	"time"
)

// ExamFilter 考试列表查询条件，ClassIDs 为 nil 表示不限班级
type ExamFilter struct {
	ClassIDs []uint
	Status   model.ExamStatus
	Page     int
	Limit    int
}

// ExamTx 在锁定考试行的事务内可用的操作
type ExamTx interface {
	Questions() ([]model.ExamQuestion, error)
	CreateQuestion(q *model.ExamQuestion) error
	SaveQuestion(q *model.ExamQuestion) error
	DeleteQuestion(questionID uint) error
	// SetQuestionOrders 批量改写题目顺序，只校验最终结果的唯一性
	SetQuestionOrders(orders map[uint]int) error
	SaveExam(exam *model.Exam) error
	DeleteExam(examID uint) error
	CountAttempts(examID uint) (int64, error)
}

type ExamStore interface {
	Create(ctx context.Context, exam *model.Exam) error
	FindByID(ctx context.Context, id uint) (*model.Exam, error)
	ListQuestions(ctx context.Context, examID uint) ([]model.ExamQuestion, error)
	List(ctx context.Context, filter ExamFilter) ([]model.Exam, int64, error)
	ListPublishedByClasses(ctx context.Context, classIDs []uint) ([]model.Exam, error)
	QuestionCounts(ctx context.Context, examIDs []uint) (map[uint]int64, error)
	// WithLockedExam 锁定考试行后执行 fn，fn 返回错误时整体回滚
	WithLockedExam(ctx context.Context, examID uint, fn func(tx ExamTx, exam *model.Exam) error) error
}

// FinalizeFunc 在锁定的尝试记录上检查状态并写入成绩，返回需要落库的答案
type FinalizeFunc func(attempt *model.ExamAttempt) ([]model.ExamAnswer, error)

type AttemptStore interface {
	// Create 唯一约束冲突时返回 util.ErrAttemptConflict
	Create(ctx context.Context, attempt *model.ExamAttempt) error
	FindByID(ctx context.Context, id uint, withAnswers bool) (*model.ExamAttempt, error)
	ListByExamAndStudent(ctx context.Context, examID, studentID uint) ([]model.ExamAttempt, error)
	// ListByExam status 为空时返回全部状态，按时间倒序
	ListByExam(ctx context.Context, examID uint, status model.AttemptStatus, withAnswers bool) ([]model.ExamAttempt, error)
	// ListOverdue 返回 startedAt + 考试时长 早于 cutoff 的进行中尝试
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]model.ExamAttempt, error)
	CountByExams(ctx context.Context, examIDs []uint) (map[uint]int64, error)
	CountByStudent(ctx context.Context, studentID uint, examIDs []uint) (map[uint]int64, error)
	// Finalize 行锁内执行 fn，答案插入与尝试更新在同一事务提交
	Finalize(ctx context.Context, attemptID uint, fn FinalizeFunc) (*model.ExamAttempt, error)
}

// Pagination 规范化分页参数
func Pagination(page, limit int) (int, int) {
	if page <= 0 {
		page = util.DefaultPage
	}
	if limit <= 0 {
		limit = util.DefaultLimit
	}
	if limit > util.MaxLimit {
		limit = util.MaxLimit
	}
	return page, limit
}

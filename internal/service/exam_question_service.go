package service

import (
	"context"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/repository"
	"exam_engine_backend/internal/util"
	"exam_engine_backend/pkg/logger"
	"exam_engine_backend/pkg/tracing"
	"strings"

	"go.uber.org/zap"
)

var defaultTrueFalseOptions = []string{"True", "False"}

type QuestionRequest struct {
	Type          model.QuestionType `json:"type" binding:"required,question_type"`
	Question      string             `json:"question" binding:"required"`
	Options       []string           `json:"options"`
	CorrectAnswer string             `json:"correctAnswer"`
	Points        int                `json:"points" binding:"required,min=1"`
	Order         int                `json:"order" binding:"min=0"` // 0 表示追加到末尾
	Explanation   string             `json:"explanation"`
}

// QuestionUpdateRequest 未传的字段保持不变
type QuestionUpdateRequest struct {
	Type          *model.QuestionType `json:"type" binding:"omitempty,question_type"`
	Question      *string             `json:"question"`
	Options       *[]string           `json:"options"`
	CorrectAnswer *string             `json:"correctAnswer"`
	Points        *int                `json:"points" binding:"omitempty,min=1"`
	Order         *int                `json:"order" binding:"omitempty,min=1"`
	Explanation   *string             `json:"explanation"`
}

// normalizeQuestion 按题型校验并整理选项
func normalizeQuestion(q *model.ExamQuestion) error {
	q.Question = strings.TrimSpace(q.Question)
	switch {
	case !q.Type.Valid():
		return util.ValidationError("unknown question type %q", q.Type)
	case q.Question == "":
		return util.ValidationError("question text is required")
	case q.Points < 1:
		return util.ValidationError("points must be greater than 0")
	case q.Order < 0:
		return util.ValidationError("order must be positive")
	}

	if q.Type == model.QuestionTrueFalse && len(q.Options) == 0 {
		q.Options = append([]string(nil), defaultTrueFalseOptions...)
	}

	if q.Type.HasOptions() {
		if len(q.Options) < 2 {
			return util.ValidationError("%s questions need at least two options", q.Type)
		}
		seen := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			if seen[opt] {
				return util.ValidationError("duplicate option %q", opt)
			}
			seen[opt] = true
		}
		if !seen[q.CorrectAnswer] {
			return util.ValidationError("correctAnswer must be one of the options")
		}
		return nil
	}

	if !q.Type.AutoGraded() {
		// 主观题没有选项，标准答案仅作为参考答案保存
		q.Options = nil
		return nil
	}

	if q.CorrectAnswer == "" {
		return util.ValidationError("correctAnswer is required for %s questions", q.Type)
	}
	if len(q.Options) == 0 {
		q.Options = nil
	}
	return nil
}

// syncTotalMarks 按当前题目重新计算总分，与题目修改在同一事务内提交
func syncTotalMarks(tx repository.ExamTx, exam *model.Exam) error {
	questions, err := tx.Questions()
	if err != nil {
		return err
	}
	exam.TotalMarks = model.TotalPoints(questions)
	return tx.SaveExam(exam)
}

func findQuestion(questions []model.ExamQuestion, id uint) (*model.ExamQuestion, bool) {
	for i := range questions {
		if questions[i].ID == id {
			q := questions[i]
			return &q, true
		}
	}
	return nil, false
}

func (s *ExamService) AddQuestion(ctx context.Context, actorID, examID uint, req QuestionRequest) (*model.ExamQuestion, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ExamService.AddQuestion")
	defer span.End()

	question := &model.ExamQuestion{
		ExamID:        examID,
		Type:          req.Type,
		Question:      req.Question,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Points:        req.Points,
		Order:         req.Order,
		Explanation:   req.Explanation,
	}
	if err := normalizeQuestion(question); err != nil {
		return nil, err
	}

	if _, err := s.loadManaged(ctx, actorID, examID); err != nil {
		return nil, err
	}

	var totalMarks int
	err := s.Exams.WithLockedExam(ctx, examID, func(tx repository.ExamTx, exam *model.Exam) error {
		if !exam.QuestionsEditable() {
			return util.ErrExamNotDraft
		}
		existing, err := tx.Questions()
		if err != nil {
			return err
		}
		if question.Order == 0 {
			question.Order = model.NextQuestionOrder(existing)
		} else if model.OrderTaken(existing, question.Order, 0) {
			return util.ValidationError("question order %d is already used", question.Order)
		}
		if err := tx.CreateQuestion(question); err != nil {
			return err
		}
		if err := syncTotalMarks(tx, exam); err != nil {
			return err
		}
		totalMarks = exam.TotalMarks
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Debug("question added",
		zap.Uint("examId", examID),
		zap.Uint("questionId", question.ID),
		zap.Int("totalMarks", totalMarks),
	)
	return question, nil
}

func (s *ExamService) UpdateQuestion(ctx context.Context, actorID, examID, questionID uint, req QuestionUpdateRequest) (*model.ExamQuestion, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ExamService.UpdateQuestion")
	defer span.End()

	if _, err := s.loadManaged(ctx, actorID, examID); err != nil {
		return nil, err
	}

	var updated *model.ExamQuestion
	err := s.Exams.WithLockedExam(ctx, examID, func(tx repository.ExamTx, exam *model.Exam) error {
		if !exam.QuestionsEditable() {
			return util.ErrExamNotDraft
		}
		existing, err := tx.Questions()
		if err != nil {
			return err
		}
		q, ok := findQuestion(existing, questionID)
		if !ok {
			return util.ErrQuestionNotFound
		}

		if req.Type != nil {
			q.Type = *req.Type
		}
		if req.Question != nil {
			q.Question = *req.Question
		}
		if req.Options != nil {
			q.Options = *req.Options
		}
		if req.CorrectAnswer != nil {
			q.CorrectAnswer = *req.CorrectAnswer
		}
		if req.Points != nil {
			q.Points = *req.Points
		}
		if req.Explanation != nil {
			q.Explanation = *req.Explanation
		}
		if req.Order != nil && *req.Order != q.Order {
			if model.OrderTaken(existing, *req.Order, q.ID) {
				return util.ValidationError("question order %d is already used", *req.Order)
			}
			q.Order = *req.Order
		}
		if err := normalizeQuestion(q); err != nil {
			return err
		}

		if err := tx.SaveQuestion(q); err != nil {
			return err
		}
		if err := syncTotalMarks(tx, exam); err != nil {
			return err
		}
		updated = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ExamService) RemoveQuestion(ctx context.Context, actorID, examID, questionID uint) error {
	ctx, span := tracing.Tracer.Start(ctx, "ExamService.RemoveQuestion")
	defer span.End()

	if _, err := s.loadManaged(ctx, actorID, examID); err != nil {
		return err
	}

	return s.Exams.WithLockedExam(ctx, examID, func(tx repository.ExamTx, exam *model.Exam) error {
		if !exam.QuestionsEditable() {
			return util.ErrExamNotDraft
		}
		if err := tx.DeleteQuestion(questionID); err != nil {
			return err
		}
		return syncTotalMarks(tx, exam)
	})
}

type BulkQuestionsRequest struct {
	Questions []QuestionRequest `json:"questions" binding:"required,min=1,max=200,dive"`
}

type QuestionOrder struct {
	QuestionID uint `json:"questionId" binding:"required"`
	NewOrder   int  `json:"newOrder" binding:"required,min=1"`
}

type ReorderQuestionsRequest struct {
	QuestionOrders []QuestionOrder `json:"questionOrders" binding:"required,min=1,dive"`
}

// BulkAddQuestions 全部成功或全部回滚，未指定 order 的题目依次排在最后
func (s *ExamService) BulkAddQuestions(ctx context.Context, actorID, examID uint, reqs []QuestionRequest) ([]model.ExamQuestion, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ExamService.BulkAddQuestions")
	defer span.End()

	if len(reqs) == 0 {
		return nil, util.ValidationError("questions must not be empty")
	}
	questions := make([]model.ExamQuestion, len(reqs))
	explicit := make(map[int]int)
	for i, req := range reqs {
		q := model.ExamQuestion{
			ExamID:        examID,
			Type:          req.Type,
			Question:      req.Question,
			Options:       req.Options,
			CorrectAnswer: req.CorrectAnswer,
			Points:        req.Points,
			Order:         req.Order,
			Explanation:   req.Explanation,
		}
		if err := normalizeQuestion(&q); err != nil {
			return nil, util.ValidationError("questions[%d]: %s", i, err.Error())
		}
		if q.Order > 0 {
			if j, dup := explicit[q.Order]; dup {
				return nil, util.ValidationError("questions[%d] and questions[%d] both use order %d", j, i, q.Order)
			}
			explicit[q.Order] = i
		}
		questions[i] = q
	}

	if _, err := s.loadManaged(ctx, actorID, examID); err != nil {
		return nil, err
	}

	var totalMarks int
	err := s.Exams.WithLockedExam(ctx, examID, func(tx repository.ExamTx, exam *model.Exam) error {
		if !exam.QuestionsEditable() {
			return util.ErrExamNotDraft
		}
		existing, err := tx.Questions()
		if err != nil {
			return err
		}

		next := model.NextQuestionOrder(existing)
		for order := range explicit {
			if model.OrderTaken(existing, order, 0) {
				return util.ValidationError("question order %d is already used", order)
			}
			if order >= next {
				next = order + 1
			}
		}
		for i := range questions {
			if questions[i].Order == 0 {
				questions[i].Order = next
				next++
			}
			if err := tx.CreateQuestion(&questions[i]); err != nil {
				return err
			}
		}

		if err := syncTotalMarks(tx, exam); err != nil {
			return err
		}
		totalMarks = exam.TotalMarks
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("questions added in bulk",
		zap.Uint("examId", examID),
		zap.Int("count", len(questions)),
		zap.Int("totalMarks", totalMarks),
	)
	return questions, nil
}

// ReorderQuestions 未列出的题目保持原顺序，调整后整场考试的 order 仍需唯一
func (s *ExamService) ReorderQuestions(ctx context.Context, actorID, examID uint, orders []QuestionOrder) ([]model.ExamQuestion, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ExamService.ReorderQuestions")
	defer span.End()

	if len(orders) == 0 {
		return nil, util.ValidationError("questionOrders must not be empty")
	}
	changes := make(map[uint]int, len(orders))
	for _, o := range orders {
		if o.NewOrder < 1 {
			return nil, util.ValidationError("newOrder must be positive")
		}
		if _, dup := changes[o.QuestionID]; dup {
			return nil, util.ValidationError("question %d listed more than once", o.QuestionID)
		}
		changes[o.QuestionID] = o.NewOrder
	}

	if _, err := s.loadManaged(ctx, actorID, examID); err != nil {
		return nil, err
	}

	var reordered []model.ExamQuestion
	err := s.Exams.WithLockedExam(ctx, examID, func(tx repository.ExamTx, exam *model.Exam) error {
		if !exam.QuestionsEditable() {
			return util.ErrExamNotDraft
		}
		existing, err := tx.Questions()
		if err != nil {
			return err
		}

		final := make(map[int]uint, len(existing))
		for _, q := range existing {
			order, moved := changes[q.ID]
			if !moved {
				order = q.Order
			}
			if other, taken := final[order]; taken {
				return util.ValidationError("questions %d and %d would both have order %d", other, q.ID, order)
			}
			final[order] = q.ID
		}
		for id := range changes {
			if _, ok := findQuestion(existing, id); !ok {
				return util.ErrQuestionNotFound
			}
		}

		if err := tx.SetQuestionOrders(changes); err != nil {
			return err
		}
		reordered, err = tx.Questions()
		return err
	})
	if err != nil {
		return nil, err
	}
	return reordered, nil
}

package service

import (
	"exam_engine_backend/internal/model"
	"time"

	"github.com/jinzhu/copier"
	"gorm.io/datatypes"
)

// QuestionView 发给学生的题目，不含标准答案和解析
type QuestionView struct {
	ID       uint                        `json:"id"`
	Type     model.QuestionType          `json:"type"`
	Question string                      `json:"question"`
	Options  datatypes.JSONSlice[string] `json:"options"`
	Points   int                         `json:"points"`
	Order    int                         `json:"order"`
}

// ExamSummary 学生可见的考试信息
type ExamSummary struct {
	ID              uint             `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Instructions    string           `json:"instructions"`
	ClassID         uint             `json:"classId"`
	Status          model.ExamStatus `json:"status"`
	DurationMinutes int              `json:"durationMinutes"`
	TotalMarks      int              `json:"totalMarks"`
	PassingMarks    int              `json:"passingMarks"`
	AttemptsAllowed int              `json:"attemptsAllowed"`
	StartTime       time.Time        `json:"startTime"`
	EndTime         time.Time        `json:"endTime"`
}

// AttemptView 尝试记录加上派生的截止时间和超时标记
type AttemptView struct {
	model.ExamAttempt
	Deadline time.Time `json:"deadline"`
	Expired  bool      `json:"expired"`
}

func sanitizeQuestions(questions []model.ExamQuestion) ([]QuestionView, error) {
	views := make([]QuestionView, 0, len(questions))
	if err := copier.Copy(&views, &questions); err != nil {
		return nil, err
	}
	return views, nil
}

func summarize(exam *model.Exam) (ExamSummary, error) {
	var summary ExamSummary
	err := copier.Copy(&summary, exam)
	return summary, err
}

func attemptView(a model.ExamAttempt, exam *model.Exam, now time.Time) AttemptView {
	return AttemptView{
		ExamAttempt: a,
		Deadline:    a.Deadline(exam.Duration()),
		Expired:     a.Expired(now, exam.Duration()),
	}
}

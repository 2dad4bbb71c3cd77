package service

import (
	"exam_engine_backend/internal/model"
	"math"
)

// AnswerInput 学生提交的单题答案
type AnswerInput struct {
	QuestionID     uint   `json:"questionId" binding:"required"`
	SelectedAnswer string `json:"selectedAnswer"`
	TimeSpent      int    `json:"timeSpent" binding:"min=0"`
}

type QuestionScore struct {
	QuestionID    uint   `json:"questionId"`
	Answer        string `json:"answer"`
	IsCorrect     bool   `json:"isCorrect"`
	PointsAwarded int    `json:"pointsAwarded"`
	TimeSpent     int    `json:"timeSpent"`
}

// ScoreSheet 判分结果
type ScoreSheet struct {
	PerQuestion []QuestionScore `json:"perQuestion"`
	TotalScore  int             `json:"totalScore"`
	MaxScore    int             `json:"maxScore"`
	// Unmatched 找不到对应题目的答案，不计分也不落库
	Unmatched []uint `json:"unmatched,omitempty"`
	// Duplicates 同一题重复提交，只保留第一份
	Duplicates []uint `json:"duplicates,omitempty"`
}

// Score 纯函数：客观题按标准答案精确匹配，主观题记 0 分等待人工批改
func Score(questions []model.ExamQuestion, answers []AnswerInput) ScoreSheet {
	byID := make(map[uint]model.ExamQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	sheet := ScoreSheet{
		PerQuestion: make([]QuestionScore, 0, len(answers)),
		MaxScore:    model.TotalPoints(questions),
	}
	seen := make(map[uint]bool, len(answers))

	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			sheet.Unmatched = append(sheet.Unmatched, a.QuestionID)
			continue
		}
		if seen[a.QuestionID] {
			sheet.Duplicates = append(sheet.Duplicates, a.QuestionID)
			continue
		}
		seen[a.QuestionID] = true

		correct := q.Type.AutoGraded() && a.SelectedAnswer == q.CorrectAnswer
		points := 0
		if correct {
			points = q.Points
		}
		sheet.TotalScore += points
		sheet.PerQuestion = append(sheet.PerQuestion, QuestionScore{
			QuestionID:    a.QuestionID,
			Answer:        a.SelectedAnswer,
			IsCorrect:     correct,
			PointsAwarded: points,
			TimeSpent:     a.TimeSpent,
		})
	}
	return sheet
}

// Answers 转成待落库的答案记录
func (s ScoreSheet) Answers() []model.ExamAnswer {
	answers := make([]model.ExamAnswer, 0, len(s.PerQuestion))
	for _, q := range s.PerQuestion {
		answers = append(answers, model.ExamAnswer{
			QuestionID:    q.QuestionID,
			Answer:        q.Answer,
			IsCorrect:     q.IsCorrect,
			PointsAwarded: q.PointsAwarded,
			TimeSpent:     q.TimeSpent,
		})
	}
	return answers
}

// Percentage 保留两位小数，满分为 0 时返回 0
func Percentage(total, max int) float64 {
	if max <= 0 {
		return 0
	}
	return round2(float64(total) / float64(max) * 100)
}

func Passed(total, passingMarks int) bool {
	return total >= passingMarks
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

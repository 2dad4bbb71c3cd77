package model

import (
	"sort"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionMatching       QuestionType = "MATCHING"
	QuestionFillIn         QuestionType = "FILL_IN"
	QuestionShortAnswer    QuestionType = "SHORT_ANSWER"
	QuestionSubjective     QuestionType = "SUBJECTIVE"
	QuestionEssay          QuestionType = "ESSAY"
)

var questionTypes = map[QuestionType]bool{
	QuestionMultipleChoice: true,
	QuestionTrueFalse:      true,
	QuestionMatching:       true,
	QuestionFillIn:         true,
	QuestionShortAnswer:    true,
	QuestionSubjective:     false,
	QuestionEssay:          false,
}

func (t QuestionType) Valid() bool {
	_, ok := questionTypes[t]
	return ok
}

// AutoGraded 客观题按标准答案自动判分，主观题需要教师批改
func (t QuestionType) AutoGraded() bool {
	return questionTypes[t]
}

// HasOptions 选择类题型必须提供选项
func (t QuestionType) HasOptions() bool {
	return t == QuestionMultipleChoice || t == QuestionTrueFalse
}

// swagger:model ExamQuestion
type ExamQuestion struct {
	BaseModel

	ExamID        uint                        `gorm:"not null;uniqueIndex:uk_question_exam_order,priority:1" json:"examId"`
	Type          QuestionType                `gorm:"size:30;not null" json:"type"`
	Question      string                      `gorm:"type:text;not null" json:"question"`
	Options       datatypes.JSONSlice[string] `gorm:"type:json" json:"options"` // 主观题为 null
	CorrectAnswer string                      `gorm:"type:text" json:"correctAnswer"`
	Points        int                         `gorm:"not null" json:"points"`
	Order         int                         `gorm:"column:order_no;not null;uniqueIndex:uk_question_exam_order,priority:2" json:"order"`
	Explanation   string                      `gorm:"type:text" json:"explanation"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}

// TotalPoints 题目分值之和
func TotalPoints(questions []ExamQuestion) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

// NextQuestionOrder 未指定顺序时追加到末尾
func NextQuestionOrder(questions []ExamQuestion) int {
	max := 0
	for _, q := range questions {
		if q.Order > max {
			max = q.Order
		}
	}
	return max + 1
}

// OrderTaken 判断 order 是否已被其他题目占用
func OrderTaken(questions []ExamQuestion, order int, exceptID uint) bool {
	for _, q := range questions {
		if q.Order == order && q.ID != exceptID {
			return true
		}
	}
	return false
}

func SortQuestions(questions []ExamQuestion) {
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Order < questions[j].Order
	})
}

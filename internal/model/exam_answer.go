package model

// swagger:model ExamAnswer
type ExamAnswer struct {
	BaseModel

	AttemptID     uint   `gorm:"not null;uniqueIndex:uk_answer_attempt_question,priority:1" json:"attemptId"`
	QuestionID    uint   `gorm:"not null;uniqueIndex:uk_answer_attempt_question,priority:2" json:"questionId"`
	Answer        string `gorm:"type:text" json:"answer"`
	IsCorrect     bool   `gorm:"default:false" json:"isCorrect"`
	PointsAwarded int    `gorm:"default:0" json:"pointsAwarded"`
	TimeSpent     int    `gorm:"default:0" json:"timeSpent"`
}

func (ExamAnswer) TableName() string {
	return "exam_answers"
}

// ExamStatistics 考试成绩统计
type ExamStatistics struct {
	Count     int     `json:"count"`
	MeanScore float64 `json:"meanScore"`
	PassRate  float64 `json:"passRate"`
	MinScore  int     `json:"minScore"`
	MaxScore  int     `json:"maxScore"`
}

package model

import "time"

type ExamStatus string

const (
	ExamDraft     ExamStatus = "DRAFT"
	ExamPublished ExamStatus = "PUBLISHED"
	ExamCancelled ExamStatus = "CANCELLED"
)

// examTransitions 考试状态迁移表，CANCELLED 为终态
var examTransitions = map[ExamStatus][]ExamStatus{
	ExamDraft:     {ExamPublished, ExamCancelled},
	ExamPublished: {ExamCancelled},
	ExamCancelled: nil,
}

func (s ExamStatus) Valid() bool {
	_, ok := examTransitions[s]
	return ok
}

func (s ExamStatus) CanTransitionTo(next ExamStatus) bool {
	for _, allowed := range examTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ExamStatus) IsTerminal() bool {
	return s.Valid() && len(examTransitions[s]) == 0
}

// swagger:model Exam
type Exam struct {
	BaseModel

	Title           string     `gorm:"size:200;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	Instructions    string     `gorm:"type:text" json:"instructions"`
	ClassID         uint       `gorm:"index;not null" json:"classId"`
	CreatedByID     uint       `gorm:"index;not null" json:"createdById"`
	Status          ExamStatus `gorm:"type:enum('DRAFT','PUBLISHED','CANCELLED');default:'DRAFT';index" json:"status"`
	DurationMinutes int        `gorm:"not null" json:"durationMinutes"`
	TotalMarks      int        `gorm:"not null;default:0" json:"totalMarks"` // 始终等于题目分值之和
	PassingMarks    int        `gorm:"not null;default:0" json:"passingMarks"`
	AttemptsAllowed int        `gorm:"not null;default:1" json:"attemptsAllowed"`
	StartTime       time.Time  `gorm:"not null" json:"startTime"`
	EndTime         time.Time  `gorm:"not null" json:"endTime"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`

	Questions []ExamQuestion `gorm:"foreignKey:ExamID" json:"questions,omitempty"`
}

func (Exam) TableName() string {
	return "exams"
}

// QuestionsEditable 只有草稿状态可以修改题目和考试信息
func (e *Exam) QuestionsEditable() bool {
	return e.Status == ExamDraft
}

// WindowOpen 开放窗口为 [StartTime, EndTime)
func (e *Exam) WindowOpen(now time.Time) bool {
	return !now.Before(e.StartTime) && now.Before(e.EndTime)
}

func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

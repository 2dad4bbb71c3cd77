package model

import "time"

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptSubmitted  AttemptStatus = "SUBMITTED"
)

var attemptTransitions = map[AttemptStatus][]AttemptStatus{
	AttemptInProgress: {AttemptSubmitted},
	AttemptSubmitted:  nil,
}

func (s AttemptStatus) CanTransitionTo(next AttemptStatus) bool {
	for _, allowed := range attemptTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type AttemptEndReason string

const (
	EndSubmitted AttemptEndReason = "SUBMITTED"
	EndExpired   AttemptEndReason = "EXPIRED" // 超时未交卷，由后台清理任务收卷
)

// swagger:model ExamAttempt
type ExamAttempt struct {
	BaseModel

	ExamID        uint          `gorm:"not null;uniqueIndex:uk_attempt_exam_student_no,priority:1" json:"examId"`
	StudentID     uint          `gorm:"not null;uniqueIndex:uk_attempt_exam_student_no,priority:2;index" json:"studentId"`
	AttemptNumber int           `gorm:"not null;uniqueIndex:uk_attempt_exam_student_no,priority:3" json:"attemptNumber"`
	Status        AttemptStatus `gorm:"type:enum('IN_PROGRESS','SUBMITTED');default:'IN_PROGRESS';index" json:"status"`
	MaxScore      int           `gorm:"not null" json:"maxScore"` // 开考时的 totalMarks 快照
	StartedAt     time.Time     `gorm:"not null" json:"startedAt"`

	// 以下字段只在交卷后写入
	TotalScore  *int             `json:"totalScore,omitempty"`
	Percentage  *float64         `json:"percentage,omitempty"`
	Passed      *bool            `json:"passed,omitempty"`
	SubmittedAt *time.Time       `json:"submittedAt,omitempty"`
	TimeSpent   *int             `json:"timeSpent,omitempty"` // 分钟，客户端上报
	EndReason   AttemptEndReason `gorm:"size:20" json:"endReason,omitempty"`

	Answers []ExamAnswer `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

// AttemptResult 已交卷尝试的成绩视图
type AttemptResult struct {
	TotalScore  int              `json:"totalScore"`
	MaxScore    int              `json:"maxScore"`
	Percentage  float64          `json:"percentage"`
	Passed      bool             `json:"passed"`
	SubmittedAt time.Time        `json:"submittedAt"`
	TimeSpent   int              `json:"timeSpent"`
	EndReason   AttemptEndReason `json:"endReason"`
}

// Result 只有 SUBMITTED 状态才有成绩
func (a *ExamAttempt) Result() (AttemptResult, bool) {
	if a.Status != AttemptSubmitted || a.TotalScore == nil || a.SubmittedAt == nil {
		return AttemptResult{}, false
	}
	res := AttemptResult{
		TotalScore:  *a.TotalScore,
		MaxScore:    a.MaxScore,
		SubmittedAt: *a.SubmittedAt,
		EndReason:   a.EndReason,
	}
	if a.Percentage != nil {
		res.Percentage = *a.Percentage
	}
	if a.Passed != nil {
		res.Passed = *a.Passed
	}
	if a.TimeSpent != nil {
		res.TimeSpent = *a.TimeSpent
	}
	return res, true
}

// Complete 写入成绩并迁移到 SUBMITTED
func (a *ExamAttempt) Complete(res AttemptResult) {
	a.Status = AttemptSubmitted
	a.TotalScore = &res.TotalScore
	a.Percentage = &res.Percentage
	a.Passed = &res.Passed
	a.SubmittedAt = &res.SubmittedAt
	a.TimeSpent = &res.TimeSpent
	a.EndReason = res.EndReason
}

// Deadline 作答截止时间
func (a *ExamAttempt) Deadline(duration time.Duration) time.Time {
	return a.StartedAt.Add(duration)
}

// Expired 派生状态：仍在作答但已超过考试时长
func (a *ExamAttempt) Expired(now time.Time, duration time.Duration) bool {
	return a.Status == AttemptInProgress && now.After(a.Deadline(duration))
}

package model

import (
	"testing"
	"time"
)

func TestExamStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to ExamStatus
		want     bool
	}{
		{ExamDraft, ExamPublished, true},
		{ExamDraft, ExamCancelled, true},
		{ExamPublished, ExamCancelled, true},
		{ExamPublished, ExamDraft, false},
		{ExamPublished, ExamPublished, false},
		{ExamCancelled, ExamPublished, false},
		{ExamCancelled, ExamDraft, false},
		{ExamCancelled, ExamCancelled, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}

	if !ExamCancelled.IsTerminal() {
		t.Error("CANCELLED should be terminal")
	}
	if ExamDraft.IsTerminal() || ExamPublished.IsTerminal() {
		t.Error("DRAFT and PUBLISHED should not be terminal")
	}
	if ExamStatus("ARCHIVED").Valid() {
		t.Error("unknown status reported as valid")
	}
}

func TestAttemptStatusTransitions(t *testing.T) {
	if !AttemptInProgress.CanTransitionTo(AttemptSubmitted) {
		t.Error("IN_PROGRESS -> SUBMITTED should be allowed")
	}
	if AttemptSubmitted.CanTransitionTo(AttemptSubmitted) || AttemptSubmitted.CanTransitionTo(AttemptInProgress) {
		t.Error("SUBMITTED must be terminal")
	}
}

func TestExamWindowIsHalfOpen(t *testing.T) {
	start := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	exam := &Exam{StartTime: start, EndTime: start.Add(2 * time.Hour)}

	cases := map[string]struct {
		now  time.Time
		open bool
	}{
		"before start": {start.Add(-time.Second), false},
		"at start":     {start, true},
		"inside":       {start.Add(time.Hour), true},
		"at end":       {start.Add(2 * time.Hour), false},
		"after end":    {start.Add(3 * time.Hour), false},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if got := exam.WindowOpen(c.now); got != c.open {
				t.Errorf("WindowOpen(%v) = %v, want %v", c.now, got, c.open)
			}
		})
	}
}

func TestAttemptResultOnlyWhenSubmitted(t *testing.T) {
	started := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	a := &ExamAttempt{Status: AttemptInProgress, MaxScore: 25, StartedAt: started}

	if _, ok := a.Result(); ok {
		t.Fatal("in-progress attempt must not expose a result")
	}

	a.Complete(AttemptResult{
		TotalScore:  10,
		Percentage:  40,
		SubmittedAt: started.Add(30 * time.Minute),
		TimeSpent:   30,
		EndReason:   EndSubmitted,
	})

	res, ok := a.Result()
	if !ok {
		t.Fatal("submitted attempt should expose a result")
	}
	if res.TotalScore != 10 || res.MaxScore != 25 || res.Percentage != 40 || res.Passed {
		t.Errorf("unexpected result %+v", res)
	}
	if a.Status != AttemptSubmitted {
		t.Errorf("status = %s, want SUBMITTED", a.Status)
	}
}

func TestAttemptExpiredView(t *testing.T) {
	started := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	a := &ExamAttempt{Status: AttemptInProgress, StartedAt: started}
	d := 60 * time.Minute

	if a.Expired(started.Add(59*time.Minute), d) {
		t.Error("attempt expired before its deadline")
	}
	if !a.Expired(started.Add(61*time.Minute), d) {
		t.Error("attempt should be expired after its deadline")
	}

	a.Status = AttemptSubmitted
	if a.Expired(started.Add(5*time.Hour), d) {
		t.Error("submitted attempts are never expired")
	}
}

func TestQuestionOrderHelpers(t *testing.T) {
	qs := []ExamQuestion{
		{BaseModel: BaseModel{ID: 1}, Order: 3, Points: 10},
		{BaseModel: BaseModel{ID: 2}, Order: 1, Points: 15},
	}

	if got := NextQuestionOrder(qs); got != 4 {
		t.Errorf("NextQuestionOrder = %d, want 4", got)
	}
	if got := NextQuestionOrder(nil); got != 1 {
		t.Errorf("NextQuestionOrder(nil) = %d, want 1", got)
	}
	if !OrderTaken(qs, 1, 0) {
		t.Error("order 1 should be taken")
	}
	if OrderTaken(qs, 1, 2) {
		t.Error("a question does not collide with its own order")
	}
	if got := TotalPoints(qs); got != 25 {
		t.Errorf("TotalPoints = %d, want 25", got)
	}

	SortQuestions(qs)
	if qs[0].ID != 2 || qs[1].ID != 1 {
		t.Errorf("questions not sorted by order: %+v", qs)
	}
}

func TestQuestionTypeFlags(t *testing.T) {
	if !QuestionMultipleChoice.AutoGraded() || !QuestionFillIn.AutoGraded() {
		t.Error("objective types must be auto graded")
	}
	if QuestionEssay.AutoGraded() || QuestionSubjective.AutoGraded() {
		t.Error("subjective types must not be auto graded")
	}
	if !QuestionSubjective.Valid() || QuestionType("UPLOAD").Valid() {
		t.Error("question type validity is wrong")
	}
}

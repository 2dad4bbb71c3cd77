package service

import (
	"context"
	"errors"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/util"
	"testing"
	"time"
)

func TestCreateExamPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := ExamCreateRequest{
		Title:           "Midterm",
		ClassID:         classID,
		DurationMinutes: 90,
		AttemptsAllowed: 1,
		StartTime:       baseTime,
		EndTime:         baseTime.Add(24 * time.Hour),
	}

	tests := []struct {
		name    string
		actor   uint
		classID uint
		kind    error
	}{
		{"student", studentID, classID, util.ErrForbidden},
		{"teacher of another class", otherTeacherID, classID, util.ErrForbidden},
		{"unknown user", 999, classID, util.ErrForbidden},
		{"missing class", teacherID, 404, util.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := req
			r.ClassID = tt.classID
			_, err := f.exams.CreateExam(ctx, tt.actor, r)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("err = %v, want %v", err, tt.kind)
			}
		})
	}

	exam, err := f.exams.CreateExam(ctx, adminID, req)
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if exam.Status != model.ExamDraft || exam.TotalMarks != 0 {
		t.Errorf("new exam = %s/%d, want DRAFT/0", exam.Status, exam.TotalMarks)
	}
}

func TestCreateExamValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := ExamCreateRequest{
		Title: "Quiz", ClassID: classID, DurationMinutes: 30, AttemptsAllowed: 2,
		StartTime: baseTime, EndTime: baseTime.Add(time.Hour),
	}

	cases := map[string]func(r *ExamCreateRequest){
		"window reversed":  func(r *ExamCreateRequest) { r.EndTime = r.StartTime },
		"duration too big": func(r *ExamCreateRequest) { r.DurationMinutes = 481 },
		"no attempts":      func(r *ExamCreateRequest) { r.AttemptsAllowed = 0 },
		"too many":         func(r *ExamCreateRequest) { r.AttemptsAllowed = 11 },
		"negative passing": func(r *ExamCreateRequest) { r.PassingMarks = -1 },
		"blank title":      func(r *ExamCreateRequest) { r.Title = "   " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := base
			mutate(&r)
			if _, err := f.exams.CreateExam(ctx, teacherID, r); !errors.Is(err, util.ErrValidation) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}

func TestTotalMarksFollowsQuestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exam := f.draftExam(t, 1)

	total := func() int {
		e, err := f.exams.GetExam(ctx, teacherID, exam.ID)
		if err != nil {
			t.Fatalf("GetExam: %v", err)
		}
		if want := model.TotalPoints(e.Questions); e.TotalMarks != want {
			t.Fatalf("totalMarks = %d, sum(points) = %d", e.TotalMarks, want)
		}
		return e.TotalMarks
	}

	q1, err := f.exams.AddQuestion(ctx, teacherID, exam.ID, QuestionRequest{
		Type: model.QuestionTrueFalse, Question: "The earth is flat", CorrectAnswer: "False", Points: 5,
	})
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if len(q1.Options) != 2 || q1.Order != 1 {
		t.Errorf("true/false defaults: options=%v order=%d", q1.Options, q1.Order)
	}
	q2, err := f.exams.AddQuestion(ctx, teacherID, exam.ID, QuestionRequest{
		Type: model.QuestionFillIn, Question: "H2O is ___", CorrectAnswer: "water", Points: 7,
	})
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if q2.Order != 2 {
		t.Errorf("auto order = %d, want 2", q2.Order)
	}
	if got := total(); got != 12 {
		t.Fatalf("total = %d, want 12", got)
	}

	points := 20
	if _, err := f.exams.UpdateQuestion(ctx, teacherID, exam.ID, q2.ID, QuestionUpdateRequest{Points: &points}); err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	if got := total(); got != 25 {
		t.Fatalf("total after update = %d, want 25", got)
	}

	if err := f.exams.RemoveQuestion(ctx, teacherID, exam.ID, q1.ID); err != nil {
		t.Fatalf("RemoveQuestion: %v", err)
	}
	if got := total(); got != 20 {
		t.Fatalf("total after remove = %d, want 20", got)
	}
}

func TestQuestionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exam := f.draftExam(t, 1)

	bad := map[string]QuestionRequest{
		"answer not an option": {Type: model.QuestionMultipleChoice, Question: "q", Options: []string{"A", "B"}, CorrectAnswer: "C", Points: 1},
		"single option":        {Type: model.QuestionMultipleChoice, Question: "q", Options: []string{"A"}, CorrectAnswer: "A", Points: 1},
		"duplicate options":    {Type: model.QuestionMultipleChoice, Question: "q", Options: []string{"A", "A"}, CorrectAnswer: "A", Points: 1},
		"missing answer":       {Type: model.QuestionShortAnswer, Question: "q", Points: 1},
		"zero points":          {Type: model.QuestionFillIn, Question: "q", CorrectAnswer: "x", Points: 0},
		"unknown type":         {Type: "DRAWING", Question: "q", CorrectAnswer: "x", Points: 1},
		"empty text":           {Type: model.QuestionFillIn, Question: " ", CorrectAnswer: "x", Points: 1},
	}
	for name, req := range bad {
		t.Run(name, func(t *testing.T) {
			if _, err := f.exams.AddQuestion(ctx, teacherID, exam.ID, req); !errors.Is(err, util.ErrValidation) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}

	essay, err := f.exams.AddQuestion(ctx, teacherID, exam.ID, QuestionRequest{
		Type: model.QuestionEssay, Question: "Discuss", Options: []string{"ignored"}, Points: 10, Order: 5,
	})
	if err != nil {
		t.Fatalf("essay: %v", err)
	}
	if essay.Options != nil {
		t.Errorf("essay options = %v, want nil", essay.Options)
	}

	_, err = f.exams.AddQuestion(ctx, teacherID, exam.ID, QuestionRequest{
		Type: model.QuestionFillIn, Question: "dup", CorrectAnswer: "x", Points: 1, Order: 5,
	})
	if !errors.Is(err, util.ErrValidation) {
		t.Fatalf("duplicate order: err = %v, want validation error", err)
	}
}

func TestPublishExam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exam := f.draftExam(t, 1)

	if _, err := f.exams.PublishExam(ctx, teacherID, exam.ID); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("publish without questions: err = %v, want validation error", err)
	}

	if _, err := f.exams.AddQuestion(ctx, teacherID, exam.ID, QuestionRequest{
		Type: model.QuestionFillIn, Question: "q", CorrectAnswer: "x", Points: 10,
	}); err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if _, err := f.exams.PublishExam(ctx, teacherID, exam.ID); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("passing 15 > total 10: err = %v, want validation error", err)
	}

	passing := 5
	if _, err := f.exams.UpdateExam(ctx, teacherID, exam.ID, ExamUpdateRequest{PassingMarks: &passing}); err != nil {
		t.Fatalf("UpdateExam: %v", err)
	}
	if _, err := f.exams.PublishExam(ctx, otherTeacherID, exam.ID); !errors.Is(err, util.ErrForbidden) {
		t.Fatalf("other teacher: err = %v, want forbidden", err)
	}

	published, err := f.exams.PublishExam(ctx, teacherID, exam.ID)
	if err != nil {
		t.Fatalf("PublishExam: %v", err)
	}
	if published.Status != model.ExamPublished || published.PublishedAt == nil || published.TotalMarks != 10 {
		t.Errorf("published exam = %+v", published)
	}

	if _, err := f.exams.PublishExam(ctx, teacherID, exam.ID); !errors.Is(err, util.ErrInvalidState) {
		t.Fatalf("second publish: err = %v, want invalid state", err)
	}
	_, err = f.exams.AddQuestion(ctx, teacherID, exam.ID, QuestionRequest{
		Type: model.QuestionFillIn, Question: "late", CorrectAnswer: "x", Points: 1,
	})
	if !errors.Is(err, util.ErrInvalidState) {
		t.Fatalf("add after publish: err = %v, want invalid state", err)
	}
	title := "renamed"
	if _, err := f.exams.UpdateExam(ctx, teacherID, exam.ID, ExamUpdateRequest{Title: &title}); !errors.Is(err, util.ErrInvalidState) {
		t.Fatalf("update after publish: err = %v, want invalid state", err)
	}
}

func TestCancelExamIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exam, _ := f.publishedExam(t, 1)

	cancelled, err := f.exams.CancelExam(ctx, adminID, exam.ID)
	if err != nil {
		t.Fatalf("CancelExam: %v", err)
	}
	if cancelled.Status != model.ExamCancelled || cancelled.CancelledAt == nil {
		t.Errorf("cancelled exam = %+v", cancelled)
	}
	if _, err := f.exams.CancelExam(ctx, teacherID, exam.ID); !errors.Is(err, util.ErrInvalidState) {
		t.Fatalf("second cancel: err = %v, want invalid state", err)
	}
	if _, err := f.exams.PublishExam(ctx, teacherID, exam.ID); !errors.Is(err, util.ErrInvalidState) {
		t.Fatalf("publish cancelled: err = %v, want invalid state", err)
	}
}

func TestDeleteExam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := f.draftExam(t, 1)
	outcome, err := f.exams.DeleteExam(ctx, teacherID, draft.ID)
	if err != nil || outcome != OutcomeDeleted {
		t.Fatalf("delete draft = %v, %v", outcome, err)
	}
	if _, err := f.exams.GetExam(ctx, teacherID, draft.ID); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("deleted exam still readable: %v", err)
	}

	exam, _ := f.publishedExam(t, 1)
	if _, err := f.attempts.StartExam(ctx, exam.ID, studentID); err != nil {
		t.Fatalf("StartExam: %v", err)
	}
	outcome, err = f.exams.DeleteExam(ctx, teacherID, exam.ID)
	if err != nil || outcome != OutcomeCancelled {
		t.Fatalf("delete with attempts = %v, %v", outcome, err)
	}
	kept, err := f.exams.GetExam(ctx, teacherID, exam.ID)
	if err != nil {
		t.Fatalf("GetExam: %v", err)
	}
	if kept.Status != model.ExamCancelled {
		t.Errorf("status = %s, want CANCELLED", kept.Status)
	}
}

func TestListExams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publishedExam(t, 1)
	f.draftExam(t, 1)

	items, total, err := f.exams.ListExams(ctx, teacherID, ExamListQuery{})
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("teacher sees %d/%d exams, want 2", len(items), total)
	}

	_, total, err = f.exams.ListExams(ctx, teacherID, ExamListQuery{Status: model.ExamPublished})
	if err != nil || total != 1 {
		t.Fatalf("published filter: total=%d err=%v", total, err)
	}

	_, total, err = f.exams.ListExams(ctx, otherTeacherID, ExamListQuery{})
	if err != nil || total != 0 {
		t.Fatalf("other teacher: total=%d err=%v", total, err)
	}
	if _, _, err := f.exams.ListExams(ctx, otherTeacherID, ExamListQuery{ClassID: classID}); !errors.Is(err, util.ErrForbidden) {
		t.Fatalf("foreign class filter: err = %v, want forbidden", err)
	}
	if _, _, err := f.exams.ListExams(ctx, studentID, ExamListQuery{}); !errors.Is(err, util.ErrForbidden) {
		t.Fatalf("student: err = %v, want forbidden", err)
	}

	_, total, err = f.exams.ListExams(ctx, adminID, ExamListQuery{})
	if err != nil || total != 2 {
		t.Fatalf("admin: total=%d err=%v", total, err)
	}
}

func TestListStudentExams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exam, _ := f.publishedExam(t, 1)
	f.draftExam(t, 1)

	items, err := f.exams.ListStudentExams(ctx, studentID)
	if err != nil {
		t.Fatalf("ListStudentExams: %v", err)
	}
	if len(items) != 1 || items[0].ID != exam.ID || !items[0].Available {
		t.Fatalf("items = %+v", items)
	}

	if _, err := f.attempts.StartExam(ctx, exam.ID, studentID); err != nil {
		t.Fatalf("StartExam: %v", err)
	}
	items, _ = f.exams.ListStudentExams(ctx, studentID)
	if items[0].AttemptsUsed != 1 || items[0].Available {
		t.Errorf("after start: used=%d available=%v", items[0].AttemptsUsed, items[0].Available)
	}

	items, _ = f.exams.ListStudentExams(ctx, otherStudentID)
	if len(items) != 0 {
		t.Errorf("unenrolled student sees %d exams", len(items))
	}
}

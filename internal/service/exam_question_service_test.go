package service

import (
	"context"
	"errors"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/util"
	"strings"
	"testing"
)

func fillIn(text string, points, order int) QuestionRequest {
	return QuestionRequest{Type: model.QuestionFillIn, Question: text, CorrectAnswer: "x", Points: points, Order: order}
}

// questionState 当前题目 id -> order，同时校验总分
func (f *fixture) questionState(t *testing.T, examID uint) (map[uint]int, int) {
	t.Helper()
	e, err := f.exams.GetExam(context.Background(), teacherID, examID)
	if err != nil {
		t.Fatalf("GetExam: %v", err)
	}
	if want := model.TotalPoints(e.Questions); e.TotalMarks != want {
		t.Fatalf("totalMarks = %d, sum(points) = %d", e.TotalMarks, want)
	}
	orders := make(map[uint]int, len(e.Questions))
	for _, q := range e.Questions {
		orders[q.ID] = q.Order
	}
	return orders, e.TotalMarks
}

func TestBulkAddQuestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exam := f.draftExam(t, 1)
	if _, err := f.exams.AddQuestion(ctx, teacherID, exam.ID, fillIn("first", 5, 0)); err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}

	added, err := f.exams.BulkAddQuestions(ctx, teacherID, exam.ID, []QuestionRequest{
		fillIn("auto a", 3, 0),
		fillIn("pinned", 4, 5),
		fillIn("auto b", 6, 0),
	})
	if err != nil {
		t.Fatalf("BulkAddQuestions: %v", err)
	}
	gotOrders := []int{added[0].Order, added[1].Order, added[2].Order}
	if gotOrders[0] != 6 || gotOrders[1] != 5 || gotOrders[2] != 7 {
		t.Fatalf("orders = %v, want [6 5 7]", gotOrders)
	}
	for _, q := range added {
		if q.ID == 0 || q.ExamID != exam.ID {
			t.Fatalf("question not persisted: %+v", q)
		}
	}

	orders, total := f.questionState(t, exam.ID)
	if len(orders) != 4 || total != 18 {
		t.Fatalf("questions = %d total = %d, want 4 and 18", len(orders), total)
	}
}

func TestBulkAddQuestionsIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exam := f.draftExam(t, 1)
	if _, err := f.exams.AddQuestion(ctx, teacherID, exam.ID, fillIn("first", 5, 0)); err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}

	cases := []struct {
		name  string
		reqs  []QuestionRequest
		match string
	}{
		{"order used by existing question", []QuestionRequest{fillIn("ok", 2, 0), fillIn("clash", 2, 1)}, "order 1"},
		{"same order twice in request", []QuestionRequest{fillIn("a", 2, 3), fillIn("b", 2, 3)}, "both use order 3"},
		{"invalid item", []QuestionRequest{fillIn("ok", 2, 0), fillIn("", 2, 0)}, "questions[1]"},
		{"empty", nil, "must not be empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.exams.BulkAddQuestions(ctx, teacherID, exam.ID, tc.reqs)
			if !errors.Is(err, util.ErrValidation) || !strings.Contains(err.Error(), tc.match) {
				t.Fatalf("err = %v, want validation error mentioning %q", err, tc.match)
			}
			orders, total := f.questionState(t, exam.ID)
			if len(orders) != 1 || total != 5 {
				t.Fatalf("after failed bulk: questions = %d total = %d", len(orders), total)
			}
		})
	}
}

func TestBulkAddQuestionsPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	published, _ := f.publishedExam(t, 1)
	draft := f.draftExam(t, 1)

	if _, err := f.exams.BulkAddQuestions(ctx, teacherID, published.ID, []QuestionRequest{fillIn("late", 1, 0)}); !errors.Is(err, util.ErrExamNotDraft) {
		t.Errorf("published exam: err = %v, want ErrExamNotDraft", err)
	}
	if _, err := f.exams.BulkAddQuestions(ctx, otherTeacherID, draft.ID, []QuestionRequest{fillIn("x", 1, 0)}); !errors.Is(err, util.ErrForbidden) {
		t.Errorf("other teacher: err = %v, want forbidden", err)
	}
	if _, err := f.exams.BulkAddQuestions(ctx, teacherID, 9999, []QuestionRequest{fillIn("x", 1, 0)}); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("missing exam: err = %v, want not found", err)
	}
}

func TestReorderQuestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exam := f.draftExam(t, 1)
	qs, err := f.exams.BulkAddQuestions(ctx, teacherID, exam.ID, []QuestionRequest{
		fillIn("one", 1, 0), fillIn("two", 2, 0), fillIn("three", 3, 0),
	})
	if err != nil {
		t.Fatalf("BulkAddQuestions: %v", err)
	}
	q1, q2, q3 := qs[0].ID, qs[1].ID, qs[2].ID

	// 互换前两题，并把第三题挪到 10
	reordered, err := f.exams.ReorderQuestions(ctx, teacherID, exam.ID, []QuestionOrder{
		{QuestionID: q1, NewOrder: 2},
		{QuestionID: q2, NewOrder: 1},
		{QuestionID: q3, NewOrder: 10},
	})
	if err != nil {
		t.Fatalf("ReorderQuestions: %v", err)
	}
	if reordered[0].ID != q2 || reordered[1].ID != q1 || reordered[2].ID != q3 {
		t.Fatalf("returned order = %d,%d,%d", reordered[0].ID, reordered[1].ID, reordered[2].ID)
	}

	orders, total := f.questionState(t, exam.ID)
	if orders[q1] != 2 || orders[q2] != 1 || orders[q3] != 10 || total != 6 {
		t.Fatalf("orders = %v total = %d", orders, total)
	}
}

func TestReorderQuestionsRejectsConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exam := f.draftExam(t, 1)
	qs, err := f.exams.BulkAddQuestions(ctx, teacherID, exam.ID, []QuestionRequest{
		fillIn("one", 10, 0), fillIn("two", 10, 0),
	})
	if err != nil {
		t.Fatalf("BulkAddQuestions: %v", err)
	}
	q1, q2 := qs[0].ID, qs[1].ID

	cases := []struct {
		name   string
		orders []QuestionOrder
		kind   error
	}{
		{"collides with unlisted question", []QuestionOrder{{QuestionID: q1, NewOrder: 2}}, util.ErrValidation},
		{"two questions same order", []QuestionOrder{{QuestionID: q1, NewOrder: 5}, {QuestionID: q2, NewOrder: 5}}, util.ErrValidation},
		{"question listed twice", []QuestionOrder{{QuestionID: q1, NewOrder: 3}, {QuestionID: q1, NewOrder: 4}}, util.ErrValidation},
		{"non-positive order", []QuestionOrder{{QuestionID: q1, NewOrder: 0}}, util.ErrValidation},
		{"question from nowhere", []QuestionOrder{{QuestionID: 9999, NewOrder: 7}}, util.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.exams.ReorderQuestions(ctx, teacherID, exam.ID, tc.orders); !errors.Is(err, tc.kind) {
				t.Fatalf("err = %v, want %v", err, tc.kind)
			}
			orders, _ := f.questionState(t, exam.ID)
			if orders[q1] != 1 || orders[q2] != 2 {
				t.Fatalf("orders changed after rejected reorder: %v", orders)
			}
		})
	}

	if _, err := f.exams.PublishExam(ctx, teacherID, exam.ID); err != nil {
		t.Fatalf("PublishExam: %v", err)
	}
	if _, err := f.exams.ReorderQuestions(ctx, teacherID, exam.ID, []QuestionOrder{{QuestionID: q1, NewOrder: 3}}); !errors.Is(err, util.ErrExamNotDraft) {
		t.Fatalf("published exam: err = %v, want ErrExamNotDraft", err)
	}
}

package service

import (
	"context"
	"exam_engine_backend/internal/config"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/repository/memory"
	"testing"
	"time"
)

const (
	teacherID      uint = 1
	otherTeacherID uint = 2
	adminID        uint = 3
	studentID      uint = 10
	otherStudentID uint = 11
	classID        uint = 100
	otherClassID   uint = 200
)

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	dir      *memory.Directory
	clock    *memory.ManualClock
	cache    *memory.ResultsCache
	exams    *ExamService
	attempts *AttemptService
	results  *ResultsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := memory.NewDirectory()
	dir.AddUser(teacherID, model.Teacher)
	dir.AddUser(otherTeacherID, model.Teacher)
	dir.AddUser(adminID, model.Admin)
	dir.AddUser(studentID, model.Student)
	dir.AddUser(otherStudentID, model.Student)
	dir.AddClass(classID, teacherID)
	dir.AddClass(otherClassID, otherTeacherID)
	dir.Enroll(classID, studentID)

	store := memory.NewStore()
	clock := memory.NewManualClock(baseTime)
	cache := memory.NewResultsCache()
	cfg := config.DefaultExamConfig()

	return &fixture{
		store: store,
		dir:   dir,
		clock: clock,
		cache: cache,
		exams: NewExamService(store.Exams(), store.Attempts(), dir, dir, dir, clock),
		attempts: NewAttemptService(store.Exams(), store.Attempts(), dir, dir, dir, clock,
			memory.NewLocker(), cache, cfg),
		results: NewResultsService(store.Exams(), store.Attempts(), dir, dir, cache, clock, cfg),
	}
}

func (f *fixture) draftExam(t *testing.T, attemptsAllowed int) *model.Exam {
	t.Helper()
	exam, err := f.exams.CreateExam(context.Background(), teacherID, ExamCreateRequest{
		Title:           "Unit 3 quiz",
		ClassID:         classID,
		DurationMinutes: 60,
		PassingMarks:    15,
		AttemptsAllowed: attemptsAllowed,
		StartTime:       baseTime.Add(-time.Hour),
		EndTime:         baseTime.Add(3 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	return exam
}

// publishedExam 两道题：10 分答案 A，15 分答案 B，及格 15 分
func (f *fixture) publishedExam(t *testing.T, attemptsAllowed int) (*model.Exam, []model.ExamQuestion) {
	t.Helper()
	ctx := context.Background()
	exam := f.draftExam(t, attemptsAllowed)

	q1, err := f.exams.AddQuestion(ctx, teacherID, exam.ID, QuestionRequest{
		Type: model.QuestionMultipleChoice, Question: "2 + 2 = ?",
		Options: []string{"A", "B", "C"}, CorrectAnswer: "A", Points: 10,
	})
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	q2, err := f.exams.AddQuestion(ctx, teacherID, exam.ID, QuestionRequest{
		Type: model.QuestionMultipleChoice, Question: "Capital of France?",
		Options: []string{"A", "B", "C"}, CorrectAnswer: "B", Points: 15,
	})
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}

	published, err := f.exams.PublishExam(ctx, teacherID, exam.ID)
	if err != nil {
		t.Fatalf("PublishExam: %v", err)
	}
	return published, []model.ExamQuestion{*q1, *q2}
}

func answersFor(qs []model.ExamQuestion, selected ...string) []AnswerInput {
	answers := make([]AnswerInput, 0, len(selected))
	for i, s := range selected {
		answers = append(answers, AnswerInput{QuestionID: qs[i].ID, SelectedAnswer: s, TimeSpent: 1})
	}
	return answers
}

package service

import (
	"context"
	"errors"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/repository"
	"exam_engine_backend/internal/util"
	"sync"
	"testing"
)

func submitted(score int, passed bool) model.ExamAttempt {
	a := model.ExamAttempt{Status: model.AttemptInProgress, MaxScore: 25}
	a.Complete(model.AttemptResult{TotalScore: score, MaxScore: 25, Passed: passed, SubmittedAt: baseTime})
	return a
}

func TestAggregateResults(t *testing.T) {
	stats := AggregateResults([]model.ExamAttempt{
		submitted(10, false),
		submitted(25, true),
		submitted(20, true),
		{Status: model.AttemptInProgress},
	})
	want := model.ExamStatistics{Count: 3, MeanScore: 18.33, PassRate: 66.67, MinScore: 10, MaxScore: 25}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}

	if got := AggregateResults(nil); got != (model.ExamStatistics{}) {
		t.Fatalf("empty stats = %+v, want zeros", got)
	}
}

func TestExamResultsWithoutAttempts(t *testing.T) {
	f := newFixture(t)
	exam, _ := f.publishedExam(t, 1)

	res, err := f.results.ExamResults(context.Background(), exam.ID, teacherID)
	if err != nil {
		t.Fatalf("ExamResults: %v", err)
	}
	if res.Statistics.Count != 0 || res.Statistics.MeanScore != 0 || res.Statistics.PassRate != 0 {
		t.Fatalf("stats = %+v, want zeros", res.Statistics)
	}
	if len(res.Attempts) != 0 {
		t.Errorf("attempts = %d, want 0", len(res.Attempts))
	}
}

func TestExamResultsOnlyCountSubmitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.dir.Enroll(classID, otherStudentID)
	exam, qs := f.publishedExam(t, 1)

	a, _ := f.attempts.StartExam(ctx, exam.ID, studentID)
	if _, err := f.attempts.SubmitExam(ctx, a.Attempt.ID, studentID, answersFor(qs, "A", "C"), 5); err != nil {
		t.Fatalf("SubmitExam: %v", err)
	}
	if _, err := f.attempts.StartExam(ctx, exam.ID, otherStudentID); err != nil {
		t.Fatalf("StartExam: %v", err)
	}

	res, err := f.results.ExamResults(ctx, exam.ID, adminID)
	if err != nil {
		t.Fatalf("ExamResults: %v", err)
	}
	if len(res.Attempts) != 1 || len(res.Attempts[0].Answers) != 2 {
		t.Fatalf("attempts = %+v", res.Attempts)
	}
	want := model.ExamStatistics{Count: 1, MeanScore: 10, PassRate: 0, MinScore: 10, MaxScore: 10}
	if res.Statistics != want {
		t.Errorf("stats = %+v, want %+v", res.Statistics, want)
	}

	all, err := f.results.ListExamAttempts(ctx, exam.ID, teacherID)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListExamAttempts = %d, %v", len(all), err)
	}

	if _, err := f.results.ExamResults(ctx, exam.ID, otherTeacherID); !errors.Is(err, util.ErrForbidden) {
		t.Fatalf("other teacher: err = %v, want forbidden", err)
	}
	if _, err := f.results.ExamResults(ctx, exam.ID, studentID); !errors.Is(err, util.ErrForbidden) {
		t.Fatalf("student: err = %v, want forbidden", err)
	}
	if _, err := f.results.ExamResults(ctx, 9999, teacherID); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("missing exam: err = %v, want not found", err)
	}
}

func TestStatisticsCacheInvalidatedOnSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exam, qs := f.publishedExam(t, 2)

	stats, err := f.results.ExamStatistics(ctx, exam.ID, teacherID)
	if err != nil || stats.Count != 0 {
		t.Fatalf("initial stats = %+v, %v", stats, err)
	}
	if _, err := f.results.ExamStatistics(ctx, exam.ID, teacherID); err != nil {
		t.Fatal(err)
	}
	if f.cache.Hits != 1 {
		t.Fatalf("cache hits = %d, want 1", f.cache.Hits)
	}

	a, _ := f.attempts.StartExam(ctx, exam.ID, studentID)
	if _, err := f.attempts.SubmitExam(ctx, a.Attempt.ID, studentID, answersFor(qs, "A", "B"), 5); err != nil {
		t.Fatalf("SubmitExam: %v", err)
	}
	if f.cache.Invalidations != 1 {
		t.Fatalf("invalidations = %d, want 1", f.cache.Invalidations)
	}

	stats, err = f.results.ExamStatistics(ctx, exam.ID, teacherID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Count != 1 || stats.MeanScore != 25 || stats.PassRate != 100 {
		t.Errorf("stats after submit = %+v", stats)
	}
}

// submitDuringList 列表读完后、统计写缓存前插入一次交卷
type submitDuringList struct {
	repository.AttemptStore
	once  sync.Once
	after func()
}

func (s *submitDuringList) ListByExam(ctx context.Context, examID uint, status model.AttemptStatus, withAnswers bool) ([]model.ExamAttempt, error) {
	attempts, err := s.AttemptStore.ListByExam(ctx, examID, status, withAnswers)
	s.once.Do(s.after)
	return attempts, err
}

func TestStatisticsNotCachedAcrossConcurrentSubmit(t *testing.T) {
	for _, name := range []string{"statistics", "results"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			exam, qs := f.publishedExam(t, 1)
			a, _ := f.attempts.StartExam(ctx, exam.ID, studentID)

			f.results.Attempts = &submitDuringList{
				AttemptStore: f.store.Attempts(),
				after: func() {
					if _, err := f.attempts.SubmitExam(ctx, a.Attempt.ID, studentID, answersFor(qs, "A", "B"), 5); err != nil {
						t.Errorf("SubmitExam: %v", err)
					}
				},
			}

			var err error
			if name == "statistics" {
				_, err = f.results.ExamStatistics(ctx, exam.ID, teacherID)
			} else {
				_, err = f.results.ExamResults(ctx, exam.ID, teacherID)
			}
			if err != nil {
				t.Fatal(err)
			}

			stats, err := f.results.ExamStatistics(ctx, exam.ID, teacherID)
			if err != nil {
				t.Fatal(err)
			}
			if stats.Count != 1 || stats.MeanScore != 25 {
				t.Fatalf("stats after concurrent submit = %+v, want the submitted attempt", stats)
			}
		})
	}
}

// ctxCheckingCache 记录失效时上下文是否已取消
type ctxCheckingCache struct {
	ResultsCache
	cancelled bool
}

func (c *ctxCheckingCache) Invalidate(ctx context.Context, examID uint) error {
	if ctx.Err() != nil {
		c.cancelled = true
		return ctx.Err()
	}
	return c.ResultsCache.Invalidate(ctx, examID)
}

// cancelAfterFinalize 事务提交后客户端断开
type cancelAfterFinalize struct {
	repository.AttemptStore
	cancel context.CancelFunc
}

func (s cancelAfterFinalize) Finalize(ctx context.Context, id uint, fn repository.FinalizeFunc) (*model.ExamAttempt, error) {
	a, err := s.AttemptStore.Finalize(ctx, id, fn)
	s.cancel()
	return a, err
}

func TestInvalidateSurvivesClientDisconnect(t *testing.T) {
	f := newFixture(t)
	exam, qs := f.publishedExam(t, 1)
	a, _ := f.attempts.StartExam(context.Background(), exam.ID, studentID)

	if _, err := f.results.ExamStatistics(context.Background(), exam.ID, teacherID); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cache := &ctxCheckingCache{ResultsCache: f.cache}
	f.attempts.Cache = cache
	f.attempts.Attempts = cancelAfterFinalize{AttemptStore: f.store.Attempts(), cancel: cancel}

	if _, err := f.attempts.SubmitExam(ctx, a.Attempt.ID, studentID, answersFor(qs, "A", "B"), 5); err != nil {
		t.Fatalf("SubmitExam: %v", err)
	}
	if cache.cancelled {
		t.Fatal("invalidate ran on the cancelled request context")
	}

	stats, _ := f.results.ExamStatistics(context.Background(), exam.ID, teacherID)
	if stats.Count != 1 {
		t.Fatalf("stats = %+v, want 1 submitted attempt", stats)
	}
}

// Package memory 提供考试存储的内存实现，语义与 MySQL 仓储保持一致（行锁、唯一约束、事务回滚），
// 供 service 和 controller 的测试使用，线上只走 MySQL。
package memory

import (
	"context"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/repository"
	"exam_engine_backend/internal/util"
	"sort"
	"sync"
	"time"
)

// Store 共享底层数据，所有操作串行执行
type Store struct {
	mu        sync.Mutex
	nextID    uint
	exams     map[uint]model.Exam
	questions map[uint]model.ExamQuestion
	attempts  map[uint]model.ExamAttempt
	answers   map[uint][]model.ExamAnswer
}

func NewStore() *Store {
	return &Store{
		exams:     make(map[uint]model.Exam),
		questions: make(map[uint]model.ExamQuestion),
		attempts:  make(map[uint]model.ExamAttempt),
		answers:   make(map[uint][]model.ExamAnswer),
	}
}

func (s *Store) Exams() *ExamStore {
	return &ExamStore{s: s}
}

func (s *Store) Attempts() *AttemptStore {
	return &AttemptStore{s: s}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// AnswerCount 某次尝试已落库的答案数
func (s *Store) AnswerCount(attemptID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers[attemptID])
}

// AttemptCount 某学生某考试的尝试数
func (s *Store) AttemptCount(examID, studentID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.attempts {
		if a.ExamID == examID && a.StudentID == studentID {
			n++
		}
	}
	return n
}

func (s *Store) questionsOf(examID uint) []model.ExamQuestion {
	var qs []model.ExamQuestion
	for _, q := range s.questions {
		if q.ExamID == examID {
			qs = append(qs, q)
		}
	}
	model.SortQuestions(qs)
	return qs
}

func (s *Store) attemptWithAnswers(a model.ExamAttempt, withAnswers bool) model.ExamAttempt {
	a.Answers = nil
	if withAnswers {
		a.Answers = append([]model.ExamAnswer(nil), s.answers[a.ID]...)
	}
	return a
}

// ExamStore 实现 repository.ExamStore
type ExamStore struct {
	s *Store
}

var _ repository.ExamStore = (*ExamStore)(nil)

func (e *ExamStore) Create(_ context.Context, exam *model.Exam) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	now := time.Now()
	exam.ID = e.s.id()
	exam.CreatedAt, exam.UpdatedAt = now, now
	stored := *exam
	stored.Questions = nil
	e.s.exams[exam.ID] = stored
	return nil
}

func (e *ExamStore) FindByID(_ context.Context, id uint) (*model.Exam, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	exam, ok := e.s.exams[id]
	if !ok {
		return nil, util.ErrExamNotFound
	}
	return &exam, nil
}

func (e *ExamStore) ListQuestions(_ context.Context, examID uint) ([]model.ExamQuestion, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	return e.s.questionsOf(examID), nil
}

func (e *ExamStore) List(_ context.Context, filter repository.ExamFilter) ([]model.Exam, int64, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	allowed := make(map[uint]bool, len(filter.ClassIDs))
	for _, id := range filter.ClassIDs {
		allowed[id] = true
	}

	var matched []model.Exam
	for _, exam := range e.s.exams {
		if filter.ClassIDs != nil && !allowed[exam.ClassID] {
			continue
		}
		if filter.Status != "" && exam.Status != filter.Status {
			continue
		}
		matched = append(matched, exam)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	page, limit := repository.Pagination(filter.Page, filter.Limit)
	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return []model.Exam{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (e *ExamStore) ListPublishedByClasses(_ context.Context, classIDs []uint) ([]model.Exam, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	allowed := make(map[uint]bool, len(classIDs))
	for _, id := range classIDs {
		allowed[id] = true
	}
	exams := []model.Exam{}
	for _, exam := range e.s.exams {
		if allowed[exam.ClassID] && exam.Status == model.ExamPublished {
			exams = append(exams, exam)
		}
	}
	sort.Slice(exams, func(i, j int) bool {
		if exams[i].StartTime.Equal(exams[j].StartTime) {
			return exams[i].ID < exams[j].ID
		}
		return exams[i].StartTime.Before(exams[j].StartTime)
	})
	return exams, nil
}

func (e *ExamStore) QuestionCounts(_ context.Context, examIDs []uint) (map[uint]int64, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	counts := make(map[uint]int64, len(examIDs))
	for _, id := range examIDs {
		counts[id] = int64(len(e.s.questionsOf(id)))
	}
	return counts, nil
}

func (e *ExamStore) WithLockedExam(_ context.Context, examID uint, fn func(tx repository.ExamTx, exam *model.Exam) error) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	exam, ok := e.s.exams[examID]
	if !ok {
		return util.ErrExamNotFound
	}

	tx := &examTx{s: e.s, examID: examID, questions: make(map[uint]model.ExamQuestion)}
	for _, q := range e.s.questionsOf(examID) {
		tx.questions[q.ID] = q
	}

	if err := fn(tx, &exam); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// examTx 暂存事务内的修改，fn 成功后才写回
type examTx struct {
	s         *Store
	examID    uint
	questions map[uint]model.ExamQuestion
	saved     *model.Exam
	deleted   bool
}

func (t *examTx) Questions() ([]model.ExamQuestion, error) {
	qs := make([]model.ExamQuestion, 0, len(t.questions))
	for _, q := range t.questions {
		qs = append(qs, q)
	}
	model.SortQuestions(qs)
	return qs, nil
}

func (t *examTx) orderUsed(order int, exceptID uint) bool {
	for id, q := range t.questions {
		if q.Order == order && id != exceptID {
			return true
		}
	}
	return false
}

func (t *examTx) CreateQuestion(q *model.ExamQuestion) error {
	if t.orderUsed(q.Order, 0) {
		return util.ValidationError("question order %d is already used", q.Order)
	}
	now := time.Now()
	q.ID = t.s.id()
	q.ExamID = t.examID
	q.CreatedAt, q.UpdatedAt = now, now
	t.questions[q.ID] = *q
	return nil
}

func (t *examTx) SaveQuestion(q *model.ExamQuestion) error {
	if _, ok := t.questions[q.ID]; !ok {
		return util.ErrQuestionNotFound
	}
	if t.orderUsed(q.Order, q.ID) {
		return util.ValidationError("question order %d is already used", q.Order)
	}
	q.UpdatedAt = time.Now()
	t.questions[q.ID] = *q
	return nil
}

func (t *examTx) DeleteQuestion(questionID uint) error {
	if _, ok := t.questions[questionID]; !ok {
		return util.ErrQuestionNotFound
	}
	delete(t.questions, questionID)
	return nil
}

func (t *examTx) SetQuestionOrders(orders map[uint]int) error {
	next := make(map[uint]model.ExamQuestion, len(t.questions))
	for id, q := range t.questions {
		next[id] = q
	}
	for id, order := range orders {
		q, ok := next[id]
		if !ok {
			return util.ErrQuestionNotFound
		}
		q.Order = order
		q.UpdatedAt = time.Now()
		next[id] = q
	}

	used := make(map[int]bool, len(next))
	for _, q := range next {
		if used[q.Order] {
			return util.ValidationError("question order %d is already used", q.Order)
		}
		used[q.Order] = true
	}
	t.questions = next
	return nil
}

func (t *examTx) SaveExam(exam *model.Exam) error {
	cp := *exam
	cp.Questions = nil
	cp.UpdatedAt = time.Now()
	t.saved = &cp
	return nil
}

func (t *examTx) DeleteExam(examID uint) error {
	if examID != t.examID {
		return util.ErrExamNotFound
	}
	t.deleted = true
	return nil
}

func (t *examTx) CountAttempts(examID uint) (int64, error) {
	var n int64
	for _, a := range t.s.attempts {
		if a.ExamID == examID {
			n++
		}
	}
	return n, nil
}

func (t *examTx) commit() {
	for id, q := range t.s.questions {
		if q.ExamID == t.examID {
			delete(t.s.questions, id)
		}
	}
	if t.deleted {
		delete(t.s.exams, t.examID)
		return
	}
	for id, q := range t.questions {
		t.s.questions[id] = q
	}
	if t.saved != nil {
		t.s.exams[t.examID] = *t.saved
	}
}

// AttemptStore 实现 repository.AttemptStore
type AttemptStore struct {
	s *Store
}

var _ repository.AttemptStore = (*AttemptStore)(nil)

func (a *AttemptStore) Create(_ context.Context, attempt *model.ExamAttempt) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	// 模拟 (exam_id, student_id, attempt_number) 唯一索引
	for _, existing := range a.s.attempts {
		if existing.ExamID == attempt.ExamID &&
			existing.StudentID == attempt.StudentID &&
			existing.AttemptNumber == attempt.AttemptNumber {
			return util.ErrAttemptConflict
		}
	}

	now := time.Now()
	attempt.ID = a.s.id()
	attempt.CreatedAt, attempt.UpdatedAt = now, now
	stored := *attempt
	stored.Answers = nil
	a.s.attempts[attempt.ID] = stored
	return nil
}

func (a *AttemptStore) FindByID(_ context.Context, id uint, withAnswers bool) (*model.ExamAttempt, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	attempt, ok := a.s.attempts[id]
	if !ok {
		return nil, util.ErrAttemptNotFound
	}
	attempt = a.s.attemptWithAnswers(attempt, withAnswers)
	return &attempt, nil
}

func (a *AttemptStore) ListByExamAndStudent(_ context.Context, examID, studentID uint) ([]model.ExamAttempt, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	var attempts []model.ExamAttempt
	for _, attempt := range a.s.attempts {
		if attempt.ExamID == examID && attempt.StudentID == studentID {
			attempts = append(attempts, attempt)
		}
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].AttemptNumber < attempts[j].AttemptNumber })
	return attempts, nil
}

func (a *AttemptStore) ListByExam(_ context.Context, examID uint, status model.AttemptStatus, withAnswers bool) ([]model.ExamAttempt, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	attempts := []model.ExamAttempt{}
	for _, attempt := range a.s.attempts {
		if attempt.ExamID != examID || (status != "" && attempt.Status != status) {
			continue
		}
		attempts = append(attempts, a.s.attemptWithAnswers(attempt, withAnswers))
	}
	sort.Slice(attempts, func(i, j int) bool {
		ti, tj := attempts[i].StartedAt, attempts[j].StartedAt
		if status == model.AttemptSubmitted && attempts[i].SubmittedAt != nil && attempts[j].SubmittedAt != nil {
			ti, tj = *attempts[i].SubmittedAt, *attempts[j].SubmittedAt
		}
		if ti.Equal(tj) {
			return attempts[i].ID > attempts[j].ID
		}
		return ti.After(tj)
	})
	return attempts, nil
}

func (a *AttemptStore) ListOverdue(_ context.Context, cutoff time.Time, limit int) ([]model.ExamAttempt, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	var overdue []model.ExamAttempt
	for _, attempt := range a.s.attempts {
		if attempt.Status != model.AttemptInProgress {
			continue
		}
		exam, ok := a.s.exams[attempt.ExamID]
		if !ok {
			continue
		}
		if attempt.Deadline(exam.Duration()).Before(cutoff) {
			overdue = append(overdue, attempt)
		}
	}
	sort.Slice(overdue, func(i, j int) bool { return overdue[i].StartedAt.Before(overdue[j].StartedAt) })
	if limit > 0 && len(overdue) > limit {
		overdue = overdue[:limit]
	}
	return overdue, nil
}

func (a *AttemptStore) CountByExams(_ context.Context, examIDs []uint) (map[uint]int64, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	counts := make(map[uint]int64, len(examIDs))
	wanted := make(map[uint]bool, len(examIDs))
	for _, id := range examIDs {
		wanted[id] = true
	}
	for _, attempt := range a.s.attempts {
		if wanted[attempt.ExamID] {
			counts[attempt.ExamID]++
		}
	}
	return counts, nil
}

func (a *AttemptStore) CountByStudent(_ context.Context, studentID uint, examIDs []uint) (map[uint]int64, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	counts := make(map[uint]int64, len(examIDs))
	wanted := make(map[uint]bool, len(examIDs))
	for _, id := range examIDs {
		wanted[id] = true
	}
	for _, attempt := range a.s.attempts {
		if attempt.StudentID == studentID && wanted[attempt.ExamID] {
			counts[attempt.ExamID]++
		}
	}
	return counts, nil
}

func (a *AttemptStore) Finalize(_ context.Context, attemptID uint, fn repository.FinalizeFunc) (*model.ExamAttempt, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	attempt, ok := a.s.attempts[attemptID]
	if !ok {
		return nil, util.ErrAttemptNotFound
	}

	answers, err := fn(&attempt)
	if err != nil {
		return nil, err
	}

	// 模拟 (attempt_id, question_id) 唯一索引
	seen := make(map[uint]bool, len(a.s.answers[attemptID])+len(answers))
	for _, existing := range a.s.answers[attemptID] {
		seen[existing.QuestionID] = true
	}
	for _, ans := range answers {
		if seen[ans.QuestionID] {
			return nil, util.ErrAttemptNotInProgress
		}
		seen[ans.QuestionID] = true
	}

	now := time.Now()
	for i := range answers {
		answers[i].ID = a.s.id()
		answers[i].AttemptID = attemptID
		answers[i].CreatedAt, answers[i].UpdatedAt = now, now
	}
	a.s.answers[attemptID] = append(a.s.answers[attemptID], answers...)

	attempt.UpdatedAt = now
	stored := attempt
	stored.Answers = nil
	a.s.attempts[attemptID] = stored

	attempt.Answers = append([]model.ExamAnswer(nil), answers...)
	return &attempt, nil
}

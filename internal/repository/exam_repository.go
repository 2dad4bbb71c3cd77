package repository

import (
	"context"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) Create(ctx context.Context, exam *model.Exam) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(exam).Error
}

func (r *ExamRepository) FindByID(ctx context.Context, id uint) (*model.Exam, error) {
	var exam model.Exam
	if err := r.DB.WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, notFound(err, util.ErrExamNotFound)
	}
	return &exam, nil
}

func (r *ExamRepository) ListQuestions(ctx context.Context, examID uint) ([]model.ExamQuestion, error) {
	var questions []model.ExamQuestion
	err := r.DB.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("order_no ASC").
		Find(&questions).Error
	return questions, err
}

func (r *ExamRepository) List(ctx context.Context, filter ExamFilter) ([]model.Exam, int64, error) {
	page, limit := Pagination(filter.Page, filter.Limit)

	query := r.DB.WithContext(ctx).Model(&model.Exam{})
	if filter.ClassIDs != nil {
		if len(filter.ClassIDs) == 0 {
			return []model.Exam{}, 0, nil
		}
		query = query.Where("class_id IN ?", filter.ClassIDs)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var exams []model.Exam
	err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&exams).Error
	return exams, total, err
}

func (r *ExamRepository) ListPublishedByClasses(ctx context.Context, classIDs []uint) ([]model.Exam, error) {
	if len(classIDs) == 0 {
		return []model.Exam{}, nil
	}
	var exams []model.Exam
	err := r.DB.WithContext(ctx).
		Where("class_id IN ? AND status = ?", classIDs, model.ExamPublished).
		Order("start_time ASC, id ASC").
		Find(&exams).Error
	return exams, err
}

func (r *ExamRepository) QuestionCounts(ctx context.Context, examIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(examIDs))
	if len(examIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ExamID uint
		Total  int64
	}
	err := r.DB.WithContext(ctx).Model(&model.ExamQuestion{}).
		Select("exam_id, COUNT(*) AS total").
		Where("exam_id IN ?", examIDs).
		Group("exam_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ExamID] = row.Total
	}
	return counts, nil
}

// WithLockedExam SELECT ... FOR UPDATE 锁定考试行，题目增删改与 totalMarks 更新在同一事务内完成
func (r *ExamRepository) WithLockedExam(ctx context.Context, examID uint, fn func(tx ExamTx, exam *model.Exam) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exam model.Exam
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&exam, examID).Error; err != nil {
			return notFound(err, util.ErrExamNotFound)
		}
		return fn(&examTx{db: tx, examID: examID}, &exam)
	})
}

type examTx struct {
	db     *gorm.DB
	examID uint
}

func (t *examTx) Questions() ([]model.ExamQuestion, error) {
	var questions []model.ExamQuestion
	err := t.db.Where("exam_id = ?", t.examID).Order("order_no ASC").Find(&questions).Error
	return questions, err
}

func (t *examTx) CreateQuestion(q *model.ExamQuestion) error {
	q.ExamID = t.examID
	if err := t.db.Create(q).Error; err != nil {
		if isDuplicateKey(err) {
			return util.ValidationError("question order %d is already used", q.Order)
		}
		return err
	}
	return nil
}

func (t *examTx) SaveQuestion(q *model.ExamQuestion) error {
	if err := t.db.Save(q).Error; err != nil {
		if isDuplicateKey(err) {
			return util.ValidationError("question order %d is already used", q.Order)
		}
		return err
	}
	return nil
}

// DeleteQuestion 物理删除，保证 (exam_id, order_no) 唯一索引可以复用
func (t *examTx) DeleteQuestion(questionID uint) error {
	res := t.db.Unscoped().
		Where("id = ? AND exam_id = ?", questionID, t.examID).
		Delete(&model.ExamQuestion{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrQuestionNotFound
	}
	return nil
}

func (t *examTx) SetQuestionOrders(orders map[uint]int) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(orders))
	for id := range orders {
		ids = append(ids, id)
	}

	// 先挪到负数区间，互换顺序时不会撞上唯一索引
	res := t.db.Model(&model.ExamQuestion{}).
		Where("exam_id = ? AND id IN ?", t.examID, ids).
		Update("order_no", gorm.Expr("-CAST(id AS SIGNED)"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(ids)) {
		return util.ErrQuestionNotFound
	}

	for id, order := range orders {
		err := t.db.Model(&model.ExamQuestion{}).
			Where("id = ? AND exam_id = ?", id, t.examID).
			Update("order_no", order).Error
		if err != nil {
			if isDuplicateKey(err) {
				return util.ValidationError("question order %d is already used", order)
			}
			return err
		}
	}
	return nil
}

func (t *examTx) SaveExam(exam *model.Exam) error {
	return t.db.Omit(clause.Associations).Save(exam).Error
}

func (t *examTx) DeleteExam(examID uint) error {
	if err := t.db.Unscoped().Where("exam_id = ?", examID).Delete(&model.ExamQuestion{}).Error; err != nil {
		return err
	}
	return t.db.Unscoped().Delete(&model.Exam{}, examID).Error
}

func (t *examTx) CountAttempts(examID uint) (int64, error) {
	var count int64
	err := t.db.Model(&model.ExamAttempt{}).Where("exam_id = ?", examID).Count(&count).Error
	return count, err
}

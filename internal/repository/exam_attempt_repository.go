package repository

import (
	"context"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/util"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamAttemptRepository struct {
	DB *gorm.DB
}

func NewExamAttemptRepository(db *gorm.DB) *ExamAttemptRepository {
	return &ExamAttemptRepository{DB: db}
}

func (r *ExamAttemptRepository) Create(ctx context.Context, attempt *model.ExamAttempt) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(attempt).Error; err != nil {
		if isDuplicateKey(err) {
			return util.ErrAttemptConflict
		}
		return err
	}
	return nil
}

func (r *ExamAttemptRepository) FindByID(ctx context.Context, id uint, withAnswers bool) (*model.ExamAttempt, error) {
	query := r.DB.WithContext(ctx)
	if withAnswers {
		query = query.Preload("Answers")
	}
	var attempt model.ExamAttempt
	if err := query.First(&attempt, id).Error; err != nil {
		return nil, notFound(err, util.ErrAttemptNotFound)
	}
	return &attempt, nil
}

func (r *ExamAttemptRepository) ListByExamAndStudent(ctx context.Context, examID, studentID uint) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.DB.WithContext(ctx).
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		Order("attempt_number ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *ExamAttemptRepository) ListByExam(ctx context.Context, examID uint, status model.AttemptStatus, withAnswers bool) ([]model.ExamAttempt, error) {
	query := r.DB.WithContext(ctx).Where("exam_id = ?", examID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if status == model.AttemptSubmitted {
		query = query.Order("submitted_at DESC, id DESC")
	} else {
		query = query.Order("started_at DESC, id DESC")
	}
	if withAnswers {
		query = query.Preload("Answers")
	}

	var attempts []model.ExamAttempt
	err := query.Find(&attempts).Error
	return attempts, err
}

func (r *ExamAttemptRepository) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.DB.WithContext(ctx).
		Joins("JOIN exams ON exams.id = exam_attempts.exam_id").
		Where("exam_attempts.status = ?", model.AttemptInProgress).
		Where("DATE_ADD(exam_attempts.started_at, INTERVAL exams.duration_minutes MINUTE) < ?", cutoff).
		Order("exam_attempts.started_at ASC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

func (r *ExamAttemptRepository) CountByExams(ctx context.Context, examIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(examIDs))
	if len(examIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ExamID uint
		Total  int64
	}
	err := r.DB.WithContext(ctx).Model(&model.ExamAttempt{}).
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

func (r *ExamAttemptRepository) CountByStudent(ctx context.Context, studentID uint, examIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(examIDs))
	if len(examIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ExamID uint
		Total  int64
	}
	err := r.DB.WithContext(ctx).Model(&model.ExamAttempt{}).
		Select("exam_id, COUNT(*) AS total").
		Where("student_id = ? AND exam_id IN ?", studentID, examIDs).
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

// Finalize 交卷：行锁 + 状态复检 + 批量写答案 + 更新尝试，一个事务内提交
func (r *ExamAttemptRepository) Finalize(ctx context.Context, attemptID uint, fn FinalizeFunc) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&attempt, attemptID).Error; err != nil {
			return notFound(err, util.ErrAttemptNotFound)
		}

		answers, err := fn(&attempt)
		if err != nil {
			return err
		}

		if len(answers) > 0 {
			for i := range answers {
				answers[i].AttemptID = attempt.ID
			}
			if err := tx.Create(&answers).Error; err != nil {
				if isDuplicateKey(err) {
					return util.ErrAttemptNotInProgress
				}
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Save(&attempt).Error; err != nil {
			return err
		}
		attempt.Answers = answers
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

package repository

import (
	"context"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/util"

	"gorm.io/gorm"
)

// ClassRepository 读取班级与选课数据，数据由班级服务写入
type ClassRepository struct {
	DB *gorm.DB
}

func NewClassRepository(db *gorm.DB) *ClassRepository {
	return &ClassRepository{DB: db}
}

func (r *ClassRepository) FindClass(ctx context.Context, classID uint) (*model.Class, error) {
	var class model.Class
	if err := r.DB.WithContext(ctx).First(&class, classID).Error; err != nil {
		return nil, notFound(err, util.ErrClassNotFound)
	}
	return &class, nil
}

func (r *ClassRepository) ClassIDsByTeacher(ctx context.Context, teacherID uint) ([]uint, error) {
	ids := []uint{}
	err := r.DB.WithContext(ctx).Model(&model.Class{}).
		Where("teacher_id = ?", teacherID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ClassRepository) IsEnrolled(ctx context.Context, studentID, classID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Enrollment{}).
		Where("class_id = ? AND student_id = ? AND status = ?", classID, studentID, model.EnrollmentActive).
		Count(&count).Error
	return count > 0, err
}

func (r *ClassRepository) ActiveClassIDs(ctx context.Context, studentID uint) ([]uint, error) {
	ids := []uint{}
	err := r.DB.WithContext(ctx).Model(&model.Enrollment{}).
		Where("student_id = ? AND status = ?", studentID, model.EnrollmentActive).
		Pluck("class_id", &ids).Error
	return ids, err
}

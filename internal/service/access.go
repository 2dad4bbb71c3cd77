package service

import (
	"context"
	"errors"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/util"
)

// accessPolicy 教师只能管理自己班级的考试，管理员不受限
type accessPolicy struct {
	roles   RoleResolver
	classes ClassDirectory
}

func (p accessPolicy) role(ctx context.Context, userID uint) (model.UserRole, error) {
	role, err := p.roles.GetRole(ctx, userID)
	if errors.Is(err, util.ErrNotFound) {
		return "", util.ErrPermissionDenied
	}
	return role, err
}

// canManageClass 校验 actor 对班级的管理权限
func (p accessPolicy) canManageClass(ctx context.Context, actorID, classID uint) error {
	role, err := p.role(ctx, actorID)
	if err != nil {
		return err
	}
	if !role.CanAuthor() {
		return util.ErrPermissionDenied
	}

	class, err := p.classes.FindClass(ctx, classID)
	if err != nil {
		return err
	}
	if role == model.Admin {
		return nil
	}
	if class.TeacherID != actorID {
		return util.ErrNotClassTeacher
	}
	return nil
}

// canManageExam 班级被删除时仅管理员可以继续管理
func (p accessPolicy) canManageExam(ctx context.Context, actorID uint, exam *model.Exam) error {
	err := p.canManageClass(ctx, actorID, exam.ClassID)
	if errors.Is(err, util.ErrClassNotFound) {
		role, rerr := p.role(ctx, actorID)
		if rerr != nil {
			return rerr
		}
		if role == model.Admin {
			return nil
		}
		return util.ErrNotClassTeacher
	}
	return err
}

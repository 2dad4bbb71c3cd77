package controller

import (
	"exam_engine_backend/internal/service"
	"exam_engine_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ExamAttemptController 学生端：开考、交卷、查看作答
type ExamAttemptController struct {
	Exams    *service.ExamService
	Attempts *service.AttemptService
}

func NewExamAttemptController(exams *service.ExamService, attempts *service.AttemptService) *ExamAttemptController {
	return &ExamAttemptController{Exams: exams, Attempts: attempts}
}

type SubmitExamRequest struct {
	Answers   []service.AnswerInput `json:"answers" binding:"dive"`
	TimeSpent int                   `json:"timeSpent" binding:"min=0"` // 分钟
}

// @Summary 我的考试
// @Description 所在班级中已发布的考试及已用次数
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.StudentExamItem}
// @Router /api/exams [get]
func (c *ExamAttemptController) ListExams(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	items, err := c.Exams.ListStudentExams(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// @Summary 开始考试
// @Description 创建一次作答并返回题目（不含答案）
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 201 {object} util.Response{data=service.StartExamResult}
// @Failure 403 {object} util.Response "未选课或不在考试时间内"
// @Failure 409 {object} util.Response "考试状态不允许或次数已用完"
// @Router /api/exams/{id}/start [post]
func (c *ExamAttemptController) StartExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}

	res, err := c.Attempts.StartExam(ctx.Request.Context(), id, user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, res)
}

// @Summary 交卷
// @Tags 考试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attemptId path int true "作答ID"
// @Param body body SubmitExamRequest true "答案"
// @Success 200 {object} util.Response{data=service.SubmitExamResult}
// @Failure 409 {object} util.Response "已交卷"
// @Router /api/attempts/{attemptId}/submit [post]
func (c *ExamAttemptController) SubmitExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := util.ParamID(ctx, "attemptId")
	if !ok {
		return
	}

	var req SubmitExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}

	res, err := c.Attempts.SubmitExam(ctx.Request.Context(), attemptID, user.UserID, req.Answers, req.TimeSpent)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 作答详情
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param attemptId path int true "作答ID"
// @Success 200 {object} util.Response{data=service.AttemptView}
// @Router /api/attempts/{attemptId} [get]
func (c *ExamAttemptController) GetAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := util.ParamID(ctx, "attemptId")
	if !ok {
		return
	}

	view, err := c.Attempts.GetAttempt(ctx.Request.Context(), attemptID, user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 我的作答记录
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response{data=[]service.AttemptView}
// @Router /api/exams/{id}/my-attempts [get]
func (c *ExamAttemptController) ListMyAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}

	attempts, err := c.Attempts.ListMyAttempts(ctx.Request.Context(), id, user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

package controller

import (
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/service"
	"exam_engine_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ExamController 教师端：考试、题目和成绩管理
type ExamController struct {
	Exams   *service.ExamService
	Results *service.ResultsService
}

func NewExamController(exams *service.ExamService, results *service.ResultsService) *ExamController {
	return &ExamController{Exams: exams, Results: results}
}

// @Summary 创建考试
// @Description 创建草稿状态的考试，总分随题目自动计算
// @Tags 考试管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ExamCreateRequest true "考试信息"
// @Success 201 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/teacher/exams [post]
func (c *ExamController) CreateExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.ExamCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}

	exam, err := c.Exams.CreateExam(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, exam)
}

// @Summary 考试列表
// @Tags 考试管理
// @Produce json
// @Security BearerAuth
// @Param classId query int false "班级ID"
// @Param status query string false "状态" Enums(DRAFT, PUBLISHED, CANCELLED)
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/teacher/exams [get]
func (c *ExamController) ListExams(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page := util.QueryInt(ctx, "page", util.DefaultPage)
	limit := util.QueryInt(ctx, "limit", util.DefaultLimit)
	if limit > util.MaxLimit {
		limit = util.MaxLimit
	}
	query := service.ExamListQuery{
		ClassID: util.MustParseUint(ctx.Query("classId")),
		Status:  model.ExamStatus(ctx.Query("status")),
		Page:    page,
		Limit:   limit,
	}

	items, total, err := c.Exams.ListExams(ctx.Request.Context(), user.UserID, query)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: items, Total: total, Page: page, Limit: limit})
}

// @Summary 考试详情
// @Description 包含标准答案的完整题目
// @Tags 考试管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 404 {object} util.Response
// @Router /api/teacher/exams/{id} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}

	exam, err := c.Exams.GetExam(ctx.Request.Context(), user.UserID, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// @Summary 修改考试
// @Description 仅草稿状态可修改
// @Tags 考试管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Param body body service.ExamUpdateRequest true "修改内容"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 409 {object} util.Response
// @Router /api/teacher/exams/{id} [put]
func (c *ExamController) UpdateExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}

	var req service.ExamUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}

	exam, err := c.Exams.UpdateExam(ctx.Request.Context(), user.UserID, id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// @Summary 删除考试
// @Description 已有作答记录的考试会被取消而不是删除
// @Tags 考试管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/exams/{id} [delete]
func (c *ExamController) DeleteExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}

	outcome, err := c.Exams.DeleteExam(ctx.Request.Context(), user.UserID, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id, "outcome": outcome})
}

// @Summary 发布考试
// @Tags 考试管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/teacher/exams/{id}/publish [post]
func (c *ExamController) PublishExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}

	exam, err := c.Exams.PublishExam(ctx.Request.Context(), user.UserID, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// @Summary 取消考试
// @Description 取消后不能再开考，进行中的作答仍可交卷
// @Tags 考试管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response{data=model.Exam}
// @Router /api/teacher/exams/{id}/cancel [post]
func (c *ExamController) CancelExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}

	exam, err := c.Exams.CancelExam(ctx.Request.Context(), user.UserID, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// @Summary 添加题目
// @Tags 考试管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Param body body service.QuestionRequest true "题目"
// @Success 201 {object} util.Response{data=model.ExamQuestion}
// @Router /api/teacher/exams/{id}/questions [post]
func (c *ExamController) AddQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}

	q, err := c.Exams.AddQuestion(ctx.Request.Context(), user.UserID, id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// @Summary 批量添加题目
// @Tags 考试管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Param body body service.BulkQuestionsRequest true "题目列表"
// @Success 201 {object} util.Response{data=[]model.ExamQuestion}
// @Router /api/teacher/exams/{id}/questions/bulk [post]
func (c *ExamController) BulkAddQuestions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}

	var req service.BulkQuestionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}

	questions, err := c.Exams.BulkAddQuestions(ctx.Request.Context(), user.UserID, id, req.Questions)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, questions)
}

// @Summary 调整题目顺序
// @Tags 考试管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Param body body service.ReorderQuestionsRequest true "新顺序"
// @Success 200 {object} util.Response{data=[]model.ExamQuestion}
// @Router /api/teacher/exams/{id}/questions/reorder [put]
func (c *ExamController) ReorderQuestions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}

	var req service.ReorderQuestionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}

	questions, err := c.Exams.ReorderQuestions(ctx.Request.Context(), user.UserID, id, req.QuestionOrders)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// @Summary 修改题目
// @Tags 考试管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Param questionId path int true "题目ID"
// @Param body body service.QuestionUpdateRequest true "修改内容"
// @Success 200 {object} util.Response{data=model.ExamQuestion}
// @Router /api/teacher/exams/{id}/questions/{questionId} [put]
func (c *ExamController) UpdateQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	questionID, ok := util.ParamID(ctx, "questionId")
	if !ok {
		return
	}

	var req service.QuestionUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}

	q, err := c.Exams.UpdateQuestion(ctx.Request.Context(), user.UserID, id, questionID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// @Summary 删除题目
// @Tags 考试管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/exams/{id}/questions/{questionId} [delete]
func (c *ExamController) RemoveQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	questionID, ok := util.ParamID(ctx, "questionId")
	if !ok {
		return
	}

	if err := c.Exams.RemoveQuestion(ctx.Request.Context(), user.UserID, id, questionID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": questionID})
}

// @Summary 考试成绩
// @Description 已交卷的作答及统计（人数、平均分、通过率、最高最低分）
// @Tags 考试管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response{data=service.ExamResults}
// @Router /api/teacher/exams/{id}/results [get]
func (c *ExamController) ExamResults(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}

	res, err := c.Results.ExamResults(ctx.Request.Context(), id, user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 考试统计
// @Tags 考试管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response{data=model.ExamStatistics}
// @Router /api/teacher/exams/{id}/statistics [get]
func (c *ExamController) ExamStatistics(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}

	stats, err := c.Results.ExamStatistics(ctx.Request.Context(), id, user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// @Summary 全部作答记录
// @Description 包括进行中的作答
// @Tags 考试管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response{data=[]service.AttemptView}
// @Router /api/teacher/exams/{id}/attempts [get]
func (c *ExamController) ListAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}

	attempts, err := c.Results.ListExamAttempts(ctx.Request.Context(), id, user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

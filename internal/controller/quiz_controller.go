package controller

import (
	"signlearn_backend/internal/service"
	"signlearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

type AnswerRequest struct {
	Key string `json:"key" binding:"required,oneof=a b c d A B C D"`
}

type JumpRequest struct {
	Index *int `json:"index" binding:"required"`
}

// CreateSession godoc
// @Summary 开始一次字母测验
// @Description 题目随机排序；题库为空时直接返回已结束的会话
// @Tags quiz
// @Produce json
// @Success 201 {object} util.Response{data=service.QuizView}
// @Router /api/quiz/sessions [post]
func (c *QuizController) CreateSession(ctx *gin.Context) {
	view, err := c.QuizService.Create(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// GetSession godoc
// @Summary 当前测验状态
// @Tags quiz
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.QuizView}
// @Failure 404 {object} util.Response
// @Router /api/quiz/sessions/{id} [get]
func (c *QuizController) GetSession(ctx *gin.Context) {
	view, err := c.QuizService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Start godoc
// @Summary 关闭说明页
// @Tags quiz
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.QuizView}
// @Router /api/quiz/sessions/{id}/start [post]
func (c *QuizController) Start(ctx *gin.Context) {
	view, err := c.QuizService.Start(ctx.Request.Context(), ctx.Param("id"))
	c.respond(ctx, view, err)
}

// Answer godoc
// @Summary 作答当前题
// @Description 每题只能作答一次，重复作答返回 409
// @Tags quiz
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param body body AnswerRequest true "选项 a-d"
// @Success 200 {object} util.Response{data=service.AnswerResult}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/quiz/sessions/{id}/answer [post]
func (c *QuizController) Answer(ctx *gin.Context) {
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.QuizService.Answer(ctx.Request.Context(), ctx.Param("id"), req.Key)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Next godoc
// @Summary 下一题，最后一题时结束测验
// @Tags quiz
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.QuizView}
// @Router /api/quiz/sessions/{id}/next [post]
func (c *QuizController) Next(ctx *gin.Context) {
	view, err := c.QuizService.Next(ctx.Request.Context(), ctx.Param("id"))
	c.respond(ctx, view, err)
}

// Prev godoc
// @Summary 上一题
// @Tags quiz
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.QuizView}
// @Router /api/quiz/sessions/{id}/prev [post]
func (c *QuizController) Prev(ctx *gin.Context) {
	view, err := c.QuizService.Prev(ctx.Request.Context(), ctx.Param("id"))
	c.respond(ctx, view, err)
}

// Jump godoc
// @Summary 跳转到指定题
// @Tags quiz
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param body body JumpRequest true "题目下标"
// @Success 200 {object} util.Response{data=service.QuizView}
// @Failure 400 {object} util.Response
// @Router /api/quiz/sessions/{id}/jump [post]
func (c *QuizController) Jump(ctx *gin.Context) {
	var req JumpRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	view, err := c.QuizService.Jump(ctx.Request.Context(), ctx.Param("id"), *req.Index)
	c.respond(ctx, view, err)
}

// Restart godoc
// @Summary 重新开始
// @Description 重新打乱题目并清空作答
// @Tags quiz
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.QuizView}
// @Router /api/quiz/sessions/{id}/restart [post]
func (c *QuizController) Restart(ctx *gin.Context) {
	view, err := c.QuizService.Restart(ctx.Request.Context(), ctx.Param("id"))
	c.respond(ctx, view, err)
}

// Finish godoc
// @Summary 提前交卷
// @Tags quiz
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.QuizScore}
// @Router /api/quiz/sessions/{id}/finish [post]
func (c *QuizController) Finish(ctx *gin.Context) {
	score, err := c.QuizService.Finish(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, score)
}

// Result godoc
// @Summary 测验成绩
// @Tags quiz
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.QuizScore}
// @Router /api/quiz/sessions/{id}/result [get]
func (c *QuizController) Result(ctx *gin.Context) {
	score, err := c.QuizService.Result(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, score)
}

// DeleteSession godoc
// @Summary 丢弃测验会话
// @Tags quiz
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Router /api/quiz/sessions/{id} [delete]
func (c *QuizController) DeleteSession(ctx *gin.Context) {
	if err := c.QuizService.Discard(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func (c *QuizController) respond(ctx *gin.Context, view *service.QuizView, err error) {
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

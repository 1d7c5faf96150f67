package controller

import (
	"signlearn_backend/internal/service"
	"signlearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ContentController 管理员维护题库、课程与媒体
type ContentController struct {
	ContentService *service.ContentService
}

func NewContentController(contentService *service.ContentService) *ContentController {
	return &ContentController{ContentService: contentService}
}

func pathID(ctx *gin.Context) (uint, bool) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "Invalid id")
		return 0, false
	}
	return id, true
}

// CreateQuestion godoc
// @Summary 新增测验题 (Admin only)
// @Description 正确答案必须恰好等于四个选项之一
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.QuestionInput true "题目"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Failure 401 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/admin/questions [post]
func (c *ContentController) CreateQuestion(ctx *gin.Context) {
	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.ContentService.CreateQuestion(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// UpdateQuestion godoc
// @Summary 修改测验题 (Admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目 ID"
// @Param body body service.QuestionInput true "题目"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [put]
func (c *ContentController) UpdateQuestion(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.ContentService.UpdateQuestion(ctx.Request.Context(), id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// DeleteQuestion godoc
// @Summary 删除测验题 (Admin only)
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [delete]
func (c *ContentController) DeleteQuestion(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := c.ContentService.DeleteQuestion(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// CreateWordQuestion godoc
// @Summary 新增单词 (Admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.WordQuestionInput true "单词"
// @Success 201 {object} util.Response{data=model.WordQuestion}
// @Failure 400 {object} util.Response
// @Router /api/admin/words [post]
func (c *ContentController) CreateWordQuestion(ctx *gin.Context) {
	var req service.WordQuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	w, err := c.ContentService.CreateWordQuestion(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, w)
}

// UpdateWordQuestion godoc
// @Summary 修改单词 (Admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "单词 ID"
// @Param body body service.WordQuestionInput true "单词"
// @Success 200 {object} util.Response{data=model.WordQuestion}
// @Failure 404 {object} util.Response
// @Router /api/admin/words/{id} [put]
func (c *ContentController) UpdateWordQuestion(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req service.WordQuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	w, err := c.ContentService.UpdateWordQuestion(ctx.Request.Context(), id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, w)
}

// DeleteWordQuestion godoc
// @Summary 删除单词 (Admin only)
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "单词 ID"
// @Success 200 {object} util.Response
// @Router /api/admin/words/{id} [delete]
func (c *ContentController) DeleteWordQuestion(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := c.ContentService.DeleteWordQuestion(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// CreateLesson godoc
// @Summary 新增课程 (Admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.LessonInput true "课程"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Failure 400 {object} util.Response
// @Router /api/admin/lessons [post]
func (c *ContentController) CreateLesson(ctx *gin.Context) {
	var req service.LessonInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	l, err := c.ContentService.CreateLesson(req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, l)
}

// UpdateLesson godoc
// @Summary 修改课程 (Admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课程 ID"
// @Param body body service.LessonInput true "课程"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Router /api/admin/lessons/{id} [put]
func (c *ContentController) UpdateLesson(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req service.LessonInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	l, err := c.ContentService.UpdateLesson(id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, l)
}

// DeleteLesson godoc
// @Summary 删除课程 (Admin only)
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课程 ID"
// @Success 200 {object} util.Response
// @Router /api/admin/lessons/{id} [delete]
func (c *ContentController) DeleteLesson(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := c.ContentService.DeleteLesson(id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// UploadMedia godoc
// @Summary 上传手势图片或视频 (Admin only)
// @Description 视频会提取时长并生成封面
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "图片或视频"
// @Success 201 {object} util.Response{data=service.MediaUpload}
// @Failure 400 {object} util.Response
// @Failure 415 {object} util.Response
// @Router /api/admin/media [post]
func (c *ContentController) UploadMedia(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}
	upload, err := c.ContentService.UploadMedia(ctx.Request.Context(), file)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, upload)
}

package controller

import (
	"io"
	"net/http"

	"signlearn_backend/internal/service"
	"signlearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const frameField = "file"

type RecognitionController struct {
	RecognitionService *service.RecognitionService
	Monitor            *service.BackendMonitor
	Inference          *service.InferenceClient
}

func NewRecognitionController(recognitionService *service.RecognitionService, monitor *service.BackendMonitor, inference *service.InferenceClient) *RecognitionController {
	return &RecognitionController{
		RecognitionService: recognitionService,
		Monitor:            monitor,
		Inference:          inference,
	}
}

// CreateSession godoc
// @Summary 开启实时识别会话
// @Tags recognition
// @Produce json
// @Success 201 {object} util.Response{data=service.SessionView}
// @Router /api/recognition/sessions [post]
func (c *RecognitionController) CreateSession(ctx *gin.Context) {
	util.Created(ctx, c.RecognitionService.Create())
}

// GetSession godoc
// @Summary 识别会话状态
// @Tags recognition
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 404 {object} util.Response
// @Router /api/recognition/sessions/{id} [get]
func (c *RecognitionController) GetSession(ctx *gin.Context) {
	view, err := c.RecognitionService.Get(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// SubmitFrame godoc
// @Summary 提交一帧摄像头画面
// @Description 暂停时返回 409；上一帧未处理完返回 429；识别服务不可用返回 502
// @Tags recognition
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "会话 ID"
// @Param file formData file true "JPEG 帧"
// @Param videoWidth formData number false "摄像头宽度"
// @Param videoHeight formData number false "摄像头高度"
// @Param displayWidth formData number false "显示宽度"
// @Param displayHeight formData number false "显示高度"
// @Success 200 {object} util.Response{data=service.FrameResult}
// @Failure 409 {object} util.Response
// @Failure 429 {object} util.Response
// @Failure 502 {object} util.Response
// @Router /api/recognition/sessions/{id}/frames [post]
func (c *RecognitionController) SubmitFrame(ctx *gin.Context) {
	file, err := ctx.FormFile(frameField)
	if err != nil {
		util.BadRequest(ctx, "Frame is required")
		return
	}
	limit := c.RecognitionService.MaxFrameBytes
	if limit > 0 && file.Size > limit {
		util.Error(ctx, http.StatusRequestEntityTooLarge, "Frame too large")
		return
	}

	var dims service.FrameDims
	if err := ctx.ShouldBind(&dims); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()
	frame, err := io.ReadAll(src)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	result, err := c.RecognitionService.ProcessFrame(ctx.Request.Context(), ctx.Param("id"), frame, dims)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Pause godoc
// @Summary 暂停识别
// @Tags recognition
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/recognition/sessions/{id}/pause [post]
func (c *RecognitionController) Pause(ctx *gin.Context) {
	view, err := c.RecognitionService.Pause(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Resume godoc
// @Summary 恢复识别
// @Tags recognition
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/recognition/sessions/{id}/resume [post]
func (c *RecognitionController) Resume(ctx *gin.Context) {
	view, err := c.RecognitionService.Resume(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// GetTranscript godoc
// @Summary 转录记录
// @Tags recognition
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response{data=[]service.TranscriptEntry}
// @Router /api/recognition/sessions/{id}/transcript [get]
func (c *RecognitionController) GetTranscript(ctx *gin.Context) {
	entries, err := c.RecognitionService.Transcript(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

// ClearTranscript godoc
// @Summary 清空转录
// @Description 同时重置识别服务的投票缓冲
// @Tags recognition
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Router /api/recognition/sessions/{id}/transcript [delete]
func (c *RecognitionController) ClearTranscript(ctx *gin.Context) {
	if err := c.RecognitionService.ClearTranscript(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"transcript": []service.TranscriptEntry{}})
}

// ExportTranscript godoc
// @Summary 导出转录为文本文件
// @Tags recognition
// @Produce plain
// @Param id path string true "会话 ID"
// @Success 200 {file} file
// @Router /api/recognition/sessions/{id}/transcript/export [get]
func (c *RecognitionController) ExportTranscript(ctx *gin.Context) {
	export, err := c.RecognitionService.Export(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	ctx.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(export.Content))
}

// StopSession godoc
// @Summary 结束识别会话
// @Tags recognition
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Router /api/recognition/sessions/{id} [delete]
func (c *RecognitionController) StopSession(ctx *gin.Context) {
	if err := c.RecognitionService.Stop(ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Stream godoc
// @Summary WebSocket 实时识别
// @Description 二进制消息为 JPEG 帧，文本消息为控制命令（pause/resume/clear/dims）
// @Tags recognition
// @Param id path string true "会话 ID"
// @Router /api/recognition/sessions/{id}/stream [get]
func (c *RecognitionController) Stream(ctx *gin.Context) {
	if err := c.RecognitionService.ServeStream(ctx.Writer, ctx.Request, ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
	}
}

// Status godoc
// @Summary 识别服务连接状态
// @Tags recognition
// @Produce json
// @Success 200 {object} util.Response{data=service.BackendStatus}
// @Router /api/recognition/status [get]
func (c *RecognitionController) Status(ctx *gin.Context) {
	util.Success(ctx, c.Monitor.Status())
}

// Classes godoc
// @Summary 识别服务支持的手势类别
// @Tags recognition
// @Produce json
// @Success 200 {object} util.Response{data=service.InferenceClasses}
// @Failure 502 {object} util.Response
// @Router /api/recognition/classes [get]
func (c *RecognitionController) Classes(ctx *gin.Context) {
	classes, err := c.Inference.Classes(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, classes)
}

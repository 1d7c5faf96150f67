package util

import (
	"errors"
	"net/http"

	"signlearn_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.Error(err),
		zap.String("path", c.FullPath()),
	)
	InternalServerError(c)
}

// HandleError 将领域错误映射为 HTTP 状态，未知错误记录日志后返回 500
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSessionNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrIndexOutOfRange):
		Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyAnswered), errors.Is(err, ErrSessionPaused), errors.Is(err, ErrQuizFinished), errors.Is(err, ErrQuizNotStarted):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrFrameInFlight):
		Error(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ErrInferenceUnavailable):
		logger.Log.Warn("Inference backend unavailable", zap.Error(err), zap.String("path", c.FullPath()))
		Error(c, http.StatusBadGateway, "Backend Offline")
	case errors.Is(err, ErrInvalidMediaType):
		Error(c, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		Error(c, http.StatusUnauthorized, err.Error())
	default:
		LogInternalError(c, err)
	}
}

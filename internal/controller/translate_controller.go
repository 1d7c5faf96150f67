package controller

import (
	"signlearn_backend/internal/service"
	"signlearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TranslateController struct {
	TranslateService *service.TranslateService
}

func NewTranslateController(translateService *service.TranslateService) *TranslateController {
	return &TranslateController{TranslateService: translateService}
}

type TranslateRequest struct {
	Text string `json:"text"`
}

// Translate godoc
// @Summary 文字转手势
// @Description 按空格分词，逐词匹配字母与单词手势，先匹配者优先
// @Tags translate
// @Accept json
// @Produce json
// @Param body body TranslateRequest true "待翻译文字"
// @Success 200 {object} util.Response{data=service.TranslationResult}
// @Failure 400 {object} util.Response
// @Router /api/translate [post]
func (c *TranslateController) Translate(ctx *gin.Context) {
	var req TranslateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.TranslateService.Translate(ctx.Request.Context(), req.Text)
	if err != nil {
		fetchFailed(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GetDictionary godoc
// @Summary 文字转手势词典
// @Tags translate
// @Produce json
// @Success 200 {object} util.Response{data=[]model.SignItem}
// @Router /api/translate/dictionary [get]
func (c *TranslateController) GetDictionary(ctx *gin.Context) {
	items, err := c.TranslateService.Dictionary(ctx.Request.Context())
	if err != nil {
		fetchFailed(ctx, err)
		return
	}
	util.Success(ctx, items)
}

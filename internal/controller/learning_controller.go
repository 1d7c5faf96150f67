package controller

import (
	"io"
	"net/http"
	"strconv"

	"signlearn_backend/internal/service"
	"signlearn_backend/internal/util"
	"signlearn_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const fetchQuestionsFailed = "Failed to fetch questions"

type LearningController struct {
	LearningService *service.LearningService
}

func NewLearningController(learningService *service.LearningService) *LearningController {
	return &LearningController{LearningService: learningService}
}

func fetchFailed(ctx *gin.Context, err error) {
	logger.Log.Error("Error fetching questions", zap.Error(err), zap.String("path", ctx.FullPath()))
	util.Error(ctx, http.StatusInternalServerError, fetchQuestionsFailed)
}

// GetQuestions godoc
// @Summary 全部测验题
// @Tags learning
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Question}
// @Failure 500 {object} util.Response
// @Router /api/questions [get]
func (c *LearningController) GetQuestions(ctx *gin.Context) {
	questions, err := c.LearningService.Questions()
	if err != nil {
		fetchFailed(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// GetAlphabet godoc
// @Summary 字母表
// @Tags learning
// @Produce json
// @Success 200 {object} util.Response{data=[]model.SignItem}
// @Failure 500 {object} util.Response
// @Router /api/learnAlphabet [get]
func (c *LearningController) GetAlphabet(ctx *gin.Context) {
	items, err := c.LearningService.Alphabet()
	if err != nil {
		fetchFailed(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// GetAlphabetDetail godoc
// @Summary 字母详情
// @Description 包含进度、上一个/下一个以及相邻字母
// @Tags learning
// @Produce json
// @Param index path int true "字母下标，从 0 开始"
// @Success 200 {object} util.Response{data=service.AlphabetDetail}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/learnAlphabet/{index} [get]
func (c *LearningController) GetAlphabetDetail(ctx *gin.Context) {
	index, err := util.ParseIndex(ctx.Param("index"))
	if err != nil {
		util.BadRequest(ctx, "Invalid index")
		return
	}
	detail, err := c.LearningService.AlphabetDetail(index)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// DownloadLetter godoc
// @Summary 下载字母手势图片
// @Tags learning
// @Produce octet-stream
// @Param index path int true "字母下标"
// @Success 200 {file} file
// @Failure 404 {object} util.Response
// @Router /api/learnAlphabet/{index}/download [get]
func (c *LearningController) DownloadLetter(ctx *gin.Context) {
	index, err := util.ParseIndex(ctx.Param("index"))
	if err != nil {
		util.BadRequest(ctx, "Invalid index")
		return
	}
	dl, err := c.LearningService.LetterDownload(ctx.Request.Context(), index)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	defer dl.Body.Close()

	ctx.Header("Content-Disposition", `attachment; filename="`+dl.FileName+`"`)
	ctx.Header("Content-Type", dl.ContentType)
	if dl.Size >= 0 {
		ctx.Header("Content-Length", strconv.FormatInt(dl.Size, 10))
	}
	ctx.Status(http.StatusOK)
	if _, err := io.Copy(ctx.Writer, dl.Body); err != nil {
		logger.Log.Warn("Letter download interrupted", zap.Int("index", index), zap.Error(err))
	}
}

// GetLearnWords godoc
// @Summary 单词视频（按 id 升序）
// @Tags learning
// @Produce json
// @Success 200 {object} util.Response{data=[]model.WordVideo}
// @Router /api/learnWord [get]
func (c *LearningController) GetLearnWords(ctx *gin.Context) {
	words, err := c.LearningService.LearnWords()
	if err != nil {
		fetchFailed(ctx, err)
		return
	}
	util.Success(ctx, words)
}

// GetRandomWords godoc
// @Summary 随机 100 个单词视频
// @Tags learning
// @Produce json
// @Success 200 {object} util.Response{data=[]model.WordVideo}
// @Router /api/learn/learnWord [get]
func (c *LearningController) GetRandomWords(ctx *gin.Context) {
	words, err := c.LearningService.RandomWords()
	if err != nil {
		fetchFailed(ctx, err)
		return
	}
	util.Success(ctx, words)
}

// GetTestWords godoc
// @Summary 单词测验题（按 id 降序）
// @Tags learning
// @Produce json
// @Success 200 {object} util.Response{data=[]model.WordQuestion}
// @Router /api/test/testWord [get]
func (c *LearningController) GetTestWords(ctx *gin.Context) {
	words, err := c.LearningService.TestWords()
	if err != nil {
		fetchFailed(ctx, err)
		return
	}
	util.Success(ctx, words)
}

// GetAllWords godoc
// @Summary 全部单词
// @Tags learning
// @Produce json
// @Success 200 {object} util.Response{data=[]model.SignItem}
// @Router /api/learn/allWords [get]
func (c *LearningController) GetAllWords(ctx *gin.Context) {
	words, err := c.LearningService.AllWords()
	if err != nil {
		fetchFailed(ctx, err)
		return
	}
	util.Success(ctx, words)
}

// GetCategories godoc
// @Summary 课程分类及课程数
// @Tags lessons
// @Produce json
// @Success 200 {object} util.Response{data=[]model.CategorySummary}
// @Router /api/lessons/categories [get]
func (c *LearningController) GetCategories(ctx *gin.Context) {
	categories, err := c.LearningService.Categories()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, categories)
}

// GetLessons godoc
// @Summary 课程列表
// @Tags lessons
// @Produce json
// @Param category query string false "分类代码"
// @Param q query string false "按标题或描述搜索"
// @Success 200 {object} util.Response{data=[]model.Lesson}
// @Router /api/lessons [get]
func (c *LearningController) GetLessons(ctx *gin.Context) {
	lessons, err := c.LearningService.Lessons(ctx.Query("category"), ctx.Query("q"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, lessons)
}

// GetLesson godoc
// @Summary 课程详情
// @Tags lessons
// @Produce json
// @Param id path int true "课程 ID"
// @Success 200 {object} util.Response{data=service.LessonDetail}
// @Failure 404 {object} util.Response
// @Router /api/lessons/{id} [get]
func (c *LearningController) GetLesson(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "Invalid lesson id")
		return
	}
	lesson, err := c.LearningService.Lesson(id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"signlearn_backend/internal/config"
	"signlearn_backend/internal/controller"
	"signlearn_backend/internal/repository"
	"signlearn_backend/internal/service"
	"signlearn_backend/internal/util"
	"signlearn_backend/pkg/configwatcher"
	"signlearn_backend/pkg/database"
	"signlearn_backend/pkg/logger"
	"signlearn_backend/pkg/monitoring"
	"signlearn_backend/pkg/security"
	"signlearn_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const janitorInterval = time.Minute

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	services *services
	tracer   *sdktrace.TracerProvider
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

type repositories struct {
	user       *repository.UserRepository
	question   *repository.QuestionRepository
	word       *repository.WordQuestionRepository
	lesson     *repository.LessonRepository
	quizResult *repository.QuizResultRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	learning    *service.LearningService
	content     *service.ContentService
	quiz        *service.QuizService
	translate   *service.TranslateService
	inference   *service.InferenceClient
	recognition *service.RecognitionService
	monitor     *service.BackendMonitor
}

type controllers struct {
	auth        *controller.AuthController
	learning    *controller.LearningController
	content     *controller.ContentController
	quiz        *controller.QuizController
	translate   *controller.TranslateController
	recognition *controller.RecognitionController
	health      *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		question:   repository.NewQuestionRepository(db),
		word:       repository.NewWordQuestionRepository(db),
		lesson:     repository.NewLessonRepository(db),
		quizResult: repository.NewQuizResultRepository(db),
	}
}

func (a *App) initServices(r *repositories, cfg *config.Config, rdb *redis.Client) *services {
	stateTTL := time.Duration(cfg.Quiz.StateTTLHours) * time.Hour
	dictTTL := time.Duration(cfg.Quiz.DictionaryCacheMin) * time.Minute

	// Redis 不可用时退化为单机内存存储
	var (
		quizStore service.StateStore
		dictCache service.DictionaryCache
	)
	if rdb != nil {
		quizStore = service.NewRedisStateStore(rdb, stateTTL)
		dictCache = service.NewRedisDictionaryCache(rdb, dictTTL)
	} else {
		quizStore = service.NewMemoryStateStore()
		dictCache = service.NewMemoryDictionaryCache(dictTTL)
	}

	storage := service.NewStorageService(&cfg.Storage)
	inference := service.NewInferenceClient(&cfg.Inference)
	translate := service.NewTranslateService(r.question, r.word, dictCache)
	recognition := service.NewRecognitionService(inference, cfg.Recognition, cfg.Inference.MaxFrameBytes)
	recognition.AllowedOrigins = cfg.CORS.AllowedOrigins

	return &services{
		auth:        service.NewAuthService(r.user, cfg),
		storage:     storage,
		learning:    service.NewLearningService(r.question, r.word, r.lesson, storage),
		content:     service.NewContentService(r.question, r.word, r.lesson, storage, translate, cfg),
		quiz:        service.NewQuizService(r.question, quizStore, r.quizResult),
		translate:   translate,
		inference:   inference,
		recognition: recognition,
		monitor:     service.NewBackendMonitor(inference, cfg.Inference.HealthCheckInterval, cfg.Inference.Timeout),
	}
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		learning:    controller.NewLearningController(s.learning),
		content:     controller.NewContentController(s.content),
		quiz:        controller.NewQuizController(s.quiz),
		translate:   controller.NewTranslateController(s.translate),
		recognition: controller.NewRecognitionController(s.recognition, s.monitor, s.inference),
		health:      controller.NewHealthController(db, rdb, s.monitor),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// applyConfig 热更新只影响识别的去抖参数，其余配置需重启生效
func (a *App) applyConfig(cfg *config.Config) {
	a.services.recognition.UpdateConfig(cfg.Recognition)
}

func (a *App) startBackgroundTasks(s *services) {
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		s.monitor.Run(a.ctx)
	}()
	go func() {
		defer a.wg.Done()
		s.recognition.RunJanitor(a.ctx, janitorInterval)
	}()

	if a.Config.ConfigPath == "" {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := configwatcher.WatchConfig(a.ctx, a.Config.ConfigPath, a.applyConfig); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, cfg.ForceMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		DB:     db,
		ctx:    ctx,
		cancel: cancel,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, quiz state and dictionary cache kept in memory", zap.Error(err))
		rdb = nil
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	if err := services.auth.EnsureAdmin(cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Log.Error("Failed to ensure admin account", zap.Error(err))
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close()
	logger.Log.Info("Server exiting")
}

// Close 停止后台任务并释放连接
func (a *App) Close() {
	a.cancel()
	a.wg.Wait()

	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

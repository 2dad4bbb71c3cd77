package app

import (
	"context"
	"exam_engine_backend/internal/config"
	"exam_engine_backend/internal/controller"
	"exam_engine_backend/internal/repository"
	"exam_engine_backend/internal/service"
	"exam_engine_backend/internal/util"
	"exam_engine_backend/pkg/configwatcher"
	"exam_engine_backend/pkg/database"
	"exam_engine_backend/pkg/logger"
	"exam_engine_backend/pkg/monitoring"
	"exam_engine_backend/pkg/security"
	"exam_engine_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config     *config.Config
	ConfigFile string
	Router     *gin.Engine
	DB         *gorm.DB
	Redis      *redis.Client

	services        *services
	tracer          *sdktrace.TracerProvider
	sweeper         *service.ExpirySweeper
	stopWatcher     context.CancelFunc
	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user    *repository.UserRepository
	class   *repository.ClassRepository
	exam    *repository.ExamRepository
	attempt *repository.ExamAttemptRepository
}

type services struct {
	exam    *service.ExamService
	attempt *service.AttemptService
	results *service.ResultsService
}

type controllers struct {
	exam    *controller.ExamController
	attempt *controller.ExamAttemptController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()
	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:    repository.NewUserRepository(db),
		class:   repository.NewClassRepository(db),
		exam:    repository.NewExamRepository(db),
		attempt: repository.NewExamAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	var (
		locker service.StartLocker
		cache  service.ResultsCache
	)
	// Redis 未启用时开考只靠唯一索引串行化，统计不缓存
	if rdb != nil {
		locker = repository.NewStartLock(rdb)
		cache = repository.NewResultsCache(rdb)
	}
	clock := service.SystemClock{}

	s := &services{
		exam: service.NewExamService(repos.exam, repos.attempt, repos.user, repos.class, repos.class, clock),
		attempt: service.NewAttemptService(repos.exam, repos.attempt, repos.user, repos.class, repos.class, clock,
			locker, cache, cfg.Exam),
		results: service.NewResultsService(repos.exam, repos.attempt, repos.user, repos.class, cache, clock, cfg.Exam),
	}

	a.RegisterConfigCallback(func(c *config.Config) {
		s.attempt.ApplyConfig(c.Exam)
		s.results.ApplyConfig(c.Exam)
	})
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		exam:    controller.NewExamController(s.exam, s.results),
		attempt: controller.NewExamAttemptController(s.exam, s.attempt),
		health:  controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window, security.ByClientIP))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	a.sweeper = service.NewExpirySweeper(s.attempt, a.Config.Exam.ExpirySweepCron)
	if err := a.sweeper.Start(); err != nil {
		logger.Log.Error("Failed to start expiry sweeper", zap.Error(err))
	}

	if a.ConfigFile == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.stopWatcher = cancel
	go func() {
		if err := configwatcher.Watch(ctx, a.ConfigFile, time.Second, a.applyConfig); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 锁和缓存都有降级路径，Redis 不可用不阻止启动
		logger.Log.Warn("Redis unavailable, continuing without it", zap.Error(err))
		rdb = nil
	}
	app.Redis = rdb
	if configDir != "" {
		app.ConfigFile = filepath.Join(configDir, "config.yaml")
	}

	if err := util.RegisterValidators(); err != nil {
		logger.Log.Fatal("Failed to register validators", zap.Error(err))
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)
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

	if a.stopWatcher != nil {
		a.stopWatcher()
	}
	if a.sweeper != nil {
		a.sweeper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}

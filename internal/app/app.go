package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"victorina_backend/internal/config"
	"victorina_backend/internal/controller"
	"victorina_backend/internal/repository"
	"victorina_backend/internal/service"
	"victorina_backend/pkg/configwatcher"
	"victorina_backend/pkg/database"
	"victorina_backend/pkg/logger"
	"victorina_backend/pkg/monitoring"
	"victorina_backend/pkg/security"
	"victorina_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const activityInterval = time.Minute

type App struct {
	Config          *config.Config
	ConfigPath      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	amqp            *service.AMQPEventPublisher
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	quiz       *repository.QuizRepository
	attempt    *repository.QuizAttemptRepository
	userRating *repository.UserRatingRepository
	quizRating *repository.QuizRatingRepository
	feed       *repository.FeedRepository
	friendship *repository.FriendshipRepository
	message    *repository.MessageRepository
}

type services struct {
	auth       *service.AuthService
	user       *service.UserService
	storage    *service.StorageService
	quiz       *service.QuizService
	quizRating *service.QuizRatingService
	attempt    *service.QuizAttemptService
	userRating *service.UserRatingService
	feed       *service.FeedService
	friendship *service.FriendshipService
	message    *service.MessageService
}

type controllers struct {
	auth       *controller.AuthController
	user       *controller.UserController
	quiz       *controller.QuizController
	attempt    *controller.QuizAttemptController
	rating     *controller.RatingController
	feed       *controller.FeedController
	friendship *controller.FriendshipController
	message    *controller.MessageController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		quiz:       repository.NewQuizRepository(db),
		attempt:    repository.NewQuizAttemptRepository(db),
		userRating: repository.NewUserRatingRepository(db),
		quizRating: repository.NewQuizRatingRepository(db),
		feed:       repository.NewFeedRepository(db),
		friendship: repository.NewFriendshipRepository(db, rdb),
		message:    repository.NewMessageRepository(db),
	}
}

// eventPublisher falls back to logging events when the broker is disabled
// or unreachable at startup.
func (a *App) eventPublisher(cfg *config.Config) service.EventPublisher {
	if !cfg.Events.Enabled {
		return service.LogEventPublisher{}
	}
	pub, err := service.NewAMQPEventPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
	if err != nil {
		logger.Log.Warn("AMQP unavailable, events will only be logged", zap.Error(err))
		return service.LogEventPublisher{}
	}
	a.amqp = pub
	return pub
}

func (a *App) attemptLocker(cfg *config.Config, rdb *redis.Client) service.AttemptLocker {
	if rdb == nil {
		return service.NewMemoryAttemptLocker()
	}
	return service.NewRedisAttemptLocker(rdb, cfg.Attempt.LockTTL())
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}
	events := a.eventPublisher(cfg)

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.quiz = service.NewQuizService(repos.quiz, s.storage)
	s.quizRating = service.NewQuizRatingService(repos.quizRating, repos.quiz)
	s.userRating = service.NewUserRatingService(repos.user, repos.attempt, repos.userRating, rdb)

	s.attempt = service.NewQuizAttemptService(
		repos.user,
		repos.quiz,
		repos.attempt,
		a.attemptLocker(cfg, rdb),
		s.userRating,
		service.WithActiveWindow(cfg.Attempt.ActiveWindow()),
		service.WithRatingRetries(cfg.Attempt.RatingRetries, 200*time.Millisecond),
		service.WithEvents(events),
	)

	s.friendship = service.NewFriendshipService(repos.friendship, repos.user)
	s.feed = service.NewFeedService(repos.feed, repos.attempt, repos.quiz, repos.userRating, s.friendship, events)
	s.message = service.NewMessageService(repos.message, repos.user, s.friendship)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth, s.user),
		user:       controller.NewUserController(s.user),
		quiz:       controller.NewQuizController(s.quiz, s.quizRating),
		attempt:    controller.NewQuizAttemptController(s.attempt),
		rating:     controller.NewRatingController(s.userRating),
		feed:       controller.NewFeedController(s.feed),
		friendship: controller.NewFriendshipController(s.friendship),
		message:    controller.NewMessageController(s.message),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(security.CORS(cfg.CORS))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit))

	if cfg.Tracing.Enabled {
		router.Use(tracing.Middleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app, nil
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			// lock, caches and friend ids all degrade to in-process or direct reads
			logger.Log.Warn("Redis unavailable, continuing without it", zap.Error(err))
		} else {
			app.Redis = rdb
		}
	}

	repos := app.initRepositories(db, app.Redis)
	app.services = app.initServices(repos, cfg, app.Redis)
	controllers := app.initControllers(app.services, db, app.Redis)

	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.Init(cfg.Tracing)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, app.services, cfg)

	if root, ok := app.services.storage.LocalRoot(); ok {
		router.Static(service.LocalURLPrefix, root)
	}

	app.RegisterConfigCallback(logger.SetLevel)
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		app.services.attempt.SetActiveWindow(newCfg.Attempt.ActiveWindow())
	})

	return app, nil
}

func (a *App) watchConfig(stop <-chan struct{}) {
	if a.ConfigPath == "" {
		return
	}
	if err := configwatcher.Watch(a.ConfigPath, stop, a.configCallbacks...); err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
	}
}

// Run serves until SIGINT or SIGTERM, then shuts down within five seconds.
func (a *App) Run() error {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	stop := make(chan struct{})
	go a.watchConfig(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		close(stop)
		return err
	}
	logger.Log.Info("Shutting down server")
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(ctx)

	a.Close(ctx)
	return err
}

// Close releases the broker, tracer, redis and database connections.
func (a *App) Close(ctx context.Context) {
	if a.amqp != nil {
		a.amqp.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Log.Sync()
}

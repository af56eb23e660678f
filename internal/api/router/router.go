package router

import (
	"fmt"

	"enrollment-platform/internal/api/handlers"
	"enrollment-platform/internal/api/middleware"
	"enrollment-platform/internal/config"
	"enrollment-platform/internal/infrastructure/cache"
	"enrollment-platform/internal/infrastructure/queue"
	"enrollment-platform/internal/infrastructure/repository"
	interfaces "enrollment-platform/internal/interfaces/infrastructure"
	"enrollment-platform/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RouterComponents struct {
	Router       *gin.Engine
	QueueService interfaces.QueueService
}

func NewEnrollmentRouter(db *gorm.DB) (*gin.Engine, error) {
	components, err := NewEnrollmentRouterWithQueue(db)
	if err != nil {
		return nil, err
	}
	return components.Router, nil
}

func NewEnrollmentRouterWithQueue(db *gorm.DB) (*RouterComponents, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(cors.Default())
	r.Use(gin.Recovery())

	cfg := config.Get()

	catalogRepo, err := repository.NewCatalogRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog repository: %w", err)
	}
	studentRepo := repository.NewStudentRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	var cacheService interfaces.CacheService
	var idempotencyRepo interfaces.IdempotencyRepository
	if cfg.Cache.Type == "redis" {
		redisCache := cache.NewRedisCacheWithConfig(&cfg.Cache)
		cacheService = redisCache
		idempotencyRepo = repository.NewRedisIdempotencyRepository(redisCache.GetClient())
		fmt.Println("Using Redis cache service")
	} else {
		cacheService = cache.NewMemoryCache()
		idempotencyRepo = repository.NewMemoryIdempotencyRepository()
		fmt.Println("Using in-memory cache service")
	}

	var queueService interfaces.QueueService
	if cfg.Queue.Type == "redis" {
		queueService = queue.NewRedisQueue(&cfg.Cache, cfg.Queue.Workers)
		fmt.Println("Using Redis queue service")
	} else {
		queueService = queue.NewInMemoryQueue(cfg.Queue.BufferSize, cfg.Queue.Workers)
		fmt.Println("Using in-memory queue service")
	}

	catalogService := service.NewCatalogService(catalogRepo, cacheService)
	enrollmentService := service.NewEnrollmentService(
		catalogService,
		catalogRepo,
		studentRepo,
		selectionRepo,
		auditRepo,
		cacheService,
		queueService,
		idempotencyRepo,
		service.NewSystemClock(),
	)

	queueService.SetEnrollmentService(enrollmentService)
	queueService.StartWorkers()

	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService, catalogService)
	healthHandler := handlers.NewHealthHandler(db, cacheService)

	// Without the middleware no idempotency key ever reaches the service,
	// so disabling here turns the feature off end to end.
	if cfg.Enrollment.IdempotencyEnabled {
		r.Use(middleware.IdempotencyMiddleware())
	}
	r.Use(middleware.CallerRole())

	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/ready", healthHandler.ReadinessCheck)
	r.GET("/live", healthHandler.LivenessCheck)

	v1 := r.Group("/api/v1")
	{
		selections := v1.Group("/selections")
		{
			selections.POST("", enrollmentHandler.SubmitSelection)
		}

		students := v1.Group("/students")
		{
			students.GET("/:student_id/offerings", enrollmentHandler.GetEligibleOfferings)
			students.GET("/:student_id/selection", enrollmentHandler.GetCurrentSelection)
		}
	}

	return &RouterComponents{
		Router:       r,
		QueueService: queueService,
	}, nil
}

package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/vinyareddy314/cms-go/api/swagger"
	"github.com/vinyareddy314/cms-go/internal/handler"
	"github.com/vinyareddy314/cms-go/internal/middleware"
	"github.com/vinyareddy314/cms-go/internal/models"
	"github.com/vinyareddy314/cms-go/internal/repository"
	"github.com/vinyareddy314/cms-go/internal/service"
	"github.com/vinyareddy314/cms-go/pkg/cache"
	"github.com/vinyareddy314/cms-go/pkg/config"
	"github.com/vinyareddy314/cms-go/pkg/database"
	"github.com/vinyareddy314/cms-go/pkg/logger"
	corsmiddleware "github.com/vinyareddy314/cms-go/pkg/middleware/cors"
	reqidmiddleware "github.com/vinyareddy314/cms-go/pkg/middleware/requestid"
)

// @title CMS Content API
// @version 0.1.0
// @description Educational content management and publication service
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The CMS stays usable without Redis; the catalog just skips caching.
		logr.Sugar().Warnw("redis unavailable, catalog caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	programRepo := repository.NewProgramRepository(db)
	termRepo := repository.NewTermRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
	})
	userSvc := service.NewUserService(userRepo, nil, logr)
	programSvc := service.NewProgramService(programRepo, termRepo, lessonRepo, assetRepo, nil, logr)
	termSvc := service.NewTermService(termRepo, programRepo, nil)
	topicSvc := service.NewTopicService(topicRepo)
	assetSvc := service.NewAssetService(assetRepo, lessonRepo, programRepo)
	exportSvc := service.NewExportService(programRepo, termRepo, lessonRepo)

	publishPolicy := service.PublishPolicy{AllowMissingThumbnails: cfg.Publish.AllowMissingThumbnails}
	lessonSvc := service.NewLessonService(lessonRepo, termRepo, programRepo, assetRepo, db, nil, logr, publishPolicy)
	catalogSvc := service.NewCatalogService(catalogRepo, programRepo, termRepo, assetRepo, cacheRepo,
		cfg.Catalog.CacheTTL, cfg.Catalog.MaxLimit, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	programHandler := handler.NewProgramHandler(programSvc, assetSvc, exportSvc)
	termHandler := handler.NewTermHandler(termSvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc, assetSvc, catalogSvc)
	topicHandler := handler.NewTopicHandler(topicSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.POST("/auth/login", authHandler.Login)

	// Public catalog surface, no authentication.
	catalog := r.Group("/catalog")
	{
		catalog.GET("/programs", catalogHandler.ListPrograms)
		catalog.GET("/programs/:id", catalogHandler.GetProgram)
		catalog.GET("/lessons/:id", catalogHandler.GetLesson)
	}

	authed := r.Group("", middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)

		admin := authed.Group("", middleware.RequireRoles(models.RoleAdmin))
		{
			admin.GET("/users", userHandler.List)
			admin.POST("/users", userHandler.Create)
			admin.PATCH("/users/:id", userHandler.Update)
			admin.DELETE("/users/:id", userHandler.Delete)
		}

		viewer := authed.Group("", middleware.RequireRoles(models.RoleAdmin, models.RoleEditor, models.RoleViewer))
		{
			viewer.GET("/programs", programHandler.List)
			viewer.GET("/programs/:id", programHandler.Get)
			viewer.GET("/programs/:id/terms", termHandler.ListByProgram)
			viewer.GET("/programs/:id/export", programHandler.Export)
			viewer.GET("/lessons/:id", lessonHandler.Get)
			viewer.GET("/topics", topicHandler.List)
		}

		editor := authed.Group("", middleware.RequireRoles(models.RoleAdmin, models.RoleEditor))
		{
			editor.POST("/programs", programHandler.Create)
			editor.PATCH("/programs/:id", programHandler.Patch)
			editor.PUT("/programs/:id/assets", programHandler.UpsertPoster)
			editor.DELETE("/programs/:id/assets", programHandler.DeletePoster)

			editor.POST("/terms", termHandler.Create)
			editor.PATCH("/terms/:id", termHandler.Patch)
			editor.DELETE("/terms/:id", termHandler.Delete)

			editor.POST("/lessons", lessonHandler.Create)
			editor.PATCH("/lessons/:id", lessonHandler.Patch)
			editor.POST("/lessons/:id/status", lessonHandler.UpdateStatus)
			editor.PUT("/lessons/:id/assets", lessonHandler.UpsertAsset)
			editor.DELETE("/lessons/:id/assets", lessonHandler.DeleteAsset)

			editor.POST("/topics", topicHandler.Create)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

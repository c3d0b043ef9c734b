package main

import (
	"context"
	"fmt"

	"sitedocs/blobstore"
	"sitedocs/config"
	"sitedocs/database"
	"sitedocs/handlers"
	"sitedocs/logger"
	"sitedocs/middleware"
	"sitedocs/models"
	"sitedocs/repositories"
	"sitedocs/services"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatalf("load config failed: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)
	logger.Infof("starting sitedocs service")

	if err := database.InitMySQL(&cfg.Database); err != nil {
		logger.Fatalf("init mysql failed: %v", err)
	}

	if err := database.DB.AutoMigrate(
		&models.Folder{},
		&models.File{},
		&models.UploadTask{},
		&models.ActivityLog{},
	); err != nil {
		logger.Fatalf("database migration failed: %v", err)
	}
	logger.Infof("database migration completed")

	if err := database.InitRedis(&cfg.Redis); err != nil {
		logger.Fatalf("init redis failed: %v", err)
	}

	blobs, err := blobstore.NewFromConfig(context.Background(), cfg.BlobStore)
	if err != nil {
		logger.Fatalf("init blob store failed: %v", err)
	}

	repoContainer := repositories.NewGormRepositories(database.DB, database.RedisClient).BuildContainer()
	notifier := services.NewNotifierFromConfig(cfg.Notify)
	serviceContainer := services.NewContainer(&repoContainer, blobs, notifier)
	handlers.SetServices(serviceContainer)

	services.StartCleanupWorkers()
	logger.Infof("cleanup workers started")

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RequestLogger())
	setupRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("server listening on http://%s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server start failed: %v", err)
	}
}

func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/health", handlers.HealthCheck)

	scoped := api.Group("/:entityType/:entityID")
	scoped.Use(middleware.AuthMiddleware())
	{
		scoped.GET("/tree", handlers.GetTree)
		scoped.GET("/tree/children", handlers.ListChildren)
		scoped.GET("/tree/watch", handlers.WatchTree)

		scoped.POST("/folders", handlers.CreateFolder)
		scoped.PUT("/folders/:id", handlers.RenameFolder)
		scoped.DELETE("/folders/:id", handlers.DeleteFolder)
		scoped.GET("/folders/:id/export", handlers.ExportFolder)

		scoped.POST("/files/upload", handlers.UploadFiles)
		scoped.GET("/files/upload/:upload_id/progress", handlers.GetUploadProgress)
		scoped.POST("/files/upload/:upload_id/cancel", handlers.CancelUpload)
		scoped.GET("/files/:id/download", handlers.DownloadFile)
		scoped.PUT("/files/:id/rename", handlers.RenameFile)
		scoped.DELETE("/files/:id", handlers.DeleteFile)
	}
}

package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"trygo/config"
	"trygo/models"
	"trygo/providers/openai"
	"trygo/providers/wordpress"
	"trygo/services"
	"trygo/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	contentGeneratedCounter prometheus.Counter
	postsPublishedCounter   prometheus.Counter
	publishFailuresCounter  prometheus.Counter
)

func init() {
	contentGeneratedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "content_items_generated_total",
		Help: "Total number of content items generated from backlog ideas.",
	})
	postsPublishedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wordpress_posts_published_total",
		Help: "Total number of posts successfully published to WordPress.",
	})
	publishFailuresCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wordpress_publish_failures_total",
		Help: "Total number of failed publish attempts.",
	})
	prometheus.MustRegister(contentGeneratedCounter, postsPublishedCounter, publishFailuresCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// respondError maps the pipeline error taxonomy onto HTTP statuses. Adapter
// messages are surfaced verbatim.
func respondError(c *gin.Context, err error) {
	var (
		validation *models.ValidationError
		notFound   *models.NotFoundError
		conflict   *models.PublishDateConflictError
		upstream   *models.UpstreamError
		parse      *models.ParseError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":             conflict.Error(),
			"conflictingItemId": conflict.ConflictingItemID,
		})
	case errors.As(err, &upstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": upstream.Error()})
	case errors.As(err, &parse):
		c.JSON(http.StatusBadGateway, gin.H{"error": parse.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to pipeline database.")

	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(
		&models.BacklogIdea{},
		&models.ContentItem{},
		&models.ProjectContext{},
		&models.PublishRecord{},
	); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Adapters
	generator := openai.NewClient(cfg, logging)
	publisher := wordpress.NewClient(cfg, logging)

	var images *openai.ImageClient
	if cfg.ImagesEnabled {
		images = openai.NewImageClient(cfg, logging)
	}
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}

	// Services
	syncer := services.NewStatusSyncer(db, logging, publisher)
	ideaService := services.NewIdeaService(db, logging)
	var contentService *services.ContentService
	if images != nil {
		contentService = services.NewContentService(cfg, db, logging, generator, images, s3Client, syncer)
	} else {
		contentService = services.NewContentService(cfg, db, logging, generator, nil, nil, syncer)
	}
	digestService := services.NewDigestService(db, logging)

	// Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupIdeaRoutes(router, ideaService, contentService, logging)
	setupContentRoutes(router, contentService, syncer, logging)
	setupContextRoutes(router, contentService)

	// Scheduled jobs: daily digest + publish-record reconciliation
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.DigestCronSchedule, func() {
		if _, err := digestService.Run(context.Background()); err != nil {
			logging.Error("Digest job failed", zap.Error(err))
		}
	})
	cronScheduler.AddFunc(cfg.ReconcileCronSchedule, func() {
		repaired, err := syncer.ReconcilePending(context.Background())
		if err != nil {
			logging.Error("Reconciliation job failed", zap.Error(err))
		} else if repaired > 0 {
			logging.Info("Reconciliation job repaired publish records", zap.Int("repaired", repaired))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupIdeaRoutes(router *gin.Engine, ideas *services.IdeaService, content *services.ContentService, log *zap.Logger) {
	rg := router.Group("/ideas")

	// createCustomContentIdea
	rg.POST("/", func(c *gin.Context) {
		var req services.CreateIdeaInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		idea, err := ideas.Create(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, idea)
	})

	// seoAgentContentIdeas
	rg.GET("/", func(c *gin.Context) {
		result, err := ideas.List(c.Request.Context(), c.Query("projectId"), c.Query("hypothesisId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	// Administrative status override; lifecycle transitions go through the
	// content routes instead.
	rg.PATCH("/:id/status", func(c *gin.Context) {
		var req struct {
			Status models.IdeaStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'status' field is required."})
			return
		}
		idea, err := ideas.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, idea)
	})

	// dismissContentIdea
	rg.POST("/:id/dismiss", func(c *gin.Context) {
		idea, err := ideas.Dismiss(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, idea)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		deleted, err := ideas.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	})

	// generateContentForBacklogIdea
	rg.POST("/:id/generate-content", func(c *gin.Context) {
		var req struct {
			ProjectID    string `json:"projectId" binding:"required"`
			HypothesisID string `json:"hypothesisId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'projectId' and 'hypothesisId' are required."})
			return
		}
		item, err := content.GenerateForIdea(c.Request.Context(), c.Param("id"), req.ProjectID, req.HypothesisID)
		if err != nil {
			respondError(c, err)
			return
		}
		contentGeneratedCounter.Inc()
		c.JSON(http.StatusOK, item)
	})
}

func setupContentRoutes(router *gin.Engine, content *services.ContentService, syncer *services.StatusSyncer, log *zap.Logger) {
	rg := router.Group("/content-items")

	// upsertContentItem
	rg.POST("/", func(c *gin.Context) {
		var req services.UpsertContentItemInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		item, err := content.Upsert(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	rg.GET("/:id", func(c *gin.Context) {
		item, err := content.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	// contentItemByBacklogIdea
	rg.GET("/by-idea/:ideaId", func(c *gin.Context) {
		item, err := content.GetByIdea(c.Request.Context(), c.Param("ideaId"))
		if err != nil {
			respondError(c, err)
			return
		}
		if item == nil {
			c.JSON(http.StatusOK, nil)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	// regenerateContent
	rg.POST("/:id/regenerate", func(c *gin.Context) {
		var req struct {
			PromptPart string `json:"promptPart"`
		}
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		item, err := content.Regenerate(c.Request.Context(), c.Param("id"), req.PromptPart)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	rg.POST("/:id/review", func(c *gin.Context) {
		item, err := syncer.MoveToReview(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	rg.POST("/:id/ready", func(c *gin.Context) {
		item, err := syncer.MarkReady(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	// publishToWordPress
	rg.POST("/:id/publish", func(c *gin.Context) {
		var req struct {
			PublishDate   *time.Time `json:"publishDate"`
			AllowOverride bool       `json:"allowOverride"`
		}
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		item, err := syncer.Publish(c.Request.Context(), c.Param("id"), req.PublishDate, req.AllowOverride)
		if err != nil {
			publishFailuresCounter.Inc()
			respondError(c, err)
			return
		}
		postsPublishedCounter.Inc()
		c.JSON(http.StatusOK, item)
	})

	rg.POST("/:id/unpublish", func(c *gin.Context) {
		var req struct {
			IdeaStatus models.IdeaStatus `json:"ideaStatus"`
		}
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		item, err := syncer.Unpublish(c.Request.Context(), c.Param("id"), req.IdeaStatus)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})
}

func setupContextRoutes(router *gin.Engine, content *services.ContentService) {
	router.PUT("/project-context", func(c *gin.Context) {
		var req models.ProjectContext
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		pc, err := content.UpsertProjectContext(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, pc)
	})
}

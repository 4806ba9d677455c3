package router

import (
	"net/http"
	"os"
	"time"

	"submission-processor/api/handlers"
	"submission-processor/api/middleware"
	"submission-processor/config"
	"submission-processor/internal/dispatch"
	"submission-processor/internal/mapping"
	"submission-processor/internal/queue"
	"submission-processor/internal/storage"
	"submission-processor/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(log *logger.Logger, db *storage.MongoDB, publisher queue.Publisher, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	// Website plan mapping drives the per-website submission limits.
	planMapper := mapping.NewWebsitePlanService(log.Desugar())
	planMapper.LoadFromEnvironment()

	security := middleware.NewSecurityMiddleware(
		log.Desugar(),
		cfg.Security.APIKeys,
		cfg.Security.APIKeyHeader,
	)
	router.Use(security.CORS())

	// Health check endpoint (no authentication required)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Metrics endpoint for Prometheus (no authentication required)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Webhooks.TimeoutSeconds) * time.Second,
	}
	dispatcher := dispatch.NewDispatcher(db, httpClient, log.Desugar())

	debug := os.Getenv("SUBMISSION_DEBUG") == "true"
	if debug {
		log.Desugar().Info("Submission payload debug logging enabled")
	}

	submissionHandler := handlers.NewSubmissionHandler(log.Desugar(), db, dispatcher, publisher, planMapper, debug)
	webhookHandler := handlers.NewWebhookHandler(log.Desugar(), dispatcher)

	api := router.Group("/api")
	{
		// Public: called by the popup embed on customer sites.
		api.POST("/submissions", submissionHandler.HandleSubmission)

		// Admin: called by the webhook configuration UI.
		api.POST("/webhooks/test", security.Authenticate(), webhookHandler.HandleTest)
	}

	return router
}

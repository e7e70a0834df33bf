package api

import (
	"log/slog"
	stdhttp "net/http"

	h "ferryhub/internal/http/handlers"
	"ferryhub/internal/http/middleware"
	"ferryhub/internal/metrics"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Ferries     h.Ferries
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	CORSOrigins []string
	Auth        middleware.AuthConfig
	// TicketDir is served under /tickets when set.
	TicketDir string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(logger, cfg.Metrics), gin.Recovery(), middleware.CORS(cfg.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Warn("failed to set trusted proxies", "error", err)
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":      "route not found",
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": middleware.GetRequestID(c),
		})
	})

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.TicketDir != "" {
		r.Static("/tickets", cfg.TicketDir)
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/routes", h.Routes(r))

		ferries := api.Group("/ferries", middleware.Auth(cfg.Auth))
		ferries.POST("/search", cfg.Ferries.SearchFerries)
		ferries.GET("/search", cfg.Ferries.SearchFerries)
		ferries.GET("/operators/health", cfg.Ferries.OperatorHealth)
		ferries.GET("/seat-layout", cfg.Ferries.SeatLayout)
		ferries.POST("/bookings", cfg.Ferries.CreateBooking)
	}

	return r
}

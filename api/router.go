package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 建立包含所有路由與中介層的 gin.Engine
func (impl *ServerImpl) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), PrometheusMiddleware(), CORSMiddleware(impl.config.CORS))

	router.GET("/healthz", impl.GetHealthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		// 原始紀錄只有本機資料庫時才提供
		if impl.bids != nil {
			bids := api.Group("/bids", impl.StoreAuthMiddleware())
			bids.GET("", impl.GetBids)
			bids.POST("", impl.PostBid)
			bids.PATCH("/:bidID", impl.PatchBid)
		}
		api.GET("/reviewers/:reviewerID/preferences", impl.GetPreferences)
		api.PUT("/reviewers/:reviewerID/preferences/:articleID", impl.PutPreference)
		api.GET("/reviewers/:reviewerID/preferences/events", impl.GetPreferenceEvents)
	}
	return router
}

// Health check
// (GET /healthz)
func (impl *ServerImpl) GetHealthz(c *gin.Context) {
	if err := impl.Ping(c.Request.Context()); err != nil {
		impl.logger.Warn("Health check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
}

package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stake-plus/newsfilter/src/config"
	"go.uber.org/zap"
)

func attachRoutes(r *gin.Engine, cfg config.API, analyzer Analyzer, cat CatalogAdmin, logger *zap.Logger) {
	r.Use(cors.New(corsConfig(cfg.Origins)))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	analyzeH := NewAnalyze(analyzer, logger)
	limiter := NewRateLimiter(cfg.RateLimit)

	v1 := r.Group("/v1")
	{
		v1.POST("/analyze", RateLimitMiddleware(limiter), analyzeH.Create)
	}

	if cat == nil {
		return
	}
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured, catalog admin routes disabled")
		return
	}
	admin := v1.Group("/admin")
	admin.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
	{
		catalogH := NewCatalog(cat, logger)
		admin.GET("/catalog", catalogH.List)
		admin.POST("/catalog/domains", catalogH.AddDomain)
		admin.DELETE("/catalog/:category/domains/:domain", catalogH.RemoveDomain)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

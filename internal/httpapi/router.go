// Package httpapi serves the logo gallery over HTTP with gin.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ironsheep/logo-gallery/internal/guard"
	"github.com/ironsheep/logo-gallery/internal/store"
)

// OwnerHeader carries the authenticated owner, set by the upstream auth layer.
const OwnerHeader = "X-Owner-ID"

// Deps are the collaborators the router needs.
type Deps struct {
	Guard          *guard.Guard
	Store          store.Store
	Logger         *zap.Logger
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(d.Logger))

	router.Use(cors.New(corsConfig(d.AllowedOrigins)))

	// Health check
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	logos := &LogoHandler{Guard: d.Guard, Store: d.Store, Logger: d.Logger}

	api := router.Group("/api")
	{
		api.GET("/logos", logos.ListLogos)
		api.GET("/logos/:id", logos.GetLogo)
		api.POST("/logos", requireOwner(), logos.Upload)
		api.POST("/logos/check", requireOwner(), logos.Check)
		api.POST("/features", logos.Features)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", OwnerHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Package api builds the HTTP surface of the service.
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/ramonvasc/comunicahub/internal/feed"
	"github.com/ramonvasc/comunicahub/internal/handlers"
	"github.com/ramonvasc/comunicahub/internal/ingest"
	"github.com/ramonvasc/comunicahub/internal/middleware"
)

// Deps carries the already-wired collaborators the router exposes.
type Deps struct {
	DB         *gorm.DB
	Pipeline   *ingest.Pipeline
	Aggregator *feed.Aggregator

	// FeedWindowDays is the default horizon for the notification feed when a
	// request does not override it.
	FeedWindowDays int
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.Pipeline == nil {
		return nil, fmt.Errorf("ingestion pipeline must be provided")
	}
	if deps.Aggregator == nil {
		return nil, fmt.Errorf("feed aggregator must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	commHandler, err := handlers.NewCommunicationHandler(deps.DB)
	if err != nil {
		return nil, err
	}
	notifHandler, err := handlers.NewNotificationHandler(deps.Aggregator, deps.FeedWindowDays)
	if err != nil {
		return nil, err
	}
	ingestHandler, err := handlers.NewIngestHandler(deps.Pipeline)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")

	comms := api.Group("/communications")
	{
		comms.GET("", commHandler.List)
		comms.GET("/:id", commHandler.Get)
		comms.POST("/:id/read", commHandler.MarkRead)
		comms.PATCH("/:id/link", commHandler.Link)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", notifHandler.Feed)
		notifications.POST("/:id/read", notifHandler.MarkRead)
		notifications.POST("/read_all", notifHandler.MarkAllRead)
	}

	api.POST("/ingest", ingestHandler.Batch)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

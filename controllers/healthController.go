package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	store pinger
	log   zerolog.Logger
}

func NewHealthController(store pinger, logger zerolog.Logger) *HealthController {
	return &HealthController{store: store, log: logger}
}

func (hc *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Healthz reports whether the storage backend is reachable.
func (hc *HealthController) Healthz(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := hc.store.Ping(ctx); err != nil {
		hc.log.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

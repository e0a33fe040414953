package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the API routes. metrics may be nil to skip /metrics.
func NewRouter(altitudeHandler *AltitudeHandler, metrics http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.GET("/altitude", altitudeHandler.GetAltitude)

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	return r
}

package handler

import (
	"context"
	"net/http"
	"strconv"

	"elevation-api/internal/models"

	"github.com/gin-gonic/gin"
)

// AltitudeHandler handles altitude requests
type AltitudeHandler struct {
	service AltitudeService
}

// AltitudeService interface for dependency injection
type AltitudeService interface {
	GetAltitude(context.Context, models.Coordinate) float64
}

// AltitudeResponse is the body of a successful GET /altitude
type AltitudeResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// NewAltitudeHandler creates a new altitude handler
func NewAltitudeHandler(svc AltitudeService) *AltitudeHandler {
	return &AltitudeHandler{service: svc}
}

// GetAltitude handles GET /altitude requests
func (h *AltitudeHandler) GetAltitude(c *gin.Context) {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")

	if latStr == "" || lonStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameters 'lat' and 'lon'"})
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid latitude format"})
		return
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid longitude format"})
		return
	}

	coord := models.Coordinate{Latitude: lat, Longitude: lon}
	if !coord.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	altitude := h.service.GetAltitude(c.Request.Context(), coord)

	c.JSON(http.StatusOK, AltitudeResponse{
		Latitude:  lat,
		Longitude: lon,
		Altitude:  altitude,
	})
}

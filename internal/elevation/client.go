package elevation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"elevation-api/internal/metrics"
	"elevation-api/internal/models"

	"github.com/rs/zerolog/log"
)

// API Docs: https://developers.google.com/maps/documentation/elevation/requests-elevation
// Sample request: https://maps.googleapis.com/maps/api/elevation/json?locations=39.7391536,-104.9847034&key=KEY
const (
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/elevation/json"

	requestTimeout = 5 * time.Second
)

type elevationResponse struct {
	Status  *string `json:"status"`
	Results []struct {
		Elevation *float64 `json:"elevation"`
	} `json:"results"`
}

// Client queries the Google Maps Elevation API for single coordinates.
// It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	metrics    *metrics.Metrics
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another elevation endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the default HTTP client and its 5s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMetrics records every provider status on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a Google elevation client using apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAltitude looks up the elevation of coord with a single request.
// It never fails: every error is logged and reported as UNKNOWN_ERROR.
func (c *Client) FetchAltitude(ctx context.Context, coord models.Coordinate) models.AltitudeReading {
	reading, err := c.fetch(ctx, coord)
	if err != nil {
		log.Error().Err(err).
			Float64("lat", coord.Latitude).
			Float64("lon", coord.Longitude).
			Msg("unable to retrieve altitude from Google APIs")
		reading = models.FailedReading()
	}

	c.metrics.ObserveProviderStatus(reading.Status)
	return reading
}

func (c *Client) fetch(ctx context.Context, coord models.Coordinate) (models.AltitudeReading, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return models.AltitudeReading{}, fmt.Errorf("elevation: failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("locations", formatCoord(coord.Latitude)+","+formatCoord(coord.Longitude))
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.AltitudeReading{}, fmt.Errorf("elevation: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.AltitudeReading{}, fmt.Errorf("elevation: execute request: %w", err)
	}
	defer resp.Body.Close()

	// Google reports API errors through the status field, so the body is
	// decoded regardless of the HTTP status code.
	var decoded elevationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.AltitudeReading{}, fmt.Errorf("elevation: decode response (http %d): %w", resp.StatusCode, err)
	}

	if decoded.Status == nil {
		return models.AltitudeReading{}, errors.New("elevation: response has no status field")
	}

	reading := models.AltitudeReading{Status: *decoded.Status}
	if len(decoded.Results) > 0 {
		reading.Altitude = decoded.Results[0].Elevation
	}

	return reading, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

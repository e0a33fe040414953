package elevation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"elevation-api/internal/metrics"
	"elevation-api/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestClient_FetchAltitude(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		expected   models.AltitudeReading
	}{
		{
			name:       "elevation in first result",
			statusCode: http.StatusOK,
			body:       `{"status":"OK","results":[{"elevation":123.4,"resolution":4.7}]}`,
			expected:   models.AltitudeReading{Altitude: ptr(123.4), Status: "OK"},
		},
		{
			name:       "first of many results",
			statusCode: http.StatusOK,
			body:       `{"status":"OK","results":[{"elevation":10},{"elevation":20}]}`,
			expected:   models.AltitudeReading{Altitude: ptr(10), Status: "OK"},
		},
		{
			name:       "empty results",
			statusCode: http.StatusOK,
			body:       `{"status":"OK","results":[]}`,
			expected:   models.AltitudeReading{Status: "OK"},
		},
		{
			name:       "result without elevation",
			statusCode: http.StatusOK,
			body:       `{"status":"OK","results":[{"resolution":4.7}]}`,
			expected:   models.AltitudeReading{Status: "OK"},
		},
		{
			name:       "provider error status",
			statusCode: http.StatusOK,
			body:       `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`,
			expected:   models.AltitudeReading{Status: "REQUEST_DENIED"},
		},
		{
			name:       "missing status",
			statusCode: http.StatusOK,
			body:       `{"results":[{"elevation":1}]}`,
			expected:   models.AltitudeReading{Status: models.StatusUnknownError},
		},
		{
			name:       "malformed json",
			statusCode: http.StatusOK,
			body:       `{"status":`,
			expected:   models.AltitudeReading{Status: models.StatusUnknownError},
		},
		{
			name:       "unexpected results shape",
			statusCode: http.StatusOK,
			body:       `{"status":"OK","results":{"elevation":1}}`,
			expected:   models.AltitudeReading{Status: models.StatusUnknownError},
		},
		{
			name:       "html error page",
			statusCode: http.StatusBadGateway,
			body:       `<html>bad gateway</html>`,
			expected:   models.AltitudeReading{Status: models.StatusUnknownError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient("test-key", WithBaseURL(server.URL))
			reading := client.FetchAltitude(context.Background(), models.Coordinate{Latitude: 40.7128, Longitude: -74.006})

			assert.Equal(t, tt.expected, reading)
		})
	}
}

func TestClient_FetchAltitude_QueryParameters(t *testing.T) {
	var gotLocations, gotKey, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLocations = r.URL.Query().Get("locations")
		gotKey = r.URL.Query().Get("key")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"elevation":1}]}`))
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL+"/maps/api/elevation/json"))
	client.FetchAltitude(context.Background(), models.Coordinate{Latitude: 35.681236, Longitude: 139.767125})

	assert.Equal(t, "/maps/api/elevation/json", gotPath)
	assert.Equal(t, "35.681236,139.767125", gotLocations)
	assert.Equal(t, "secret", gotKey)
}

func TestClient_FetchAltitude_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient("test-key", WithBaseURL(url))
	reading := client.FetchAltitude(context.Background(), models.Coordinate{Latitude: 1, Longitude: 2})

	assert.Nil(t, reading.Altitude)
	assert.Equal(t, models.StatusUnknownError, reading.Status)
}

func TestClient_FetchAltitude_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient("test-key",
		WithBaseURL(server.URL),
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
	)
	reading := client.FetchAltitude(context.Background(), models.Coordinate{Latitude: 1, Longitude: 2})

	assert.Equal(t, models.FailedReading(), reading)
}

func TestClient_FetchAltitude_RecordsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"elevation":5}]}`))
	}))
	defer server.Close()

	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	client := NewClient("test-key", WithBaseURL(server.URL), WithMetrics(m))
	client.FetchAltitude(context.Background(), models.Coordinate{Latitude: 1, Longitude: 2})
	client.FetchAltitude(context.Background(), models.Coordinate{Latitude: 1, Longitude: 2})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("OK")))
}

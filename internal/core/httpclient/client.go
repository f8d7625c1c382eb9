package httpclient

import (
	"net/http"
	"time"

	"geofence-tracker/internal/core/logger"

	"go.uber.org/zap"
)

// UserAgent identifies outbound calls made by this service.
const UserAgent = "geofence-tracker/1.0"

// LoggingRoundTripper logs every outbound call with its latency and outcome.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
}

// RoundTrip executes the request and logs details.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := logger.Named("httpclient").With(
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
	)

	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", UserAgent)
	}

	resp, err := lrt.Proxied.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		log.Warn("Outbound request failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, err
	}

	log.Debug("Outbound request completed",
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)
	return resp, nil
}

// NewClient returns an http.Client with the logging transport and timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied: http.DefaultTransport,
		},
		Timeout: timeout,
	}
}

package catalogapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// loggingTransport tags each request with an id and logs both directions.
type loggingTransport struct {
	next   http.RoundTripper
	logger *zap.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) == "" {
		// RoundTrippers must not mutate the caller's request
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	id := req.Header.Get(RequestIDHeader)
	t.logger.Debug("request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", id),
	)

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.Warn("network error: no response",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.String("request_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	fields := []zap.Field{
		zap.Int("status", resp.StatusCode),
		zap.String("url", req.URL.String()),
		zap.String("request_id", id),
		zap.Duration("elapsed", time.Since(start)),
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		t.logger.Warn("server error: authentication required", fields...)
	case resp.StatusCode == http.StatusNotFound:
		t.logger.Warn("server error: resource not found", fields...)
	case resp.StatusCode >= 400:
		t.logger.Warn("server error", fields...)
	default:
		t.logger.Debug("response", fields...)
	}
	return resp, nil
}

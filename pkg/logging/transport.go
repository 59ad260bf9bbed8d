package logging

import (
	"net/http"
	"time"
)

// Transport wraps an http.RoundTripper and logs every request made through it.
// The run ID from the request context is attached when present.
type Transport struct {
	Base http.RoundTripper
}

// NewTransport wraps base, or http.DefaultTransport when base is nil
func NewTransport(base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base}
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	TraceContext(ctx, "request started",
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
	)

	start := time.Now()
	resp, err := t.Base.RoundTrip(r)
	duration := time.Since(start)

	if err != nil {
		ErrorContext(ctx, "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"durationMs", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	if resp.StatusCode >= 400 {
		WarnContext(ctx, "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", resp.StatusCode,
			"durationMs", duration.Milliseconds(),
		)
	} else {
		DebugContext(ctx, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", resp.StatusCode,
			"durationMs", duration.Milliseconds(),
		)
	}
	return resp, nil
}

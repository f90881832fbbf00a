package api

import (
	"net/http"
	"time"

	"github.com/jrsteele09/clinician-portal/internal/ui"
	"github.com/rs/zerolog/log"
)

// loggingTransport logs every backend call at debug level. Headers are
// never logged; they carry the bearer token.
type loggingTransport struct {
	base   http.RoundTripper
	colour bool
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	event := log.Debug().
		Str("method", ui.Method(req.Method, t.colour)).
		Str("path", req.URL.Path).
		Str("request_id", req.Header.Get(HeaderRequestID)).
		Dur("elapsed", time.Since(start))
	if err != nil {
		event.Err(err).Msg("Backend call failed")
		return nil, err
	}
	event.Int("status", resp.StatusCode).Msg("Backend call")
	return resp, nil
}

// WithRequestLogging logs each request's method, path, status and latency.
func WithRequestLogging(colour bool) ClientOption {
	return func(c *Client) {
		c.logRequests = true
		c.logColour = colour
	}
}

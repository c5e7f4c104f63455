package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// FetchAcrossEndpoints requests path against each base endpoint in order and
// returns the first success. Each endpoint is tried once and every failure is
// logged at warn.
func FetchAcrossEndpoints(ctx context.Context, logger zerolog.Logger, g Getter, endpoints []string, path string, header http.Header) (*Response, error) {
	if len(endpoints) == 0 {
		return nil, &AllEndpointsFailedError{Last: errors.New("no endpoints configured")}
	}

	if path != "" && !strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "?") {
		path = "/" + path
	}

	var lastErr error
	for _, endpoint := range endpoints {
		resp, err := g.Get(ctx, strings.TrimRight(endpoint, "/")+path, header)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		logger.Warn().
			Err(err).
			Str("endpoint", endpoint).
			Str("path", path).
			Msg("Endpoint failed")

		if ctx.Err() != nil {
			break
		}
	}

	return nil, &AllEndpointsFailedError{Endpoints: endpoints, Last: lastErr}
}

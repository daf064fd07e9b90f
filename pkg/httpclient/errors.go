package httpclient

import (
	"fmt"
	"io"
	"net/http"
)

// ReadResponseError reads the body of a non-2xx HTTP response and returns an
// error carrying the upstream name, status code, and a bounded slice of the
// body. The response body is fully consumed and closed.
func ReadResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 4<<10)) // 4 KB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", upstream, resp.StatusCode, err)
	}

	return fmt.Errorf("%s returned status %d: %s", upstream, resp.StatusCode, string(bodyBytes))
}

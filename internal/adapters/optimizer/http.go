package optimizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPStatusError is returned for any non-2xx response from the service.
type HTTPStatusError struct {
	Code int
	Body string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (c *HTTPOptimizer) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (c *HTTPOptimizer) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &HTTPStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// Permanent reports whether a status-check error means the task can never
// resolve: a 4xx answer other than 408 or 429. Network errors, 5xx answers and
// undecodable bodies are left to the poller's retry.
func (c *HTTPOptimizer) Permanent(err error) bool {
	var he *HTTPStatusError
	if !errors.As(err, &he) {
		return false
	}
	switch he.Code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return he.Code >= 400 && he.Code < 500
}

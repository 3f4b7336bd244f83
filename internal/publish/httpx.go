package publish

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from a sink's API.
type APIError struct {
	Sink   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API returned status %d: %s", e.Sink, e.Status, e.Body)
}

// CheckResponse returns an *APIError for a non-2xx response.
// On success the body is left unread; the caller still closes resp.Body.
func CheckResponse(sink string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &APIError{Sink: sink, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

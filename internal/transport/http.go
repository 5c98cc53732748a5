// Package transport provides the small HTTP client helpers shared by the
// facade's outward-facing calls: probing a proxy's health endpoint and
// decoding its JSON response. It has no dependency on the broker core —
// the core never makes outbound calls.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// httpClient is shared across all outbound calls; a bounded per-call
// context timeout is layered on top per request, matching the pattern used
// throughout this codebase for outbound HTTP.
var httpClient = &http.Client{Timeout: 5 * time.Second}

// GetJSON issues a GET to url and decodes the JSON response body into out.
// A non-2xx response is reported as an error carrying the status code and
// a bounded prefix of the body.
func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "build GET request for %s", url)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(url, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode response from %s", url)
	}
	return nil
}

// PostJSON encodes body as JSON, POSTs it to url, and decodes the response
// into out (which may be nil if the caller does not need the body).
func PostJSON(ctx context.Context, url string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return errors.Wrap(err, "encode request body")
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return errors.Wrapf(err, "build POST request for %s", url)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "POST %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(url, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode response from %s", url)
	}
	return nil
}

func errorFromResponse(url string, resp *http.Response) error {
	const maxPreview = 256
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxPreview))
	return fmt.Errorf("%s: unexpected status %d: %s", url, resp.StatusCode, string(data))
}

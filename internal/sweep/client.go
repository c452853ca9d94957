package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/tipping/internal/adapters/http/api"
)

// client issues GET requests tagged with the sweep's run id.
type client struct {
	http  *http.Client
	base  string
	runID string
}

func newClient(base string, timeout time.Duration, runID string) *client {
	return &client{
		http:  &http.Client{Timeout: timeout},
		base:  base,
		runID: runID,
	}
}

func (c *client) get(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	target := c.base + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(api.HeaderRunID, c.runID)
	return c.http.Do(req)
}

// getJSON decodes a 200 response into v.
func (c *client) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	resp, err := c.get(ctx, path, q)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnexpected, path, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUnexpected, path, err)
	}
	return nil
}

func (c *client) health(ctx context.Context) error {
	resp, err := c.get(ctx, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to viewer: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

func (c *client) years(ctx context.Context) ([]int, error) {
	var p yearsPayload
	if err := c.getJSON(ctx, "/api/years", nil, &p); err != nil {
		return nil, err
	}
	return p.Years, nil
}

func (c *client) stops(ctx context.Context, year int) (stopsPayload, error) {
	var p stopsPayload
	err := c.getJSON(ctx, "/api/stops", url.Values{"year": {strconv.Itoa(year)}}, &p)
	return p, err
}

func (c *client) evaluate(ctx context.Context, year, index int) (evaluatePayload, error) {
	var p evaluatePayload
	q := url.Values{"year": {strconv.Itoa(year)}, "pv": {strconv.Itoa(index)}}
	err := c.getJSON(ctx, "/api/evaluate", q, &p)
	return p, err
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// callResult is the tagged outcome of a request that produced an HTTP
// response. Callers branch on Status explicitly; statuses that are control
// flow for one caller (404/409 in the resolution protocol) are plain errors
// for every other caller.
type callResult struct {
	Status int
	Body   []byte
}

func (r *callResult) ok() bool { return r.Status >= 200 && r.Status < 300 }

// decode unmarshals the body into v, converting a bad body into a parse
// failure. A nil v skips decoding.
func (r *callResult) decode(op string, v any) error {
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &APIError{Kind: KindParse, Status: r.Status, Op: op, Body: r.Body, Err: err}
	}
	return nil
}

// call issues one HTTP request and returns its tagged outcome. An error is
// returned only when no usable response was produced (network failure or a
// request that could not be built); every received status, 2xx or not, comes
// back as a callResult.
func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string) (*callResult, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Op: op, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(method, "network_error").Inc()
		return nil, &APIError{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(method, "network_error").Inc()
		return nil, &APIError{Kind: KindNetwork, Op: op, Err: err}
	}

	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	return &callResult{Status: resp.StatusCode, Body: raw}, nil
}

// callJSON marshals payload (when non-nil), issues the request, requires a
// 2xx status and decodes the response into out (when non-nil). Any non-2xx
// response becomes a typed error carrying the server detail.
func (c *Client) callJSON(ctx context.Context, op, method, path string, query url.Values, payload, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var body io.Reader
	contentType := ""
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	res, err := c.call(ctx, op, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	if !res.ok() {
		return httpError(op, res.Status, res.Body)
	}
	return res.decode(op, out)
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/totegamma/biomap"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "biomap-client/1.0"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return fmt.Sprintf("%d: %s (%s)", e.StatusCode, e.Message, strings.Join(parts, "; "))
}

// Client talks to one biomap node. Endpoints are discovered through
// /.well-known/biomap and cached.
type Client struct {
	client    *http.Client
	cache     *cache.Cache
	userAgent string
	baseURL   string
	token     string
}

func New(baseURL string, token string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    &httpClient,
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		userAgent: defaultUserAgent,
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return http.DefaultTransport.RoundTrip(req)
}

func (c *Client) GetWellKnown(ctx context.Context) (biomap.WellKnown, error) {
	cacheKey := "wellknown:" + c.baseURL
	x, found := c.cache.Get(cacheKey)
	if found {
		return x.(biomap.WellKnown), nil
	}

	var wk biomap.WellKnown
	err := c.request(ctx, http.MethodGet, c.baseURL+"/.well-known/biomap", nil, &wk)
	if err != nil {
		return biomap.WellKnown{}, fmt.Errorf("failed to get well-known: %w", err)
	}

	c.cache.Set(cacheKey, wk, cache.DefaultExpiration)
	return wk, nil
}

func (c *Client) call(ctx context.Context, name string, params map[string]string, query url.Values, body any, result any) error {
	wk, err := c.GetWellKnown(ctx)
	if err != nil {
		return err
	}

	endpoint, ok := wk.Endpoints[name]
	if !ok {
		return fmt.Errorf("endpoint %s not advertised by %s", name, c.baseURL)
	}

	path := endpoint.Template
	for k, v := range params {
		path = strings.ReplaceAll(path, "{"+k+"}", url.PathEscape(v))
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	return c.request(ctx, endpoint.Method, target, body, result)
}

func (c *Client) request(ctx context.Context, method, target string, body any, result any) error {
	var payload *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(b)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errResp biomap.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
			apiErr.Fields = errResp.Fields
		}
		return apiErr
	}

	if result == nil {
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(result)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) SubmitPin(ctx context.Context, input biomap.PinInput) (biomap.Pin, error) {
	var pin biomap.Pin
	err := c.call(ctx, "biomap.pins.create", nil, nil, input, &pin)
	return pin, err
}

func (c *Client) ListApproved(ctx context.Context) ([]biomap.Pin, error) {
	var pins []biomap.Pin
	err := c.call(ctx, "biomap.pins.approved", nil, nil, nil, &pins)
	return pins, err
}

func (c *Client) MapFeatures(ctx context.Context) ([]biomap.MapFeature, error) {
	var features []biomap.MapFeature
	err := c.call(ctx, "biomap.pins.map", nil, nil, nil, &features)
	return features, err
}

func (c *Client) ListPending(ctx context.Context) ([]biomap.Pin, error) {
	var pins []biomap.Pin
	err := c.call(ctx, "biomap.pins.pending", nil, nil, nil, &pins)
	return pins, err
}

func (c *Client) GetPin(ctx context.Context, id string) (biomap.Pin, error) {
	var pin biomap.Pin
	err := c.call(ctx, "biomap.pins.get", map[string]string{"id": id}, nil, nil, &pin)
	return pin, err
}

func (c *Client) Approve(ctx context.Context, id string) (biomap.Pin, error) {
	var pin biomap.Pin
	err := c.call(ctx, "biomap.pins.approve", map[string]string{"id": id}, nil, nil, &pin)
	return pin, err
}

func (c *Client) Reject(ctx context.Context, id string) (biomap.Pin, error) {
	var pin biomap.Pin
	err := c.call(ctx, "biomap.pins.reject", map[string]string{"id": id}, nil, nil, &pin)
	return pin, err
}

// Circle previews a protective area. segments <= 0 lets the server choose.
func (c *Client) Circle(ctx context.Context, center biomap.Point, radiusKm float64, segments int) ([][2]float64, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(center.Lat, 'f', -1, 64))
	query.Set("long", strconv.FormatFloat(center.Long, 'f', -1, 64))
	query.Set("radius", strconv.FormatFloat(radiusKm, 'f', -1, 64))
	if segments > 0 {
		query.Set("segments", strconv.Itoa(segments))
	}

	var ring [][2]float64
	err := c.call(ctx, "biomap.geo.circle", nil, query, nil, &ring)
	return ring, err
}

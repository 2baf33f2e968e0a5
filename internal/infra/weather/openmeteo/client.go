package openmeteo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agrosathi/agrosathi/internal/domain/enrichment"
)

const (
	defaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	maxPayload     = 1 << 20
)

// Client fetches current conditions from Open-Meteo.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an API client. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(u, "/"),
		httpClient: httpClient,
	}
}

// Current returns the raw payload for the coordinates. The payload shape is
// left to the caller's extractors.
func (c *Client) Current(ctx context.Context, coords enrichment.Coordinates) ([]byte, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	q.Set("current_weather", "true")
	endpoint := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("weather request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayload))
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode weather response: invalid json")
	}
	if gjson.GetBytes(body, "error").Bool() {
		return nil, fmt.Errorf("weather api error: %s", gjson.GetBytes(body, "reason").String())
	}
	return body, nil
}

var _ enrichment.WeatherProvider = (*Client)(nil)

// Package serper wraps the Serper.dev places search API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://google.serper.dev"

// Client performs Serper places search operations.
type Client interface {
	Places(ctx context.Context, req PlacesRequest) (*PlacesResponse, error)
}

// PlacesRequest is the request body for POST /places.
type PlacesRequest struct {
	Query    string `json:"q"`
	Location string `json:"location,omitempty"`
	GL       string `json:"gl,omitempty"`
	HL       string `json:"hl,omitempty"`
	Num      int    `json:"num,omitempty"`
}

// PlacesResponse is the response from POST /places.
type PlacesResponse struct {
	Places []Place `json:"places"`
}

// Place is a single place result.
type Place struct {
	Title        string   `json:"title"`
	Address      string   `json:"address"`
	Website      string   `json:"website"`
	Rating       float64  `json:"rating"`
	RatingCount  int      `json:"ratingCount"`
	Type         string   `json:"type"`
	Description  string   `json:"description"`
	OpeningHours string   `json:"openingHours"`
	PriceLevel   string   `json:"priceLevel"`
	BookingLinks []string `json:"bookingLinks"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Serper API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Places(ctx context.Context, req PlacesRequest) (*PlacesResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "serper: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "serper: create request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "serper: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serper: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("serper: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result PlacesResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "serper: unmarshal response")
	}

	return &result, nil
}

package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaces(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req PlacesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "restaurants helsinki", req.Query)
		assert.Equal(t, 10, req.Num)

		_ = json.NewEncoder(w).Encode(PlacesResponse{
			Places: []Place{
				{Title: "Mario's Restaurant", Rating: 4.5, RatingCount: 125, Type: "Restaurant"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.Places(context.Background(), PlacesRequest{Query: "restaurants helsinki", Num: 10})
	require.NoError(t, err)

	require.Len(t, resp.Places, 1)
	assert.Equal(t, "Mario's Restaurant", resp.Places[0].Title)
	assert.Equal(t, 4.5, resp.Places[0].Rating)
}

func TestPlaces_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.Places(context.Background(), PlacesRequest{Query: "cafes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 403")
}

func TestPlaces_MalformedResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Places(context.Background(), PlacesRequest{Query: "bars"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal response")
}

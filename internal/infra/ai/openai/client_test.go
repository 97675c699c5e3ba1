package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("sk-test", srv.URL+"/v1", "", srv.Client())
}

func TestEmbed(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"a mouse in red shorts"}, body.Input)
		assert.Equal(t, "text-embedding-ada-002", body.Model)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","model":"text-embedding-ada-002",
			"data":[{"object":"embedding","index":0,"embedding":[0.1,-0.2,0.3]}],
			"usage":{"prompt_tokens":5,"total_tokens":5}}`))
	})

	vec, err := c.Embed(context.Background(), "a mouse in red shorts")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, -0.2, 0.3}, vec)
}

func TestEmbedAPIError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	})

	_, err := c.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, faults.ErrService)
}

func TestEmbedEmptyData(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[]}`))
	})

	_, err := c.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, faults.ErrService)
}

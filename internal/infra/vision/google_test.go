package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
	domain "github.com/bryanwahyu/ugc-sentinel/internal/domain/submissions"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), "test-key", srv.Client(),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return c
}

func TestDetectLogos(t *testing.T) {
	var gotContent string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "images:annotate"), r.URL.Path)
		var body struct {
			Requests []struct {
				Image struct {
					Content string `json:"content"`
				} `json:"image"`
				Features []struct {
					Type string `json:"type"`
				} `json:"features"`
			} `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Requests, 1)
		assert.Equal(t, "LOGO_DETECTION", body.Requests[0].Features[0].Type)
		gotContent = body.Requests[0].Image.Content

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"responses":[{"logoAnnotations":[
			{"mid":"/m/045c7b","description":"Google","score":0.93,
			 "boundingPoly":{"vertices":[{"x":10,"y":20},{"x":110,"y":20},{"x":110,"y":60},{"x":10,"y":60}]}},
			{"description":"Acme","score":0.71}
		]}]}`))
	})

	dets, err := c.DetectLogos(context.Background(), []byte("img-bytes"))
	require.NoError(t, err)

	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("img-bytes")), gotContent)
	require.Len(t, dets, 2)
	assert.Equal(t, "Google", dets[0].Label)
	assert.Equal(t, domain.SourceVision, dets[0].Source)
	assert.Equal(t, domain.BoundingBox{XMin: 10, YMin: 20, XMax: 110, YMax: 60}, dets[0].Metadata["bbox"])
	assert.Equal(t, "Acme", dets[1].Label)
	assert.NotContains(t, dets[1].Metadata, "bbox")
}

func TestDetectLogosNoLogos(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{}]}`))
	})

	dets, err := c.DetectLogos(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestDetectLogosPerImageError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{"error":{"code":3,"message":"Bad image data."}}]}`))
	})

	_, err := c.DetectLogos(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, faults.ErrService)
	assert.Contains(t, err.Error(), "Bad image data")
}

func TestDetectLogosHTTPFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded"}}`))
	})

	_, err := c.DetectLogos(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, faults.ErrService)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", nil)
	assert.ErrorIs(t, err, faults.ErrConfig)
}

func TestDetectLogosSendsAPIKey(t *testing.T) {
	var header, query string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Goog-Api-Key")
		query = r.URL.Query().Get("key")
		w.Write([]byte(`{"responses":[{}]}`))
	})

	_, err := c.DetectLogos(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.True(t, header == "test-key" || query == "test-key",
		"api key missing: header=%q query=%q", header, query)
}

func TestNewClientKeepsCallerTransport(t *testing.T) {
	var sawKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawKey = r.Header.Get("X-Goog-Api-Key")
		w.Write([]byte(`{"responses":[{}]}`))
	}))
	t.Cleanup(srv.Close)

	hc := &http.Client{Timeout: 5 * time.Second}
	c, err := NewClient(context.Background(), "prod-key", hc, option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	_, err = c.DetectLogos(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "prod-key", sawKey)
	assert.Nil(t, hc.Transport, "caller's client must not be mutated")
}

package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gvision "google.golang.org/api/vision/v1"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
	domain "github.com/bryanwahyu/ugc-sentinel/internal/domain/submissions"
)

const (
	op          = "vision.detect_logos"
	featureLogo = "LOGO_DETECTION"
)

// Client calls Google Cloud Vision logo detection.
type Client struct {
	svc        *gvision.Service
	maxResults int64
}

// NewClient buat client Vision pakai API key. When httpClient is given the key
// rides on its transport, since the library ignores WithAPIKey once an
// explicit client is supplied.
func NewClient(ctx context.Context, apiKey string, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, faults.Newf(faults.KindConfig, "vision.new", "api key is empty")
	}
	if httpClient != nil {
		keyed := *httpClient
		keyed.Transport = &apiKeyTransport{key: apiKey, base: httpClient.Transport}
		opts = append([]option.ClientOption{option.WithHTTPClient(&keyed)}, opts...)
	} else {
		opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	}
	svc, err := gvision.NewService(ctx, opts...)
	if err != nil {
		return nil, faults.New(faults.KindConfig, "vision.new", err)
	}
	return &Client{svc: svc, maxResults: 10}, nil
}

// apiKeyTransport adds X-Goog-Api-Key to every request.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	r := req.Clone(req.Context())
	r.Header.Set("X-Goog-Api-Key", t.key)
	return base.RoundTrip(r)
}

// DetectLogos implements domain.ImageRecognizer.
func (c *Client) DetectLogos(ctx context.Context, content []byte) ([]domain.Detection, error) {
	req := &gvision.BatchAnnotateImagesRequest{
		Requests: []*gvision.AnnotateImageRequest{{
			Image:    &gvision.Image{Content: base64.StdEncoding.EncodeToString(content)},
			Features: []*gvision.Feature{{Type: featureLogo, MaxResults: c.maxResults}},
		}},
	}

	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
			return nil, faults.Newf(faults.KindService, op, "quota exceeded: %s", gerr.Message)
		}
		return nil, faults.New(faults.KindService, op, err)
	}
	if len(resp.Responses) == 0 {
		return nil, faults.Newf(faults.KindService, op, "empty response")
	}

	r := resp.Responses[0]
	if r.Error != nil && r.Error.Code != 0 {
		return nil, faults.Newf(faults.KindService, op, "status %d: %s", r.Error.Code, r.Error.Message)
	}

	out := make([]domain.Detection, 0, len(r.LogoAnnotations))
	for _, a := range r.LogoAnnotations {
		if a == nil {
			continue
		}
		meta := map[string]any{"score": a.Score}
		if a.Mid != "" {
			meta["mid"] = a.Mid
		}
		if box, ok := boundingBox(a.BoundingPoly); ok {
			meta["bbox"] = box
		}
		out = append(out, domain.Detection{
			Label:    a.Description,
			Source:   domain.SourceVision,
			Metadata: meta,
		})
	}
	return out, nil
}

func boundingBox(p *gvision.BoundingPoly) (domain.BoundingBox, bool) {
	if p == nil || len(p.Vertices) == 0 {
		return domain.BoundingBox{}, false
	}
	first := true
	var box domain.BoundingBox
	for _, v := range p.Vertices {
		if v == nil {
			continue
		}
		x, y := float64(v.X), float64(v.Y)
		if first {
			box = domain.BoundingBox{XMin: x, YMin: y, XMax: x, YMax: y}
			first = false
			continue
		}
		box.XMin = min(box.XMin, x)
		box.YMin = min(box.YMin, y)
		box.XMax = max(box.XMax, x)
		box.YMax = max(box.YMax, y)
	}
	return box, !first
}

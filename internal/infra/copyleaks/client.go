package copyleaks

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
	domain "github.com/bryanwahyu/ugc-sentinel/internal/domain/submissions"
)

const op = "copyleaks.check"

// Client submits text to Copyleaks for plagiarism checking.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(endpoint, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, http: httpClient}
}

type submitRequest struct {
	Base64   string `json:"base64"`
	Filename string `json:"filename"`
}

// Check implements domain.PlagiarismChecker. The report is returned as the
// provider sent it.
func (c *Client) Check(ctx context.Context, fileName, text string) (domain.PlagiarismReport, error) {
	payload, err := json.Marshal(submitRequest{
		Base64:   base64.StdEncoding.EncodeToString([]byte(text)),
		Filename: filepath.Base(fileName),
	})
	if err != nil {
		return nil, faults.New(faults.KindService, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, faults.New(faults.KindService, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, faults.New(faults.KindService, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, faults.New(faults.KindService, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, faults.Newf(faults.KindService, op, "http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		// submit endpoint answers 201 with no body
		return domain.PlagiarismReport(`{}`), nil
	}
	if !json.Valid(raw) {
		return nil, faults.New(faults.KindService, op, fmt.Errorf("response is not JSON"))
	}
	return domain.PlagiarismReport(raw), nil
}

package audd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
	domain "github.com/bryanwahyu/ugc-sentinel/internal/domain/submissions"
)

const op = "audd.match"

// Client talks to the AudD recognition API.
type Client struct {
	endpoint string
	token    string
	ret      string
	http     *http.Client
}

func NewClient(endpoint, token, ret string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, token: token, ret: ret, http: httpClient}
}

type response struct {
	Status string `json:"status"`
	Error  *struct {
		Code    int    `json:"error_code"`
		Message string `json:"error_message"`
	} `json:"error"`
	Result *struct {
		Artist      string `json:"artist"`
		Title       string `json:"title"`
		Album       string `json:"album"`
		ReleaseDate string `json:"release_date"`
		Timecode    string `json:"timecode"`
		SongLink    string `json:"song_link"`
		AppleMusic  *struct {
			URL string `json:"url"`
		} `json:"apple_music"`
		Spotify *struct {
			ExternalURLs struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
		} `json:"spotify"`
	} `json:"result"`
}

// Match implements domain.AudioMatcher. No match is (nil, nil).
func (c *Client) Match(ctx context.Context, fileName string, content []byte) (*domain.AudioMatch, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("api_token", c.token); err != nil {
		return nil, faults.New(faults.KindService, op, err)
	}
	if c.ret != "" {
		if err := mw.WriteField("return", c.ret); err != nil {
			return nil, faults.New(faults.KindService, op, err)
		}
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(fileName))
	if err != nil {
		return nil, faults.New(faults.KindService, op, err)
	}
	if _, err := fw.Write(content); err != nil {
		return nil, faults.New(faults.KindService, op, err)
	}
	if err := mw.Close(); err != nil {
		return nil, faults.New(faults.KindService, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, faults.New(faults.KindService, op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, faults.New(faults.KindService, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, faults.New(faults.KindService, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, faults.Newf(faults.KindService, op, "http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, faults.New(faults.KindService, op, fmt.Errorf("decode response: %w", err))
	}
	if out.Status == "error" {
		if out.Error != nil {
			return nil, faults.Newf(faults.KindService, op, "code %d: %s", out.Error.Code, out.Error.Message)
		}
		return nil, faults.Newf(faults.KindService, op, "service reported error")
	}
	if out.Result == nil {
		return nil, nil
	}

	r := out.Result
	m := &domain.AudioMatch{
		Title:       r.Title,
		Artist:      r.Artist,
		Album:       r.Album,
		ReleaseDate: r.ReleaseDate,
		Timecode:    r.Timecode,
		SongLink:    r.SongLink,
		Links:       map[string]string{},
	}
	if r.SongLink != "" {
		m.Links["song_link"] = r.SongLink
	}
	if r.AppleMusic != nil && r.AppleMusic.URL != "" {
		m.Links["apple_music"] = r.AppleMusic.URL
	}
	if r.Spotify != nil && r.Spotify.ExternalURLs.Spotify != "" {
		m.Links["spotify"] = r.Spotify.ExternalURLs.Spotify
	}
	return m, nil
}

package slack

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/bryanwahyu/ugc-sentinel/internal/logging"
)

// Notifier posts messages to Slack incoming webhooks.
type Notifier struct {
	http *http.Client
}

func NewNotifier(httpClient *http.Client) *Notifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Notifier{http: httpClient}
}

// Send delivers message to endpoint. Only HTTP 200 counts as delivered; any
// other outcome is logged and reported as false.
func (n *Notifier) Send(ctx context.Context, endpoint, message string) bool {
	log := logging.Ctx(ctx)

	payload, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		log.Warn().Err(err).Msg("slack: marshal payload")
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		log.Warn().Err(err).Msg("slack: build request")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("slack: webhook unreachable")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("slack: webhook rejected message")
		return false
	}
	return true
}

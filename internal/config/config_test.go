package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
)

const validYAML = `
server:
  port: 9090
vision:
  apiKey: vision-key
detector:
  modelPath: models/custom-logo-detection.pt
audd:
  apiToken: ${TEST_AUDD_TOKEN}
copyleaks:
  apiKey: copyleaks-key
openai:
  apiKey: sk-test
slack:
  webhookURL: https://hooks.slack.com/services/T/B/X
`

func TestParseAppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("TEST_AUDD_TOKEN", "audd-from-env")

	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "audd-from-env", cfg.AudD.APIToken)
	assert.Equal(t, "https://api.audd.io/", cfg.AudD.Endpoint)
	assert.Equal(t, PolicyAbort, cfg.Pipeline.FailurePolicy)
	assert.Equal(t, 1, cfg.Video.IntervalSeconds)
	assert.Equal(t, 7680, cfg.Video.MaxDimension)
	assert.Equal(t, "text-embedding-ada-002", cfg.OpenAI.Model)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, int64(64<<20), cfg.UploadLimit())
	assert.False(t, cfg.MinioEnabled())
}

func TestParseMissingCredentialIsConfigError(t *testing.T) {
	os.Unsetenv("TEST_AUDD_TOKEN")

	_, err := Parse([]byte(validYAML))
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrConfig)
	assert.Contains(t, err.Error(), "AudD.APIToken")
}

func TestParseMinioRequiresCredentials(t *testing.T) {
	t.Setenv("TEST_AUDD_TOKEN", "x")
	data := validYAML + `
minio:
  endpoint: localhost:9000
`
	_, err := Parse([]byte(data))
	assert.ErrorIs(t, err, faults.ErrConfig)
}

func TestParseReferencesDriver(t *testing.T) {
	t.Setenv("TEST_AUDD_TOKEN", "x")

	_, err := Parse([]byte(validYAML + "\nreferences:\n  driver: mysql\n"))
	assert.ErrorIs(t, err, faults.ErrConfig)

	cfg, err := Parse([]byte(validYAML + "\nreferences:\n  driver: file\n  path: refs.yaml\n"))
	require.NoError(t, err)
	assert.Equal(t, "refs.yaml", cfg.References.Path)
}

func TestParseRejectsUnknownPolicy(t *testing.T) {
	t.Setenv("TEST_AUDD_TOKEN", "x")
	_, err := Parse([]byte(validYAML + "\npipeline:\n  failurePolicy: ignore\n"))
	assert.ErrorIs(t, err, faults.ErrConfig)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, faults.ErrConfig)
}

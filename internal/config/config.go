package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
)

// Failure policies for analyzer errors.
const (
	PolicyAbort   = "abort"
	PolicyDegrade = "degrade"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port" validate:"min=1,max=65535"`
		MaxUploadMB    int64    `yaml:"maxUploadMB" validate:"min=1"`
		TempDir        string   `yaml:"tempDir" validate:"required"`
		RequestsPerMin int      `yaml:"requestsPerMin" validate:"min=0"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
		Format string `yaml:"format" validate:"omitempty,oneof=json console"`
	} `yaml:"log"`

	Pipeline struct {
		FailurePolicy  string        `yaml:"failurePolicy" validate:"oneof=abort degrade"`
		RequestTimeout time.Duration `yaml:"requestTimeout" validate:"min=0"`
	} `yaml:"pipeline"`

	Vision struct {
		APIKey   string `yaml:"apiKey" validate:"required"`
		Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
	} `yaml:"vision"`

	Detector struct {
		ModelPath string   `yaml:"modelPath" validate:"required"`
		Command   []string `yaml:"command" validate:"required,min=1"`
	} `yaml:"detector"`

	AudD struct {
		APIToken string `yaml:"apiToken" validate:"required"`
		Endpoint string `yaml:"endpoint" validate:"required,url"`
		Return   string `yaml:"return"`
	} `yaml:"audd"`

	Copyleaks struct {
		APIKey   string `yaml:"apiKey" validate:"required"`
		Endpoint string `yaml:"endpoint" validate:"required,url"`
	} `yaml:"copyleaks"`

	Video struct {
		FFprobe         string `yaml:"ffprobe"`
		FFmpeg          string `yaml:"ffmpeg"`
		IntervalSeconds int    `yaml:"intervalSeconds" validate:"min=1"`
		OutputDir       string `yaml:"outputDir" validate:"required"`
		MaxDimension    int    `yaml:"maxDimension" validate:"min=0"`
	} `yaml:"video"`

	OpenAI struct {
		APIKey      string `yaml:"apiKey" validate:"required"`
		BaseURL     string `yaml:"baseURL" validate:"omitempty,url"`
		Model       string `yaml:"model"`
		Concurrency int    `yaml:"concurrency" validate:"min=1"`
	} `yaml:"openai"`

	Slack struct {
		WebhookURL string `yaml:"webhookURL" validate:"required,url"`
	} `yaml:"slack"`

	// Minio optional; when endpoint kosong frame disimpan lokal saja
	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey" validate:"required_with=Endpoint"`
		SecretKey  string `yaml:"secretKey" validate:"required_with=Endpoint"`
		BucketName string `yaml:"bucketName" validate:"required_with=Endpoint"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	References struct {
		Driver string `yaml:"driver" validate:"omitempty,oneof=file mysql postgres"`
		Path   string `yaml:"path" validate:"required_if=Driver file"`
		DSN    string `yaml:"dsn" validate:"required_if=Driver mysql,required_if=Driver postgres"`
		Limit  int    `yaml:"limit" validate:"min=1"`
	} `yaml:"references"`

	HTTPTimeout time.Duration `yaml:"httpTimeout" validate:"min=0"`
}

// Default returns a Config with every optional knob filled in.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.MaxUploadMB = 64
	c.Server.TempDir = "temp"
	c.Server.RequestsPerMin = 60
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Pipeline.FailurePolicy = PolicyAbort
	c.Pipeline.RequestTimeout = 2 * time.Minute
	c.Detector.Command = []string{"yolo-detect", "--model", "{model}", "--source", "{image}"}
	c.AudD.Endpoint = "https://api.audd.io/"
	c.AudD.Return = "apple_music,spotify"
	c.Copyleaks.Endpoint = "https://api.copyleaks.com/v3/education/submit/file"
	c.Video.FFprobe = "ffprobe"
	c.Video.FFmpeg = "ffmpeg"
	c.Video.IntervalSeconds = 1
	c.Video.OutputDir = "frames"
	c.Video.MaxDimension = 7680
	c.OpenAI.Model = "text-embedding-ada-002"
	c.OpenAI.Concurrency = 4
	c.References.Limit = 100
	c.HTTPTimeout = 30 * time.Second
	return &c
}

// Load baca file config.yaml, expand ${VAR} dari environment, lalu validasi.
// Every problem comes back as faults.ErrConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, faults.New(faults.KindConfig, "config.load", err)
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML on top of Default().
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, faults.New(faults.KindConfig, "config.parse", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks required credentials and endpoints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return faults.New(faults.KindConfig, "config.validate", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s (%s)", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
	}
	return faults.Newf(faults.KindConfig, "config.validate", "invalid fields: %s", strings.Join(msgs, ", "))
}

// UploadLimit in bytes
func (c *Config) UploadLimit() int64 {
	return c.Server.MaxUploadMB << 20
}

// MinioEnabled is true when a MinIO endpoint is configured.
func (c *Config) MinioEnabled() bool {
	return strings.TrimSpace(c.Minio.Endpoint) != ""
}

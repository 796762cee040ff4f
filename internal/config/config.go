package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed limits.yaml
var limitsYAML []byte

// DefaultAPIURL is used when LORA_API_URL is not set.
const DefaultAPIURL = "http://localhost:8000"

type Config struct {
	API    APIConfig
	Limits LimitsConfig
	Log    LogConfig
	Web    WebConfig
}

type APIConfig struct {
	URL        string // backend base URL without the /v1 suffix
	Token      string // optional bearer token sent with every backend call
	CaptureDir string // directory to save raw API responses to (optional)
}

type LogConfig struct {
	Level  string // debug, info, warn, error (default info)
	Format string // text or json (default text)
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	MaxUploadMB    int // maximum multipart request size accepted by the console
}

// LimitsConfig mirrors the quotas enforced by the backend.
type LimitsConfig struct {
	MaxAssets    int                 `yaml:"max_assets"`
	MinForRun    int                 `yaml:"min_for_run"`
	ContentTypes []ContentTypeConfig `yaml:"content_types"`
}

type ContentTypeConfig struct {
	Type       string   `yaml:"type"`
	Extensions []string `yaml:"extensions"`
}

// AllowedContentTypes returns the content types accepted for upload, in declaration order.
func (l *LimitsConfig) AllowedContentTypes() []string {
	types := make([]string, 0, len(l.ContentTypes))
	for _, ct := range l.ContentTypes {
		types = append(types, ct.Type)
	}
	return types
}

// ContentTypeForExt maps a file extension (with or without the dot, any case)
// to its allowed content type. Returns "" for unsupported extensions.
func (l *LimitsConfig) ContentTypeForExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, ct := range l.ContentTypes {
		for _, e := range ct.Extensions {
			if e == ext {
				return ct.Type
			}
		}
	}
	return ""
}

// IsSupportedFile checks if a file name has an extension from the allow-list.
func (l *LimitsConfig) IsSupportedFile(name string) bool {
	return l.ContentTypeForExt(filepath.Ext(name)) != ""
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString returns the env var value or the default when it is unset or empty.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated env var, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Limits returns the embedded upload limits.
func Limits() LimitsConfig {
	var limits LimitsConfig
	if err := yaml.Unmarshal(limitsYAML, &limits); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded limits.yaml: " + err.Error())
	}
	return limits
}

func Load() *Config {
	return &Config{
		API: APIConfig{
			URL:        strings.TrimRight(envString("LORA_API_URL", DefaultAPIURL), "/"),
			Token:      os.Getenv("LORA_API_TOKEN"),
			CaptureDir: os.Getenv("LORA_CAPTURE_DIR"),
		},
		Limits: Limits(),
		Log: LogConfig{
			Level:  strings.ToLower(envString("LOG_LEVEL", "info")),
			Format: strings.ToLower(envString("LOG_FORMAT", "text")),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
			MaxUploadMB:    envInt("WEB_MAX_UPLOAD_MB", 512),
		},
	}
}

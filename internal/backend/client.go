package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Client is a client for the person/photo backend API
type Client struct {
	URL          string
	parsedURL    *url.URL
	token        string
	httpClient   *http.Client
	contentTypes []string
	captureDir   string
}

// resolveURL builds a full URL from the base API URL and the given path segments.
// If the last segment contains a query string (e.g. "persons?limit=10"), it is
// split so JoinPath only receives the path portion and the query is appended.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	last := pathSegments[len(pathSegments)-1]
	if pathPart, query, ok := strings.Cut(last, "?"); ok {
		pathSegments[len(pathSegments)-1] = pathPart
		result := c.parsedURL.JoinPath(pathSegments...)
		result.RawQuery = query
		return result.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// readErrorBody reads the response body of a failed request.
// Returns nil if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil {
		return nil
	}
	return body
}

// SetCaptureDir enables API response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Client) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}

// SetAllowedContentTypes replaces the content-type allow-list checked before presigning.
func (c *Client) SetAllowedContentTypes(types []string) {
	if len(types) == 0 {
		types = AllowedContentTypes
	}
	c.contentTypes = slices.Clone(types)
}

// IsAllowedContentType reports whether uploads of the given content type can be authorized.
func (c *Client) IsAllowedContentType(contentType string) bool {
	return slices.Contains(c.contentTypes, contentType)
}

// captureResponse saves the API response body to a file if capturing is enabled.
func (c *Client) captureResponse(endpoint string, body []byte) {
	if c.captureDir == "" {
		return
	}

	// Sanitize endpoint for filename
	filename := strings.NewReplacer("/", "_", "?", "_", "&", "_", "=", "-").Replace(endpoint)
	filename = strings.TrimPrefix(filename, "_")
	timestamp := time.Now().Format("20060102_150405")
	filename = fmt.Sprintf("%s_%s.json", filename, timestamp)

	path := filepath.Join(c.captureDir, filename)

	// Pretty-print JSON if possible
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
		body = prettyJSON.Bytes()
	}

	if err := os.WriteFile(path, body, 0600); err != nil {
		slog.Warn("failed to capture API response", "path", path, "error", err)
	}
}

// NewClient creates a new backend client.
// The token is optional; when set it is sent as a bearer token on API calls.
func NewClient(rawURL, token string) (*Client, error) {
	return NewClientWithCapture(rawURL, token, "")
}

// NewClientWithCapture creates a new backend client with optional response capturing.
// Pass an empty captureDir to disable capturing.
func NewClientWithCapture(rawURL, token, captureDir string) (*Client, error) {
	apiURL := strings.TrimRight(rawURL, "/") + "/v1"
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", rawURL)
	}

	c := &Client{
		URL:          apiURL,
		parsedURL:    parsed,
		token:        token,
		httpClient:   http.DefaultClient,
		contentTypes: slices.Clone(AllowedContentTypes),
	}
	if captureDir != "" {
		if err := c.SetCaptureDir(captureDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

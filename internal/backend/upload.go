package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Content types accepted for upload
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeWEBP = "image/webp"
)

// AllowedContentTypes is the default upload allow-list.
var AllowedContentTypes = []string{ContentTypeJPEG, ContentTypePNG, ContentTypeWEBP}

// PresignUpload requests a one-time authorization to upload a single file
// directly to storage. The size is not checked here; the backend enforces its
// own maximum.
func (c *Client) PresignUpload(ctx context.Context, personID int64, in PresignRequest) (*UploadAuthorization, error) {
	if strings.TrimSpace(in.Filename) == "" {
		return nil, &APIError{Kind: ErrAuthorization, Detail: "filename is required"}
	}
	if !c.IsAllowedContentType(in.ContentType) {
		return nil, &APIError{Kind: ErrAuthorization, Detail: fmt.Sprintf("unsupported content type %q", in.ContentType)}
	}

	auth, err := doPostJSON[UploadAuthorization](ctx, c, ErrAuthorization, "", fmt.Sprintf("persons/%d/uploads/presign", personID), in)
	if err != nil {
		return nil, err
	}
	if auth.URL == "" || auth.Key == "" {
		return nil, &APIError{Kind: ErrAuthorization, Err: errors.New("authorization response is missing url or key")}
	}
	if auth.Method == "" {
		auth.Method = http.MethodPut
	}
	return auth, nil
}

// Transfer pushes the raw file bytes to the authorized destination using the
// method the authorization specifies. The destination is self-authorizing, so
// no bearer token is attached. Success is decided solely by the response status.
func (c *Client) Transfer(ctx context.Context, auth *UploadAuthorization, body io.Reader, size int64, contentType string) error {
	method := strings.ToUpper(auth.Method)
	if method == "" {
		method = http.MethodPut
	}

	req, err := http.NewRequestWithContext(ctx, method, auth.URL, body)
	if err != nil {
		return &APIError{Kind: ErrTransfer, Err: fmt.Errorf("could not create request: %w", err)}
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL issued by the backend presign endpoint
	if err != nil {
		return &APIError{Kind: ErrTransfer, Err: fmt.Errorf("could not send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Storage error bodies are not backend details; the status says it all.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &APIError{Kind: ErrTransfer, StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

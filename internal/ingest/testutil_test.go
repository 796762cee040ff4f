package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/kozaktomas/lora-person/internal/backend"
	"github.com/kozaktomas/lora-person/internal/backend/mock"
)

// setupBackend starts a fake backend and a client pointed at it.
func setupBackend(t *testing.T) (*mock.Server, *backend.Client) {
	t.Helper()

	srv := mock.New()
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(srv.URL, "")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return srv, client
}

// memFile returns an upload source backed by data.
func memFile(name, contentType, data string) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(data))), nil
		},
	}
}

func jpegFiles(names ...string) []File {
	files := make([]File, 0, len(names))
	for _, name := range names {
		files = append(files, memFile(name, backend.ContentTypeJPEG, "jpeg:"+name))
	}
	return files
}

// fakeUploader records every step and fails the configured file at the configured step.
type fakeUploader struct {
	failFile string
	failStep FileState
	failErr  error

	calls []string
	next  int64
}

func (f *fakeUploader) fail(file string, step FileState) error {
	if file == f.failFile && step == f.failStep {
		return f.failErr
	}
	return nil
}

func (f *fakeUploader) PresignUpload(ctx context.Context, personID int64, in backend.PresignRequest) (*backend.UploadAuthorization, error) {
	f.calls = append(f.calls, "authorize:"+in.Filename)
	if err := f.fail(in.Filename, StateAuthorizing); err != nil {
		return nil, err
	}
	return &backend.UploadAuthorization{URL: "http://storage/" + in.Filename, Method: "PUT", Key: in.Filename}, nil
}

func (f *fakeUploader) Transfer(ctx context.Context, auth *backend.UploadAuthorization, body io.Reader, size int64, contentType string) error {
	f.calls = append(f.calls, "transfer:"+auth.Key)
	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	return f.fail(auth.Key, StateTransferring)
}

func (f *fakeUploader) CompletePhoto(ctx context.Context, personID int64, in backend.CompleteRequest) (*backend.Photo, error) {
	f.calls = append(f.calls, "register:"+in.Key)
	if err := f.fail(in.Key, StateRegistering); err != nil {
		return nil, err
	}
	f.next++
	return &backend.Photo{ID: f.next, S3Key: in.Key, ContentType: in.ContentType, SizeBytes: in.SizeBytes, Status: backend.StatusUploaded}, nil
}

var errBoom = errors.New("boom")

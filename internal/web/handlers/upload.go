package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/kozaktomas/lora-person/internal/config"
	"github.com/kozaktomas/lora-person/internal/constants"
	"github.com/kozaktomas/lora-person/internal/ingest"
	"github.com/kozaktomas/lora-person/internal/media"
)

// UploadHandler handles batch uploads of photos for a person.
type UploadHandler struct {
	config *config.Config
	views  *ViewManager
	logger *slog.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(cfg *config.Config, views *ViewManager, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{
		config: cfg,
		views:  views,
		logger: logger,
	}
}

// uploadSources turns multipart files into upload sources in form order.
// The content type comes from the image header, not the part header.
func uploadSources(headers []*multipart.FileHeader) ([]ingest.File, error) {
	files := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		safeName := filepath.Base(fh.Filename)

		contentType, err := func() (string, error) {
			f, err := fh.Open()
			if err != nil {
				return "", fmt.Errorf("failed to open file: %s", safeName)
			}
			defer f.Close()
			return media.DetectContentType(f)
		}()
		if err != nil {
			if errors.Is(err, media.ErrUnsupported) {
				return nil, fmt.Errorf("%s: %w", safeName, err)
			}
			return nil, err
		}

		files = append(files, ingest.File{
			Name:        safeName,
			ContentType: contentType,
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files, nil
}

// Upload handles multipart uploads. The files are uploaded as one batch in
// form order; the response carries the batch result and the refreshed view.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	personID, ok := personIDParam(w, r)
	if !ok {
		return
	}

	maxBytes := int64(h.config.Web.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(constants.MultipartMemoryBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", h.config.Web.MaxUploadMB))
			return
		}
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respondError(w, http.StatusBadRequest, "no files provided")
		return
	}

	files, err := uploadSources(headers)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.views.Load(r.Context(), personID)
	if err != nil {
		respondView(w, ViewResponse{State: view.State()}, err)
		return
	}

	result, err := view.Upload(r.Context(), files)
	recordBatch(result, err)
	if errors.Is(err, ingest.ErrUploadDisabled) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	h.logger.Info("console upload finished", "person_id", personID, "files", len(files), "error", err)
	respondView(w, ViewResponse{State: view.State(), Batch: result}, err)
}

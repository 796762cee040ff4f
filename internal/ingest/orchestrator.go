package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kozaktomas/lora-person/internal/backend"
)

// Uploader runs the three steps of the upload protocol for a single file.
type Uploader interface {
	PresignUpload(ctx context.Context, personID int64, in backend.PresignRequest) (*backend.UploadAuthorization, error)
	Transfer(ctx context.Context, auth *backend.UploadAuthorization, body io.Reader, size int64, contentType string) error
	CompletePhoto(ctx context.Context, personID int64, in backend.CompleteRequest) (*backend.Photo, error)
}

// BatchResult describes a batch after it finished or halted.
type BatchResult struct {
	ID     string          `json:"id"`
	Photos []backend.Photo `json:"photos"` // registered photos in file order
	Files  []FileProgress  `json:"files"`  // final state of every file
}

// BatchError reports the file that halted a batch. Its message is exactly the
// message of the failed step.
type BatchError struct {
	BatchID string
	Index   int
	File    string
	Step    FileState
	Err     error
}

func (e *BatchError) Error() string {
	return e.Err.Error()
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Orchestrator uploads batches of files strictly one after another.
type Orchestrator struct {
	client Uploader
	logger *slog.Logger

	// OnProgress is called on every file state transition.
	OnProgress func(FileProgress)
	// AfterBatch is called exactly once per batch, whether it succeeded or halted.
	// Its context keeps the batch values but is never cancelled.
	AfterBatch func(ctx context.Context)
}

// NewOrchestrator creates an orchestrator. A nil logger uses slog.Default().
func NewOrchestrator(client Uploader, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{client: client, logger: logger}
}

// Upload runs every file through authorize, transfer and register, in order.
// The first failure halts the batch: later files are never attempted and the
// returned error is a *BatchError. Files registered before the failure stay
// registered. The result is returned in both cases.
func (o *Orchestrator) Upload(ctx context.Context, personID int64, files []File) (*BatchResult, error) {
	result := &BatchResult{
		ID:     uuid.NewString(),
		Photos: make([]backend.Photo, 0, len(files)),
		Files:  make([]FileProgress, len(files)),
	}
	for i, f := range files {
		result.Files[i] = FileProgress{BatchID: result.ID, Index: i, Total: len(files), File: f.Name, State: StatePending}
	}

	// The refresh must see the partial progress of a cancelled batch too
	if o.AfterBatch != nil {
		defer o.AfterBatch(context.WithoutCancel(ctx))
	}

	logger := o.logger.With("batch_id", result.ID, "person_id", personID)
	logger.Info("upload batch started", "files", len(files))

	for i, f := range files {
		photo, step, err := o.uploadFile(ctx, personID, f, func(state FileState) {
			o.report(result, i, state, nil)
		})
		if err != nil {
			o.report(result, i, StateFailed, err)
			logger.Warn("upload batch halted", "index", i, "file", f.Name, "step", step, "error", err)
			return result, &BatchError{BatchID: result.ID, Index: i, File: f.Name, Step: step, Err: err}
		}

		result.Photos = append(result.Photos, *photo)
		o.report(result, i, StateDone, nil)
		logger.Debug("file uploaded", "index", i, "file", f.Name, "photo_id", photo.ID)
	}

	logger.Info("upload batch finished", "uploaded", len(result.Photos))
	return result, nil
}

// uploadFile returns the step that failed together with its error.
func (o *Orchestrator) uploadFile(ctx context.Context, personID int64, f File, enter func(FileState)) (*backend.Photo, FileState, error) {
	enter(StateAuthorizing)
	auth, err := o.client.PresignUpload(ctx, personID, backend.PresignRequest{
		Filename:    f.Name,
		ContentType: f.ContentType,
		SizeBytes:   f.Size,
	})
	if err != nil {
		return nil, StateAuthorizing, err
	}

	enter(StateTransferring)
	if err := o.transfer(ctx, auth, f); err != nil {
		return nil, StateTransferring, err
	}

	enter(StateRegistering)
	photo, err := o.client.CompletePhoto(ctx, personID, backend.CompleteRequest{
		Key:         auth.Key,
		ContentType: f.ContentType,
		SizeBytes:   f.Size,
	})
	if err != nil {
		return nil, StateRegistering, err
	}
	return photo, StateDone, nil
}

func (o *Orchestrator) transfer(ctx context.Context, auth *backend.UploadAuthorization, f File) error {
	if f.Open == nil {
		return &backend.APIError{Kind: backend.ErrTransfer, Err: fmt.Errorf("no source for %s", f.Name)}
	}
	body, err := f.Open()
	if err != nil {
		return &backend.APIError{Kind: backend.ErrTransfer, Err: fmt.Errorf("could not open %s: %w", f.Name, err)}
	}
	defer body.Close()

	// The authorization may pin the content type the destination expects
	contentType := auth.ContentType
	if contentType == "" {
		contentType = f.ContentType
	}
	return o.client.Transfer(ctx, auth, body, f.Size, contentType)
}

func (o *Orchestrator) report(result *BatchResult, i int, state FileState, err error) {
	p := &result.Files[i]
	p.State = state
	if err != nil {
		p.Error = err.Error()
	}
	if o.OnProgress != nil {
		o.OnProgress(*p)
	}
}

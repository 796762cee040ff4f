package ingest

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/kozaktomas/lora-person/internal/backend"
)

// Errors returned when an action is not available in the current state.
var (
	ErrUploadDisabled = errors.New("upload is not available")
	ErrRunDisabled    = errors.New("preprocessing cannot be started")
	ErrDeleteInFlight = errors.New("photo is already being deleted")
)

// Client is everything a View needs from the backend.
type Client interface {
	Reader
	Uploader
	StartPreprocess(ctx context.Context, personID int64) (*backend.PreprocessStart, error)
	DeletePhoto(ctx context.Context, personID, photoID int64) error
}

// Controls is the derived availability of every action.
type Controls struct {
	RemainingSlots   int     `json:"remaining_slots"`
	UploadedCount    int     `json:"uploaded_count"`
	CanUpload        bool    `json:"can_upload"`
	CanTriggerRun    bool    `json:"can_trigger_run"`
	Uploading        bool    `json:"uploading"`
	Triggering       bool    `json:"triggering"`
	DeletingPhotoIDs []int64 `json:"deleting_photo_ids"`
}

// State is a copy of a View at one point in time.
type State struct {
	PersonID int64     `json:"person_id"`
	Snapshot *Snapshot `json:"snapshot"`
	Error    string    `json:"error,omitempty"`
	Controls Controls  `json:"controls"`
}

// View holds the state of one person: the last snapshot, the current error
// message and the in-flight flags. The lock is never held during a network
// call. Unrelated actions (e.g. a delete during a batch) are not serialized.
type View struct {
	personID     int64
	client       Client
	poller       *Poller
	orchestrator *Orchestrator
	gate         Gate
	logger       *slog.Logger

	mu         sync.Mutex
	snapshot   *Snapshot
	errMessage string
	uploading  bool
	triggering bool
	deleting   map[int64]bool
	onProgress func(FileProgress)
}

// NewView creates a view for a person. It holds no snapshot until the first
// Refresh; until then no action is available.
func NewView(client Client, personID int64, limits Limits, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("person_id", personID)

	v := &View{
		personID: personID,
		client:   client,
		poller:   NewPoller(client, logger),
		gate:     NewGate(limits),
		logger:   logger,
		deleting: make(map[int64]bool),
	}
	v.orchestrator = NewOrchestrator(client, logger)
	v.orchestrator.OnProgress = v.progress
	v.orchestrator.AfterBatch = func(ctx context.Context) {
		_ = v.reload(ctx)
	}
	return v
}

// SetProgressFunc sets the observer for file transitions of future batches.
func (v *View) SetProgressFunc(fn func(FileProgress)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onProgress = fn
}

func (v *View) progress(p FileProgress) {
	v.mu.Lock()
	fn := v.onProgress
	v.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

// State returns a copy of the current state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{
		PersonID: v.personID,
		Snapshot: v.snapshot.clone(),
		Error:    v.errMessage,
		Controls: v.controls(),
	}
}

// controls must be called with v.mu held.
func (v *View) controls() Controls {
	c := Controls{
		Uploading:        v.uploading,
		Triggering:       v.triggering,
		DeletingPhotoIDs: make([]int64, 0, len(v.deleting)),
	}
	for id := range v.deleting {
		c.DeletingPhotoIDs = append(c.DeletingPhotoIDs, id)
	}
	slices.Sort(c.DeletingPhotoIDs)
	if v.snapshot == nil {
		return c
	}

	total := len(v.snapshot.Photos)
	c.RemainingSlots = v.gate.RemainingSlots(total)
	c.UploadedCount = v.gate.UploadedCount(v.snapshot.Photos)
	c.CanUpload = v.gate.CanUpload(total, v.uploading)
	c.CanTriggerRun = v.gate.CanTriggerRun(c.UploadedCount, v.triggering)
	return c
}

// Refresh replaces the snapshot with a fresh one. On failure the previous
// snapshot is kept and the error becomes the view's error message.
func (v *View) Refresh(ctx context.Context) error {
	v.setError(nil)
	return v.reload(ctx)
}

func (v *View) reload(ctx context.Context) error {
	snap, err := v.poller.Fetch(ctx, v.personID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.logger.Warn("refresh failed", "error", err)
		v.errMessage = err.Error()
		return err
	}
	v.snapshot = snap
	return nil
}

// Upload runs a batch and refreshes once afterwards, whatever the outcome.
// The batch error, if any, becomes the view's error message.
func (v *View) Upload(ctx context.Context, files []File) (*BatchResult, error) {
	v.mu.Lock()
	if !v.controls().CanUpload {
		v.mu.Unlock()
		return nil, ErrUploadDisabled
	}
	v.errMessage = ""
	v.uploading = true
	v.mu.Unlock()

	result, err := v.orchestrator.Upload(ctx, v.personID, files)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.uploading = false
	if err != nil {
		v.errMessage = err.Error()
	}
	return result, err
}

// TriggerRun starts a preprocess run and refreshes on success.
func (v *View) TriggerRun(ctx context.Context) (*backend.PreprocessStart, error) {
	v.mu.Lock()
	if !v.controls().CanTriggerRun {
		v.mu.Unlock()
		return nil, ErrRunDisabled
	}
	v.errMessage = ""
	v.triggering = true
	v.mu.Unlock()

	start, err := v.client.StartPreprocess(ctx, v.personID)

	v.mu.Lock()
	v.triggering = false
	v.mu.Unlock()

	if err != nil {
		v.logger.Warn("could not start preprocessing", "error", err)
		v.setError(err)
		return nil, err
	}

	v.logger.Info("preprocess run started", "run_id", start.PreprocessRunID, "job_id", start.JobID)
	_ = v.reload(context.WithoutCancel(ctx))
	return start, nil
}

// DeletePhoto deletes one photo and refreshes on success. Deletes of
// different photos may run at the same time.
func (v *View) DeletePhoto(ctx context.Context, photoID int64) error {
	v.mu.Lock()
	if !v.gate.CanDelete(photoID, v.deleting) {
		v.mu.Unlock()
		return ErrDeleteInFlight
	}
	v.errMessage = ""
	v.deleting[photoID] = true
	v.mu.Unlock()

	err := v.client.DeletePhoto(ctx, v.personID, photoID)

	v.mu.Lock()
	delete(v.deleting, photoID)
	v.mu.Unlock()

	if err != nil {
		v.logger.Warn("could not delete photo", "photo_id", photoID, "error", err)
		v.setError(err)
		return err
	}

	_ = v.reload(context.WithoutCancel(ctx))
	return nil
}

func (v *View) setError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err == nil {
		v.errMessage = ""
		return
	}
	v.errMessage = err.Error()
}

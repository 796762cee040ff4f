package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/kozaktomas/lora-person/internal/backend"
)

// Reader fetches the records that make up a person snapshot.
type Reader interface {
	GetPerson(ctx context.Context, personID int64) (*backend.Person, error)
	ListPhotos(ctx context.Context, personID int64) ([]backend.Photo, error)
	GetLatestPreprocess(ctx context.Context, personID int64) (*backend.PreprocessRun, error)
}

// Snapshot is everything known about a person at one point in time.
// It is never patched; a refresh replaces it.
type Snapshot struct {
	Person    backend.Person         `json:"person"`
	Photos    []backend.Photo        `json:"photos"`
	Run       *backend.PreprocessRun `json:"latest_run"`
	FetchedAt time.Time              `json:"fetched_at"`
}

// clone returns a copy that shares nothing mutable with s.
func (s *Snapshot) clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Photos = append([]backend.Photo(nil), s.Photos...)
	if s.Run != nil {
		run := *s.Run
		c.Run = &run
	}
	return &c
}

// Poller fetches person snapshots on demand. It never polls on its own.
type Poller struct {
	client Reader
	logger *slog.Logger
}

// NewPoller creates a poller. A nil logger uses slog.Default().
func NewPoller(client Reader, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{client: client, logger: logger}
}

// Fetch loads the person, their photos and the latest preprocess run.
// Failing to load the person or the photos fails the whole fetch, so the
// capacity gates never act on a snapshot without its photo list. The run is
// secondary: a missing run yields a nil Run, and any other run error is logged
// and also yields a nil Run.
func (p *Poller) Fetch(ctx context.Context, personID int64) (*Snapshot, error) {
	person, err := p.client.GetPerson(ctx, personID)
	if err != nil {
		return nil, err
	}

	photos, err := p.client.ListPhotos(ctx, personID)
	if err != nil {
		return nil, err
	}

	run, err := p.client.GetLatestPreprocess(ctx, personID)
	if err != nil {
		if !backend.IsNotFoundError(err) {
			p.logger.Warn("could not fetch latest preprocess run", "person_id", personID, "error", err)
		}
		run = nil
	}

	return &Snapshot{
		Person:    *person,
		Photos:    photos,
		Run:       run,
		FetchedAt: time.Now(),
	}, nil
}

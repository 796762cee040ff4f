package ingest

import "github.com/kozaktomas/lora-person/internal/backend"

// Default quota of the backend
const (
	DefaultMaxAssets = 30
	DefaultMinForRun = 3
)

// Limits configures the capacity gate.
type Limits struct {
	MaxAssets int // photos a person may hold
	MinForRun int // uploaded photos required to start preprocessing
}

// DefaultLimits returns the backend's default quota.
func DefaultLimits() Limits {
	return Limits{MaxAssets: DefaultMaxAssets, MinForRun: DefaultMinForRun}
}

// Gate decides which actions are available. All methods are pure.
type Gate struct {
	Limits Limits
}

// NewGate creates a gate. Non-positive limits fall back to the defaults.
func NewGate(limits Limits) Gate {
	if limits.MaxAssets <= 0 {
		limits.MaxAssets = DefaultMaxAssets
	}
	if limits.MinForRun <= 0 {
		limits.MinForRun = DefaultMinForRun
	}
	return Gate{Limits: limits}
}

// RemainingSlots returns how many more photos can be added. Never negative.
func (g Gate) RemainingSlots(total int) int {
	return max(0, g.Limits.MaxAssets-total)
}

// UploadedCount counts photos with status "uploaded". Photos in any other
// status, known or not, do not count toward a run.
func (g Gate) UploadedCount(photos []backend.Photo) int {
	n := 0
	for _, p := range photos {
		if p.Status == backend.StatusUploaded {
			n++
		}
	}
	return n
}

// CanUpload reports whether a new batch may start.
func (g Gate) CanUpload(total int, uploading bool) bool {
	return g.RemainingSlots(total) > 0 && !uploading
}

// CanTriggerRun reports whether a preprocess run may be started.
func (g Gate) CanTriggerRun(uploaded int, triggering bool) bool {
	return uploaded >= g.Limits.MinForRun && !triggering
}

// CanDelete reports whether photoID may be deleted. Only a delete of the same
// photo blocks it.
func (g Gate) CanDelete(photoID int64, deleting map[int64]bool) bool {
	return !deleting[photoID]
}

package ingest

// FileState is the position of a single file in the upload protocol.
type FileState string

// A file moves pending -> authorizing -> transferring -> registering -> done.
// Any of the three active steps may end in failed.
const (
	StatePending      FileState = "pending"
	StateAuthorizing  FileState = "authorizing"
	StateTransferring FileState = "transferring"
	StateRegistering  FileState = "registering"
	StateDone         FileState = "done"
	StateFailed       FileState = "failed"
)

// FileProgress is reported on every state transition of a file in a batch
type FileProgress struct {
	BatchID string    `json:"batch_id"`
	Index   int       `json:"index"`
	Total   int       `json:"total"`
	File    string    `json:"file"`
	State   FileState `json:"state"`
	Error   string    `json:"error,omitempty"`
}

// Finished reports whether the file reached a terminal state.
func (p FileProgress) Finished() bool {
	return p.State == StateDone || p.State == StateFailed
}

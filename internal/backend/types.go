package backend

// Status is an opaque lifecycle label owned by the backend. It is compared for
// equality and rendered, never treated as a closed set: labels the client does
// not know about pass through unchanged.
type Status string

// Photo status labels the client knows about.
const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusDuplicate  Status = "duplicate"
)

// Preprocess run status labels the client knows about.
const (
	RunPending  Status = "pending"
	RunStarted  Status = "started"
	RunFinished Status = "finished"
	RunFailed   Status = "failed"
)

func (s Status) String() string {
	return string(s)
}

// Person represents a person profile
type Person struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ConsentConfirmed bool   `json:"consent_confirmed"`
	SubjectIsAdult   bool   `json:"subject_is_adult"`
	CreatedAt        string `json:"created_at"`
}

// PersonCreate is the request body for creating a person profile.
// Both consent flags are fixed at creation time.
type PersonCreate struct {
	Name             string `json:"name"`
	ConsentConfirmed bool   `json:"consent_confirmed"`
	SubjectIsAdult   bool   `json:"subject_is_adult"`
}

// Photo represents an uploaded source photo (asset) of a person
type Photo struct {
	ID          int64  `json:"id"`
	S3Key       string `json:"s3_key"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Status      Status `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// PreprocessRun represents one asynchronous preprocessing job of a person
type PreprocessRun struct {
	ID               int64   `json:"id"`
	PersonID         int64   `json:"person_id"`
	Status           Status  `json:"status"`
	ImagesAccepted   int     `json:"images_accepted"`
	ImagesRejected   int     `json:"images_rejected"`
	ImagesDuplicates int     `json:"images_duplicates"`
	OutputS3Prefix   *string `json:"output_s3_prefix,omitempty"`
	ErrorMessage     *string `json:"error_message,omitempty"`
	StartedAt        *string `json:"started_at,omitempty"`
	FinishedAt       *string `json:"finished_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// PreprocessStart is the response of triggering a preprocess run
type PreprocessStart struct {
	PreprocessRunID int64  `json:"preprocess_run_id"`
	JobID           int64  `json:"job_id"`
	Status          Status `json:"status"`
}

// PresignRequest asks for a one-time upload authorization for a single file
type PresignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// UploadAuthorization is the short-lived grant returned by the presign endpoint.
// It is consumed by Transfer and then discarded.
type UploadAuthorization struct {
	URL         string `json:"url"`
	Method      string `json:"method"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
}

// CompleteRequest registers a finished transfer as a photo
type CompleteRequest struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// photoURL is the response of the photo display URL endpoint
type photoURL struct {
	URL string `json:"url"`
}

package ingest

import "io"

// File is one local source queued for upload. Open is called once, right
// before the transfer step, so a batch never holds more than one file open.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

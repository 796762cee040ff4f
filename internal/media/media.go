// Package media turns local image files into upload sources.
package media

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/kozaktomas/lora-person/internal/backend"
	"github.com/kozaktomas/lora-person/internal/config"
	"github.com/kozaktomas/lora-person/internal/ingest"
	_ "golang.org/x/image/webp"
)

// ErrUnsupported is returned for files that are not an accepted image format.
var ErrUnsupported = errors.New("unsupported image format")

// formatContentTypes maps image.DecodeConfig format names to upload content types.
var formatContentTypes = map[string]string{
	"jpeg": backend.ContentTypeJPEG,
	"png":  backend.ContentTypePNG,
	"webp": backend.ContentTypeWEBP,
}

// DetectContentType reads the image header and returns the content type of
// the encoded image. The file extension plays no part.
func DetectContentType(r io.Reader) (string, error) {
	_, format, err := image.DecodeConfig(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return "", ErrUnsupported
		}
		return "", fmt.Errorf("could not read image header: %w", err)
	}

	contentType, ok := formatContentTypes[format]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, format)
	}
	return contentType, nil
}

// Open inspects the file at path and returns it as an upload source.
// The bytes are read again only when the source is opened for transfer.
func Open(path string) (ingest.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return ingest.File{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ingest.File{}, err
	}
	if info.IsDir() {
		return ingest.File{}, fmt.Errorf("%s is a directory", path)
	}

	contentType, err := DetectContentType(f)
	if err != nil {
		return ingest.File{}, fmt.Errorf("%s: %w", path, err)
	}

	return ingest.File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// OpenAll opens every path in order and stops at the first error.
func OpenAll(paths []string) ([]ingest.File, error) {
	files := make([]ingest.File, 0, len(paths))
	for _, path := range paths {
		f, err := Open(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// Collect expands paths into the list of image files to upload, keeping the
// order of the arguments. Files are taken as given; folders contribute the
// files whose extension is allowed by limits, recursively if requested.
func Collect(paths []string, recursive bool, limits *config.LimitsConfig) ([]string, error) {
	var filePaths []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}

		if !info.IsDir() {
			if !limits.IsSupportedFile(path) {
				return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
			}
			filePaths = append(filePaths, path)
			continue
		}

		if recursive {
			err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && limits.IsSupportedFile(d.Name()) {
					filePaths = append(filePaths, p)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("cannot walk folder %s: %w", path, err)
			}
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read folder %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if limits.IsSupportedFile(entry.Name()) {
				filePaths = append(filePaths, filepath.Join(path, entry.Name()))
			}
		}
	}
	return filePaths, nil
}

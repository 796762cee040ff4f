package backend

import (
	"context"
	"fmt"
	"net/http"
)

// ListPhotos retrieves all photos of a person, newest first
func (c *Client) ListPhotos(ctx context.Context, personID int64) ([]Photo, error) {
	result, err := doGetJSON[[]Photo](ctx, c, ErrFetch, "failed to fetch photos", fmt.Sprintf("persons/%d/photos", personID))
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// CompletePhoto registers a finished transfer. The backend creates the photo
// record with status "uploaded".
func (c *Client) CompletePhoto(ctx context.Context, personID int64, in CompleteRequest) (*Photo, error) {
	return doPostJSON[Photo](ctx, c, ErrRegistration, "", fmt.Sprintf("persons/%d/photos/complete", personID), in)
}

// DeletePhoto deletes a single photo of a person
func (c *Client) DeletePhoto(ctx context.Context, personID, photoID int64) error {
	return doRequestRaw(ctx, c, ErrDelete, "", http.MethodDelete, fmt.Sprintf("persons/%d/photos/%d", personID, photoID), nil,
		http.StatusOK, http.StatusNoContent)
}

// GetPhotoURL returns a short-lived display URL for a photo.
// It is meant for rendering only and plays no part in the upload protocol.
func (c *Client) GetPhotoURL(ctx context.Context, personID, photoID int64) (string, error) {
	result, err := doGetJSON[photoURL](ctx, c, ErrFetch, "failed to fetch photo URL", fmt.Sprintf("persons/%d/photos/%d/url", personID, photoID))
	if err != nil {
		return "", err
	}
	return result.URL, nil
}

package backend

import (
	"context"
	"fmt"
	"net/http"
)

// CreatePerson creates a person profile. The backend rejects profiles without
// both consent flags set.
func (c *Client) CreatePerson(ctx context.Context, in PersonCreate) (*Person, error) {
	return doPostJSON[Person](ctx, c, ErrPersonCreate, "", "persons", in)
}

// ListPersons retrieves person profiles, skipping deleted ones
func (c *Client) ListPersons(ctx context.Context, skip, limit int) ([]Person, error) {
	endpoint := fmt.Sprintf("persons?skip=%d&limit=%d", skip, limit)
	result, err := doGetJSON[[]Person](ctx, c, ErrFetch, "failed to fetch persons", endpoint)
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// GetPerson retrieves a single person profile by ID
func (c *Client) GetPerson(ctx context.Context, personID int64) (*Person, error) {
	return doGetJSON[Person](ctx, c, ErrFetch, "failed to fetch person", fmt.Sprintf("persons/%d", personID))
}

// DeletePerson deletes a person profile together with its photos
func (c *Client) DeletePerson(ctx context.Context, personID int64) error {
	return doRequestRaw(ctx, c, ErrPersonDelete, "", http.MethodDelete, fmt.Sprintf("persons/%d", personID), nil,
		http.StatusOK, http.StatusNoContent)
}

package backend

import (
	"context"
	"fmt"
)

// StartPreprocess triggers a preprocess run for a person.
// The backend requires at least the minimum number of uploaded photos.
func (c *Client) StartPreprocess(ctx context.Context, personID int64) (*PreprocessStart, error) {
	return doPostJSON[PreprocessStart](ctx, c, ErrRunTrigger, "", fmt.Sprintf("persons/%d/preprocess", personID), nil)
}

// GetLatestPreprocess retrieves the most recent preprocess run of a person.
// A person without any run yields an error for which IsNotFoundError is true.
func (c *Client) GetLatestPreprocess(ctx context.Context, personID int64) (*PreprocessRun, error) {
	return doGetJSON[PreprocessRun](ctx, c, ErrFetch, "failed to fetch latest preprocess run", fmt.Sprintf("persons/%d/preprocess/latest", personID))
}

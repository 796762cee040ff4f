package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
)

// doGetJSON performs a GET request and unmarshals the JSON response into the result type.
// The endpoint should be the path after the base API URL (e.g., "persons/12").
func doGetJSON[T any](ctx context.Context, c *Client, kind error, message, endpoint string) (*T, error) {
	return doRequestJSON[T](ctx, c, kind, message, http.MethodGet, endpoint, nil, http.StatusOK)
}

// doPostJSON performs a POST request that accepts either 200 OK or 201 Created.
func doPostJSON[T any](ctx context.Context, c *Client, kind error, message, endpoint string, requestBody any) (*T, error) {
	return doRequestJSON[T](ctx, c, kind, message, http.MethodPost, endpoint, requestBody, http.StatusOK, http.StatusCreated)
}

// doRequestJSON performs an HTTP request with an optional JSON body and unmarshals the JSON response.
// It accepts one or more valid status codes. Any other status becomes an *APIError of the given kind.
func doRequestJSON[T any](ctx context.Context, c *Client, kind error, message, method, endpoint string, requestBody any, expectedStatuses ...int) (*T, error) {
	resp, err := c.send(ctx, method, endpoint, requestBody)
	if err != nil {
		return nil, &APIError{Kind: kind, Message: message, Err: err}
	}
	defer resp.Body.Close()

	if !isExpectedStatus(resp.StatusCode, expectedStatuses) {
		return nil, newStatusError(kind, message, resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: kind, Message: message, StatusCode: resp.StatusCode, Err: fmt.Errorf("could not read response body: %w", err)}
	}

	c.captureResponse(endpoint, body)

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &APIError{Kind: kind, Message: message, StatusCode: resp.StatusCode, Err: fmt.Errorf("could not unmarshal response: %w", err)}
	}

	return &result, nil
}

// doRequestRaw performs an HTTP request without JSON unmarshaling the response.
func doRequestRaw(ctx context.Context, c *Client, kind error, message, method, endpoint string, requestBody any, expectedStatuses ...int) error {
	resp, err := c.send(ctx, method, endpoint, requestBody)
	if err != nil {
		return &APIError{Kind: kind, Message: message, Err: err}
	}
	defer resp.Body.Close()

	if !isExpectedStatus(resp.StatusCode, expectedStatuses) {
		return newStatusError(kind, message, resp.StatusCode, readErrorBody(resp.Body))
	}

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// send builds and executes an authenticated API request.
func (c *Client) send(ctx context.Context, method, endpoint string, requestBody any) (*http.Response, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolveURL(endpoint), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	return resp, nil
}

// isExpectedStatus checks if a status code is in the list of expected statuses.
func isExpectedStatus(code int, expected []int) bool {
	return slices.Contains(expected, code)
}

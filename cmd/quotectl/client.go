package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/middleware"
)

const apiPrefix = "/api/v1"

// apiError is a non-2xx response decoded from the service error envelope.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}

	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// apiClient calls the quotebook REST API.
type apiClient struct {
	http    *http.Client
	baseURL string
	session string
}

func newAPIClient(httpClient *http.Client, baseURL, session string) *apiClient {
	return &apiClient{
		http:    httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		session: session,
	}
}

// call sends a request to path under /api/v1. A non-nil in is encoded as the
// JSON body; the response is decoded into out when out is non-nil.
func (c *apiClient) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody

	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}

		body = bytes.NewReader(b)
	}

	raw, err := c.send(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	return decodeInto(raw, out)
}

func decodeInto(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// send performs the request and returns the raw 2xx body.
func (c *apiClient) send(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", contentType)

	if c.session != "" {
		req.Header.Set(middleware.HeaderSessionID, c.session)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, decodeAPIError(resp.StatusCode, raw)
	}

	return raw, nil
}

func decodeAPIError(status int, raw []byte) error {
	var envelope dto.ErrorResponse
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Message == "" {
		return &apiError{Status: status, Message: strings.TrimSpace(string(raw))}
	}

	return &apiError{Status: status, Code: envelope.Error.Code, Message: envelope.Error.Message}
}

// isStatus reports whether err is an apiError with the given HTTP status.
func isStatus(err error, status int) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func queryPath(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}

	return path + "?" + params.Encode()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

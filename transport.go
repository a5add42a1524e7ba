package portalauth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const maxErrorBodySize = 64 << 10

// errorBody is the backend's rejection envelope: {"detail": "..."}.
type errorBody struct {
	Detail string `json:"detail"`
}

// postJSON sends one request and decodes the response. Every request carries
// a fresh X-Request-ID; once a session exists the bearer token rides along on
// every call. Non-2xx responses become *ServerRejection with the backend's
// detail verbatim; transport failures become *NetworkError. There is no
// retry and no flow-level timeout beyond the transport's.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	// Best effort: an unreachable persistent store must not block an
	// unauthenticated flow, so store errors leave the header off.
	if token, ok, err := c.sessions.Get(ctx); err == nil && ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerRejection{
			StatusCode: resp.StatusCode,
			Reason:     rejectionReason(resp, data),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			// A success status with an unreadable body is no usable
			// response at all.
			return &NetworkError{Err: err}
		}
	}

	return nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.baseURL.String(), "/") + path
}

func rejectionReason(resp *http.Response, data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return http.StatusText(resp.StatusCode)
}

package ia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Preferences is free-form user context forwarded with a record
// (dietary constraints, goals, locale).
type Preferences map[string]any

// Response is the collaborator envelope: success flag, free-form payload
// fields, optional error message.
type Response struct {
	Success bool
	Payload map[string]any
	Error   string
}

func (r *Response) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if v, ok := raw["success"]; ok {
		if err := json.Unmarshal(v, &r.Success); err != nil {
			return fmt.Errorf("success field: %w", err)
		}
		delete(raw, "success")
	}
	if v, ok := raw["error"]; ok {
		if err := json.Unmarshal(v, &r.Error); err != nil {
			return fmt.Errorf("error field: %w", err)
		}
		delete(raw, "error")
	}
	r.Payload = make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("payload field %q: %w", k, err)
		}
		r.Payload[k] = val
	}
	return nil
}

func (r Response) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Payload)+2)
	for k, v := range r.Payload {
		out[k] = v
	}
	out["success"] = r.Success
	if r.Error != "" {
		out["error"] = r.Error
	}
	return json.Marshal(out)
}

// Collaborator consumes a canonical record plus preferences and returns
// free-text analysis in the response payload.
type Collaborator interface {
	Analyze(ctx context.Context, rec Record, prefs Preferences) (Response, error)
}

// HTTPCollaborator posts the record to an external analysis endpoint.
type HTTPCollaborator struct {
	endpoint string
	httpc    *http.Client
}

func NewHTTPCollaborator(endpoint string, timeout time.Duration) *HTTPCollaborator {
	return &HTTPCollaborator{endpoint: endpoint, httpc: &http.Client{Timeout: timeout}}
}

type analyzeRequest struct {
	Product     Record      `json:"product"`
	Preferences Preferences `json:"preferences,omitempty"`
}

func (c *HTTPCollaborator) Analyze(ctx context.Context, rec Record, prefs Preferences) (Response, error) {
	body, err := json.Marshal(analyzeRequest{Product: rec, Preferences: prefs})
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("analyze: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Response{Success: false, Error: fmt.Sprintf("status %d", resp.StatusCode)}, nil
	}
	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

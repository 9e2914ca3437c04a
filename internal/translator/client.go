package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// agentPost sends body as JSON to path on the session's Agent and decodes
// the response body into the returned map. A non-2xx response surfaces its
// "error" field as the returned error's message (mirrors plugin_post).
func agentPost(ctx context.Context, s *Session, path string, body any) (map[string]json.RawMessage, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.AgentURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("building agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, errUnknown(fmt.Sprintf("agent request failed: %v", err))
	}
	defer resp.Body.Close()

	var parsed map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errUnknown(fmt.Sprintf("agent response parse failed: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := "agent error"
		if raw, ok := parsed["error"]; ok {
			var s string
			if json.Unmarshal(raw, &s) == nil && s != "" {
				msg = s
			}
		}
		return nil, errUnknown(msg)
	}

	return parsed, nil
}

// agentPostValue is agentPost's counterpart for Agent endpoints that write a
// bare JSON value (string, bool, array) instead of an object, which
// map[string]json.RawMessage cannot decode. dst may be nil to discard the
// body entirely.
func agentPostValue(ctx context.Context, s *Session, path string, body any, dst any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.AgentURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("building agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return errUnknown(fmt.Sprintf("agent request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errUnknown(fmt.Sprintf("agent response read failed: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := "agent error"
		var errObj map[string]json.RawMessage
		if json.Unmarshal(raw, &errObj) == nil {
			if m, ok := errObj["error"]; ok {
				var s string
				if json.Unmarshal(m, &s) == nil && s != "" {
					msg = s
				}
			}
		}
		return errUnknown(msg)
	}

	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errUnknown(fmt.Sprintf("agent response parse failed: %v", err))
	}
	return nil
}

// agentField decodes a single field of an agent response into dst, leaving
// dst at its zero value if the field is absent.
func agentField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// rawOrDefault returns fields[key] verbatim, or def if absent, ready to
// splice into a w3c_value envelope.
func rawOrDefault(fields map[string]json.RawMessage, key string, def json.RawMessage) json.RawMessage {
	if raw, ok := fields[key]; ok {
		return raw
	}
	return def
}

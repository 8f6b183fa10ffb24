package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrReauthRequired means the talent must sign in again: the refresh token is
// missing or was rejected, or the request was still unauthorized after one refresh.
var ErrReauthRequired = errors.New("upstream: re-authentication required")

// APIError is a non-2xx response from the appointment backend.
type APIError struct {
	Status  int
	Message string
	// MessageKey names the body key Message was read from.
	MessageKey string
	Fields     map[string][]string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream: status %d: %s", e.Status, e.Message)
	}
	if len(e.Fields) > 0 {
		keys := e.FieldNames()
		return fmt.Sprintf("upstream: status %d: %s: %s", e.Status, keys[0], e.Fields[keys[0]][0])
	}
	return fmt.Sprintf("upstream: status %d", e.Status)
}

// FieldMessage returns the first message reported for a field.
func (e *APIError) FieldMessage(field string) string {
	if e == nil {
		return ""
	}
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// FieldNames lists the fields carrying messages in a stable order.
func (e *APIError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// TransportError wraps failures that never produced an HTTP status: dial errors,
// timeouts, cancelled contexts, unreadable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

var messageKeys = []string{"error", "detail", "message"}

// parseAPIError decodes the error body shapes the backend emits: {"error": msg},
// {"detail": msg}, serializer field errors {"field": [msg, ...]}, and bare lists.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Body: body}
	if len(body) == 0 {
		return apiErr
	}

	var list []string
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) > 0 {
			apiErr.Message = list[0]
		}
		return apiErr
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return apiErr
	}

	for _, key := range messageKeys {
		if msgs := decodeMessages(raw[key]); len(msgs) > 0 && apiErr.Message == "" {
			apiErr.Message = msgs[0]
			apiErr.MessageKey = key
		}
	}

	for key, value := range raw {
		if key == "error" || key == "detail" || key == "message" {
			continue
		}
		msgs := decodeMessages(value)
		if len(msgs) == 0 {
			continue
		}
		if apiErr.Fields == nil {
			apiErr.Fields = make(map[string][]string)
		}
		apiErr.Fields[key] = msgs
	}

	if apiErr.Message == "" {
		if msg := apiErr.FieldMessage("non_field_errors"); msg != "" {
			apiErr.Message = msg
			apiErr.MessageKey = "non_field_errors"
		}
	}
	return apiErr
}

func decodeMessages(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}

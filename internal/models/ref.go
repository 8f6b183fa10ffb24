package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Ref is a reference to another backend record. The backend sends either a bare
// id or the nested serialized object; both decode into the same shape.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool {
	return r.ID == 0
}

// UnmarshalJSON accepts 12, "12", null or {"id": 12, ...}.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}

	switch data[0] {
	case '{':
		var obj struct {
			ID          int64  `json:"id"`
			Name        string `json:"name"`
			DisplayName string `json:"display_name"`
			FullName    string `json:"full_name"`
			FirstName   string `json:"first_name"`
			LastName    string `json:"last_name"`
			Email       string `json:"email"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode reference: %w", err)
		}
		r.ID = obj.ID
		r.Name = firstNonEmpty(obj.Name, obj.DisplayName, obj.FullName,
			strings.TrimSpace(obj.FirstName+" "+obj.LastName), obj.Email)
		return nil
	case '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("decode reference id %q: %w", raw, err)
		}
		*r = Ref{ID: id}
		return nil
	default:
		var id int64
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("decode reference id: %w", err)
		}
		*r = Ref{ID: id}
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

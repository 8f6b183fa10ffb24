package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ListShape names the response layouts the backend uses for collections.
type ListShape int

const (
	// ShapeArray is a bare JSON array.
	ShapeArray ListShape = iota + 1
	// ShapePaginated is {"count", "next", "previous", "results"}.
	ShapePaginated
	// ShapeData is {"data": [...]}.
	ShapeData
)

func (s ListShape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapePaginated:
		return "paginated"
	case ShapeData:
		return "data"
	default:
		return "unknown"
	}
}

// ListPayload is the decoded form of any collection response.
type ListPayload[T any] struct {
	Shape    ListShape
	items    []T
	count    int
	Next     string
	Previous string
}

// UnmarshalJSON decides the shape once. Objects without results or data are rejected.
func (p *ListPayload[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("decode list: empty body")
	}

	switch data[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decode list array: %w", err)
		}
		*p = ListPayload[T]{Shape: ShapeArray, items: items, count: len(items)}
		return nil
	case '{':
		var obj struct {
			Count    *int             `json:"count"`
			Next     *string          `json:"next"`
			Previous *string          `json:"previous"`
			Results  *json.RawMessage `json:"results"`
			Data     *json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode list envelope: %w", err)
		}
		switch {
		case obj.Results != nil:
			var items []T
			if err := json.Unmarshal(*obj.Results, &items); err != nil {
				return fmt.Errorf("decode list results: %w", err)
			}
			out := ListPayload[T]{Shape: ShapePaginated, items: items, count: len(items)}
			if obj.Count != nil {
				out.count = *obj.Count
			}
			if obj.Next != nil {
				out.Next = *obj.Next
			}
			if obj.Previous != nil {
				out.Previous = *obj.Previous
			}
			*p = out
			return nil
		case obj.Data != nil:
			var items []T
			if err := json.Unmarshal(*obj.Data, &items); err != nil {
				return fmt.Errorf("decode list data: %w", err)
			}
			*p = ListPayload[T]{Shape: ShapeData, items: items, count: len(items)}
			return nil
		}
		return fmt.Errorf("decode list: object has neither results nor data")
	default:
		return fmt.Errorf("decode list: unexpected %q", data[0])
	}
}

// Items returns the decoded records, never nil.
func (p ListPayload[T]) Items() []T {
	switch p.Shape {
	case ShapeArray, ShapePaginated, ShapeData:
		if p.items == nil {
			return []T{}
		}
		return p.items
	default:
		return []T{}
	}
}

// Total is the server-side count for paginated lists and the item count otherwise.
func (p ListPayload[T]) Total() int {
	switch p.Shape {
	case ShapePaginated:
		return p.count
	case ShapeArray, ShapeData:
		return len(p.items)
	default:
		return 0
	}
}

// HasMore reports whether a paginated list has another page.
func (p ListPayload[T]) HasMore() bool {
	return p.Shape == ShapePaginated && p.Next != ""
}

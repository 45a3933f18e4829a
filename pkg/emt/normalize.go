package emt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Normalize turns a field the backend sends either as one object or as a list of objects
// into a list. null yields an empty list.
func Normalize(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Err: errors.New("empty value")}
	}

	switch trimmed[0] {
	case '{':
		return []json.RawMessage{trimmed}, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, &DecodeError{Err: err}
		}
		return items, nil
	case 'n':
		if bytes.Equal(trimmed, []byte("null")) {
			return nil, nil
		}
	}

	return nil, &DecodeError{Err: fmt.Errorf("expected object or array, got %.20s", trimmed)}
}

// OneOrMany decodes a single object or a list of objects into a slice.
type OneOrMany[T any] []T

func (m *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	items, err := Normalize(data)
	if err != nil {
		return err
	}

	out := make(OneOrMany[T], 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return err
		}
		out = append(out, v)
	}
	*m = out
	return nil
}

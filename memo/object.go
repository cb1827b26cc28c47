package memo

import (
	"encoding/json"
	"fmt"
	"maps"
)

const idField = "uuid"

// Object is a schemaless record. It encodes as one flat JSON object with the
// identity under "uuid" next to Fields, so Fields never holds "uuid" itself.
// Stored objects hold Fields as decoded JSON, so numbers come back as
// float64.
type Object struct {
	ID
	Fields map[string]any
}

// NewObject builds an Object from decoded JSON. A string "uuid" entry
// becomes the identity; any other "uuid" value is rejected.
func NewObject(fields map[string]any) (Object, error) {
	obj := Object{Fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		if k != idField {
			obj.Fields[k] = v
			continue
		}
		if v == nil {
			continue
		}
		id, ok := v.(string)
		if !ok {
			return Object{}, fmt.Errorf("%s must be a string, got %T", idField, v)
		}
		obj.UUID = id
	}
	return obj, nil
}

// Map returns the flat representation, including "uuid" when set.
func (o Object) Map() map[string]any {
	m := make(map[string]any, len(o.Fields)+1)
	for k, v := range o.Fields {
		m[k] = deepCopy(v)
	}
	if o.UUID != "" {
		m[idField] = o.UUID
	}
	return m
}

// Clone returns a copy that shares no maps or slices with o.
func (o Object) Clone() Object {
	c := Object{ID: o.ID}
	if o.Fields != nil {
		c.Fields = make(map[string]any, len(o.Fields))
		for k, v := range o.Fields {
			c.Fields[k] = deepCopy(v)
		}
	}
	return c
}

func (o Object) MarshalJSON() ([]byte, error) {
	m := maps.Clone(o.Fields)
	if m == nil {
		m = map[string]any{}
	}
	m[idField] = o.UUID
	return json.Marshal(m)
}

func (o *Object) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("object is null")
	}
	obj, err := NewObject(fields)
	if err != nil {
		return err
	}
	*o = obj
	return nil
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[k] = deepCopy(item)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, item := range val {
			s[i] = deepCopy(item)
		}
		return s
	default:
		return v
	}
}

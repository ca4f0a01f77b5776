package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Choice is one selected option of a variant group.
type Choice struct {
	Name  string
	Value string
}

// Selection is an ordered set of choices. It encodes as a JSON object whose
// key order is the selection order.
type Selection []Choice

func (s Selection) Value(name string) (string, bool) {
	for _, c := range s {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func (s Selection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Selection) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("selection: expected object, got %v", tok)
	}

	out := Selection{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := kt.(string)

		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("selection: option %q: %w", name, err)
		}
		out = append(out, Choice{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

// NormalizeSelection orders raw choices by the product's variant groups.
// Omitted groups default to their first option, the same default the detail
// page preselects. Unknown groups or options yield ErrInvalidVariant.
func NormalizeSelection(p Product, raw Selection) (Selection, error) {
	for _, c := range raw {
		if _, ok := p.Variant(c.Name); !ok {
			return nil, fmt.Errorf("%w: unknown group %q for %s", ErrInvalidVariant, c.Name, p.ID)
		}
	}

	var out Selection
	for _, v := range p.Variants {
		value, ok := raw.Value(v.Name)
		if !ok {
			if len(v.Options) == 0 {
				continue
			}
			value = v.Options[0]
		}
		if !v.Has(value) {
			return nil, fmt.Errorf("%w: %q is not an option of %q", ErrInvalidVariant, value, v.Name)
		}
		out = append(out, Choice{Name: v.Name, Value: value})
	}
	return out, nil
}

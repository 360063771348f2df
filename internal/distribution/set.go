package distribution

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Set is an ordered, name-unique collection of variable specs.
//
// It is encoded as an object keyed by variable name, the layout persisted
// configurations use: {"A": {"type": "Normal", "params": {...}}}. Decoding
// keeps document order. A JSON array of {"name": ..., "type": ..., "params": ...}
// entries is accepted as well.
type Set []Spec

// Validate checks every spec and the uniqueness of names.
func (s Set) Validate() error {
	seen := make(map[string]bool, len(s))
	for _, spec := range s {
		if seen[spec.Name] {
			return fmt.Errorf("%w: duplicate variable name %q", ErrInvalidParameters, spec.Name)
		}
		seen[spec.Name] = true
		if err := spec.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the variable names in set order.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, spec := range s {
		names[i] = spec.Name
	}
	return names
}

// Get returns the spec with the given name.
func (s Set) Get(name string) (Spec, bool) {
	for _, spec := range s {
		if spec.Name == name {
			return spec, true
		}
	}
	return Spec{}, false
}

type namedSpec struct {
	Name string `json:"name"`
	Spec
}

// MarshalJSON encodes the set as an object keyed by name, in set order.
func (s Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, spec := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(spec.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(spec)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes either the keyed-object form or the array form.
func (s *Set) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = nil
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []namedSpec
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return err
		}
		out := make(Set, 0, len(entries))
		for _, e := range entries {
			e.Spec.Name = e.Name
			out = append(out, e.Spec)
		}
		*s = out
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("variables: expected object or array, got %v", tok)
	}

	var out Set
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("variables: expected name, got %v", tok)
		}
		var spec Spec
		if err := dec.Decode(&spec); err != nil {
			return fmt.Errorf("variable %s: %w", name, err)
		}
		spec.Name = name
		out = append(out, spec)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// MarshalYAML encodes the set as an ordered mapping.
func (s Set) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, spec := range s {
		val := &yaml.Node{}
		if err := val.Encode(spec); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: spec.Name},
			val,
		)
	}
	return node, nil
}

// UnmarshalYAML decodes an ordered mapping of name to spec.
func (s *Set) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		out := make(Set, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			var spec Spec
			if err := value.Content[i+1].Decode(&spec); err != nil {
				return fmt.Errorf("variable %s: %w", value.Content[i].Value, err)
			}
			spec.Name = value.Content[i].Value
			out = append(out, spec)
		}
		*s = out
		return nil
	case yaml.SequenceNode:
		var entries []struct {
			Name string `yaml:"name"`
			Spec `yaml:",inline"`
		}
		if err := value.Decode(&entries); err != nil {
			return err
		}
		out := make(Set, 0, len(entries))
		for _, e := range entries {
			e.Spec.Name = e.Name
			out = append(out, e.Spec)
		}
		*s = out
		return nil
	default:
		return fmt.Errorf("variables: line %d: expected mapping or sequence", value.Line)
	}
}

package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Sort directions.
const (
	SortAscending  = 1
	SortDescending = -1
)

// SortField pairs a field name with a direction (1 or -1).
type SortField struct {
	Field     string
	Direction int
}

// Sort is an insertion-ordered sort specification. The earliest field
// is the primary sort key; later fields break ties in order. On the
// wire it is a JSON object whose key order carries the precedence
// chain, so Sort implements ordered (un)marshaling by hand — encoding
// standard maps would destroy the order.
type Sort []SortField

// set overwrites the direction of an existing field without moving it,
// or appends a new field at the end of the tie-break chain.
func (s Sort) set(field string, direction int) Sort {
	for i := range s {
		if s[i].Field == field {
			s[i].Direction = direction
			return s
		}
	}
	return append(s, SortField{Field: field, Direction: direction})
}

// MarshalJSON encodes the sort as a JSON object in insertion order.
func (s Sort) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sf := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(sf.Field)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(sf.Direction))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving document key order.
func (s *Sort) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("sort must be a JSON object, got %v", tok)
	}

	var out Sort
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		field, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("sort key must be a string, got %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		num, ok := valTok.(float64)
		if !ok {
			return fmt.Errorf("sort direction for %q must be 1 or -1, got %v", field, valTok)
		}
		dir := int(num)
		if dir != SortAscending && dir != SortDescending {
			return fmt.Errorf("sort direction for %q must be 1 or -1, got %v", field, num)
		}
		out = out.set(field, dir)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

// MarshalYAML encodes the sort as a YAML mapping in insertion order.
func (s Sort) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, sf := range s {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: sf.Field},
			&yaml.Node{Kind: yaml.ScalarNode, Value: strconv.Itoa(sf.Direction)},
		)
	}
	return node, nil
}

// UnmarshalYAML decodes a YAML mapping, preserving document key order.
func (s *Sort) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("sort must be a mapping")
	}
	var out Sort
	for i := 0; i+1 < len(node.Content); i += 2 {
		field := node.Content[i].Value
		dir, err := strconv.Atoi(node.Content[i+1].Value)
		if err != nil || (dir != SortAscending && dir != SortDescending) {
			return fmt.Errorf("sort direction for %q must be 1 or -1, got %q", field, node.Content[i+1].Value)
		}
		out = out.set(field, dir)
	}
	*s = out
	return nil
}

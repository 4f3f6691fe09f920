// Package yamldoc builds and edits YAML documents as node trees, so key order survives
// a round trip and generated pipelines read in the order a human would write them.
package yamldoc

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Indent is the indentation of rendered documents
const Indent = 2

// Map builds a mapping node from alternating keys and values
func Map(pairs ...interface{}) *yaml.Node {
	if len(pairs)%2 != 0 {
		panic("yamldoc.Map: odd number of arguments")
	}
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("yamldoc.Map: key %v is not a string", pairs[i]))
		}
		Set(m, key, pairs[i+1])
	}
	return m
}

// Seq builds a sequence node
func Seq(items ...interface{}) *yaml.Node {
	s := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, item := range items {
		s.Content = append(s.Content, Node(item))
	}
	return s
}

// Strings builds a sequence of strings
func Strings(items []string) *yaml.Node {
	s := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, item := range items {
		s.Content = append(s.Content, scalar("!!str", item))
	}
	return s
}

// Node converts a Go value into a node. Nodes are returned as is.
func Node(v interface{}) *yaml.Node {
	switch val := v.(type) {
	case *yaml.Node:
		return val
	case string:
		return scalar("!!str", val)
	case bool:
		return scalar("!!bool", strconv.FormatBool(val))
	case int:
		return scalar("!!int", strconv.Itoa(val))
	case float64:
		return scalar("!!float", strconv.FormatFloat(val, 'f', -1, 64))
	case []string:
		return Strings(val)
	case nil:
		return scalar("!!null", "null")
	}
	panic(fmt.Sprintf("yamldoc.Node: unsupported type %T", v))
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// Set replaces the value of key in a mapping, or appends the pair
func Set(m *yaml.Node, key string, value interface{}) {
	n := Node(value)
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = n
			return
		}
	}
	m.Content = append(m.Content, scalar("!!str", key), n)
}

// InsertBefore adds key before an existing key, or appends it when before is absent.
// An existing key is replaced in place.
func InsertBefore(m *yaml.Node, before, key string, value interface{}) {
	if Has(m, key) {
		Set(m, key, value)
		return
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == before {
			pair := []*yaml.Node{scalar("!!str", key), Node(value)}
			m.Content = append(m.Content[:i], append(pair, m.Content[i:]...)...)
			return
		}
	}
	Set(m, key, value)
}

// Get returns the value of key in a mapping, or nil
func Get(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// Has reports whether a mapping contains key
func Has(m *yaml.Node, key string) bool {
	return Get(m, key) != nil
}

// Keys returns the keys of a mapping in document order
func Keys(m *yaml.Node) []string {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	return keys
}

// Values returns the string values of a scalar sequence
func Values(s *yaml.Node) []string {
	if s == nil || s.Kind != yaml.SequenceNode {
		return nil
	}
	values := make([]string, 0, len(s.Content))
	for _, item := range s.Content {
		if item.Kind == yaml.ScalarNode {
			values = append(values, item.Value)
		}
	}
	return values
}

// Encode renders a node as YAML text
func Encode(n *yaml.Node) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(Indent)
	if err := enc.Encode(n); err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	return buf.String(), nil
}

// Decode parses YAML text and returns its root mapping
func Decode(content string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty yaml document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("yaml document root is not a mapping")
	}
	return root, nil
}

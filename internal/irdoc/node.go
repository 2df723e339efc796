package irdoc

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Node is a read-only view over one parsed declaration or sub-structure.
//
// Lookups of the "identifier" and "name" keys are normalized (see
// NormalizeIdentifier); the Raw variants bypass normalization for callers
// that need the exact spelling from the document, such as codec type names.
type Node map[string]any

// Has reports whether the key exists, regardless of its value.
func (n Node) Has(key string) bool {
	_, ok := n[key]
	return ok
}

// Str returns the string at key, or "" when absent or not a string.
func (n Node) Str(key string) string {
	s, _ := n[key].(string)
	return s
}

// Bool returns the bool at key, or false when absent.
func (n Node) Bool(key string) bool {
	b, _ := n[key].(bool)
	return b
}

// Uint64 returns the unsigned integer at key. JSON numbers arrive as
// json.Number (the document is parsed with UseNumber), so both spellings are
// accepted.
func (n Node) Uint64(key string) uint64 {
	switch v := n[key].(type) {
	case json.Number:
		// Ordinals use the full unsigned range, which Int64 cannot hold.
		u, err := strconv.ParseUint(v.String(), 10, 64)
		if err != nil {
			return 0
		}
		return u
	case float64:
		return uint64(v)
	}
	return 0
}

// Int64 returns the signed integer at key, or 0 when absent.
func (n Node) Int64(key string) int64 {
	switch v := n[key].(type) {
	case json.Number:
		i, _ := v.Int64()
		return i
	case float64:
		return int64(v)
	}
	return 0
}

// Node returns the object at key as a child Node, or nil when absent.
func (n Node) Node(key string) Node {
	m, _ := n[key].(map[string]any)
	if m == nil {
		return nil
	}
	return Node(m)
}

// Nodes returns the array of objects at key. Non-object elements are
// skipped.
func (n Node) Nodes(key string) []Node {
	raw, _ := n[key].([]any)
	out := make([]Node, 0, len(raw))
	for _, e := range raw {
		if m, ok := e.(map[string]any); ok {
			out = append(out, Node(m))
		}
	}
	return out
}

// Name returns the node's "name" value, normalized.
func (n Node) Name() string {
	return NormalizeIdentifier(n.Str("name"))
}

// RawName returns the node's "name" value exactly as declared.
func (n Node) RawName() string {
	return n.Str("name")
}

// Identifier returns the node's "identifier" value, normalized.
func (n Node) Identifier() string {
	return NormalizeIdentifier(n.Str("identifier"))
}

// RawIdentifier returns the node's "identifier" value exactly as declared.
func (n Node) RawIdentifier() string {
	return n.Str("identifier")
}

// Doc extracts the documentation string attached to a declaration via its
// attribute list, or "" when the declaration carries none.
func (n Node) Doc() string {
	for _, attr := range n.Nodes("maybe_attributes") {
		if attr.Str("name") != "doc" {
			continue
		}
		args := attr.Nodes("arguments")
		if len(args) == 0 {
			return ""
		}
		val := args[0].Node("value")
		if val == nil {
			return ""
		}
		return strings.TrimSpace(val.Str("value"))
	}
	return ""
}

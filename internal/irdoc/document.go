package irdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DeclKind names one declaration kind as spelled in the IR.
type DeclKind string

const (
	KindBits     DeclKind = "bits"
	KindEnum     DeclKind = "enum"
	KindStruct   DeclKind = "struct"
	KindTable    DeclKind = "table"
	KindUnion    DeclKind = "union"
	KindConst    DeclKind = "const"
	KindAlias    DeclKind = "alias"
	KindProtocol DeclKind = "protocol"
	KindResource DeclKind = "experimental_resource"
)

// DeclKinds lists every declaration kind a document may carry. The order
// here is incidental; the materializer imposes its own export order.
var DeclKinds = []DeclKind{
	KindBits, KindEnum, KindStruct, KindTable, KindUnion,
	KindConst, KindAlias, KindProtocol, KindResource,
}

// Document is the parsed IR for one library. It is immutable after Parse.
type Document struct {
	// Path is the filesystem path the document was parsed from.
	Path string

	root   Node
	name   string
	decls  map[string]DeclKind        // raw identifier -> kind
	order  []string                   // declaration_order, raw identifiers
	byKind map[DeclKind]map[string]Node // kind -> raw name -> declaration
}

// Parse decodes and validates an IR document. Numbers are kept as
// json.Number so 64-bit ordinals survive intact. The document is checked
// against the embedded schema before any indexing happens; a document that
// fails validation is a definition error, never deferred to first use.
func Parse(path string, data []byte) (*Document, error) {
	if err := validateSchema(path, data); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse IR document %s: %w", path, err)
	}

	root := Node(raw)
	d := &Document{
		Path:   path,
		root:   root,
		name:   root.Str("name"),
		decls:  make(map[string]DeclKind),
		byKind: make(map[DeclKind]map[string]Node, len(DeclKinds)),
	}

	if idx := root.Node("declarations"); idx != nil {
		for ident, kind := range idx {
			if s, ok := kind.(string); ok {
				d.decls[ident] = DeclKind(s)
			}
		}
	}
	order, _ := root["declaration_order"].([]any)
	for _, v := range order {
		if s, ok := v.(string); ok {
			d.order = append(d.order, s)
		}
	}
	for _, kind := range DeclKinds {
		byName := make(map[string]Node)
		for _, decl := range root.Nodes(string(kind) + "_declarations") {
			byName[decl.RawName()] = decl
		}
		d.byKind[kind] = byName
	}
	return d, nil
}

// Name returns the library name, e.g. "example.echo".
func (d *Document) Name() string {
	return d.name
}

// Declaration returns the kind of the named declaration from the flat index.
// The identifier must be raw (underscores intact).
func (d *Document) Declaration(rawIdent string) (DeclKind, bool) {
	k, ok := d.decls[rawIdent]
	return k, ok
}

// Lookup returns the declaration node for a raw identifier of a known kind.
func (d *Document) Lookup(kind DeclKind, rawIdent string) (Node, bool) {
	n, ok := d.byKind[kind][rawIdent]
	return n, ok
}

// DeclarationsOfKind returns the library's declarations of one kind in
// declaration_order: least-dependent first, so every declaration can be
// compiled before anything that references it.
func (d *Document) DeclarationsOfKind(kind DeclKind) []Node {
	var out []Node
	for _, ident := range d.order {
		if d.decls[ident] != kind {
			continue
		}
		if n, ok := d.byKind[kind][ident]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Methods returns a protocol declaration's methods.
func Methods(protocol Node) []Method {
	nodes := protocol.Nodes("methods")
	out := make([]Method, len(nodes))
	for i, n := range nodes {
		out[i] = Method{n}
	}
	return out
}

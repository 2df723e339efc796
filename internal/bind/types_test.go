package bind

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irbind/internal/irdoc"
)

// stubLoader serves pre-parsed documents by library name, counting loads so
// tests can observe laziness.
type stubLoader struct {
	docs  map[string]*irdoc.Document
	loads map[string]int
}

func (l *stubLoader) Load(library string) (*irdoc.Document, error) {
	if l.loads == nil {
		l.loads = make(map[string]int)
	}
	l.loads[library]++
	doc, ok := l.docs[library]
	if !ok {
		return nil, fmt.Errorf("library %s not found", library)
	}
	return doc, nil
}

func otherLibDoc(t *testing.T) *irdoc.Document {
	t.Helper()
	data := `{
	  "name": "other.lib",
	  "declarations": {"other.lib/Thing": "struct"},
	  "declaration_order": ["other.lib/Thing"],
	  "struct_declarations": [{
	    "name": "other.lib/Thing",
	    "members": [{"name": "n", "type": {"kind_v2": "primitive", "subtype": "uint8"}}]
	  }]
	}`
	doc, err := irdoc.Parse("other.lib.fidl.json", []byte(data))
	require.NoError(t, err)
	return doc
}

func TestResolveBasicKinds(t *testing.T) {
	doc := parseBindDoc(t)
	r := NewResolver(nil)

	tests := []struct {
		name string
		node irdoc.Node
		want Type
	}{
		{
			"primitive",
			irdoc.Node{"kind_v2": "primitive", "subtype": "int64"},
			Type{Kind: TypePrimitive, Subtype: "int64"},
		},
		{
			"legacy kind key",
			irdoc.Node{"kind": "primitive", "subtype": "bool"},
			Type{Kind: TypePrimitive, Subtype: "bool"},
		},
		{
			"nullable string",
			irdoc.Node{"kind_v2": "string", "nullable": true},
			Type{Kind: TypeString, Nullable: true},
		},
		{
			"handle",
			irdoc.Node{"kind_v2": "handle", "subtype": "channel"},
			Type{Kind: TypeHandle, Subtype: "channel"},
		},
		{
			"internal",
			irdoc.Node{"kind_v2": "internal", "subtype": "framework_error"},
			Type{Kind: TypeInternal, Subtype: "framework_error"},
		},
		{
			"client endpoint",
			irdoc.Node{"kind_v2": "endpoint", "role": "client", "protocol": "test.bind/P"},
			Type{Kind: TypeEndpoint, Role: "client", Protocol: "test.bind/P"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.node, doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveNestedElements(t *testing.T) {
	doc := parseBindDoc(t)
	r := NewResolver(nil)

	node := irdoc.Node{
		"kind_v2": "vector",
		"element_type": map[string]any{
			"kind_v2": "array",
			"element_type": map[string]any{
				"kind_v2": "primitive", "subtype": "uint8",
			},
			"element_count": float64(4),
		},
		"nullable": true,
	}
	got, err := r.Resolve(node, doc)
	require.NoError(t, err)

	require.Equal(t, TypeVector, got.Kind)
	assert.True(t, got.Nullable)
	require.NotNil(t, got.Elem)
	assert.Equal(t, TypeArray, got.Elem.Kind)
	assert.Equal(t, 4, got.Elem.ElementCount)
	assert.Equal(t, "uint8", got.Elem.Elem.Subtype)
}

func TestResolveIdentifierWithinLibrary(t *testing.T) {
	doc := parseBindDoc(t)
	r := NewResolver(nil)

	got, err := r.Resolve(irdoc.Node{"kind_v2": "identifier", "identifier": "test.bind/Op_Result"}, doc)
	require.NoError(t, err)
	assert.Equal(t, TypeIdentifier, got.Kind)
	assert.Equal(t, "test.bind/OpResult", got.Identifier)
	assert.Equal(t, irdoc.KindUnion, got.TargetKind)
}

func TestResolveIdentifierAcrossLibraries(t *testing.T) {
	doc := parseBindDoc(t)
	loader := &stubLoader{docs: map[string]*irdoc.Document{"other.lib": otherLibDoc(t)}}
	r := NewResolver(loader)

	node := irdoc.Node{"kind_v2": "identifier", "identifier": "other.lib/Thing"}
	got, err := r.Resolve(node, doc)
	require.NoError(t, err)
	assert.Equal(t, irdoc.KindStruct, got.TargetKind)
	assert.Equal(t, 1, loader.loads["other.lib"])

	_, err = r.Resolve(irdoc.Node{"kind_v2": "identifier", "identifier": "missing.lib/X"}, doc)
	assert.ErrorContains(t, err, "missing.lib not found")
}

func TestResolveRejectsMalformedTypes(t *testing.T) {
	doc := parseBindDoc(t)
	r := NewResolver(nil)

	_, err := r.Resolve(irdoc.Node{"kind_v2": "endpoint", "role": "observer"}, doc)
	assert.ErrorContains(t, err, `unsupported endpoint role "observer"`)

	_, err = r.Resolve(irdoc.Node{"kind_v2": "vector"}, doc)
	assert.ErrorContains(t, err, "missing element_type")

	_, err = r.Resolve(irdoc.Node{"kind_v2": "telepathy"}, doc)
	assert.ErrorContains(t, err, `unsupported type kind "telepathy"`)
}

func TestDefaultForType(t *testing.T) {
	tests := []struct {
		name string
		t    Type
		want Value
	}{
		{"nullable wins", Type{Kind: TypeString, Nullable: true}, Null{}},
		{"bool", Type{Kind: TypePrimitive, Subtype: "bool"}, Bool(false)},
		{"float", Type{Kind: TypePrimitive, Subtype: "float64"}, Float(0)},
		{"uint", Type{Kind: TypePrimitive, Subtype: "uint16"}, Uint(0)},
		{"int", Type{Kind: TypePrimitive, Subtype: "int8"}, Int(0)},
		{"string", Type{Kind: TypeString}, Str("")},
		{"vector", Type{Kind: TypeVector}, List{}},
		{"handle", Type{Kind: TypeHandle}, Handle(0)},
		{"endpoint", Type{Kind: TypeEndpoint}, Handle(0)},
		{"identifier", Type{Kind: TypeIdentifier}, Null{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultForType(tt.t))
		})
	}
}

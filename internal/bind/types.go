package bind

import (
	"fmt"
	"strings"

	"github.com/roach88/irbind/internal/irdoc"
)

// TypeKind tags a resolved type descriptor.
type TypeKind string

const (
	TypePrimitive  TypeKind = "primitive"
	TypeString     TypeKind = "string"
	TypeVector     TypeKind = "vector"
	TypeArray      TypeKind = "array"
	TypeHandle     TypeKind = "handle"
	TypeIdentifier TypeKind = "identifier"
	TypeEndpoint   TypeKind = "endpoint"
	TypeInternal   TypeKind = "internal"
)

// Type is a resolved type descriptor. Identifier types carry the target
// declaration's kind but no pointer to the compiled declaration, so type
// resolution never recurses into materialization.
type Type struct {
	Kind     TypeKind
	Nullable bool

	// Subtype is the primitive, handle or internal subtype ("int32",
	// "channel", "framework_error", ...).
	Subtype string

	// Elem and ElementCount describe vector and array element types.
	Elem         *Type
	ElementCount int

	// Identifier is the normalized qualified identifier and TargetKind the
	// declaration kind it resolved to.
	Identifier string
	TargetKind irdoc.DeclKind

	// Role and Protocol describe endpoint types.
	Role     string
	Protocol string
}

// Loader resolves a library name to its parsed IR document. Implemented by
// the registry; declared here so the resolver does not depend on it.
type Loader interface {
	Load(library string) (*irdoc.Document, error)
}

// Resolver converts IR type references into Type descriptors, following
// identifiers into other libraries on demand.
type Resolver struct {
	loader Loader
}

// NewResolver returns a resolver that loads cross-library references
// through loader.
func NewResolver(loader Loader) *Resolver {
	return &Resolver{loader: loader}
}

// Resolve converts one type reference node from doc into a Type. Nullable
// wrapping is applied last, uniformly, regardless of kind.
func (r *Resolver) Resolve(node irdoc.Node, doc *irdoc.Document) (Type, error) {
	kind := node.Str("kind_v2")
	if kind == "" {
		kind = node.Str("kind")
	}

	var t Type
	switch TypeKind(kind) {
	case TypePrimitive:
		t = Type{Kind: TypePrimitive, Subtype: node.Str("subtype")}
	case TypeString:
		t = Type{Kind: TypeString}
	case TypeVector, TypeArray:
		elemNode := node.Node("element_type")
		if elemNode == nil {
			return Type{}, &CompileError{Library: doc.Name(), Message: fmt.Sprintf("%s type missing element_type", kind)}
		}
		elem, err := r.Resolve(elemNode, doc)
		if err != nil {
			return Type{}, err
		}
		t = Type{Kind: TypeKind(kind), Elem: &elem, ElementCount: int(node.Int64("element_count"))}
	case TypeHandle:
		t = Type{Kind: TypeHandle, Subtype: node.Str("subtype")}
	case TypeIdentifier:
		raw := node.RawIdentifier()
		declKind, _, _, err := r.ResolveKind(raw, doc)
		if err != nil {
			return Type{}, err
		}
		t = Type{Kind: TypeIdentifier, Identifier: irdoc.NormalizeIdentifier(raw), TargetKind: declKind}
	case TypeEndpoint:
		role := node.Str("role")
		if role != "client" && role != "server" {
			return Type{}, &CompileError{
				Library: doc.Name(),
				Message: fmt.Sprintf("unsupported endpoint role %q", role),
			}
		}
		t = Type{Kind: TypeEndpoint, Role: role, Protocol: irdoc.NormalizeIdentifier(node.Str("protocol"))}
	case TypeInternal:
		t = Type{Kind: TypeInternal, Subtype: node.Str("subtype")}
	default:
		return Type{}, &CompileError{
			Library: doc.Name(),
			Message: fmt.Sprintf("unsupported type kind %q", kind),
		}
	}

	t.Nullable = node.Bool("nullable")
	return t, nil
}

// ResolveKind resolves a raw qualified identifier to its declaration kind,
// node and owning document. The containing library's own declaration table
// is consulted first; on a miss the owning library is derived from the
// identifier's namespace prefix and loaded lazily. An identifier declared
// nowhere is a fatal definition error.
func (r *Resolver) ResolveKind(rawIdent string, doc *irdoc.Document) (irdoc.DeclKind, irdoc.Node, *irdoc.Document, error) {
	if kind, ok := doc.Declaration(rawIdent); ok {
		return r.lookupDecl(kind, rawIdent, doc)
	}

	library := irdoc.LibraryOf(rawIdent)
	target, err := r.loader.Load(library)
	if err != nil {
		return "", nil, nil, fmt.Errorf("resolve %s: %w", rawIdent, err)
	}
	if kind, ok := target.Declaration(rawIdent); ok {
		return r.lookupDecl(kind, rawIdent, target)
	}
	return "", nil, nil, &CompileError{
		Library: doc.Name(),
		Message: fmt.Sprintf("unresolved kind: %s is not declared in %s", rawIdent, library),
	}
}

func (r *Resolver) lookupDecl(kind irdoc.DeclKind, rawIdent string, doc *irdoc.Document) (irdoc.DeclKind, irdoc.Node, *irdoc.Document, error) {
	node, ok := doc.Lookup(kind, rawIdent)
	if !ok {
		return "", nil, nil, &CompileError{
			Library: doc.Name(),
			Message: fmt.Sprintf("declaration index names %s as a %s but no such declaration exists", rawIdent, kind),
		}
	}
	return kind, node, doc, nil
}

// DefaultForType returns the decode default for a resolved type: Null for
// nullable types, the natural zero otherwise.
func DefaultForType(t Type) Value {
	if t.Nullable {
		return Null{}
	}
	switch t.Kind {
	case TypePrimitive:
		switch {
		case t.Subtype == "bool":
			return Bool(false)
		case strings.HasPrefix(t.Subtype, "float"):
			return Float(0)
		case strings.HasPrefix(t.Subtype, "uint"):
			return Uint(0)
		default:
			return Int(0)
		}
	case TypeString:
		return Str("")
	case TypeVector, TypeArray:
		return List{}
	case TypeHandle, TypeEndpoint:
		return Handle(0)
	default:
		return Null{}
	}
}

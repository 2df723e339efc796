package bind

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/irbind/internal/irdoc"
)

// Const is a compiled constant: a plain (name, resolved value) pair.
type Const struct {
	declBase
	Value Value
}

// MakeDefault returns the constant's value.
func (c *Const) MakeDefault() Value {
	return c.Value
}

func compileConst(node irdoc.Node, doc *irdoc.Document, r *Resolver) (*Const, error) {
	typeNode := node.Node("type")
	valNode := node.Node("value")
	if typeNode == nil || valNode == nil {
		return nil, &CompileError{
			Library:     doc.Name(),
			Declaration: node.Name(),
			Message:     "const missing type or value",
		}
	}
	literal := valNode.Str("value")

	kind := typeNode.Str("kind_v2")
	if kind == "" {
		kind = typeNode.Str("kind")
	}
	var v Value
	var err error
	switch TypeKind(kind) {
	case TypePrimitive:
		v, err = convertPrimitive(typeNode.Str("subtype"), literal)
	case TypeString:
		v = Str(literal)
	case TypeIdentifier:
		// Enum- and bits-typed constants convert through the target's
		// member value rules, which bottom out on integer parsing.
		targetKind, _, _, rerr := r.ResolveKind(typeNode.RawIdentifier(), doc)
		if rerr != nil {
			return nil, rerr
		}
		switch targetKind {
		case irdoc.KindEnum:
			var n int64
			n, err = strconv.ParseInt(literal, 10, 64)
			v = Int(n)
		case irdoc.KindBits:
			var n uint64
			n, err = strconv.ParseUint(literal, 10, 64)
			v = Uint(n)
		default:
			return nil, &CompileError{
				Library:     doc.Name(),
				Declaration: node.Name(),
				Message:     fmt.Sprintf("unsupported identifier-typed const target kind %q", targetKind),
			}
		}
	default:
		return nil, &CompileError{
			Library:     doc.Name(),
			Declaration: node.Name(),
			Message:     fmt.Sprintf("unsupported const type kind %q", kind),
		}
	}
	if err != nil {
		return nil, &CompileError{
			Library:     doc.Name(),
			Declaration: node.Name(),
			Message:     fmt.Sprintf("const value %q does not convert: %v", literal, err),
		}
	}
	return &Const{declBase: newDeclBase(node, irdoc.KindConst), Value: v}, nil
}

// convertPrimitive converts a literal spelling into the value representation
// for a primitive subtype. Shared by const compilation and call-argument
// checks.
func convertPrimitive(subtype, literal string) (Value, error) {
	switch {
	case subtype == "bool":
		b, err := strconv.ParseBool(literal)
		if err != nil {
			return nil, err
		}
		return Bool(b), nil
	case strings.HasPrefix(subtype, "float"):
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case strings.HasPrefix(subtype, "uint"):
		u, err := strconv.ParseUint(literal, 10, 64)
		if err != nil {
			return nil, err
		}
		return Uint(u), nil
	case strings.HasPrefix(subtype, "int"):
		i, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return nil, err
		}
		return Int(i), nil
	default:
		return nil, fmt.Errorf("unrecognized primitive subtype %q", subtype)
	}
}

// Alias is a compiled alias: a type equivalent to its underlying base type,
// keeping the original documentation and qualified name for diagnostics.
type Alias struct {
	declBase
	Target Type
}

// MakeDefault returns the default of the aliased type.
func (a *Alias) MakeDefault() Value {
	return DefaultForType(a.Target)
}

func compileAlias(node irdoc.Node, doc *irdoc.Document, r *Resolver) (*Alias, error) {
	ctor := node.Node("partial_type_ctor")
	if ctor == nil {
		return nil, &CompileError{
			Library:     doc.Name(),
			Declaration: node.Name(),
			Message:     "alias missing partial_type_ctor",
		}
	}
	target, err := aliasTarget(ctor.Str("name"), doc, r)
	if err != nil {
		return nil, &CompileError{
			Library:     doc.Name(),
			Declaration: node.Name(),
			Message:     err.Error(),
		}
	}
	return &Alias{declBase: newDeclBase(node, irdoc.KindAlias), Target: target}, nil
}

func aliasTarget(name string, doc *irdoc.Document, r *Resolver) (Type, error) {
	switch {
	case name == "string":
		return Type{Kind: TypeString}, nil
	case name == "vector":
		return Type{Kind: TypeVector}, nil
	case name == "array":
		return Type{Kind: TypeArray}, nil
	case name == "bool" ||
		strings.HasPrefix(name, "int") ||
		strings.HasPrefix(name, "uint") ||
		strings.HasPrefix(name, "float"):
		return Type{Kind: TypePrimitive, Subtype: name}, nil
	default:
		kind, _, _, err := r.ResolveKind(name, doc)
		if err != nil {
			return Type{}, err
		}
		return Type{
			Kind:       TypeIdentifier,
			Identifier: irdoc.NormalizeIdentifier(name),
			TargetKind: kind,
		}, nil
	}
}

// Resource is a compiled experimental resource declaration. Resources are
// represented as bare handle-typed integers.
type Resource struct {
	declBase
}

// MakeDefault returns the zero resource.
func (*Resource) MakeDefault() Value {
	return Uint(0)
}

func compileResource(node irdoc.Node, _ *irdoc.Document) (*Resource, error) {
	return &Resource{declBase: newDeclBase(node, irdoc.KindResource)}, nil
}

package protocol

import (
	"fmt"

	"github.com/roach88/irbind/internal/bind"
	"github.com/roach88/irbind/internal/irdoc"
)

// PayloadKind classifies a method payload for call-shape derivation.
type PayloadKind string

const (
	PayloadNone   PayloadKind = ""
	PayloadStruct PayloadKind = "struct"
	PayloadTable  PayloadKind = "table"
	PayloadUnion  PayloadKind = "union"
)

// ArgShape is the call-site argument shape of one method, derived from its
// payload kind: struct payloads make every field required, table payloads
// make every field optional, union payloads require exactly one variant, and
// a missing payload means the callable takes no arguments.
type ArgShape struct {
	Kind PayloadKind

	// PayloadIdent is the raw identifier of the payload declaration, used
	// as the codec type name when encoding an outbound message.
	PayloadIdent string

	structDecl *bind.Struct
	tableDecl  *bind.Table
	unionDecl  *bind.Union
}

// compileShape resolves and compiles a method payload into its argument
// shape. A nil payload node yields the empty shape.
func compileShape(payload irdoc.Node, doc *irdoc.Document, r *bind.Resolver) (ArgShape, error) {
	if payload == nil {
		return ArgShape{}, nil
	}
	raw := payload.RawIdentifier()
	kind, declNode, owner, err := r.ResolveKind(raw, doc)
	if err != nil {
		return ArgShape{}, err
	}
	shape := ArgShape{PayloadIdent: raw}
	switch kind {
	case irdoc.KindStruct:
		decl, err := bind.Compile(kind, declNode, owner, r)
		if err != nil {
			return ArgShape{}, err
		}
		shape.Kind = PayloadStruct
		shape.structDecl = decl.(*bind.Struct)
	case irdoc.KindTable:
		decl, err := bind.Compile(kind, declNode, owner, r)
		if err != nil {
			return ArgShape{}, err
		}
		shape.Kind = PayloadTable
		shape.tableDecl = decl.(*bind.Table)
	case irdoc.KindUnion:
		decl, err := bind.Compile(kind, declNode, owner, r)
		if err != nil {
			return ArgShape{}, err
		}
		shape.Kind = PayloadUnion
		shape.unionDecl = decl.(*bind.Union)
	default:
		return ArgShape{}, &bind.CompileError{
			Library: doc.Name(),
			Message: fmt.Sprintf("unrecognized method payload kind %q for %s", kind, raw),
		}
	}
	return shape, nil
}

// Params returns the shape's parameter names in declaration order, with
// required marking.
func (s ArgShape) Params() []Param {
	switch s.Kind {
	case PayloadStruct:
		out := make([]Param, len(s.structDecl.Fields))
		for i, f := range s.structDecl.Fields {
			out[i] = Param{Name: f.Name, Type: f.Type, Required: true}
		}
		return out
	case PayloadTable:
		out := make([]Param, len(s.tableDecl.Fields))
		for i, f := range s.tableDecl.Fields {
			out[i] = Param{Name: f.Name, Type: f.Type}
		}
		return out
	case PayloadUnion:
		out := make([]Param, len(s.unionDecl.Variants))
		for i, v := range s.unionDecl.Variants {
			out[i] = Param{Name: v.Name, Type: v.Type}
		}
		return out
	default:
		return nil
	}
}

// Param is one call-site parameter.
type Param struct {
	Name     string
	Type     bind.Type
	Required bool
}

// BuildPayload validates named arguments against the shape and constructs
// the payload value. A method without a payload admits no arguments; a
// union payload requires exactly one variant at the call site.
func (s ArgShape) BuildPayload(method string, args bind.Args) (bind.Value, error) {
	switch s.Kind {
	case PayloadNone:
		if len(args) != 0 {
			return nil, fmt.Errorf("call %s: method takes no arguments, got %d", method, len(args))
		}
		return nil, nil
	case PayloadStruct:
		v, err := s.structDecl.New(args)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		return v, nil
	case PayloadTable:
		v, err := s.tableDecl.New(args)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		return v, nil
	case PayloadUnion:
		if len(args) != 1 {
			return nil, fmt.Errorf("call %s: exactly one union variant must be supplied, got %d", method, len(args))
		}
		v, err := s.unionDecl.New(args)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("call %s: unrecognized payload kind %q", method, s.Kind)
	}
}

package bind

import (
	"fmt"

	"github.com/roach88/irbind/internal/irdoc"
)

// The well-known variant triple a result union may carry.
const (
	VariantResponse     = "response"
	VariantErr          = "err"
	VariantFrameworkErr = "framework_err"
)

// Union is a compiled union declaration: a mutually-exclusive variant
// container. When IsResult is set the union represents a method result and
// exposes Unwrap on its values.
type Union struct {
	declBase
	Variants []Field
	IsResult bool
	Strict   bool
}

func compileUnion(node irdoc.Node, doc *irdoc.Document, r *Resolver) (*Union, error) {
	u := &Union{
		declBase: newDeclBase(node, irdoc.KindUnion),
		IsResult: node.Bool("is_result"),
		Strict:   node.Bool("strict"),
	}
	variants, err := compileFields(node, doc, r)
	if err != nil {
		return nil, err
	}
	u.Variants = variants

	if u.IsResult {
		for _, v := range u.Variants {
			switch v.Name {
			case VariantResponse, VariantErr, VariantFrameworkErr:
			default:
				return nil, &CompileError{
					Library:     doc.Name(),
					Declaration: u.QualifiedName(),
					Member:      v.Name,
					Message:     "result union variant outside {response, err, framework_err}",
				}
			}
		}
	}
	return u, nil
}

// MakeDefault returns the empty union.
func (u *Union) MakeDefault() Value {
	return UnionValue{TypeName: u.QualifiedName(), Result: u.IsResult}
}

// New constructs a union value. Exactly one named variant may be supplied;
// no arguments construct the empty union. Any other arity is a
// construction-time error: a union never holds two variants at once.
func (u *Union) New(args Args) (Value, error) {
	switch len(args) {
	case 0:
		return u.MakeDefault(), nil
	case 1:
		for name, v := range args {
			if !u.hasVariant(name) {
				return nil, fmt.Errorf("construct %s: unknown variant %q", u.QualifiedName(), name)
			}
			return UnionValue{
				TypeName: u.QualifiedName(),
				Variant:  name,
				Value:    v,
				Result:   u.IsResult,
			}, nil
		}
		panic("unreachable")
	default:
		return nil, fmt.Errorf("construct %s: exactly one variant may be set, got %d", u.QualifiedName(), len(args))
	}
}

func (u *Union) hasVariant(name string) bool {
	for _, v := range u.Variants {
		if v.Name == name {
			return true
		}
	}
	return false
}

// Unwrap returns the response variant's value from a result union. A set
// error variant raises a ResultError naming the declaring type, with
// framework_err checked before err; a union holding neither raises
// NoResultError.
func (v UnionValue) Unwrap() (Value, error) {
	if !v.Result {
		return nil, fmt.Errorf("unwrap %s: not a result union", v.TypeName)
	}
	switch v.Variant {
	case VariantFrameworkErr, VariantErr:
		return nil, &ResultError{TypeName: v.TypeName, Variant: v.Variant, Value: v.Value}
	case VariantResponse:
		return v.Value, nil
	default:
		return nil, &NoResultError{TypeName: v.TypeName}
	}
}

package bind

import (
	"fmt"

	"github.com/roach88/irbind/internal/irdoc"
)

// Field is one struct or table member.
type Field struct {
	// Name is the binding name: snake_case, disambiguated against reserved
	// words.
	Name string

	// RawName is the member name exactly as declared.
	RawName string

	Type Type
	Doc  string
}

// Struct is a compiled struct declaration. Every field is present by
// construction.
type Struct struct {
	declBase
	Fields []Field
}

func compileStruct(node irdoc.Node, doc *irdoc.Document, r *Resolver) (*Struct, error) {
	fields, err := compileFields(node, doc, r)
	if err != nil {
		return nil, err
	}
	return &Struct{
		declBase: newDeclBase(node, irdoc.KindStruct),
		Fields:   fields,
	}, nil
}

// MakeDefault returns a record with every declared field present, holding
// Null.
func (s *Struct) MakeDefault() Value {
	rec := make(Record, len(s.Fields))
	for _, f := range s.Fields {
		rec[f.Name] = Null{}
	}
	return rec
}

// New constructs a struct value. Every declared field is required; unknown
// names are rejected.
func (s *Struct) New(args Args) (Value, error) {
	if err := rejectUnknown(s.QualifiedName(), s.Fields, args); err != nil {
		return nil, err
	}
	rec := make(Record, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := args[f.Name]
		if !ok {
			return nil, fmt.Errorf("construct %s: missing required field %q", s.QualifiedName(), f.Name)
		}
		rec[f.Name] = v
	}
	return rec, nil
}

// Table is a compiled table declaration. Every field defaults to absent.
type Table struct {
	declBase
	Fields []Field
}

func compileTable(node irdoc.Node, doc *irdoc.Document, r *Resolver) (*Table, error) {
	fields, err := compileFields(node, doc, r)
	if err != nil {
		return nil, err
	}
	return &Table{
		declBase: newDeclBase(node, irdoc.KindTable),
		Fields:   fields,
	}, nil
}

// MakeDefault returns a record with every field absent.
func (t *Table) MakeDefault() Value {
	return Record{}
}

// New constructs a table value. All fields are optional; supplied fields
// must be declared.
func (t *Table) New(args Args) (Value, error) {
	if err := rejectUnknown(t.QualifiedName(), t.Fields, args); err != nil {
		return nil, err
	}
	rec := make(Record, len(args))
	for _, f := range t.Fields {
		if v, ok := args[f.Name]; ok {
			rec[f.Name] = v
		}
	}
	return rec, nil
}

func compileFields(node irdoc.Node, doc *irdoc.Document, r *Resolver) ([]Field, error) {
	members := node.Nodes("members")
	fields := make([]Field, 0, len(members))
	for _, m := range members {
		t, err := r.Resolve(m.Node("type"), doc)
		if err != nil {
			return nil, fmt.Errorf("field %s of %s: %w", m.RawName(), node.Name(), err)
		}
		fields = append(fields, Field{
			Name:    irdoc.NormalizeMember(m.RawName()),
			RawName: m.RawName(),
			Type:    t,
			Doc:     m.Doc(),
		})
	}
	return fields, nil
}

func rejectUnknown(typeName string, fields []Field, args Args) error {
	for name := range args {
		known := false
		for _, f := range fields {
			if f.Name == name {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("construct %s: unknown field %q", typeName, name)
		}
	}
	return nil
}

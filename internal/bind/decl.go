package bind

import (
	"fmt"

	"github.com/roach88/irbind/internal/irdoc"
	"github.com/roach88/irbind/internal/wire"
)

// Declaration is one compiled declaration: a concrete runtime record with a
// kind tag, a documentation string and a default-construction factory.
type Declaration interface {
	// QualifiedName is the normalized "library/Name" identifier.
	QualifiedName() string

	// RawName is the identifier exactly as declared, which is what codecs
	// key payload layouts by.
	RawName() string

	DeclKind() irdoc.DeclKind
	Doc() string

	// MakeDefault constructs the declaration's well-defined default value:
	// structs with every field present, tables with every field absent,
	// unions empty, enums and bits at their zero member.
	MakeDefault() Value
}

// declBase carries the metadata every declaration kind shares.
type declBase struct {
	name string // normalized qualified name
	raw  string // raw qualified name
	kind irdoc.DeclKind
	doc  string
}

func newDeclBase(node irdoc.Node, kind irdoc.DeclKind) declBase {
	return declBase{
		name: node.Name(),
		raw:  node.RawName(),
		kind: kind,
		doc:  node.Doc(),
	}
}

func (d declBase) QualifiedName() string    { return d.name }
func (d declBase) RawName() string          { return d.raw }
func (d declBase) DeclKind() irdoc.DeclKind { return d.kind }
func (d declBase) Doc() string              { return d.doc }

// EncodeValue produces wire bytes plus handle transfers for a compiled value
// of the given declaration, delegating the byte layout to the codec.
func EncodeValue(c wire.Codec, d Declaration, v Value) ([]byte, []wire.HandleDisposition, error) {
	return c.EncodeObject(irdoc.LibraryOf(d.QualifiedName()), d.RawName(), v)
}

// Compile synthesizes the runtime declaration for one IR declaration node.
// Protocol declarations are compiled by the protocol package, not here.
// An unrecognized kind is a fatal definition error at compile time.
func Compile(kind irdoc.DeclKind, node irdoc.Node, doc *irdoc.Document, r *Resolver) (Declaration, error) {
	switch kind {
	case irdoc.KindStruct:
		return compileStruct(node, doc, r)
	case irdoc.KindTable:
		return compileTable(node, doc, r)
	case irdoc.KindUnion:
		return compileUnion(node, doc, r)
	case irdoc.KindEnum:
		return compileEnum(node, doc)
	case irdoc.KindBits:
		return compileBits(node, doc)
	case irdoc.KindConst:
		return compileConst(node, doc, r)
	case irdoc.KindAlias:
		return compileAlias(node, doc, r)
	case irdoc.KindResource:
		return compileResource(node, doc)
	default:
		return nil, &CompileError{
			Library:     doc.Name(),
			Declaration: node.Name(),
			Message:     fmt.Sprintf("unsupported declaration kind %q", kind),
		}
	}
}

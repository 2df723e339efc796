package registry

import (
	"fmt"

	"github.com/roach88/irbind/internal/bind"
	"github.com/roach88/irbind/internal/irdoc"
	"github.com/roach88/irbind/internal/protocol"
)

// materializeOrder fixes the order declaration kinds are compiled in:
// value-level declarations before the consts and aliases that reference
// them, protocols last so every payload type already exists.
var materializeOrder = []irdoc.DeclKind{
	irdoc.KindBits,
	irdoc.KindResource,
	irdoc.KindEnum,
	irdoc.KindStruct,
	irdoc.KindTable,
	irdoc.KindUnion,
	irdoc.KindConst,
	irdoc.KindAlias,
	irdoc.KindProtocol,
}

// Namespace is one library's compiled declarations, keyed by local
// normalized name. Immutable once materialized.
type Namespace struct {
	library   string
	doc       *irdoc.Document
	decls     map[string]bind.Declaration
	protocols map[string]*protocol.Protocol
	exports   []string
}

func newNamespace(doc *irdoc.Document, r *bind.Resolver) (*Namespace, error) {
	ns := &Namespace{
		library:   doc.Name(),
		doc:       doc,
		decls:     make(map[string]bind.Declaration),
		protocols: make(map[string]*protocol.Protocol),
	}
	for _, kind := range materializeOrder {
		for _, node := range doc.DeclarationsOfKind(kind) {
			if kind == irdoc.KindProtocol {
				p, err := protocol.Compile(node, doc, r)
				if err != nil {
					return nil, err
				}
				name := irdoc.MemberOf(p.Name())
				if _, ok := ns.protocols[name]; ok {
					continue
				}
				ns.protocols[name] = p
				ns.exports = append(ns.exports, name)
				continue
			}
			decl, err := bind.Compile(kind, node, doc, r)
			if err != nil {
				return nil, err
			}
			name := irdoc.MemberOf(decl.QualifiedName())
			if _, ok := ns.decls[name]; ok {
				continue
			}
			ns.decls[name] = decl
			ns.exports = append(ns.exports, name)
		}
	}
	return ns, nil
}

// Library returns the namespace's library name.
func (ns *Namespace) Library() string { return ns.library }

// Document returns the IR document the namespace was built from.
func (ns *Namespace) Document() *irdoc.Document { return ns.doc }

// Exports returns the local names of every materialized declaration in
// materialization order.
func (ns *Namespace) Exports() []string {
	out := make([]string, len(ns.exports))
	copy(out, ns.exports)
	return out
}

// Declaration returns a non-protocol declaration by local name.
func (ns *Namespace) Declaration(name string) (bind.Declaration, bool) {
	d, ok := ns.decls[name]
	return d, ok
}

// Protocol returns a compiled protocol by local name.
func (ns *Namespace) Protocol(name string) (*protocol.Protocol, bool) {
	p, ok := ns.protocols[name]
	return p, ok
}

// Protocol resolves a raw qualified protocol identifier, loading and
// materializing the owning library as needed.
func (r *Registry) Protocol(rawIdent string) (*protocol.Protocol, error) {
	ns, err := r.Namespace(irdoc.LibraryOf(rawIdent))
	if err != nil {
		return nil, err
	}
	name := irdoc.MemberOf(irdoc.NormalizeIdentifier(rawIdent))
	p, ok := ns.Protocol(name)
	if !ok {
		return nil, fmt.Errorf("%s is not a protocol of %s", name, ns.library)
	}
	return p, nil
}

// ResultUnion resolves a raw response payload identifier to its compiled
// result union. The serving loop uses it to fold handler outcomes into the
// union before replying.
func (r *Registry) ResultUnion(rawIdent string) (*bind.Union, error) {
	ns, err := r.Namespace(irdoc.LibraryOf(rawIdent))
	if err != nil {
		return nil, err
	}
	name := irdoc.MemberOf(irdoc.NormalizeIdentifier(rawIdent))
	d, ok := ns.Declaration(name)
	if !ok {
		return nil, fmt.Errorf("%s is not declared in %s", name, ns.library)
	}
	union, ok := d.(*bind.Union)
	if !ok || !union.IsResult {
		return nil, fmt.Errorf("%s is not a result union", name)
	}
	return union, nil
}

package bind

import (
	"fmt"
	"strconv"

	"github.com/roach88/irbind/internal/irdoc"
)

// zeroMemberName is the synthesized member added to an enum that declares no
// zero value, so a well-defined decode default always exists.
const zeroMemberName = "EMPTY"

// EnumMember is one member of an enum or bits declaration.
type EnumMember struct {
	Name    string
	RawName string
	Value   int64
	Doc     string
}

// Enum is a compiled enum declaration: a closed signed value set with a
// well-defined zero default.
type Enum struct {
	declBase
	Members []EnumMember
	Strict  bool
}

func compileEnum(node irdoc.Node, doc *irdoc.Document) (*Enum, error) {
	members, err := compileMembers(node, doc)
	if err != nil {
		return nil, err
	}
	// Decoding needs a zero default; synthesize one when the declaration
	// has no zero-valued member.
	hasZero := false
	for _, m := range members {
		if m.Value == 0 {
			hasZero = true
			break
		}
	}
	if !hasZero {
		members = append(members, EnumMember{Name: zeroMemberName, RawName: zeroMemberName})
	}
	return &Enum{
		declBase: newDeclBase(node, irdoc.KindEnum),
		Members:  members,
		Strict:   node.Bool("strict"),
	}, nil
}

// MakeDefault returns the enum's zero value.
func (e *Enum) MakeDefault() Value {
	return Int(0)
}

// Member returns the value of the named member.
func (e *Enum) Member(name string) (int64, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

// Convert checks that raw names a known member value for strict enums.
// Flexible enums admit unknown values.
func (e *Enum) Convert(raw int64) (Value, error) {
	if !e.Strict {
		return Int(raw), nil
	}
	for _, m := range e.Members {
		if m.Value == raw {
			return Int(raw), nil
		}
	}
	return nil, fmt.Errorf("%s: %d is not a member of this strict enum", e.QualifiedName(), raw)
}

// Bits is a compiled bit-flags declaration. Flag composition starts from
// "no flags", so zero is always a valid value even without a zero member.
type Bits struct {
	declBase
	Members []EnumMember
	Strict  bool

	// Mask is the union of all declared flag values.
	Mask uint64
}

func compileBits(node irdoc.Node, doc *irdoc.Document) (*Bits, error) {
	members, err := compileMembers(node, doc)
	if err != nil {
		return nil, err
	}
	var mask uint64
	for _, m := range members {
		mask |= uint64(m.Value)
	}
	return &Bits{
		declBase: newDeclBase(node, irdoc.KindBits),
		Members:  members,
		Strict:   node.Bool("strict"),
		Mask:     mask,
	}, nil
}

// MakeDefault returns the empty flag set.
func (b *Bits) MakeDefault() Value {
	return Uint(0)
}

// Member returns the value of the named flag.
func (b *Bits) Member(name string) (uint64, bool) {
	for _, m := range b.Members {
		if m.Name == name {
			return uint64(m.Value), true
		}
	}
	return 0, false
}

// Convert checks raw against the declared mask for strict bits.
func (b *Bits) Convert(raw uint64) (Value, error) {
	if b.Strict && raw&^b.Mask != 0 {
		return nil, fmt.Errorf("%s: %#x has bits outside the declared mask %#x", b.QualifiedName(), raw, b.Mask)
	}
	return Uint(raw), nil
}

func compileMembers(node irdoc.Node, doc *irdoc.Document) ([]EnumMember, error) {
	raw := node.Nodes("members")
	members := make([]EnumMember, 0, len(raw))
	for _, m := range raw {
		val := m.Node("value")
		if val == nil {
			return nil, &CompileError{
				Library:     doc.Name(),
				Declaration: node.Name(),
				Member:      m.RawName(),
				Message:     "member has no value",
			}
		}
		n, err := strconv.ParseInt(val.Str("value"), 10, 64)
		if err != nil {
			// Bits flags may occupy the high bit of a uint64.
			u, uerr := strconv.ParseUint(val.Str("value"), 10, 64)
			if uerr != nil {
				return nil, &CompileError{
					Library:     doc.Name(),
					Declaration: node.Name(),
					Member:      m.RawName(),
					Message:     fmt.Sprintf("member value %q is not an integer", val.Str("value")),
				}
			}
			n = int64(u)
		}
		members = append(members, EnumMember{
			Name:    m.RawName(),
			RawName: m.RawName(),
			Value:   n,
			Doc:     m.Doc(),
		})
	}
	return members, nil
}

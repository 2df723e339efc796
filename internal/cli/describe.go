package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/irbind/internal/bind"
	"github.com/roach88/irbind/internal/protocol"
	"github.com/roach88/irbind/internal/registry"
)

// LibraryDescription is the structured output of describing a library.
type LibraryDescription struct {
	Library string              `json:"library"`
	Exports []ExportDescription `json:"exports"`
}

// ExportDescription is one materialized declaration.
type ExportDescription struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Doc  string `json:"doc,omitempty"`
}

// DeclDescription is the structured output of describing one declaration.
type DeclDescription struct {
	Library string              `json:"library"`
	Name    string              `json:"name"`
	Kind    string              `json:"kind"`
	Doc     string              `json:"doc,omitempty"`
	Fields  []FieldDescription  `json:"fields,omitempty"`
	Members []MemberDescription `json:"members,omitempty"`
	Methods []MethodDescription `json:"methods,omitempty"`
}

// FieldDescription is one struct field, table field or union variant.
type FieldDescription struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// MemberDescription is one enum or bits member.
type MemberDescription struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// MethodDescription is one protocol method.
type MethodDescription struct {
	Name      string `json:"name"`
	Ordinal   uint64 `json:"ordinal"`
	Direction string `json:"direction"` // "two-way", "one-way" or "event"
	Request   string `json:"request,omitempty"`
	Response  string `json:"response,omitempty"`
	Result    bool   `json:"result,omitempty"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <library> [declaration]",
		Short: "Materialize a library and print its exports",
		Long: `Materialize a library's bindings and print what it exports.

With a declaration name, print that declaration's shape: fields for
structs, tables and unions, members for enums and bits, methods with
ordinals for protocols.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args, cmd)
		},
	}
}

func runDescribe(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	reg, err := buildRegistry(opts)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "registry setup failed", Err: err}
	}
	ns, err := reg.Namespace(args[0])
	if err != nil {
		if ferr := formatter.Error(ErrCodeNotFound, err.Error(), nil); ferr != nil {
			return ferr
		}
		return &ExitError{Code: ExitFailure, Message: "library not available", Err: err}
	}

	if len(args) == 1 {
		return describeLibrary(formatter, ns)
	}
	return describeDecl(formatter, ns, args[1])
}

func describeLibrary(formatter *OutputFormatter, ns *registry.Namespace) error {
	desc := LibraryDescription{Library: ns.Library()}
	for _, name := range ns.Exports() {
		if p, ok := ns.Protocol(name); ok {
			desc.Exports = append(desc.Exports, ExportDescription{Name: name, Kind: "protocol", Doc: p.Doc()})
			continue
		}
		if d, ok := ns.Declaration(name); ok {
			desc.Exports = append(desc.Exports, ExportDescription{Name: name, Kind: string(d.DeclKind()), Doc: d.Doc()})
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(desc)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "library %s\n", desc.Library)
	for _, e := range desc.Exports {
		fmt.Fprintf(&b, "  %-10s %s\n", e.Kind, e.Name)
	}
	return formatter.Successf(desc, "%s", strings.TrimRight(b.String(), "\n"))
}

func describeDecl(formatter *OutputFormatter, ns *registry.Namespace, name string) error {
	var desc DeclDescription
	if p, ok := ns.Protocol(name); ok {
		desc = describeProtocol(ns.Library(), name, p)
	} else if d, ok := ns.Declaration(name); ok {
		desc = describeBinding(ns.Library(), name, d)
	} else {
		msg := fmt.Sprintf("%s is not declared in %s", name, ns.Library())
		if ferr := formatter.Error(ErrCodeNotFound, msg, nil); ferr != nil {
			return ferr
		}
		return &ExitError{Code: ExitFailure, Message: msg}
	}

	if formatter.Format == "json" {
		return formatter.Success(desc)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s.%s\n", desc.Kind, desc.Library, desc.Name)
	for _, m := range desc.Methods {
		fmt.Fprintf(&b, "  %-20s ordinal=%d %s\n", m.Name, m.Ordinal, m.Direction)
	}
	for _, f := range desc.Fields {
		fmt.Fprintf(&b, "  %-20s %s\n", f.Name, f.Type)
	}
	for _, m := range desc.Members {
		fmt.Fprintf(&b, "  %-20s = %d\n", m.Name, m.Value)
	}
	return formatter.Successf(desc, "%s", strings.TrimRight(b.String(), "\n"))
}

func describeProtocol(library, name string, p *protocol.Protocol) DeclDescription {
	desc := DeclDescription{Library: library, Name: name, Kind: "protocol", Doc: p.Doc()}
	events := p.EventMethods()
	for _, m := range p.Methods() {
		md := MethodDescription{
			Name:     m.Name,
			Ordinal:  m.Ordinal,
			Request:  m.RequestIdent,
			Response: m.ResponseIdent,
			Result:   m.HasResult,
		}
		switch {
		case hasOrdinal(events, m.Ordinal):
			md.Direction = "event"
		case m.RequiresResponse || m.EmptyResponse:
			md.Direction = "two-way"
		default:
			md.Direction = "one-way"
		}
		desc.Methods = append(desc.Methods, md)
	}
	return desc
}

func hasOrdinal(table map[uint64]protocol.MethodInfo, ordinal uint64) bool {
	_, ok := table[ordinal]
	return ok
}

func describeBinding(library, name string, d bind.Declaration) DeclDescription {
	desc := DeclDescription{Library: library, Name: name, Kind: string(d.DeclKind()), Doc: d.Doc()}
	switch decl := d.(type) {
	case *bind.Struct:
		desc.Fields = fieldDescriptions(decl.Fields)
	case *bind.Table:
		desc.Fields = fieldDescriptions(decl.Fields)
	case *bind.Union:
		desc.Fields = fieldDescriptions(decl.Variants)
	case *bind.Enum:
		for _, m := range decl.Members {
			desc.Members = append(desc.Members, MemberDescription{Name: m.Name, Value: m.Value})
		}
	case *bind.Bits:
		for _, m := range decl.Members {
			desc.Members = append(desc.Members, MemberDescription{Name: m.Name, Value: m.Value})
		}
	}
	return desc
}

func fieldDescriptions(fields []bind.Field) []FieldDescription {
	out := make([]FieldDescription, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldDescription{Name: f.Name, Type: typeString(f.Type)})
	}
	return out
}

// typeString renders a resolved type for human output.
func typeString(t bind.Type) string {
	var s string
	switch t.Kind {
	case bind.TypePrimitive, bind.TypeInternal, bind.TypeHandle:
		s = t.Subtype
		if t.Kind == bind.TypeHandle && s == "" {
			s = "handle"
		}
	case bind.TypeString:
		s = "string"
	case bind.TypeVector:
		s = "vector<" + typeString(*t.Elem) + ">"
	case bind.TypeArray:
		s = fmt.Sprintf("array<%s, %d>", typeString(*t.Elem), t.ElementCount)
	case bind.TypeIdentifier:
		s = t.Identifier
	case bind.TypeEndpoint:
		s = fmt.Sprintf("%s_end<%s>", t.Role, t.Protocol)
	default:
		s = string(t.Kind)
	}
	if t.Nullable {
		s += "?"
	}
	return s
}

package bind

import "fmt"

// CompileError is a definition error found while compiling a declaration.
// Definition errors indicate a defect in the IR or its producer; they are
// fatal and never retried.
type CompileError struct {
	// Library is the owning library name.
	Library string

	// Declaration is the qualified declaration name, when known.
	Declaration string

	// Member is the offending member or variant, when the error is scoped
	// to one.
	Member string

	Message string
}

func (e *CompileError) Error() string {
	switch {
	case e.Declaration != "" && e.Member != "":
		return fmt.Sprintf("compile %s member %s: %s", e.Declaration, e.Member, e.Message)
	case e.Declaration != "":
		return fmt.Sprintf("compile %s: %s", e.Declaration, e.Message)
	default:
		return fmt.Sprintf("compile library %s: %s", e.Library, e.Message)
	}
}

// ResultError is raised by Unwrap when a result union holds an error
// variant. Variant is "err" or "framework_err".
type ResultError struct {
	TypeName string
	Variant  string
	Value    Value
}

func (e *ResultError) Error() string {
	if e.Variant == "framework_err" {
		return fmt.Sprintf("%s framework error %v", e.TypeName, e.Value)
	}
	return fmt.Sprintf("%s error %v", e.TypeName, e.Value)
}

// NoResultError is raised by Unwrap when a result union holds neither an
// error nor a response.
type NoResultError struct {
	TypeName string
}

func (e *NoResultError) Error() string {
	return fmt.Sprintf("failed to unwrap %s: no error or response set", e.TypeName)
}

package irdoc

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

// schemaSource is the structural contract every IR document must satisfy
// before compilation. It checks the fields the compiler relies on; unknown
// fields are allowed so newer IR producers keep working.
const schemaSource = `
#Document: {
	name: string & !=""
	declarations: {[string]: string}
	declaration_order: [...string]
	bits_declarations?: [...#Decl]
	enum_declarations?: [...#Decl]
	struct_declarations?: [...#Decl]
	table_declarations?: [...#Decl]
	union_declarations?: [...#Decl]
	const_declarations?: [...#Decl]
	alias_declarations?: [...#Decl]
	protocol_declarations?: [...#ProtocolDecl]
	experimental_resource_declarations?: [...#Decl]
	...
}

#Decl: {
	name: string & !=""
	...
}

#ProtocolDecl: {
	name: string & !=""
	methods?: [...#Method]
	...
}

#Method: {
	name:         string & !=""
	ordinal:      int & >0
	has_request:  bool
	has_response: bool
	strict:       bool
	...
}
`

var (
	schemaOnce sync.Once
	schemaVal  cue.Value
	schemaErr  error
)

// schema compiles the embedded schema once per process.
func schema() (cue.Value, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(schemaSource)
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile IR schema: %w", err)
			return
		}
		schemaVal = v.LookupPath(cue.ParsePath("#Document"))
		if err := schemaVal.Err(); err != nil {
			schemaErr = fmt.Errorf("lookup IR schema root: %w", err)
		}
	})
	return schemaVal, schemaErr
}

// validateSchema unifies the raw document with the schema and reports the
// first violation with its JSON path.
func validateSchema(path string, data []byte) error {
	root, err := schema()
	if err != nil {
		return err
	}
	expr, err := cuejson.Extract(path, data)
	if err != nil {
		return fmt.Errorf("IR document %s is not valid JSON: %w", path, err)
	}
	val := root.Context().BuildExpr(expr)
	if err := val.Err(); err != nil {
		return fmt.Errorf("IR document %s: %w", path, err)
	}
	unified := root.Unify(val)
	if err := unified.Validate(cue.Final()); err != nil {
		// CUE errors may aggregate several violations; the first one with
		// position info is the most actionable.
		for _, e := range cueerrors.Errors(err) {
			return fmt.Errorf("IR document %s failed schema validation: %s", path, e.Error())
		}
		return fmt.Errorf("IR document %s failed schema validation: %w", path, err)
	}
	return nil
}

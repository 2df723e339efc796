// Package bind compiles IR declarations into runtime declaration records and
// defines the dynamic value model those records operate on.
//
// Declarations are tagged records, not generated code: one Go struct per
// declaration kind (Struct, Table, Union, Enum, Bits, Const, Alias,
// Resource), each knowing how to construct, default and validate values of
// its shape. Values are a small sealed interface (Value) so every payload a
// codec or handler touches is one of a closed set of representations.
//
// The type resolver lives here too. Resolving an identifier may require
// loading another library's IR on demand; the Loader interface breaks the
// dependency on the registry that owns those loads.
package bind

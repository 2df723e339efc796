// Package irdoc models the machine-readable interface description (the "IR
// document") consumed by the binding compiler.
//
// One Document corresponds to one protocol library. The document carries a
// library name, a flat declaration index partitioned by kind, and a
// declaration_order list giving a safe topological compile order. Nothing in
// this package mutates a parsed document; every accessor is a read-only view.
//
// Node is a thin wrapper over one parsed JSON object. It normalizes certain
// identifiers on lookup (result and response type names have their internal
// separators stripped) so the same logical name is produced no matter how
// many times it is looked up.
package irdoc

package irdoc

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// resultSuffixes are the generated type-name suffixes whose raw spellings may
// carry internal underscores (e.g. "Proto_Method_Result"). Normalization
// strips the underscores so every lookup yields the same logical name.
var resultSuffixes = []string{"_Result", "_Response"}

// NormalizeIdentifier canonicalizes a qualified identifier.
//
// Strings are NFC-normalized first so identifiers produced by different IR
// producers compare equal. Identifiers naming generated result or response
// types then have their underscores removed. The function is idempotent:
// NormalizeIdentifier(NormalizeIdentifier(x)) == NormalizeIdentifier(x).
func NormalizeIdentifier(ident string) string {
	ident = norm.NFC.String(ident)
	for _, suffix := range resultSuffixes {
		if strings.HasSuffix(ident, suffix) {
			return strings.ReplaceAll(ident, "_", "")
		}
	}
	return ident
}

// goKeywords lists names that cannot be used verbatim as member names in
// generated surfaces. A colliding member gets a trailing underscore.
var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true,
	"for": true, "func": true, "go": true, "goto": true, "if": true,
	"import": true, "interface": true, "map": true, "package": true,
	"range": true, "return": true, "select": true, "struct": true,
	"switch": true, "type": true, "var": true,
}

// NormalizeMember converts a declared member or method name to its exported
// binding name: snake_case, with a trailing underscore when the result would
// collide with a reserved word.
func NormalizeMember(name string) string {
	s := CamelToSnake(name)
	if goKeywords[s] {
		return s + "_"
	}
	return s
}

// CamelToSnake converts CamelCase and mixedCase names to snake_case.
// Runs of upper-case letters are kept together: "HTTPGet" becomes "http_get".
func CamelToSnake(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || (nextLower && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LibraryOf returns the library part of a qualified identifier:
// "foo.bar.baz/Foo" yields "foo.bar.baz".
func LibraryOf(ident string) string {
	if i := strings.IndexByte(ident, '/'); i >= 0 {
		return ident[:i]
	}
	return ident
}

// MemberOf returns the member part of a qualified identifier, normalized:
// "foo.bar.baz/Foo" yields "Foo".
func MemberOf(ident string) string {
	ident = NormalizeIdentifier(ident)
	if i := strings.IndexByte(ident, '/'); i >= 0 {
		return ident[i+1:]
	}
	return ident
}

// Marker converts a qualified identifier to the marker form used for
// protocol discovery: "foo.bar.baz/Foo" yields "foo.bar.baz.Foo".
func Marker(ident string) string {
	return strings.ReplaceAll(NormalizeIdentifier(ident), "/", ".")
}

package interpreter

import "strings"

// Tokenize splits a raw command on runs of whitespace. Quoting and escaping
// are not recognised: a value containing whitespace cannot be passed as one
// token. Blank input yields no tokens.
func Tokenize(raw string) []string {
	return strings.Fields(raw)
}

package interpreter

import (
	"slices"
	"strconv"
	"strings"
)

// FindOption resolves a flag value. Tokens are scanned left to right and the
// first match wins: a token equal to short or long takes the following token
// as its value, a token of the form long=value carries it inline. Either
// flag name may be empty. When the flag is absent def is returned.
//
// A flag without a value, either trailing, followed by another flag or as
// "long=", is an error rather than a silent fallback to def. A negative
// number is taken as a value so its range is checked by the caller.
func FindOption(tokens []string, short, long, def string) (string, error) {
	for i, token := range tokens {
		if (short != "" && token == short) || (long != "" && token == long) {
			if i+1 >= len(tokens) {
				return "", newError(CodeMissingRequiredArgument, "flag %s requires a value", token)
			}
			next := tokens[i+1]
			if isFlag(next) {
				return "", newError(CodeMissingRequiredArgument, "flag %s requires a value, got flag %q", token, next)
			}
			return next, nil
		}

		if long != "" {
			if value, ok := strings.CutPrefix(token, long+"="); ok {
				if value == "" {
					return "", newError(CodeMissingRequiredArgument, "flag %s requires a value", long)
				}
				return value, nil
			}
		}
	}

	return def, nil
}

func isFlag(token string) bool {
	if !strings.HasPrefix(token, "-") {
		return false
	}
	_, err := strconv.Atoi(token)
	return err != nil
}

// ContainsOption reports whether flag appears verbatim in tokens.
func ContainsOption(tokens []string, flag string) bool {
	return slices.Contains(tokens, flag)
}

// ExtractAfter returns the value of a required flag, given either as
// "flag value" or "flag=value".
func ExtractAfter(tokens []string, flag string) (string, error) {
	value, err := FindOption(tokens, "", flag, "")
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", newError(CodeMissingRequiredArgument, "flag %s is required", flag)
	}
	return value, nil
}

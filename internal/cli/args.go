package cli

import (
	"errors"
	"strings"
	"unicode"
)

var errUnterminatedQuote = errors.New("unterminated quote")

// SplitArgs splits a command line on whitespace. Double quotes group
// words into one argument and are removed; "" yields an empty argument.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		pending bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			pending = true
		case unicode.IsSpace(r) && !inQuote:
			if pending {
				args = append(args, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(r)
			pending = true
		}
	}

	if inQuote {
		return nil, errUnterminatedQuote
	}
	if pending {
		args = append(args, cur.String())
	}
	return args, nil
}

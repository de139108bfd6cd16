package command

import (
	"strings"

	conerr "sshconsole/internal/errors"
)

// Split breaks line into words using POSIX shell rules: blanks separate
// words, single quotes are literal, double quotes allow \" and \\, a
// backslash outside quotes escapes the next character, and adjacent
// pieces join into one word.  An unterminated quote or a trailing
// backslash is a *SyntaxError.
func Split(line string) ([]string, error) {
	var (
		words  []string
		cur    strings.Builder
		inWord bool
		quote  rune
		escape bool
	)

	for _, r := range line {
		switch {
		case escape:
			if quote == '"' && r != '"' && r != '\\' {
				cur.WriteByte('\\')
			}
			cur.WriteRune(r)
			escape = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case quote == '"':
			switch r {
			case '"':
				quote = 0
			case '\\':
				escape = true
			default:
				cur.WriteRune(r)
			}
		case r == '\\':
			escape, inWord = true, true
		case r == '\'' || r == '"':
			quote, inWord = r, true
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}

	switch {
	case escape:
		return nil, &conerr.SyntaxError{Line: line, Reason: "No escaped character"}
	case quote != 0:
		return nil, &conerr.SyntaxError{Line: line, Reason: "No closing quotation"}
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}

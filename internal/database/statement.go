package database

import (
	"strconv"
	"strings"
)

// Rebind rewrites generic `?` placeholders into PostgreSQL positional
// parameters, left to right: the first `?` becomes `$1`, the next `$2`.
//
// Question marks inside single-quoted literals, double-quoted identifiers,
// `--` line comments and `/* */` block comments are left alone. Block
// comments do not nest; an unterminated one runs to the end.
func Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		ch := query[i]

		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '-' && i+1 < len(query) && query[i+1] == '-':
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				end = len(query) - i
			}
			b.WriteString(query[i : i+end])
			i += end - 1
			continue
		case ch == '/' && i+1 < len(query) && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				end = len(query) - i
			} else {
				end += 4
			}
			b.WriteString(query[i : i+end])
			i += end - 1
			continue
		case ch == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}

		b.WriteByte(ch)
	}

	return b.String()
}

// containsKeyword reports whether a keyword/value connection string sets key.
func containsKeyword(dsn, key string) bool {
	for _, field := range strings.Fields(dsn) {
		if k, _, ok := strings.Cut(field, "="); ok && strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

package tmpl

import "strings"

type filterCall struct {
	name string
	args []string
}

type expression struct {
	name    string
	filters []filterCall
}

// token is either literal text (expr == nil) or a placeholder whose
// original text is kept in raw.
type token struct {
	raw  string
	expr *expression
}

// tokenize splits s into literal and placeholder tokens in a single
// left-to-right scan over both delimiter syntaxes.
func tokenize(s string) []token {
	var (
		tokens []token
		lit    strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{raw: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "{{"):
			end := indexOutsideQuotes(s[i+2:], "}}")
			if end >= 0 {
				inner := s[i+2 : i+2+end]
				if expr, ok := parseExpr(strings.TrimSpace(inner)); ok {
					flush()
					raw := s[i : i+2+end+2]
					tokens = append(tokens, token{raw: raw, expr: expr})
					i += len(raw)
					continue
				}
			}
			lit.WriteString("{{")
			i += 2
		case s[i] == '%':
			end := indexOutsideQuotes(s[i+1:], "%")
			if end > 0 {
				inner := s[i+1 : i+1+end]
				if !startsOrEndsWithSpace(inner) {
					if expr, ok := parseExpr(inner); ok {
						flush()
						raw := s[i : i+1+end+1]
						tokens = append(tokens, token{raw: raw, expr: expr})
						i += len(raw)
						continue
					}
				}
			}
			lit.WriteByte('%')
			i++
		default:
			lit.WriteByte(s[i])
			i++
		}
	}
	flush()
	return tokens
}

// parseExpr parses `name|filter|filter(arg, "quoted, arg")`.
func parseExpr(s string) (*expression, bool) {
	parts := splitOutsideQuotes(s, '|')
	name := strings.TrimSpace(parts[0])
	if !isIdent(name) {
		return nil, false
	}
	expr := &expression{name: name}
	for _, p := range parts[1:] {
		call, ok := parseFilterCall(strings.TrimSpace(p))
		if !ok {
			return nil, false
		}
		expr.filters = append(expr.filters, call)
	}
	return expr, true
}

func parseFilterCall(s string) (filterCall, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return filterCall{name: s}, isIdent(s)
	}
	name := strings.TrimSpace(s[:open])
	if !isIdent(name) || !strings.HasSuffix(s, ")") {
		return filterCall{}, false
	}
	argText := strings.TrimSpace(s[open+1 : len(s)-1])
	call := filterCall{name: name}
	if argText == "" {
		return call, true
	}
	for _, a := range splitOutsideQuotes(argText, ',') {
		call.args = append(call.args, unquote(strings.TrimSpace(a)))
	}
	return call, true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func startsOrEndsWithSpace(s string) bool {
	return s == "" || isSpace(s[0]) || isSpace(s[len(s)-1])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// splitOutsideQuotes splits s on sep, ignoring separators inside quoted
// strings or parentheses.
func splitOutsideQuotes(s string, sep byte) []string {
	var (
		parts []string
		quote byte
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// indexOutsideQuotes returns the index of the first occurrence of delim in s
// that is not inside a quoted string, or -1.
func indexOutsideQuotes(s, delim string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		if strings.HasPrefix(s[i:], delim) {
			return i
		}
		if c == '"' || c == '\'' {
			quote = c
		}
		if c == '\n' && delim == "%" {
			return -1
		}
	}
	return -1
}

// unquote strips matching quotes and resolves backslash escapes. Bare
// arguments are returned unchanged.
func unquote(s string) string {
	if len(s) < 2 || (s[0] != '"' && s[0] != '\'') || s[len(s)-1] != s[0] {
		return s
	}
	body := s[1 : len(s)-1]
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i == len(body)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String()
}

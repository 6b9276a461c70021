package emitter

import (
	"strconv"
	"strings"
	"unicode"
)

// toSnakeCase converts PascalCase or camelCase to snake_case, keeping
// acronyms together ("HTTPServer" -> "http_server").
func toSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)

	for i, r := range runes {
		if r == '-' || r == ' ' || r == '.' {
			result.WriteRune('_')
			continue
		}
		if i > 0 && unicode.IsUpper(r) {
			prevUpper := unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			prevSep := runes[i-1] == '_' || runes[i-1] == '-'
			if !prevSep && (!prevUpper || nextLower) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(unicode.ToLower(r))
	}

	return result.String()
}

// toPascalCase converts snake_case, kebab-case or camelCase to PascalCase.
func toPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})

	var result strings.Builder
	for _, part := range parts {
		runes := []rune(part)
		result.WriteRune(unicode.ToUpper(runes[0]))
		result.WriteString(string(runes[1:]))
	}
	return result.String()
}

// toCamelCase converts to camelCase.
func toCamelCase(s string) string {
	return lowerFirst(toPascalCase(s))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// sanitizeIdentifier replaces characters that cannot appear in an
// identifier and prefixes a leading digit.
func sanitizeIdentifier(name string) string {
	if name == "" {
		return "_"
	}

	var result strings.Builder
	for i, r := range name {
		if i == 0 && unicode.IsDigit(r) {
			result.WriteRune('_')
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}
	return result.String()
}

// isIdentifier reports whether name is an ASCII-style identifier that needs
// no quoting as an object key.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 && unicode.IsDigit(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			return false
		}
	}
	return true
}

// escapeReserved appends an underscore to names in the reserved set. The
// escaped form is used both in the declaration and in the argument list.
func escapeReserved(name string, reserved map[string]bool) string {
	name = sanitizeIdentifier(name)
	for reserved[name] {
		name += "_"
	}
	return name
}

// commentLines splits a doc string into lines ready to be re-commented.
// Comment terminators and the base URL sentinel are neutralised so a doc
// string cannot break out of its comment.
func commentLines(doc string) []string {
	doc = strings.TrimSpace(strings.ReplaceAll(doc, "\r\n", "\n"))
	if doc == "" {
		return nil
	}

	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		line = strings.ReplaceAll(line, "*/", "* /")
		line = strings.ReplaceAll(line, `"""`, `\"\"\"`)
		line = strings.ReplaceAll(line, BaseURLSentinel, "")
		lines[i] = line
	}
	return lines
}

// quote renders s as a double-quoted literal valid in TypeScript,
// JavaScript and Python.
func quote(s string) string {
	return quoteString(s, false)
}

// quoteInterpolated is quote for Kotlin and Dart, where "$" starts an
// interpolation and must be escaped.
func quoteInterpolated(s string) string {
	return quoteString(s, true)
}

func quoteString(s string, escapeDollar bool) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			b.WriteString(`\"`)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '$' && escapeDollar:
			b.WriteString(`\$`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// formatNumber renders an enum or default value number without a trailing
// ".0" when it is integral.
func formatNumber(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	default:
		return "0"
	}
}

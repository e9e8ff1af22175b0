package engine

import "strings"

// kwPrefix marks keyword names rewritten by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites layout source into something zygomys accepts:
//
//   - :keyword becomes the string literal "__kw_keyword", so keywords need no
//     global symbols and cannot collide with user variables;
//   - kebab-case identifiers become snake_case (pos-of -> pos_of), since
//     zygomys reads a hyphen as subtraction;
//   - ; and ;; line comments become // comments.
//
// String literals (double-quoted and backtick) pass through untouched.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)

	n := len(source)
	for i := 0; i < n; {
		c := source[i]
		switch {
		case c == '"':
			j := i + 1
			for j < n && source[j] != '"' {
				if source[j] == '\\' && j+1 < n {
					j++
				}
				j++
			}
			j = min(j+1, n)
			out.WriteString(source[i:j])
			i = j

		case c == '`':
			j := i + 1
			for j < n && source[j] != '`' {
				j++
			}
			j = min(j+1, n)
			out.WriteString(source[i:j])
			i = j

		case c == ';':
			j := i
			for j < n && source[j] == ';' {
				j++
			}
			k := j
			for k < n && source[k] != '\n' {
				k++
			}
			out.WriteString("//")
			out.WriteString(source[j:k])
			i = k

		case c == ':' && i+1 < n && source[i+1] == '=':
			out.WriteString(":=")
			i += 2

		case c == ':' && i+1 < n && isLetter(source[i+1]):
			j := i + 1
			for j < n && isKWChar(source[j]) {
				j++
			}
			out.WriteByte('"')
			out.WriteString(kwPrefix)
			out.WriteString(source[i+1 : j])
			out.WriteByte('"')
			i = j

		case c == '-' && i > 0 && i+1 < n && isIdentChar(source[i-1]) && isLetter(source[i+1]):
			out.WriteByte('_')
			i++

		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

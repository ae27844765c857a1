package helpers

import (
	"strconv"
	"strings"
)

// Quotes text as a Lua string literal. Lua strings are byte strings, so
// non-ASCII text is passed through untouched and only control characters,
// backslashes and the quote character are escaped.
func QuoteForLua(text string) string {
	quote := byte('"')
	if strings.IndexByte(text, '"') != -1 && strings.IndexByte(text, '\'') == -1 {
		quote = '\''
	}

	sb := strings.Builder{}
	sb.Grow(len(text) + 2)
	sb.WriteByte(quote)

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '\\':
			sb.WriteString("\\\\")
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		case '\t':
			sb.WriteString("\\t")
		default:
			if c == quote {
				sb.WriteByte('\\')
				sb.WriteByte(c)
			} else if c < 0x20 || c == 0x7F {
				// A decimal escape followed by a digit would be read as one escape
				digits := strconv.Itoa(int(c))
				if i+1 < len(text) && text[i+1] >= '0' && text[i+1] <= '9' {
					digits = strings.Repeat("0", 3-len(digits)) + digits
				}
				sb.WriteString("\\" + digits)
			} else {
				sb.WriteByte(c)
			}
		}
	}

	sb.WriteByte(quote)
	return sb.String()
}

package answer

import (
	"strings"
	"unicode"
)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
)

var quoteReplacer = strings.NewReplacer(
	`"`, "'",
	"“", "'",
	"”", "'",
	"‘", "'",
	"’", "'",
	"´", "'",
	"`", "'",
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// NormalizeSingle converts a free-text or option answer into its canonical
// comparable form. Lower-casing runs first so "&LT;" decodes like "&lt;",
// and entities are decoded until none remain, which keeps the result stable
// under a second application.
func NormalizeSingle(s string) string {
	s = strings.ToLower(s)
	s = DecodeEntities(s)
	s = quoteReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeMulti splits a multi-answer input on commas and whitespace into
// lower-cased tokens, preserving their order.
func NormalizeMulti(s string) []string {
	s = strings.ToLower(s)
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if tokens == nil {
		return []string{}
	}
	return tokens
}

// DecodeEntities decodes the basic HTML entities. Nested encodings such as
// "&amp;lt;" are unwrapped completely.
func DecodeEntities(s string) string {
	for strings.IndexByte(s, '&') >= 0 {
		decoded := entityReplacer.Replace(s)
		if decoded == s {
			break
		}
		s = decoded
	}
	return s
}

// EscapeHTML escapes user input before it is echoed back in feedback.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

package template

import (
	"runtime"
	"strings"
)

// EscapeChar introduces an escape sequence in template text.
const EscapeChar = '\\'

// reserved is the set of template metacharacters that Escape protects.
const reserved = `[]()${},\`

// Escape prefixes every reserved metacharacter in s with the escape
// character so the result reads as a literal in template text.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(reserved, s[i]) >= 0 {
			b.WriteByte(EscapeChar)
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Unescape performs the inverse of Escape, consuming every `\X` sequence
// as X. A trailing lone escape character is preserved.
func Unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == EscapeChar && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// FormatPath normalises and quotes a path value for the host shell. The
// input is template text; the result is template text again, so callers
// can splice it back into a larger template.
func FormatPath(s string) string {
	return formatPath(s, runtime.GOOS == "windows")
}

func formatPath(s string, windows bool) string {
	p := strings.TrimSpace(s)
	p = Unescape(p)
	p = strings.ReplaceAll(p, "\\", "/")

	switch {
	case quotedWith(p, '\''):
		if windows {
			// cmd.exe does not understand single quotes.
			p = `"` + p[1:len(p)-1] + `"`
		}
	case quotedWith(p, '"'):
		// already quoted
	case strings.Contains(p, " "):
		p = `"` + p + `"`
	}
	return Escape(p)
}

func quotedWith(s string, q byte) bool {
	return len(s) >= 2 && s[0] == q && s[len(s)-1] == q
}

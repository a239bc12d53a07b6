package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const tabWidth = 8

var ansiPattern = regexp.MustCompile(`\x1b(?:\[[0-9;?]*[ -/]*[@-~]|\][^\x07\x1b]*(?:\x07|\x1b\\)|[()][0-9A-Za-z]|[=>])`)

// Clean converts raw documentation text into plain ASCII-leaning lines:
// terminal escapes and overstrike sequences are removed, line endings are
// unified, tabs are expanded and decorative glyphs are replaced.
func Clean(text string) string {
	if strings.IndexByte(text, 0x1b) >= 0 {
		text = ansiPattern.ReplaceAllString(text, "")
	}
	if strings.IndexByte(text, '\b') >= 0 {
		text = stripOverstrike(text)
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !isASCII(line) {
			line = replaceGlyphs(line)
		}
		if strings.IndexByte(line, '\t') >= 0 {
			line = expandTabs(line)
		}
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}

// stripOverstrike removes backspace-based emphasis as emitted by nroff:
// "X\bX" (bold) and "_\bX" (underline) both collapse to "X".
func stripOverstrike(text string) string {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if r == '\b' {
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func expandTabs(line string) string {
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

func replaceGlyphs(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		switch {
		case isBullet(r):
			b.WriteByte('-')
		case r >= 0x2500 && r <= 0x257f:
			if isVerticalBox(r) {
				b.WriteByte('|')
			} else {
				b.WriteByte('-')
			}
		case r == 0x2002: // en space
			b.WriteString("  ")
		case r == 0x2003: // em space
			b.WriteString("   ")
		case r == 0x00a0, r == 0x202f, r == 0x205f, r == 0x3000, r >= 0x2000 && r <= 0x200a:
			b.WriteByte(' ')
		case r == 0x200b, r == 0xfeff:
			// zero width, dropped
		case r == 0x2010, r == 0x2011, r == 0x2012, r == 0x2013, r == 0x2212:
			b.WriteByte('-')
		case r == 0x2018, r == 0x2019:
			b.WriteByte('\'')
		case r == 0x201c, r == 0x201d:
			b.WriteByte('"')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if !isASCII(out) {
		out = norm.NFKC.String(out)
	}
	return out
}

func isBullet(r rune) bool {
	switch r {
	case '•', '●', '▪', '◦', '‣', '∙', '○', '■', '□', '►', '▸':
		return true
	}
	return false
}

func isVerticalBox(r rune) bool {
	switch r {
	case 0x2502, 0x2503, 0x2506, 0x2507, 0x250a, 0x250b, 0x2551, 0x2575, 0x2577, 0x2579, 0x257b, 0x257d, 0x257f:
		return true
	}
	return false
}

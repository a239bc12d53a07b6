package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// BlockKind classifies a run of related lines.
type BlockKind int

const (
	FreeText BlockKind = iota
	UsageBlock
	OptionBlock
	SubcommandListBlock
	ArgumentListBlock
)

func (k BlockKind) String() string {
	switch k {
	case UsageBlock:
		return "UsageBlock"
	case OptionBlock:
		return "OptionBlock"
	case SubcommandListBlock:
		return "SubcommandListBlock"
	case ArgumentListBlock:
		return "ArgumentListBlock"
	default:
		return "FreeText"
	}
}

// Block is a contiguous group of lines together with the kind assigned by
// the nearest header or by its own shape.
type Block struct {
	Index  int
	Kind   BlockKind
	Header string
	Lines  []string
}

// Text returns the block's lines joined by newlines.
func (b Block) Text() string {
	return strings.Join(b.Lines, "\n")
}

var (
	flagStartPattern      = regexp.MustCompile(`^-{1,2}(?:\[no-?\])?[A-Za-z0-9?#@]`)
	subcommandLinePattern = regexp.MustCompile(`^\s{1,8}[A-Za-z][\w.:-]*(?:,\s*[\w.:-]+)*\s{2,}\S`)
)

// IsFlagStart reports whether a trimmed line begins with a flag such as
// "-v", "--verbose" or "--[no-]color".
func IsFlagStart(trimmed string) bool {
	return flagStartPattern.MatchString(trimmed)
}

// Indent returns the number of leading spaces of a cleaned line.
func Indent(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// Normalize cleans raw documentation text and segments it into blocks.
// Whitespace-only input yields no blocks.
func Normalize(text string) []Block {
	cleaned := Clean(text)
	if strings.TrimSpace(cleaned) == "" {
		return nil
	}
	return Segment(strings.Split(cleaned, "\n"))
}

type segmenter struct {
	blocks       []Block
	chunk        []string
	inSection    bool
	section      BlockKind
	header       string
	sectionLines int
}

// Segment splits cleaned lines into blocks. Blank lines end a block; a
// recognised header assigns its kind to the blocks that follow it until the
// next header or a column-0 heading.
func Segment(lines []string) []Block {
	s := &segmenter{}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			s.flush()
			if s.inSection && s.section == UsageBlock && s.sectionLines > 0 {
				s.endSection()
			}
			continue
		}

		if kind, inline, ok := detectHeader(line); ok {
			s.flush()
			s.inSection = true
			s.section = kind
			s.header = trimmed
			s.sectionLines = 0
			if inline != "" {
				s.add(inline)
			}
			continue
		}

		if Indent(line) == 0 && !IsFlagStart(trimmed) {
			switch {
			case looksLikeHeading(trimmed):
				s.flush()
				s.endSection()
				s.emit(FreeText, []string{line})
				continue
			case s.inSection && s.section == UsageBlock && len(s.chunk) > 0:
				s.flush()
				s.endSection()
			case s.inSection && s.section != UsageBlock:
				s.flush()
				s.emit(FreeText, []string{line})
				continue
			}
		}
		s.add(line)
	}
	s.flush()
	return s.blocks
}

func (s *segmenter) add(line string) {
	s.chunk = append(s.chunk, line)
	s.sectionLines++
}

func (s *segmenter) endSection() {
	s.inSection = false
	s.header = ""
	s.sectionLines = 0
}

func (s *segmenter) emit(kind BlockKind, lines []string) {
	s.blocks = append(s.blocks, Block{
		Index:  len(s.blocks),
		Kind:   kind,
		Header: s.header,
		Lines:  lines,
	})
}

func (s *segmenter) flush() {
	if len(s.chunk) == 0 {
		return
	}
	s.emit(s.classify(s.chunk), s.chunk)
	s.chunk = nil
}

func (s *segmenter) classify(lines []string) BlockKind {
	if s.inSection {
		if s.section != OptionBlock {
			return s.section
		}
		// Deeper-indented prose inside an options section is kept so the
		// parser can attach it to the preceding option.
		if hasFlagLine(lines) || Indent(lines[0]) > 0 {
			return OptionBlock
		}
		return FreeText
	}

	first := strings.TrimSpace(lines[0])
	switch {
	case strings.HasPrefix(first, "-") || hasFlagLine(lines):
		return OptionBlock
	case looksLikeSubcommandList(lines):
		return SubcommandListBlock
	default:
		return FreeText
	}
}

func hasFlagLine(lines []string) bool {
	for _, line := range lines {
		if IsFlagStart(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

func looksLikeSubcommandList(lines []string) bool {
	if len(lines) < 2 {
		return false
	}
	base := Indent(lines[0])
	entries := 0
	for _, line := range lines {
		switch {
		case Indent(line) == base && subcommandLinePattern.MatchString(line):
			entries++
		case Indent(line) > base && entries > 0:
			// wrapped description
		default:
			return false
		}
	}
	return entries >= 2
}

// detectHeader recognises section headers. For "Usage: prog ..." the text
// after the colon is returned as inline content.
func detectHeader(line string) (BlockKind, string, bool) {
	indent := Indent(line)
	if indent > 4 {
		return FreeText, "", false
	}
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "-") {
		return FreeText, "", false
	}
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"usage:", "synopsis:"} {
		if strings.HasPrefix(lower, prefix) {
			return UsageBlock, strings.TrimSpace(trimmed[len(prefix):]), true
		}
	}

	words := len(strings.Fields(trimmed))
	switch {
	case strings.HasSuffix(trimmed, ":") && !strings.Contains(trimmed, "  "):
		limit := 4
		if indent == 0 {
			limit = 10
		}
		if words > limit {
			return FreeText, "", false
		}
	case indent == 0 && isUpper(trimmed) && words <= 4:
	default:
		return FreeText, "", false
	}

	kind, ok := keywordKind(strings.TrimSuffix(lower, ":"))
	return kind, "", ok
}

func keywordKind(h string) (BlockKind, bool) {
	switch {
	case h == "usage" || h == "synopsis" || strings.HasPrefix(h, "usage "):
		return UsageBlock, true
	case strings.Contains(h, "positional"):
		return ArgumentListBlock, true
	case strings.Contains(h, "option") || strings.Contains(h, "flag") || strings.Contains(h, "switch"):
		return OptionBlock, true
	case strings.Contains(h, "command"):
		return SubcommandListBlock, true
	case strings.Contains(h, "argument") || h == "args":
		return ArgumentListBlock, true
	}
	return FreeText, false
}

func looksLikeHeading(trimmed string) bool {
	words := len(strings.Fields(trimmed))
	if strings.HasSuffix(trimmed, ":") && words <= 6 {
		return true
	}
	return isUpper(trimmed) && words <= 4
}

func isUpper(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters > 1
}

// Dump renders blocks for diagnostics.
func Dump(blocks []Block) string {
	var b strings.Builder
	for _, block := range blocks {
		if block.Header != "" {
			fmt.Fprintf(&b, "[%d] %s (%s)\n", block.Index, block.Kind, block.Header)
		} else {
			fmt.Fprintf(&b, "[%d] %s\n", block.Index, block.Kind)
		}
		for _, line := range block.Lines {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String()
}

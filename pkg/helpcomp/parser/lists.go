package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/normalize"
)

var subcommandNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.:-]*$`)

// ValidSubcommandName reports whether name can be used as a subcommand.
// Names start with a letter, so numbered lists such as exit statuses are
// not taken for subcommands.
func ValidSubcommandName(name string) bool {
	return subcommandNamePattern.MatchString(name)
}

func parseSubcommandBlock(lines []string, res *Result) {
	base := -1
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "-") {
			continue
		}
		indent := normalize.Indent(line)
		last := len(res.Subcommands) - 1
		if last >= 0 && indent > base {
			res.Subcommands[last].Description = joinText(res.Subcommands[last].Description, trimmed)
			continue
		}

		head, desc, gap := splitColumns(trimmed)
		if !gap && desc != "" && (len(strings.Fields(trimmed)) < 3 || startsUpper(head)) {
			// a sentence, not a single-space "name description" entry
			continue
		}
		name := strings.TrimSuffix(strings.TrimRight(strings.Fields(head)[0], ","), ":")
		if !ValidSubcommandName(name) {
			continue
		}
		if base < 0 {
			base = indent
		}
		res.Subcommands = append(res.Subcommands, SubcommandRef{Name: name, Description: desc})
	}
	for i := range res.Subcommands {
		res.Subcommands[i].Description = strings.Join(strings.Fields(res.Subcommands[i].Description), " ")
	}
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func parseUsageBlock(lines []string, res *Result) {
	var parts []string
	var prog string
	firstIndent := -1
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := normalize.Indent(line)
		if firstIndent < 0 {
			firstIndent = indent
			prog = strings.Fields(trimmed)[0]
			parts = append(parts, trimmed)
			continue
		}
		// Only the first alternative counts; later lines naming the
		// program again start another form.
		lower := strings.ToLower(trimmed)
		if indent <= firstIndent || trimmed == prog || strings.HasPrefix(trimmed, prog+" ") ||
			strings.HasPrefix(lower, "or:") || strings.HasPrefix(lower, "usage:") {
			break
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return
	}
	res.Usage = strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	res.Positionals = UsagePositionals(res.Usage)
}

// splitUsage splits a usage line on whitespace outside of brackets.
func splitUsage(usage string) []string {
	var toks []string
	var cur strings.Builder
	depth := 0
	for _, r := range usage {
		switch r {
		case '[', '<', '{', '(':
			depth++
		case ']', '>', '}', ')':
			if depth > 0 {
				depth--
			}
		case ' ':
			if depth == 0 {
				if cur.Len() > 0 {
					toks = append(toks, cur.String())
					cur.Reset()
				}
				continue
			}
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		toks = append(toks, cur.String())
	}
	return toks
}

var optionGroupNames = map[string]bool{
	"options": true, "option": true, "flags": true, "flag": true, "opts": true,
	"global options": true, "global flags": true, "switches": true,
}

// UsagePositionals extracts positional arguments from a usage line. The
// first token is the program name. Bare lower-case words directly after it
// are literal subcommand names; after the first flag or placeholder they
// are positionals (argparse style). Flags and option groups are skipped.
func UsagePositionals(usage string) []model.Positional {
	toks := splitUsage(usage)
	if len(toks) == 0 {
		return nil
	}
	if !strings.ContainsAny(toks[0][:1], "[<{") {
		toks = toks[1:]
	}

	var out []model.Positional
	seen := make(map[string]int)
	literal := true
	for _, tok := range toks {
		if literal && !strings.HasSuffix(tok, "...") && subcommandNamePattern.MatchString(tok) && !isUpperWord(tok) {
			continue
		}
		literal = false
		variadic := false
		for _, suffix := range []string{"...", "…"} {
			if strings.HasSuffix(tok, suffix) {
				variadic = true
				tok = strings.TrimSuffix(tok, suffix)
			}
		}

		pos := model.Positional{Variadic: variadic}
		switch {
		case tok == "" || tok == "|" || tok == "or" || strings.HasPrefix(tok, "-"):
			continue
		case strings.HasPrefix(tok, "["):
			inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(tok, "["), "]"))
			if strings.HasPrefix(inner, "-") || optionGroupNames[strings.ToLower(inner)] {
				continue
			}
			if strings.HasSuffix(inner, "...") {
				pos.Variadic = true
				inner = strings.TrimSpace(strings.TrimSuffix(inner, "..."))
			}
			if fields := strings.Fields(inner); len(fields) > 1 {
				if fields[len(fields)-1] == "..." {
					pos.Variadic = true
				}
				inner = fields[0]
			}
			pos.Name = strings.Trim(inner, "<>")
		case strings.HasPrefix(tok, "<"):
			pos.Required = true
			pos.Name = strings.Trim(tok, "<>")
		case strings.HasPrefix(tok, "{"):
			pos.Required = true
			pos.Name = strings.Trim(tok, "{}")
		case isUpperWord(tok) || subcommandNamePattern.MatchString(tok):
			pos.Required = true
			pos.Name = tok
		default:
			continue
		}

		if pos.Name == "" || strings.HasPrefix(pos.Name, "-") || optionGroupNames[strings.ToLower(pos.Name)] {
			continue
		}
		if idx, ok := seen[pos.Name]; ok {
			// "file [file ...]" repeats a name to mark it variadic
			out[idx].Variadic = out[idx].Variadic || pos.Variadic
			continue
		}
		seen[pos.Name] = len(out)
		out = append(out, pos)
	}
	return out
}

func parseArgumentBlock(lines []string, res *Result) {
	base := -1
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := normalize.Indent(line)
		last := len(res.Arguments) - 1
		if last >= 0 && indent > base {
			res.Arguments[last].Description = joinText(res.Arguments[last].Description, trimmed)
			continue
		}
		head, desc, _ := splitColumns(trimmed)
		name := strings.Trim(strings.TrimSuffix(strings.Fields(head)[0], "..."), "<>[]")
		if name == "" || strings.HasPrefix(name, "-") {
			continue
		}
		if base < 0 {
			base = indent
		}
		res.Arguments = append(res.Arguments, model.Positional{Name: name, Description: desc})
	}
	for i := range res.Arguments {
		res.Arguments[i].Description = strings.Join(strings.Fields(res.Arguments[i].Description), " ")
	}
}

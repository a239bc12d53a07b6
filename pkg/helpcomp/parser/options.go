package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/normalize"
)

var (
	defaultPattern   = regexp.MustCompile(`(?i)[(\[]\s*defaults?(?:\s+to|\s+is)?\s*[:=]?\s*([^)\]]*?)\s*[)\]]`)
	lowerTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
)

type token struct {
	text string
	gap  int // spaces preceding the token
}

func tokenize(trimmed string) []token {
	var toks []token
	gap := 0
	start := -1
	for i, r := range trimmed {
		if r == ' ' {
			if start >= 0 {
				toks = append(toks, token{text: trimmed[start:i], gap: gap})
				start = -1
				gap = 0
			}
			gap++
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		toks = append(toks, token{text: trimmed[start:], gap: gap})
	}
	return toks
}

// flagLine is the result of splitting one flag-start line.
type flagLine struct {
	names      []string
	negations  []string
	valueName  string
	takesValue bool
	desc       string
}

func parseFlagLine(trimmed string) (flagLine, bool) {
	var fl flagLine
	toks := tokenize(trimmed)
	lastWasFlag := false
	i := 0
	for ; i < len(toks); i++ {
		tk := toks[i]
		if i > 0 && tk.gap >= 2 && len(fl.names) > 0 {
			break
		}
		text := strings.TrimRight(tk.text, ",;")
		if text == "" || text == "|" || text == "/" {
			continue
		}
		if normalize.IsFlagStart(text) {
			name, value := splitAttachedValue(text)
			for _, alt := range splitAlternatives(name) {
				base, neg := expandNegation(alt)
				fl.names = append(fl.names, base)
				if neg != "" {
					fl.negations = append(fl.negations, neg)
				}
			}
			if value != "" {
				fl.takesValue = true
				if fl.valueName == "" {
					fl.valueName = value
				}
			}
			lastWasFlag = true
			continue
		}
		if lastWasFlag && isPlaceholder(text, toks, i) {
			fl.takesValue = true
			if fl.valueName == "" {
				fl.valueName = stripPlaceholder(text)
			}
			lastWasFlag = false
			continue
		}
		break
	}
	if len(fl.names) == 0 {
		return fl, false
	}

	rest := make([]string, 0, len(toks)-i)
	for _, tk := range toks[i:] {
		rest = append(rest, tk.text)
	}
	fl.desc = strings.Join(rest, " ")
	return fl, true
}

// splitAttachedValue separates "--file=FILE", "--color[=WHEN]" and
// "--out<FILE>" into the flag name and its placeholder.
func splitAttachedValue(text string) (string, string) {
	search := text
	offset := 0
	if strings.HasPrefix(text, "--[no") {
		if end := strings.Index(text, "]"); end > 0 {
			offset = end + 1
			search = text[offset:]
		}
	}
	if idx := strings.IndexAny(search, "=[<"); idx > 0 {
		return text[:offset+idx], stripPlaceholder(search[idx:])
	}
	return text, ""
}

func splitAlternatives(name string) []string {
	for _, sep := range []string{"|", "/"} {
		if !strings.Contains(name, sep) {
			continue
		}
		parts := strings.Split(name, sep)
		ok := true
		for _, p := range parts {
			if !normalize.IsFlagStart(p) {
				ok = false
				break
			}
		}
		if ok {
			return parts
		}
	}
	return []string{name}
}

// expandNegation turns "--[no-]color" into "--color" and "--no-color".
func expandNegation(name string) (string, string) {
	for _, marker := range []string{"[no-]", "[no]"} {
		idx := strings.Index(name, marker)
		if idx < 0 {
			continue
		}
		prefix := name[:idx]
		rest := name[idx+len(marker):]
		return prefix + rest, prefix + strings.Trim(marker, "[]") + rest
	}
	return name, ""
}

func stripPlaceholder(text string) string {
	text = strings.TrimLeft(text, "=")
	text = strings.TrimSuffix(text, "...")
	text = strings.Trim(text, "[]<>{}=")
	text = strings.TrimLeft(text, "=")
	return strings.TrimSuffix(text, "...")
}

func isPlaceholder(text string, toks []token, i int) bool {
	switch {
	case strings.HasPrefix(text, "<") && strings.HasSuffix(strings.TrimSuffix(text, "..."), ">"):
		return true
	case strings.HasPrefix(text, "[") && strings.HasSuffix(strings.TrimSuffix(text, "..."), "]"):
		return true
	case strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}"):
		return true
	case isUpperWord(strings.TrimSuffix(text, "...")):
		return true
	case toks[i].gap == 1 && lowerTypePattern.MatchString(text):
		// "--name string   Assign a name": a type word followed by a column
		// gap, or alone at the end of the line.
		return i == len(toks)-1 || toks[i+1].gap >= 2
	}
	return false
}

func isUpperWord(s string) bool {
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			letters++
		case unicode.IsDigit(r) || r == '_' || r == '-' || r == ':':
		default:
			return false
		}
	}
	return letters > 0
}

func buildOptions(fl flagLine) []model.Option {
	primary := model.Option{
		TakesValue: fl.takesValue,
		ValueName:  fl.valueName,
	}
	for _, name := range fl.names {
		switch {
		case len(name) == 2 && name[0] == '-' && primary.Short == "":
			primary.Short = name
		case len(name) > 2 && primary.Long == "":
			primary.Long = name
		case name != primary.Short && name != primary.Long:
			primary.Aliases = append(primary.Aliases, name)
		}
	}
	opts := []model.Option{primary}
	for _, neg := range fl.negations {
		opts = append(opts, model.Option{Long: neg})
	}
	return opts
}

func parseOptionBlock(lines []string, res *Result) {
	var open []int
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if normalize.IsFlagStart(trimmed) {
			if fl, ok := parseFlagLine(trimmed); ok {
				open = open[:0]
				for _, opt := range buildOptions(fl) {
					opt.Description = fl.desc
					open = append(open, len(res.Options))
					res.Options = append(res.Options, opt)
				}
				res.LastIndent = normalize.Indent(line)
				continue
			}
		}
		if len(open) == 0 {
			if len(res.Leading) == 0 {
				res.LeadingIndent = normalize.Indent(line)
			}
			res.Leading = append(res.Leading, trimmed)
			continue
		}
		for _, idx := range open {
			res.Options[idx].Description = joinText(res.Options[idx].Description, trimmed)
		}
	}
	for i := range res.Options {
		FinishOption(&res.Options[i])
	}
}

func joinText(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}

// FinishOption collapses whitespace in the description and derives the
// default value and value hint from it.
func FinishOption(opt *model.Option) {
	opt.Description = strings.Join(strings.Fields(opt.Description), " ")
	if !opt.HasDefault {
		if m := defaultPattern.FindStringSubmatch(opt.Description); m != nil {
			if def := strings.Trim(m[1], `"'`); def != "" {
				opt.HasDefault = true
				opt.Default = def
			}
		}
	}
	if opt.TakesValue && opt.ValueHint == model.HintNone {
		opt.ValueHint = inferHint(opt.ValueName, opt.Description)
	}
}

var numberNames = map[string]bool{
	"n": true, "num": true, "number": true, "int": true, "integer": true, "uint": true,
	"count": true, "size": true, "port": true, "float": true, "secs": true,
	"seconds": true, "ms": true, "level": true, "depth": true, "lines": true,
}

func inferHint(valueName, desc string) model.ValueHint {
	v := strings.ToLower(valueName)
	switch {
	case strings.Contains(v, "dir") || strings.Contains(v, "folder"):
		return model.HintDir
	case strings.Contains(v, "file") || strings.Contains(v, "path") || strings.Contains(v, "archive"):
		return model.HintFile
	case numberNames[v]:
		return model.HintNumber
	}

	d := strings.ToLower(desc)
	switch {
	case strings.Contains(d, "directory"):
		return model.HintDir
	case strings.Contains(d, " file") || strings.HasPrefix(d, "file") || strings.Contains(d, " path"):
		return model.HintFile
	}
	return model.HintString
}

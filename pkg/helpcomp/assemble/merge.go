package assemble

import (
	"regexp"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/normalize"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/parser"
)

var manHeaderPattern = regexp.MustCompile(`^[A-Za-z0-9_.+-]+\(\d[A-Za-z]*\)`)

// lastOption remembers the final option of the most recent option block so
// that leading text of the next block can be reattached to it.
type lastOption struct {
	key    model.OptionKey
	indent int
}

// Merge folds per-block results, in block order, into a Command without
// subcommands. It also returns the subcommands listed by the blocks.
//
// Options are deduplicated on their (short, long) key. The first occurrence
// keeps its position; a later record with a non-empty description replaces
// it, and fields missing from the winner are filled from the other record.
func Merge(name string, kind model.SourceKind, results []parser.Result) (*model.Command, []parser.SubcommandRef) {
	cmd := model.NewCommand(name, kind)
	options := orderedmap.New()
	subcommands := orderedmap.New()
	arguments := make(map[string]string)
	var last *lastOption
	usageSeen := false
	structured := false

	for _, res := range results {
		if res.Kind == normalize.FreeText {
			if !structured && cmd.Description == "" {
				cmd.Description = describe(name, res.Text)
			}
			continue
		}
		if len(res.Options) > 0 || len(res.Subcommands) > 0 || len(res.Arguments) > 0 {
			structured = true
		}

		if len(res.Leading) > 0 && last != nil && res.LeadingIndent > last.indent {
			if v, ok := options.Get(last.key); ok {
				opt := v.(model.Option)
				opt.Description = strings.Join(append([]string{opt.Description}, res.Leading...), " ")
				parser.FinishOption(&opt)
				options.Set(last.key, opt)
			}
		}

		for _, opt := range res.Options {
			mergeOption(options, opt)
		}
		if n := len(res.Options); n > 0 {
			last = &lastOption{key: res.Options[n-1].Key(), indent: res.LastIndent}
		}

		for _, ref := range res.Subcommands {
			if v, ok := subcommands.Get(ref.Name); ok {
				if existing := v.(parser.SubcommandRef); existing.Description != "" || ref.Description == "" {
					continue
				}
			}
			subcommands.Set(ref.Name, ref)
		}

		if res.Kind == normalize.UsageBlock && !usageSeen && res.Usage != "" {
			usageSeen = true
			cmd.Usage = res.Usage
			cmd.Positionals = res.Positionals
		}

		for _, arg := range res.Arguments {
			key := strings.ToLower(arg.Name)
			if _, ok := arguments[key]; !ok {
				arguments[key] = arg.Description
			}
		}
	}

	for pair := options.Oldest(); pair != nil; pair = pair.Next() {
		cmd.Options = append(cmd.Options, pair.Value.(model.Option))
	}
	for i, pos := range cmd.Positionals {
		if desc, ok := arguments[strings.ToLower(pos.Name)]; ok && pos.Description == "" {
			cmd.Positionals[i].Description = desc
		}
	}

	var refs []parser.SubcommandRef
	for pair := subcommands.Oldest(); pair != nil; pair = pair.Next() {
		ref := pair.Value.(parser.SubcommandRef)
		if ref.Name == name {
			continue
		}
		refs = append(refs, ref)
	}
	return cmd, refs
}

func mergeOption(options *orderedmap.OrderedMap, opt model.Option) {
	key := opt.Key()
	v, ok := options.Get(key)
	if !ok {
		options.Set(key, opt)
		return
	}
	existing := v.(model.Option)
	winner, other := existing, opt
	if opt.Description != "" {
		winner, other = opt, existing
	}
	if !winner.TakesValue && other.TakesValue {
		winner.TakesValue = true
		winner.ValueName = other.ValueName
		winner.ValueHint = other.ValueHint
	}
	if winner.ValueName == "" {
		winner.ValueName = other.ValueName
	}
	if winner.ValueHint == model.HintNone {
		winner.ValueHint = other.ValueHint
	}
	if !winner.HasDefault && other.HasDefault {
		winner.HasDefault = true
		winner.Default = other.Default
	}
	for _, alias := range other.Aliases {
		if !containsString(winner.Aliases, alias) {
			winner.Aliases = append(winner.Aliases, alias)
		}
	}
	options.Set(key, winner)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// describe turns the first prose block into a one-line description. Section
// headings are skipped and a man page "name - summary" line is reduced to
// its summary.
func describe(name, text string) string {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasSuffix(text, ":") || strings.ToUpper(text) == text ||
		isVersionBanner(name, text) || manHeaderPattern.MatchString(text) {
		return ""
	}
	for _, sep := range []string{" - ", " -- "} {
		if head, rest, ok := strings.Cut(text, sep); ok && strings.Contains(head, name) && len(strings.Fields(head)) <= 3 {
			text = rest
			break
		}
	}
	if idx := strings.Index(text, ". "); idx > 0 {
		text = text[:idx+1]
	}
	return text
}

// isVersionBanner matches lines such as "tool 1.2.3" or "tool v0.4".
func isVersionBanner(name, text string) bool {
	fields := strings.Fields(text)
	if len(fields) < 2 || len(fields) > 3 || fields[0] != name {
		return false
	}
	v := strings.TrimPrefix(fields[1], "v")
	return v != "" && v[0] >= '0' && v[0] <= '9'
}

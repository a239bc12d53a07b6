package generate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"mvdan.cc/sh/v3/syntax"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

// bashQuote quotes s as a single bash word.
func bashQuote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err == nil {
		return q
	}
	clean := strings.Map(func(r rune) rune {
		if r == 0 || r == utf8.RuneError {
			return -1
		}
		return r
	}, strings.ToValidUTF8(s, ""))
	if q, err = syntax.Quote(clean, syntax.LangBash); err == nil {
		return q
	}
	return "''"
}

const bashPlainInit = `    local cur prev words cword
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    words=("${COMP_WORDS[@]}")
    cword=$COMP_CWORD
`

const bashCompatInit = `    local cur prev words cword
    if declare -F _init_completion >/dev/null 2>&1; then
        _init_completion || return
    else
        COMPREPLY=()
        cur="${COMP_WORDS[COMP_CWORD]}"
        prev="${COMP_WORDS[COMP_CWORD-1]}"
        words=("${COMP_WORDS[@]}")
        cword=$COMP_CWORD
    fi
`

// bashReplyHelper shows "word  -- description" entries when several words
// match and inserts the bare word when one does.
const bashReplyHelper = `%s() {
    local cur="$1" entry word desc width=0
    shift
    local -a matches=()
    for entry in "$@"; do
        word="${entry%%%%$'\t'*}"
        [[ "${word}" == "${cur}"* ]] && matches+=("${entry}")
    done
    if ((${#matches[@]} <= 1)); then
        COMPREPLY=("${matches[@]%%%%$'\t'*}")
        return
    fi
    for entry in "${matches[@]}"; do
        word="${entry%%%%$'\t'*}"
        ((${#word} > width)) && width=${#word}
    done
    COMPREPLY=()
    for entry in "${matches[@]}"; do
        word="${entry%%%%$'\t'*}"
        desc="${entry#*$'\t'}"
        if [[ "${desc}" == "${entry}" || -z "${desc}" ]]; then
            COMPREPLY+=("${word}")
        else
            COMPREPLY+=("$(printf '%%-*s  -- %%s' "${width}" "${word}" "${desc}")")
        fi
    done
}

`

type bashWriter struct {
	b      strings.Builder
	compat bool
	reply  string
	names  funcNames
}

func generateBash(cmd *model.Command, opts Options) (string, error) {
	all := nodes(cmd)
	w := &bashWriter{compat: opts.BashCompletionCompat, names: newFuncNames(all)}
	root := w.names.of([]string{cmd.Name})
	w.reply = "_" + root + "_reply"

	fmt.Fprintf(&w.b, "# bash completion for %s\n\n", cmd.Name)
	if w.compat {
		fmt.Fprintf(&w.b, bashReplyHelper, w.reply)
	}

	fmt.Fprintf(&w.b, "%s() {\n", root)
	if w.compat {
		w.b.WriteString(bashCompatInit)
	} else {
		w.b.WriteString(bashPlainInit)
	}
	fmt.Fprintf(&w.b, "\n    local i state=%s\n", bashQuote(root))
	if len(all) > 1 {
		w.b.WriteString("    for ((i = 1; i < cword; i++)); do\n")
		w.b.WriteString("        case \"${state},${words[i]}\" in\n")
		for _, n := range all {
			for _, sub := range n.cmd.Subcommands {
				from := w.names.of(n.path)
				to := w.names.of(childPath(n.path, sub.Name))
				fmt.Fprintf(&w.b, "            %s) state=%s ;;\n", bashQuote(from+","+sub.Name), bashQuote(to))
			}
		}
		w.b.WriteString("        esac\n")
		w.b.WriteString("    done\n")
	}

	w.b.WriteString("\n    case \"${state}\" in\n")
	for _, n := range all {
		w.node(n)
	}
	w.b.WriteString("    esac\n")
	w.b.WriteString("}\n\n")
	fmt.Fprintf(&w.b, "complete -o bashdefault -o default -F %s %s\n", root, bashQuote(cmd.Name))
	return w.b.String(), nil
}

func (w *bashWriter) node(n node) {
	cmd := n.cmd
	fmt.Fprintf(&w.b, "        %s)\n", bashQuote(w.names.of(n.path)))

	valued := lo.Filter(cmd.Options, func(o model.Option, _ int) bool { return o.TakesValue })
	if len(valued) > 0 {
		w.b.WriteString("            case \"${prev}\" in\n")
		for _, opt := range valued {
			patterns := lo.Map(opt.Names(), func(name string, _ int) string { return bashQuote(name) })
			fmt.Fprintf(&w.b, "                %s)\n", strings.Join(patterns, "|"))
			w.value(opt.ValueHint, "                    ")
			w.b.WriteString("                    return 0\n")
			w.b.WriteString("                    ;;\n")
		}
		w.b.WriteString("            esac\n")
	}

	switch {
	case len(words(cmd)) == 0:
		w.b.WriteString("            COMPREPLY=()\n")
	case w.compat:
		entries := make([]string, 0, len(cmd.Options)+len(cmd.Subcommands))
		for _, opt := range cmd.Options {
			desc := summary(opt.Description)
			for _, name := range opt.Names() {
				entries = append(entries, bashQuote(name+"\t"+desc))
			}
		}
		for _, sub := range cmd.Subcommands {
			entries = append(entries, bashQuote(sub.Name+"\t"+summary(sub.Description)))
		}
		fmt.Fprintf(&w.b, "            %s \"${cur}\" \\\n", w.reply)
		for i, e := range entries {
			sep := " \\"
			if i == len(entries)-1 {
				sep = ""
			}
			fmt.Fprintf(&w.b, "                %s%s\n", e, sep)
		}
	default:
		opts := lo.Uniq(words(cmd))
		fmt.Fprintf(&w.b, "            local opts=%s\n", bashQuote(strings.Join(opts, " ")))
		w.b.WriteString("            COMPREPLY=($(compgen -W \"${opts}\" -- \"${cur}\"))\n")
	}
	w.b.WriteString("            return 0\n")
	w.b.WriteString("            ;;\n")
}

func (w *bashWriter) value(hint model.ValueHint, indent string) {
	switch {
	case hint == model.HintDir && w.compat:
		w.b.WriteString(indent + "if declare -F _filedir >/dev/null 2>&1; then\n")
		w.b.WriteString(indent + "    _filedir -d\n")
		w.b.WriteString(indent + "else\n")
		w.b.WriteString(indent + "    COMPREPLY=($(compgen -d -- \"${cur}\"))\n")
		w.b.WriteString(indent + "fi\n")
	case hint == model.HintDir:
		w.b.WriteString(indent + "COMPREPLY=($(compgen -d -- \"${cur}\"))\n")
	case hint == model.HintFile && w.compat:
		w.b.WriteString(indent + "if declare -F _filedir >/dev/null 2>&1; then\n")
		w.b.WriteString(indent + "    _filedir\n")
		w.b.WriteString(indent + "else\n")
		w.b.WriteString(indent + "    COMPREPLY=($(compgen -f -- \"${cur}\"))\n")
		w.b.WriteString(indent + "fi\n")
	case hint == model.HintFile:
		w.b.WriteString(indent + "COMPREPLY=($(compgen -f -- \"${cur}\"))\n")
	default:
		w.b.WriteString(indent + "COMPREPLY=()\n")
	}
}

package assemble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/dispatch"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

const toolHelp = `Usage: tool [OPTIONS] <FILE>

A tool that does things.

Options:
  -f, --file <FILE>  Read input from FILE
  -v                 Verbose output
  -h, --help         Show help

Commands:
  build   Build the project
  clean   Remove artifacts
`

const buildHelp = `Usage: tool build [OPTIONS]

Options:
      --release  Build with optimizations
  -j, --jobs N   Parallel jobs

Commands:
  fast  Build quickly
  slow  Build carefully
`

type fakeProvider struct {
	mu    sync.Mutex
	docs  map[string]string
	calls []string
}

func (f *fakeProvider) Fetch(_ context.Context, path []string) (Document, error) {
	key := strings.Join(path, " ")
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	text, ok := f.docs[key]
	if !ok {
		return Document{}, errors.New("no documentation")
	}
	return Document{Path: path, Text: text, Kind: model.SourceHelp}, nil
}

func root(text string) Document {
	return Document{Path: []string{"tool"}, Text: text, Kind: model.SourceHelp}
}

func TestAssembleHelpText(t *testing.T) {
	cmd, err := New().Assemble(context.Background(), root(toolHelp), 0)
	require.NoError(t, err)

	assert.Equal(t, "tool", cmd.Name)
	assert.Equal(t, model.SourceHelp, cmd.Source)
	assert.Equal(t, "A tool that does things.", cmd.Description)
	assert.Equal(t, "tool [OPTIONS] <FILE>", cmd.Usage)
	assert.Equal(t, []model.Positional{{Name: "FILE", Required: true}}, cmd.Positionals)
	assert.Equal(t, []model.Option{
		{Short: "-f", Long: "--file", TakesValue: true, ValueName: "FILE", ValueHint: model.HintFile, Description: "Read input from FILE"},
		{Short: "-v", Description: "Verbose output"},
		{Short: "-h", Long: "--help", Description: "Show help"},
	}, cmd.Options)
	assert.Empty(t, cmd.Subcommands, "depth 0 never resolves subcommands")
	require.NoError(t, cmd.Validate())
}

func TestParseListsSubcommands(t *testing.T) {
	_, refs, err := New().Parse(context.Background(), root(toolHelp))
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "build", refs[0].Name)
	assert.Equal(t, "Remove artifacts", refs[1].Description)
}

func TestAssembleManPage(t *testing.T) {
	page := strings.Join([]string{
		"LS(1)                     User Commands                    LS(1)",
		"",
		"NAME",
		"       ls - list directory contents",
		"",
		"SYNOPSIS",
		"       ls [OPTION]... [FILE]...",
		"",
		"DESCRIPTION",
		"       List information about the FILEs.",
		"",
		"       -a, --all",
		"              do not ignore entries starting with .",
		"",
		"       -A, --almost-all",
		"              do not list implied . and ..",
	}, "\n")

	cmd, err := New().Assemble(context.Background(), Document{Path: []string{"ls"}, Text: page, Kind: model.SourceMan}, 1)
	require.NoError(t, err)

	assert.Equal(t, "list directory contents", cmd.Description)
	assert.Equal(t, []model.Positional{{Name: "FILE", Variadic: true}}, cmd.Positionals)
	require.Len(t, cmd.Options, 2)
	assert.Equal(t, "--all", cmd.Options[0].Long)
	assert.Equal(t, "do not ignore entries starting with .", cmd.Options[0].Description)
	assert.Equal(t, "--almost-all", cmd.Options[1].Long)
}

func TestMergeAliases(t *testing.T) {
	text := strings.Join([]string{
		"Options:",
		"  -h, --help  Show help",
		"  -v          Be verbose",
		"  --verbose   Be verbose too",
		"",
		"Other options:",
		"  -h, --help",
		"  -o, --out FILE  Output file",
		"  -o, --out",
	}, "\n")

	cmd, err := New().Assemble(context.Background(), root(text), 0)
	require.NoError(t, err)
	require.Len(t, cmd.Options, 4)

	help := cmd.Options[0]
	assert.Equal(t, model.OptionKey{Short: "-h", Long: "--help"}, help.Key())
	assert.Equal(t, "Show help", help.Description, "a later record without a description never wins")

	// separate lines are separate options
	assert.Equal(t, "-v", cmd.Options[1].Short)
	assert.Empty(t, cmd.Options[1].Long)
	assert.Equal(t, "--verbose", cmd.Options[2].Long)

	out := cmd.Options[3]
	assert.True(t, out.TakesValue)
	assert.Equal(t, "FILE", out.ValueName)
	assert.Equal(t, "Output file", out.Description)
}

func TestMergeLaterDescriptionWins(t *testing.T) {
	text := "Options:\n  -x, --extra\n\nMore options:\n  -x, --extra VALUE  Extra value\n"
	cmd, err := New().Assemble(context.Background(), root(text), 0)
	require.NoError(t, err)
	require.Len(t, cmd.Options, 1)
	assert.Equal(t, "Extra value", cmd.Options[0].Description)
	assert.True(t, cmd.Options[0].TakesValue)
}

func TestMergeReattachesLeadingText(t *testing.T) {
	page := strings.Join([]string{
		"OPTIONS",
		"       -a, --all",
		"              do not ignore entries",
		"",
		"              starting with .",
		"",
		"       -b  bee",
	}, "\n")

	cmd, err := New().Assemble(context.Background(), root(page), 0)
	require.NoError(t, err)
	require.Len(t, cmd.Options, 2)
	assert.Equal(t, "do not ignore entries starting with .", cmd.Options[0].Description)
	assert.Equal(t, "bee", cmd.Options[1].Description)
}

func TestMergeArgumentDescriptions(t *testing.T) {
	text := strings.Join([]string{
		"usage: prog [-h] src [dest]",
		"",
		"positional arguments:",
		"  src   source path",
		"  dest  destination",
	}, "\n")

	cmd, err := New().Assemble(context.Background(), Document{Path: []string{"prog"}, Text: text}, 0)
	require.NoError(t, err)
	assert.Equal(t, []model.Positional{
		{Name: "src", Description: "source path", Required: true},
		{Name: "dest", Description: "destination"},
	}, cmd.Positionals)
}

func TestAssembleEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   \n\n\t\n"} {
		cmd, err := New().Assemble(context.Background(), root(text), 2)
		require.NoError(t, err)
		assert.Equal(t, &model.Command{Name: "tool", Source: model.SourceHelp}, cmd)
	}
}

func TestAssembleRequiresName(t *testing.T) {
	_, err := New().Assemble(context.Background(), Document{Text: toolHelp}, 0)
	assert.ErrorIs(t, err, ErrNoName)
}

func TestAssembleDepth(t *testing.T) {
	provider := &fakeProvider{docs: map[string]string{
		"tool build":      buildHelp,
		"tool build fast": "Options:\n  --turbo  go faster\n",
	}}

	tests := []struct {
		depth     int
		wantDepth int
	}{
		{depth: 0, wantDepth: 0},
		{depth: 1, wantDepth: 1},
		{depth: 2, wantDepth: 2},
		{depth: 5, wantDepth: 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("depth=%d", tt.depth), func(t *testing.T) {
			cmd, err := New(WithProvider(provider)).Assemble(context.Background(), root(toolHelp), tt.depth)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDepth, cmd.Depth())
			require.NoError(t, cmd.Validate())
		})
	}
}

func TestAssembleDegradesToNameOnly(t *testing.T) {
	provider := &fakeProvider{docs: map[string]string{
		"tool build": buildHelp,
	}}
	var mu sync.Mutex
	var degraded []string
	hook := func(path []string, err error) {
		mu.Lock()
		defer mu.Unlock()
		degraded = append(degraded, strings.Join(path, " "))
	}

	cmd, err := New(WithProvider(provider), WithDegradeHook(hook)).Assemble(context.Background(), root(toolHelp), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "clean"}, cmd.SubcommandNames())

	build := cmd.Subcommand("build")
	require.NotNil(t, build)
	assert.Equal(t, "Build the project", build.Description)
	assert.Len(t, build.Options, 2)
	assert.Empty(t, build.Subcommands, "remaining budget is exhausted")

	clean := cmd.Subcommand("clean")
	require.NotNil(t, clean)
	assert.Equal(t, &model.Command{Name: "clean", Description: "Remove artifacts", Source: model.SourceHelp}, clean)
	assert.Equal(t, []string{"tool clean"}, degraded)
}

func TestAssembleWithoutProvider(t *testing.T) {
	cmd, err := New().Assemble(context.Background(), root(toolHelp), 3)
	require.NoError(t, err)
	require.Len(t, cmd.Subcommands, 2)
	for _, sub := range cmd.Subcommands {
		assert.Empty(t, sub.Options)
		assert.NotEmpty(t, sub.Description)
	}
}

func TestAssembleSameAsParent(t *testing.T) {
	provider := &fakeProvider{docs: map[string]string{
		"tool build": toolHelp,
		"tool clean": toolHelp,
	}}
	cmd, err := New(WithProvider(provider)).Assemble(context.Background(), root(toolHelp), 1)
	require.NoError(t, err)
	for _, sub := range cmd.Subcommands {
		assert.Empty(t, sub.Options, sub.Name)
	}
}

func TestAssembleIsIdempotent(t *testing.T) {
	provider := &fakeProvider{docs: map[string]string{"tool build": buildHelp}}
	a := New(WithProvider(provider))
	first, err := a.Assemble(context.Background(), root(toolHelp), 2)
	require.NoError(t, err)
	second, err := a.Assemble(context.Background(), root(toolHelp), 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssembleThresholdEquivalence(t *testing.T) {
	var lines []string
	docs := make(map[string]string)
	lines = append(lines, "Usage: tool <command>", "", "Commands:")
	for i := 0; i < 9; i++ {
		name := fmt.Sprintf("sub%d", i)
		lines = append(lines, fmt.Sprintf("  %s  Subcommand number %d", name, i))
		docs["tool "+name] = fmt.Sprintf("Options:\n  -%d, --opt%d  option %d\n", i, i, i)
	}
	lines = append(lines, "", "Options:", "  -h, --help  Show help")
	text := strings.Join(lines, "\n")

	sequential := New(
		WithProvider(&fakeProvider{docs: docs}),
		WithDispatcher(dispatch.New(dispatch.WithThreshold(1000))),
	)
	parallel := New(
		WithProvider(&fakeProvider{docs: docs}),
		WithDispatcher(dispatch.New(dispatch.WithThreshold(0), dispatch.WithWorkers(4))),
	)

	want, err := sequential.Assemble(context.Background(), root(text), 1)
	require.NoError(t, err)
	got, err := parallel.Assemble(context.Background(), root(text), 1)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	require.Len(t, got.Subcommands, 9)
	assert.Equal(t, "--opt3", got.Subcommands[3].Options[0].Long)
}

func TestAssembleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Assemble(ctx, root(toolHelp), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

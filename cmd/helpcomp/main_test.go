package main_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests
	tmpDir, err := os.MkdirTemp("", "helpcomp-test")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	binaryPath = filepath.Join(tmpDir, "helpcomp")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
	if output, err := buildCmd.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build binary: %v\n%s\n", err, output)
		_ = os.RemoveAll(tmpDir)
		os.Exit(1)
	}

	code := m.Run()
	_ = os.RemoveAll(tmpDir)
	os.Exit(code)
}

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

// testEnv returns the environment without HELPCOMP_CONFIG and with every
// XDG directory under home, to avoid test pollution.
func testEnv(home string) []string {
	baseEnv := os.Environ()
	filtered := make([]string, 0, len(baseEnv)+3)
	for _, e := range baseEnv {
		if strings.HasPrefix(e, "HELPCOMP_CONFIG=") || strings.HasPrefix(e, "XDG_") {
			continue
		}
		filtered = append(filtered, e)
	}
	return append(filtered,
		"XDG_CONFIG_HOME="+filepath.Join(home, "config"),
		"XDG_DATA_HOME="+filepath.Join(home, "data"),
		"XDG_CACHE_HOME="+filepath.Join(home, "cache"),
	)
}

func runCmd(t *testing.T, home, stdin string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = testEnv(home)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("failed to run helpcomp: %v", err)
		}
		code = exitErr.ExitCode()
	}
	return stdout.String(), stderr.String(), code
}

func writeHelp(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "tool.txt")
	if err := os.WriteFile(path, []byte(toolHelp), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNoArgumentsShowsHelp(t *testing.T) {
	stdout, _, code := runCmd(t, t.TempDir(), "")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "helpcomp [command [subcommand...]]") {
		t.Errorf("expected usage, got:\n%s", stdout)
	}
}

func TestGenerateFromFile(t *testing.T) {
	home := t.TempDir()
	file := writeHelp(t, home)

	cases := []struct {
		format string
		want   string
	}{
		{"bash", "complete -o bashdefault -o default -F _tool tool"},
		{"zsh", "#compdef tool"},
		{"fish", "complete -c 'tool'"},
		{"pwsh", "Register-ArgumentCompleter -Native -CommandName 'tool'"},
		{"elvish", "edit:completion:arg-completer['tool']"},
		{"nu", `export extern "tool"`},
		{"native", "Name:"},
	}
	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			stdout, stderr, code := runCmd(t, home, "", "--file", file, "--format", tc.format, "--no-cache")
			if code != 0 {
				t.Fatalf("exit code = %d, stderr: %s", code, stderr)
			}
			if !strings.Contains(stdout, tc.want) {
				t.Errorf("output missing %q:\n%s", tc.want, stdout)
			}
		})
	}
}

func TestGenerateJSONFromStdin(t *testing.T) {
	stdout, stderr, code := runCmd(t, t.TempDir(), toolHelp, "--name", "piped", "--json")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if doc["name"] != "piped" {
		t.Errorf("name = %v, want piped", doc["name"])
	}
}

func TestJSONAndFormatConflict(t *testing.T) {
	home := t.TempDir()
	file := writeHelp(t, home)
	_, _, code := runCmd(t, home, "", "--file", file, "--json", "--format", "zsh")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestUnknownFormat(t *testing.T) {
	home := t.TempDir()
	file := writeHelp(t, home)
	_, stderr, code := runCmd(t, home, "", "--file", file, "--format", "tcsh")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "tcsh") {
		t.Errorf("stderr should name the format: %s", stderr)
	}
}

func TestListSubcommands(t *testing.T) {
	home := t.TempDir()
	file := writeHelp(t, home)
	stdout, stderr, code := runCmd(t, home, "", "--file", file, "--name", "helpcomp-test-not-installed", "--list-subcommands")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if stdout != "build\nclean\n" {
		t.Errorf("subcommands = %q", stdout)
	}
}

func TestPreprocessOnlyAlias(t *testing.T) {
	home := t.TempDir()
	file := writeHelp(t, home)
	first, _, code := runCmd(t, home, "", "--file", file, "--preprocess-only")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	second, _, _ := runCmd(t, home, "", "--file", file, "--debug")
	if first == "" || first != second {
		t.Errorf("--debug should match --preprocess-only:\n%s\n---\n%s", first, second)
	}
}

func TestMissingProgram(t *testing.T) {
	home := t.TempDir()
	stdout, stderr, code := runCmd(t, home, "", "--format", "zsh", "helpcomp-test-not-installed")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "#compdef helpcomp-test-not-installed") {
		t.Errorf("expected a minimal script, got:\n%s", stdout)
	}
	if !strings.Contains(stderr, "warning:") {
		t.Errorf("expected a warning, stderr: %s", stderr)
	}

	_, stderr, code = runCmd(t, home, "", "--silent", "helpcomp-test-not-installed")
	if code != 0 || stderr != "" {
		t.Errorf("--silent: exit code = %d, stderr = %q", code, stderr)
	}

	stdout, _, code = runCmd(t, home, "", "--strict", "helpcomp-test-not-installed")
	if code != 3 {
		t.Errorf("--strict: exit code = %d, want 3", code)
	}
	if stdout != "" {
		t.Errorf("--strict: nothing should be printed, got %q", stdout)
	}
}

func TestInvalidCommandName(t *testing.T) {
	_, _, code := runCmd(t, t.TempDir(), "", "tool", "$(reboot)")
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
}

func TestWriteInstallsCompletion(t *testing.T) {
	home := t.TempDir()
	file := writeHelp(t, home)
	stdout, stderr, code := runCmd(t, home, "", "--file", file, "--format", "bash", "--write")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if stdout != "" {
		t.Errorf("--write should not print the script")
	}
	path := filepath.Join(home, "data", "bash-completion", "completions", "tool.bash")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("completion not installed at %s: %v", path, err)
	}
}

func TestCacheCommands(t *testing.T) {
	home := t.TempDir()
	file := writeHelp(t, home)

	stdout, _, code := runCmd(t, home, "", "cache", "path")
	if code != 0 || strings.TrimSpace(stdout) != filepath.Join(home, "cache", "helpcomp") {
		t.Errorf("cache path = %q (exit %d)", stdout, code)
	}

	if _, stderr, code := runCmd(t, home, "", "--file", file); code != 0 {
		t.Fatalf("generate failed: %s", stderr)
	}

	stdout, _, code = runCmd(t, home, "", "cache", "list", "--json")
	if code != 0 {
		t.Fatalf("cache list exit code = %d", code)
	}
	var env struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal([]byte(stdout), &env); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if len(env.Data) != 2 {
		t.Errorf("got %d cache entries, want 2", len(env.Data))
	}

	if _, _, code := runCmd(t, home, "", "cache", "clear"); code != 0 {
		t.Fatalf("cache clear exit code = %d", code)
	}
	stdout, _, _ = runCmd(t, home, "", "cache", "list")
	if !strings.Contains(stdout, "(cache is empty)") {
		t.Errorf("cache not cleared: %s", stdout)
	}

	_, _, code = runCmd(t, home, "", "--cache-backend", "none", "cache", "list")
	if code != 4 {
		t.Errorf("disabled cache: exit code = %d, want 4", code)
	}
}

func TestSQLiteBackend(t *testing.T) {
	home := t.TempDir()
	file := writeHelp(t, home)
	if _, stderr, code := runCmd(t, home, "", "--cache-backend", "sqlite", "--file", file); code != 0 {
		t.Fatalf("generate failed: %s", stderr)
	}
	if _, err := os.Stat(filepath.Join(home, "cache", "helpcomp", "cache.db")); err != nil {
		t.Errorf("sqlite database missing: %v", err)
	}
}

func TestExplicitConfigMissing(t *testing.T) {
	home := t.TempDir()
	_, _, code := runCmd(t, home, "", "-C", filepath.Join(home, "nope.yaml"), "--file", writeHelp(t, home))
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestConfigFormatDefault(t *testing.T) {
	home := t.TempDir()
	cfg := filepath.Join(home, "config", "helpcomp", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(cfg), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg, []byte("format: fish\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	stdout, stderr, code := runCmd(t, home, "", "--file", writeHelp(t, home))
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "# fish completion for tool") {
		t.Errorf("config format not applied:\n%s", stdout)
	}
}

func TestVersion(t *testing.T) {
	stdout, _, code := runCmd(t, t.TempDir(), "", "version", "--json")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	var info struct {
		Version string   `json:"version"`
		Formats []string `json:"formats"`
	}
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if info.Version == "" || len(info.Formats) == 0 {
		t.Errorf("unexpected version info %+v", info)
	}
}

func TestSelfCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		stdout, _, code := runCmd(t, t.TempDir(), "", "completion", shell)
		if code != 0 || !strings.Contains(stdout, "helpcomp") {
			t.Errorf("completion %s: exit %d", shell, code)
		}
	}
}

func TestConfigInitAndShow(t *testing.T) {
	home := t.TempDir()
	if _, stderr, code := runCmd(t, home, "", "config", "init"); code != 0 {
		t.Fatalf("config init exit code = %d: %s", code, stderr)
	}
	if _, _, code := runCmd(t, home, "", "config", "init"); code != 2 {
		t.Errorf("second config init exit code = %d, want 2", code)
	}
	stdout, _, code := runCmd(t, home, "", "--cache-backend", "memory", "config", "show")
	if code != 0 || !strings.Contains(stdout, "backend: memory") {
		t.Errorf("config show (exit %d):\n%s", code, stdout)
	}
}

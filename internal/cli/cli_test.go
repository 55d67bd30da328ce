package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dcmdict/pkg/pipeline"
)

// =============================================================================
// Helpers
// =============================================================================

// writeTestConfig writes a config reading the shared docbook corpus without
// a cache.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	corpus, err := filepath.Abs(filepath.Join("..", "..", "pkg", "pipeline", "testdata", "docbook"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "dcmdict.toml")
	data := fmt.Sprintf(`source = %q

[cache]
backend = "none"

[tables]
sops = ["table_B.5-1"]

[[tables.attributes]]
part = "part06"
ids = ["table_6-1"]
`, corpus)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// newTestCLI returns a CLI writing results to out and discarding status lines.
func newTestCLI(t *testing.T, out io.Writer) *CLI {
	t.Helper()
	prev := statusOut
	statusOut = io.Discard
	t.Cleanup(func() { statusOut = prev })
	return &CLI{
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
		Out:    out,
	}
}

func runCommand(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

// =============================================================================
// Root
// =============================================================================

func TestRootCommandSubcommands(t *testing.T) {
	root := newTestCLI(t, io.Discard).RootCommand()

	want := []string{"parse", "browse", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.Version == "" {
		t.Error("root command has no version")
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.SetLogLevel(LogDebug)
	if c.Logger.GetLevel() != log.DebugLevel {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}
}

// =============================================================================
// Parse
// =============================================================================

func TestParseCommandTree(t *testing.T) {
	var out bytes.Buffer
	c := newTestCLI(t, &out)

	err := runCommand(t, c, "--config", writeTestConfig(t),
		"parse", "--sop-list", "1.2.840.10008.5.1.4.1.1.2", "-f", "tree")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	got := out.String()
	for _, want := range []string{"CT Image IOD", "(0010,0010) (2) Patient's Name"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "MR Image IOD") {
		t.Errorf("filtered SOP class in output:\n%s", got)
	}
}

func TestParseCommandMultipleFiles(t *testing.T) {
	c := newTestCLI(t, io.Discard)
	base := filepath.Join(t.TempDir(), "out", "dictionary.json")

	err := runCommand(t, c, "--config", writeTestConfig(t),
		"parse", "-f", "json,dot", "-o", base)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	dir := filepath.Dir(base)
	data, err := os.ReadFile(filepath.Join(dir, "dictionary.json"))
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if _, ok := doc["sop_classes"]; !ok {
		t.Error("json export has no sop_classes")
	}

	dot, err := os.ReadFile(filepath.Join(dir, "dictionary.dot"))
	if err != nil {
		t.Fatalf("read dot: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(dot)), "digraph") {
		t.Errorf("dot output does not start with digraph:\n%s", dot)
	}
}

func TestParseCommandInvalidFormat(t *testing.T) {
	c := newTestCLI(t, io.Discard)
	if err := runCommand(t, c, "--config", writeTestConfig(t), "parse", "-f", "pdf"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseCommandMissingConfig(t *testing.T) {
	c := newTestCLI(t, io.Discard)
	missing := filepath.Join(t.TempDir(), "missing.toml")
	if err := runCommand(t, c, "--config", missing, "parse"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestWriteArtifactsStdout(t *testing.T) {
	var out bytes.Buffer
	c := newTestCLI(t, &out)

	artifacts := map[string][]byte{
		pipeline.FormatText: []byte("summary\n"),
		pipeline.FormatJSON: []byte("{}\n"),
	}
	if err := c.writeArtifacts(artifacts, []string{pipeline.FormatText, pipeline.FormatJSON}, ""); err != nil {
		t.Fatal(err)
	}
	if got, want := out.String(), "summary\n\n{}\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestWriteArtifactsSingleFile(t *testing.T) {
	c := newTestCLI(t, io.Discard)
	path := filepath.Join(t.TempDir(), "nested", "summary.out")

	artifacts := map[string][]byte{pipeline.FormatText: []byte("summary\n")}
	if err := c.writeArtifacts(artifacts, []string{pipeline.FormatText}, path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "summary\n" {
		t.Errorf("file = %q", data)
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dictionary", "dictionary"},
		{"dictionary.json", "dictionary"},
		{"out/dictionary.svg", "out/dictionary"},
		{"dictionary.tree.txt", "dictionary"},
		{"dictionary.txt", "dictionary"},
		{"dictionary.xml", "dictionary.xml"},
	}
	for _, tt := range tests {
		if got := basePath(tt.in); got != tt.want {
			t.Errorf("basePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{pipeline.DefaultFormat}},
		{"json", []string{"json"}},
		{"json, svg,,", []string{"json", "svg"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.in)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// Cache and Serve
// =============================================================================

func TestCachePathCommand(t *testing.T) {
	var out bytes.Buffer
	c := newTestCLI(t, &out)
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")

	if err := runCommand(t, c, "cache", "path"); err != nil {
		t.Fatal(err)
	}
	if got, want := strings.TrimSpace(out.String()), filepath.Join("/tmp/xdg", appName); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	c := newTestCLI(t, io.Discard)
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	entry := filepath.Join(dir, appName, "ab", "entry.json")
	if err := os.MkdirAll(filepath.Dir(entry), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(entry, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := runCommand(t, c, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(entry); !os.IsNotExist(err) {
		t.Errorf("cache entry still present: %v", err)
	}
}

func TestDisplayAddr(t *testing.T) {
	tests := map[string]string{
		":8080":          "localhost:8080",
		"127.0.0.1:9000": "127.0.0.1:9000",
		"":               "",
	}
	for in, want := range tests {
		if got := displayAddr(in); got != want {
			t.Errorf("displayAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

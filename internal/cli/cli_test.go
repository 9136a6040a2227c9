package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/pkgexplorer/internal/fakeupstream"
	"github.com/matzehuels/pkgexplorer/pkg/config"
	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/explorer"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/npm"
)

// env points every upstream at a fake and isolates config and cache dirs.
func env(t *testing.T) *fakeupstream.Server {
	t.Helper()
	for _, name := range config.EnvVars() {
		t.Setenv(name, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	up := fakeupstream.New(t)
	for _, name := range []string{"REGISTRY_URL", "DOWNLOADS_URL", "BUNDLE_URL", "GITHUB_URL", "GITLAB_URL", "NPMS_URL"} {
		t.Setenv(config.EnvPrefix+name, up.URL)
	}
	t.Setenv(config.EnvPrefix+"HTTP_RETRIES", "0")
	return up
}

// run executes one command with a fresh CLI and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := New(&stderr, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	if err != nil {
		t.Logf("stderr: %s", stderr.String())
	}
	return stdout.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestPackageJSON(t *testing.T) {
	env(t)

	var p npm.Package
	if err := json.Unmarshal([]byte(mustRun(t, "package", "React", "--json")), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Name != "react" || p.Latest == nil || p.Latest.Dependencies["loose-envify"] != "^1.0.0" {
		t.Errorf("package = %+v", p)
	}
}

func TestPackageHuman(t *testing.T) {
	env(t)

	out := mustRun(t, "package", "react")
	for _, want := range []string{"react", "MIT", "loose-envify"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCacheAcrossRuns(t *testing.T) {
	up := env(t)

	mustRun(t, "overview", "react", "--json")
	first := up.Hits()
	if first == 0 {
		t.Fatal("first run made no upstream requests")
	}

	mustRun(t, "overview", "react", "--json")
	if got := up.Hits(); got != first {
		t.Errorf("second run made %d upstream requests, want 0", got-first)
	}

	mustRun(t, "overview", "react", "--json", "--refresh")
	if got := up.Hits(); got == first {
		t.Error("--refresh served from cache")
	}
}

func TestNoCache(t *testing.T) {
	up := env(t)

	mustRun(t, "package", "react", "--no-cache", "--json")
	first := up.Hits()
	mustRun(t, "package", "react", "--no-cache", "--json")
	if got := up.Hits(); got != 2*first {
		t.Errorf("hits = %d, want %d", got, 2*first)
	}
}

func TestOverviewWarnings(t *testing.T) {
	env(t)

	var o explorer.Overview
	if err := json.Unmarshal([]byte(mustRun(t, "overview", "lodash", "--json")), &o); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if o.Bundle != nil {
		t.Errorf("bundle = %+v, want none", o.Bundle)
	}
	if len(o.Warnings) != 1 || o.Warnings[0].Source != explorer.SourceBundle {
		t.Errorf("warnings = %+v", o.Warnings)
	}
	if o.WeeklyDownloads == nil || o.WeeklyDownloads.Downloads != 40_000_000 {
		t.Errorf("downloads = %+v", o.WeeklyDownloads)
	}
}

func TestCompare(t *testing.T) {
	env(t)

	var cmp explorer.Comparison
	if err := json.Unmarshal([]byte(mustRun(t, "compare", "react,preact", "--json")), &cmp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cmp.Packages) != 2 || cmp.Packages[0].Name() != "react" {
		t.Fatalf("packages = %+v", cmp.Packages)
	}
	if cmp.Leaders[explorer.MetricDownloads] != "react" || cmp.Leaders[explorer.MetricBundleSize] != "react" {
		t.Errorf("leaders = %v", cmp.Leaders)
	}

	if _, err := run(t, "compare", "react"); !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("compare with one package: err = %v, want INVALID_INPUT", err)
	}
}

func TestErrors(t *testing.T) {
	env(t)

	tests := []struct {
		args []string
		code apperrors.Code
	}{
		{[]string{"package", "../etc"}, apperrors.ErrCodeInvalidPackage},
		{[]string{"package", "does-not-exist"}, apperrors.ErrCodeNotFound},
		{[]string{"repo", "not-a-slug"}, apperrors.ErrCodeInvalidInput},
		{[]string{"deps", "react", "--format", "png"}, apperrors.ErrCodeInvalidFormat},
		{[]string{"cache", "get", "npm:pkg:nothing"}, apperrors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			if _, err := run(t, tt.args...); !apperrors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDeps(t *testing.T) {
	env(t)

	dot := mustRun(t, "deps", "react")
	for _, want := range []string{"digraph G {", `"react" -> "loose-envify"`, `"loose-envify" -> "js-tokens"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s:\n%s", want, dot)
		}
	}

	path := filepath.Join(t.TempDir(), "graph.json")
	mustRun(t, "deps", "react", "--format", "json", "-o", path, "--depth", "1")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var g struct {
		Nodes []struct{ Name string }
	}
	if err := json.Unmarshal(data, &g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Errorf("nodes = %+v, want react and loose-envify", g.Nodes)
	}
}

func TestCacheCommands(t *testing.T) {
	env(t)

	mustRun(t, "package", "react", "--json")

	var e struct {
		Key   string
		Value map[string]any
	}
	if err := json.Unmarshal([]byte(mustRun(t, "cache", "get", "npm:pkg:react", "--json")), &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Key != "npm:pkg:react" || e.Value["name"] != "react" {
		t.Errorf("entry = %+v", e)
	}

	if out := mustRun(t, "cache", "path"); !strings.HasSuffix(strings.TrimSpace(out), config.AppName) {
		t.Errorf("cache path = %q", out)
	}

	var cleared map[string]int
	if err := json.Unmarshal([]byte(mustRun(t, "cache", "clear", "--json")), &cleared); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cleared["removed"] == 0 {
		t.Errorf("cleared = %v", cleared)
	}
	if _, err := run(t, "cache", "get", "npm:pkg:react"); !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("get after clear: err = %v", err)
	}
}

func TestConfigCommands(t *testing.T) {
	env(t)
	t.Setenv(config.EnvPrefix+"HTTP_RETRIES", "4")

	out := mustRun(t, "config", "show", "--format", "yaml")
	if !strings.Contains(out, "retries: 4") {
		t.Errorf("config show does not reflect the environment:\n%s", out)
	}

	mustRun(t, "config", "init")
	path := strings.TrimSpace(mustRun(t, "config", "path"))
	if _, err := config.Load(path); err != nil {
		t.Errorf("generated config does not load: %v", err)
	}
	if _, err := run(t, "config", "init"); !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("second init: err = %v, want INVALID_INPUT", err)
	}

	if out := mustRun(t, "config", "env"); !strings.Contains(out, config.EnvPrefix+"CACHE_BACKEND") {
		t.Errorf("config env:\n%s", out)
	}
}

func TestInvalidConfigFile(t *testing.T) {
	env(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[cache]\nbackend = \"floppy\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "--config", path, "package", "react"); !apperrors.Is(err, apperrors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestSearch(t *testing.T) {
	env(t)

	out := mustRun(t, "search", "react")
	if !strings.Contains(out, "react") || !strings.Contains(out, "preact") {
		t.Errorf("search output:\n%s", out)
	}
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out := mustRun(t, "completion", shell)
		if !strings.Contains(out, appName) {
			t.Errorf("%s completion does not mention %s", shell, appName)
		}
	}
}

func TestOverviewGitLab(t *testing.T) {
	env(t)

	var o explorer.Overview
	if err := json.Unmarshal([]byte(mustRun(t, "overview", "gitlab-ui", "--json")), &o); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if o.Repo == nil || o.Repo.Stars != 900 || o.Repo.RepoURL != "https://gitlab.com/org/gitlab-ui" {
		t.Errorf("repo = %+v", o.Repo)
	}
	if len(o.Warnings) != 0 {
		t.Errorf("warnings = %+v", o.Warnings)
	}
}

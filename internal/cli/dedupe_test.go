package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stacktrim/pkg/dedupe"
	"github.com/matzehuels/stacktrim/pkg/errors"
	"github.com/matzehuels/stacktrim/pkg/pipeline"
)

func testProject(t *testing.T, extra map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/app/package.json":                               `{"name":"app","version":"1.0.0","dependencies":{"a":"^1.0.0","c":"^1.0.0"}}`,
		"/app/node_modules/a/package.json":                `{"name":"a","version":"1.0.0","dependencies":{"b":"^1.0.0"}}`,
		"/app/node_modules/a/node_modules/b/package.json": `{"name":"b","version":"1.0.0"}`,
		"/app/node_modules/c/package.json":                `{"name":"c","version":"1.0.0","dependencies":{"b":"^1.0.0"}}`,
		"/app/node_modules/c/node_modules/b/package.json": `{"name":"b","version":"1.0.0"}`,
	}
	for path, content := range extra {
		files[path] = content
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func testCLI(fs afero.Fs) (*CLI, *bytes.Buffer) {
	var out bytes.Buffer
	return &CLI{Logger: log.New(io.Discard), FS: fs, Out: &out}, &out
}

func execute(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func decodePlan(t *testing.T, out *bytes.Buffer) *pipeline.Plan {
	t.Helper()
	var plan pipeline.Plan
	require.NoError(t, json.Unmarshal(out.Bytes(), &plan))
	return &plan
}

func TestDedupeWritesPlan(t *testing.T) {
	fs := testProject(t, nil)
	c, out := testCLI(fs)

	require.NoError(t, execute(t, c, "dedupe", "-C", "/app", "--json"))

	plan := decodePlan(t, out)
	assert.Equal(t, "/app", plan.Where)
	assert.Equal(t, 1, plan.Moves())
	assert.Equal(t, 1, plan.Removals())

	written, err := pipeline.ReadPlan(fs, "/app")
	require.NoError(t, err)
	assert.Equal(t, plan.Actions, written.Actions)
}

func TestDedupeAlias(t *testing.T) {
	fs := testProject(t, nil)
	c, out := testCLI(fs)

	require.NoError(t, execute(t, c, "ddp", "-C", "/app", "--json", "--dry-run"))
	assert.Equal(t, 2, len(decodePlan(t, out).Actions))
}

func TestDryRunWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"dedupe --dry-run", []string{"dedupe", "--dry-run"}},
		{"find-dupes", []string{"find-dupes"}},
		{"find-dupes --dry-run=false", []string{"find-dupes", "--dry-run=false"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := testProject(t, nil)
			c, out := testCLI(fs)

			args := append(tt.args, "-C", "/app", "--json")
			require.NoError(t, execute(t, c, args...))
			assert.Equal(t, 2, len(decodePlan(t, out).Actions))

			ok, err := afero.Exists(fs, pipeline.NewPlanWriter(fs).Path("/app"))
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestDedupeConfigFile(t *testing.T) {
	fs := testProject(t, map[string]string{
		"/app/.stacktrim.toml": "legacy_bundling = true\ndry_run = true\n",
	})
	c, out := testCLI(fs)

	require.NoError(t, execute(t, c, "dedupe", "-C", "/app", "--json"))
	assert.True(t, decodePlan(t, out).Empty())

	ok, err := afero.Exists(fs, pipeline.NewPlanWriter(fs).Path("/app"))
	require.NoError(t, err)
	assert.False(t, ok, "dry_run from config")
}

func TestDedupeFlagsOverrideConfig(t *testing.T) {
	fs := testProject(t, map[string]string{
		"/app/.stacktrim.toml": "legacy_bundling = true\n",
	})
	c, out := testCLI(fs)

	require.NoError(t, execute(t, c, "find-dupes", "-C", "/app", "--json", "--legacy-bundling=false"))
	plan := decodePlan(t, out)
	assert.Equal(t, []dedupe.Action{
		{Kind: dedupe.ActionMove, ID: "b@1.0.0", From: "/app/node_modules/a/node_modules/b", To: "/app/node_modules/b"},
		{Kind: dedupe.ActionRemove, ID: "b@1.0.0", From: "/app/node_modules/c/node_modules/b"},
	}, plan.Actions)
}

func TestDedupeErrors(t *testing.T) {
	tests := []struct {
		name  string
		extra map[string]string
		args  []string
		code  errors.Code
	}{
		{"empty prefix", nil, []string{"dedupe", "-C", ""}, errors.ErrCodeInvalidInput},
		{"negative jobs", nil, []string{"dedupe", "-C", "/app", "--jobs=-1"}, errors.ErrCodeInvalidConfig},
		{"missing explicit config", nil, []string{"dedupe", "-C", "/app", "--config", "/etc/none.toml"}, errors.ErrCodeInvalidConfig},
		{
			"invalid root manifest",
			map[string]string{"/app/package.json": `{"name":`},
			[]string{"find-dupes", "-C", "/app"},
			errors.ErrCodeInvalidManifest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testCLI(testProject(t, tt.extra))
			err := execute(t, c, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestDedupeDiagram(t *testing.T) {
	fs := testProject(t, nil)
	c, _ := testCLI(fs)

	require.NoError(t, execute(t, c, "find-dupes", "-C", "/app", "--json", "--dot", "/out/tree.dot"))

	data, err := afero.ReadFile(fs, "/out/tree.dot")
	require.NoError(t, err)
	dot := string(data)
	assert.True(t, strings.HasPrefix(dot, "digraph G {"))
	assert.Contains(t, dot, `"/app" -> "/app/node_modules/b";`)
	assert.NotContains(t, dot, "/app/node_modules/c/node_modules/b")
}

func TestFormatStats(t *testing.T) {
	line := formatStats(2, 3, 0)
	assert.Contains(t, line, "hoisted")
	assert.Contains(t, line, "removed")
	assert.NotContains(t, line, "kept in place")
	assert.Contains(t, formatStats(0, 0, 1), "kept in place")
}

func TestCompletion(t *testing.T) {
	for _, shell := range completionShells() {
		t.Run(shell, func(t *testing.T) {
			c, _ := testCLI(afero.NewMemMapFs())
			root := c.RootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			require.NoError(t, root.Execute())
			assert.Contains(t, out.String(), appName)
		})
	}

	c, _ := testCLI(afero.NewMemMapFs())
	assert.Error(t, execute(t, c, "completion", "tcsh"))
}

func TestPrintPlan(t *testing.T) {
	var buf bytes.Buffer
	stdout = &buf
	defer func() { stdout = os.Stdout }()

	plan := &pipeline.Plan{
		Where: "/app",
		Actions: []dedupe.Action{
			{Kind: dedupe.ActionMove, ID: "b@1.0.0", From: "/app/node_modules/a/node_modules/b", To: "/app/node_modules/b"},
			{Kind: dedupe.ActionRemove, ID: "b@1.0.0", From: "/app/node_modules/c/node_modules/b"},
		},
		Anomalies: []dedupe.Anomaly{{Path: "/app/node_modules/x", Reason: "cycle"}},
	}

	printPlan(&pipeline.Result{Plan: plan}, "/app/node_modules/.stacktrim-plan.json")
	out := buf.String()
	assert.Contains(t, out, "Deduplicated")
	assert.Contains(t, out, "move")
	assert.Contains(t, out, "/app/node_modules/c/node_modules/b")
	assert.Contains(t, out, "skipped /app/node_modules/x: cycle")
	assert.Contains(t, out, "Dry run")
	assert.Contains(t, out, "stacktrim dedupe -C /app")

	buf.Reset()
	printPlan(&pipeline.Result{Plan: &pipeline.Plan{Where: "/app"}, Applied: true}, "/app/node_modules/.stacktrim-plan.json")
	out = buf.String()
	assert.Contains(t, out, "No duplicates found")
	assert.Contains(t, out, ".stacktrim-plan.json")
	assert.NotContains(t, out, "Dry run")
}

func TestVerboseFlag(t *testing.T) {
	fs := testProject(t, nil)
	var logs bytes.Buffer
	c, _ := testCLI(fs)
	c.Logger = log.New(&logs)

	require.NoError(t, execute(t, c, "dedupe", "-C", "/app", "--json"))
	require.NoError(t, execute(t, c, "find-dupes", "-C", "/app", "--json"))
	assert.NotContains(t, logs.String(), "previous plan")
	assert.Equal(t, LogInfo, c.Logger.GetLevel())

	require.NoError(t, execute(t, c, "find-dupes", "-C", "/app", "--json", "-v"))
	assert.Contains(t, logs.String(), "previous plan")
	assert.Contains(t, logs.String(), "moves=1")
	assert.Equal(t, LogDebug, c.Logger.GetLevel())
}

func TestUnreadablePreviousPlan(t *testing.T) {
	fs := testProject(t, map[string]string{
		"/app/node_modules/" + pipeline.PlanFile: "{",
	})
	var logs bytes.Buffer
	c, out := testCLI(fs)
	c.Logger = log.New(&logs)

	require.NoError(t, execute(t, c, "find-dupes", "-C", "/app", "--json"))
	assert.Contains(t, logs.String(), "ignoring previous plan")
	assert.Equal(t, 2, len(decodePlan(t, out).Actions))
}

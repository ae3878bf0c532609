package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"crossref/internal/core/config"
	"crossref/internal/core/ports"
	"crossref/internal/engine/model"
	"crossref/internal/shared/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseSource = "package demo;\n\npublic class Base {\n    public void run() {}\n}\n"

const childSource = "package demo;\n\npublic class Child extends Base {\n    void go() { run(); }\n}\n"

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, util.WriteStringWithDirs(filepath.Join(root, "src", "demo", "Base.java"), baseSource, 0o644))
	require.NoError(t, util.WriteStringWithDirs(filepath.Join(root, "src", "demo", "Child.java"), childSource, 0o644))
	return root
}

// execute runs the root command with fresh flag values and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, rootFlag, logLevel, verbose = "", "", "", false
	indexJSON = false
	refsPath, refsClass, refsMember, refsRel, refsJSON, refsTSV = "", "", "", "", false, false
	watchMetricsAddr = ""

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	})
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRootCmd_Definition(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"index", "refs", "watch", "version"} {
		assert.Contains(t, names, want)
	}

	flags := rootCmd.PersistentFlags()
	require.NotNil(t, flags.Lookup("config"))
	assert.Equal(t, "c", flags.Lookup("config").Shorthand)
	require.NotNil(t, flags.Lookup("root"))
	assert.Equal(t, "r", flags.Lookup("root").Shorthand)
	require.NotNil(t, flags.Lookup("log-level"))
}

func TestRefsCmd_Definition(t *testing.T) {
	flags := refsCmd.Flags()

	path := flags.Lookup("path")
	require.NotNil(t, path)
	assert.Equal(t, "p", path.Shorthand)

	class := flags.Lookup("class")
	require.NotNil(t, class)
	assert.Equal(t, "C", class.Shorthand)

	member := flags.Lookup("member")
	require.NotNil(t, member)
	assert.Equal(t, "m", member.Shorthand)

	jsonFlag := flags.Lookup("json")
	require.NotNil(t, jsonFlag)
	assert.Equal(t, "false", jsonFlag.DefValue)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "crossref "+Version+"\n", out)
}

func TestIndexCmd(t *testing.T) {
	root := writeProject(t)

	t.Run("json summary", func(t *testing.T) {
		out, err := execute(t, "index", root, "--json")
		require.NoError(t, err)

		var res ports.IndexResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, 2, res.JavaFiles)
		assert.Zero(t, res.HTMLFiles)
		assert.Zero(t, res.Skipped)
		assert.NotEmpty(t, res.Statistics)
	})

	t.Run("text summary", func(t *testing.T) {
		out, err := execute(t, "--root", root, "index")
		require.NoError(t, err)
		assert.Contains(t, out, "Indexed "+root)
		assert.Contains(t, out, "java files: 2")
	})

	t.Run("missing config", func(t *testing.T) {
		_, err := execute(t, "index", root, "--config", filepath.Join(root, "absent.toml"))
		assert.Error(t, err)
	})
}

func TestRefsCmd(t *testing.T) {
	root := writeProject(t)

	out, err := execute(t, "refs", "--root", root,
		"-p", "src/demo/Base.java", "-C", "Base", "--rel", "is-extended-by", "--json")
	require.NoError(t, err)

	var refs []ports.Reference
	require.NoError(t, json.Unmarshal([]byte(out), &refs))
	require.Len(t, refs, 1)
	assert.Equal(t, model.IsExtendedBy, refs[0].Relationship)
	assert.Equal(t, "src/demo/Child.java", refs[0].Path)
	assert.Equal(t, 3, refs[0].Line)
	assert.Equal(t, "Child", refs[0].Enclosing)

	out, err = execute(t, "refs", "--root", root,
		"-p", "src/demo/Base.java", "-C", "Base", "-m", "run", "--rel", "is-invoked-by-unqualified")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "src/demo/Child.java:4:"), lines[0])
	assert.Contains(t, lines[0], "Child.go")

	_, err = execute(t, "refs", "--root", root, "-p", "src/demo/Base.java", "-C", "Base", "--rel", "is-loved-by")
	assert.ErrorContains(t, err, "unknown relationship")
}

func TestParseRelationship(t *testing.T) {
	rel, err := parseRelationship("")
	require.NoError(t, err)
	assert.Empty(t, rel)

	rel, err = parseRelationship("IS-READ-BY")
	require.NoError(t, err)
	assert.Equal(t, model.IsReadBy, rel)

	_, err = parseRelationship("nope")
	assert.Error(t, err)
}

func TestConfigureLogging(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, configureLogging(&buf, config.Log{Level: "warn", Format: "json"}))
	t.Cleanup(func() {
		slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	})

	slog.Info("hidden")
	slog.Warn("shown", "key", "value")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)

	applyReload(&config.Config{Log: config.Log{Level: "debug"}})
	slog.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")

	assert.Error(t, configureLogging(&buf, config.Log{Level: "loud"}))
}

func TestWriteReferences(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReferences(&buf, nil))
	assert.Equal(t, "no references\n", buf.String())

	buf.Reset()
	require.NoError(t, writeReferences(&buf, []ports.Reference{
		{Relationship: model.IsReadBy, Path: "A.java", Line: 2, Column: 5, Enclosing: "A.get"},
		{Relationship: model.IsReferencedBy, Path: "index.html", Line: 1, Column: 14},
	}))
	assert.Equal(t, "A.java:2:5\tis-read-by\tA.get\nindex.html:1:14\tis-referenced-by\n", buf.String())
}

func TestWriteReferencesTSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReferencesTSV(&buf, []ports.Reference{
		{Relationship: model.IsWrittenBy, Path: "A.java", Line: 3, Column: 9, Offset: 40, Length: 4, Enclosing: "A.set"},
	}))
	assert.Equal(t, "Relationship\tFile\tLine\tColumn\tOffset\tLength\tEnclosing\n"+
		"is-written-by\tA.java\t3\t9\t40\t4\tA.set\n", buf.String())
}

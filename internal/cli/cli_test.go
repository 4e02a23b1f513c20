package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LDY1998/prusti-dev/internal/desugar"
	"github.com/LDY1998/prusti-dev/internal/ir"
)

const validSpec = `package spec

function: max: {
	params: [{name: "a", type: "int"}, {name: "b", type: "int"}]
	returns: "int"
	requires: ["a >= 0", "b >= 0"]
	ensures: ["result >= a", "result >= b"]
}

predicate: positive: {
	params: [{name: "v", type: "int"}]
	body: "v > 0"
}

function: use_positive: {
	params: [{name: "x", type: "int"}]
	requires: ["positive(x)"]
}
`

// writeSpecs creates a temp specs directory with the given files.
func writeSpecs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// execute runs the root command with args and returns stdout, stderr, err.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootRejectsBadFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "validate", ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestValidateCommand(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"spec.cue": validSpec})

	out, _, err := execute(t, "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Validated 3 item(s)")
	assert.Contains(t, out, "2 function(s), 1 predicate(s)")
}

func TestValidateCommandJSON(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"spec.cue": validSpec})

	out, _, err := execute(t, "--format", "json", "validate", dir)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidateMissingDirectory(t *testing.T) {
	out, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, _, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNoFiles)
}

func TestValidateSyntaxErrorFails(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"spec.cue": `package spec

function: bad: {
	requires: [{forall: {vars: [], body: "true"}}]
}
`})

	out, _, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, desugar.ErrEmptyBinderList)
}

func TestValidateTypeErrorFails(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"spec.cue": `package spec

function: bad: {
	params: [{name: "x", type: "int"}]
	requires: ["x + 1"]
}
`})

	out, _, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, desugar.ErrNotBoolean)
}

func TestDesugarCommand(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"spec.cue": validSpec})

	out, _, err := execute(t, "desugar", "--normalize", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Desugared 3 item(s)")
	assert.Contains(t, out, "procedure function.max")
	assert.Contains(t, out, "procedure function.use_positive")
	assert.Contains(t, out, "procedure predicate.positive")
	assert.Contains(t, out, "[spec-1]")
	assert.Contains(t, out, "`positive(x)`")
}

func TestDesugarCommandOutputFile(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"spec.cue": validSpec})
	outFile := filepath.Join(t.TempDir(), "records.jsonl")

	_, _, err := execute(t, "desugar", "--output", outFile, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	assert.Len(t, lines, 3)
	for _, line := range lines {
		var obj map[string]any
		require.NoError(t, json.Unmarshal(line, &obj))
		assert.Contains(t, obj, "item")
	}
}

func TestDesugarCommandJSON(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"spec.cue": validSpec})

	out, _, err := execute(t, "--format", "json", "desugar", dir)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	summaries, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, summaries, 3)
}

func TestExportThenShow(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"spec.cue": validSpec})
	dbPath := filepath.Join(t.TempDir(), "specs.db")

	out, _, err := execute(t, "export", "--db", dbPath, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Exported 3 record(s)")

	out, _, err = execute(t, "show", "--db", dbPath, "--normalize")
	require.NoError(t, err)
	assert.Contains(t, out, "procedure function.max")
	assert.Contains(t, out, "procedure predicate.positive")

	out, _, err = execute(t, "show", "--db", dbPath, "function.max")
	require.NoError(t, err)
	assert.Contains(t, out, "procedure function.max")
	assert.NotContains(t, out, "predicate.positive")
}

func TestShowMissingRecord(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "specs.db")
	dir := writeSpecs(t, map[string]string{"spec.cue": validSpec})
	_, _, err := execute(t, "export", "--db", dbPath, dir)
	require.NoError(t, err)

	out, _, err := execute(t, "show", "--db", dbPath, "function.ghost")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "no record for function.ghost")
}

func TestRunPipelineDeterministicWithFixedGenerator(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"spec.cue": validSpec})

	render := func() string {
		pipe, err := RunPipeline(dir, ir.NewFixedGenerator(
			"00000000-0000-7000-8000-000000000001",
			"00000000-0000-7000-8000-000000000002",
			"00000000-0000-7000-8000-000000000003",
			"00000000-0000-7000-8000-000000000004",
		))
		require.NoError(t, err)
		return pipe.Registry.Render()
	}

	assert.Equal(t, render(), render())
}

func TestRunPipelineAttachesItems(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"spec.cue": validSpec})

	pipe, err := RunPipeline(dir, ir.UUIDGenerator{})
	require.NoError(t, err)
	require.Len(t, pipe.Rewritten, 3)

	for _, item := range pipe.Rewritten {
		ids, ok := pipe.Table.SpecIDs(item.Ref)
		assert.True(t, ok)
		if item.Kind == ir.ItemPredicate {
			require.NotNil(t, item.Stub)
			_, stubErr := item.Stub(nil)
			assert.Error(t, stubErr)
		}
		assert.NotEmpty(t, ids)
	}
}

func TestLoadSpecsCountsFiles(t *testing.T) {
	dir := writeSpecs(t, map[string]string{
		"a.cue": "package spec\n\nfunction: f: {requires: [\"true\"]}\n",
		"b.cue": "package spec\n\nfunction: g: {requires: [\"true\"]}\n",
	})

	res, err := LoadSpecs(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FileCount)
	assert.Len(t, res.Items, 2)
}

package main

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gate4ai/leadsuite/runner/scenario"
	"github.com/gate4ai/leadsuite/shared/fixture"
	"github.com/gate4ai/leadsuite/stubcrm"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFixtureGenerateIsReproducible(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")

	_, err := execute(t, "fixture", "generate", "--rows", "4", "--seed", "21", "--out", a)
	require.NoError(t, err)
	_, err = execute(t, "fixture", "generate", "--rows", "4", "--seed", "21", "--out", b)
	require.NoError(t, err)

	first, err := os.ReadFile(a)
	require.NoError(t, err)
	second, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	table, err := fixture.Load(a)
	require.NoError(t, err)
	assert.Equal(t, scenario.Columns, table.Headers())
	require.Equal(t, 4, table.Len())
	for _, row := range table.Rows() {
		assert.Contains(t, stubcrm.Picklists["salutation"], row.Value(scenario.ColSalutation))
		assert.Contains(t, stubcrm.Picklists["industry"], row.Value(scenario.ColIndustry))
		assert.Contains(t, stubcrm.Picklists["leadStatus"], row.Value(scenario.ColLeadStatus))
		assert.Len(t, row.Value(scenario.ColPostalCode), 6)
	}
}

func TestFixtureGenerateToStdout(t *testing.T) {
	out, err := execute(t, "fixture", "generate", "--rows", "2", "--seed", "3")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(scenario.Columns, ","), lines[0])
}

func TestFixtureGenerateRejectsZeroRows(t *testing.T) {
	_, err := execute(t, "fixture", "generate", "--rows", "0")
	assert.ErrorContains(t, err, "--rows must be at least 1")
}

func TestFixtureInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte("Salutation,Lead Source,Industry,Rating\nMr.,Web,Banking,Hot\n,,,\n"), 0644))

	out, err := execute(t, "fixture", "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Lead Creation [1] | Mr. (Web, Banking, Hot) [Row 0]")
	assert.Contains(t, out, "Lead Creation [2] | NoSalutation (NoLeadSource, NoIndustry, NoRating) [Row 1]")
	assert.Contains(t, out, "Lead Source")
}

func TestFixtureInspectMissingFile(t *testing.T) {
	_, err := execute(t, "fixture", "inspect", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

type closeRecorder struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.closeErr
}

func TestWriteAndCloseReportsCloseError(t *testing.T) {
	write := func(w io.Writer) error {
		_, err := io.WriteString(w, "Salutation\nMr.\n")
		return err
	}

	ok := &closeRecorder{}
	require.NoError(t, writeAndClose(ok, write))
	assert.True(t, ok.closed)
	assert.Equal(t, "Salutation\nMr.\n", ok.String())

	diskFull := errors.New("no space left on device")
	failing := &closeRecorder{closeErr: diskFull}
	assert.Same(t, diskFull, writeAndClose(failing, write))

	writeErr := errors.New("short write")
	both := &closeRecorder{closeErr: diskFull}
	assert.Same(t, writeErr, writeAndClose(both, func(io.Writer) error { return writeErr }))
	assert.True(t, both.closed)
}

func TestCellSafe(t *testing.T) {
	assert.Equal(t, "Korea Republic of", cellSafe(" Korea, Republic of "))
	assert.Equal(t, "a b", cellSafe("a\r\n b"))
}

func TestPrintResults(t *testing.T) {
	results := []scenario.Result{
		{Case: scenario.Case{Name: "Lead Creation [1] | Mr. (Web, Banking, Hot) [Row 0]"}, Attempts: 1, Duration: 1500 * time.Millisecond},
		{Case: scenario.Case{Name: "Lead Creation [2] | Dr. (Web, Apparel, Warm) [Row 1]"}, Attempts: 2, Err: errors.New("spinner still present")},
	}
	var out bytes.Buffer
	require.NoError(t, printResults(&out, results, 1))
	text := out.String()
	assert.Contains(t, text, "RESULT")
	assert.Contains(t, text, "PASS")
	assert.Contains(t, text, "FAIL")
	assert.Contains(t, text, "spinner still present")
	assert.Contains(t, text, "1 passed, 1 failed")
}

func TestRunWithMissingConfigFile(t *testing.T) {
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

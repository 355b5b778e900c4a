package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/metrics"
	"github.com/simonhull/heron/pkg/output"
)

// fixture writes a project and a config whose store lives in the temp dir.
func fixture(t *testing.T) (projectDir, configFile string) {
	t.Helper()
	root := t.TempDir()
	projectDir = filepath.Join(root, "app")
	require.NoError(t, os.MkdirAll(projectDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "app.py"), []byte(
		"def run(expr):\n    # TODO: validate expr\n    return eval(expr)\n"), 0644))

	cfg := config.DefaultConfig()
	cfg.Project.ID = "app"
	cfg.Store.Path = filepath.Join(root, "metrics.db")
	cfg.Logging.Level = "silent"
	configFile = filepath.Join(root, config.DefaultFileName)
	require.NoError(t, config.Save(configFile, cfg))
	return projectDir, configFile
}

// execute runs the root command with fresh flag state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	scanOpts = scanFlags{}
	trendOpts, historyOpts, diffOpts = storeFlags{window: 30}, storeFlags{}, storeFlags{window: 30}
	prioritizeFormat, prioritizeBucket, prioritizeMinSeverity = "", "", ""
	initForce, initProject = false, ""
	verbose, configPath = false, ""

	output.SetOutput(io.Discard)
	t.Cleanup(func() { output.SetOutput(nil) })

	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetErr(&buf)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return buf.String(), err
}

func TestScan_JSON(t *testing.T) {
	dir, cfgFile := fixture(t)

	out, err := execute(t, "scan", dir, "--config", cfgFile, "--format", "json", "--categories", "security,tech_debt")
	require.NoError(t, err)

	rep, err := finding.ReadReport(bytes.NewReader([]byte(out)))
	require.NoError(t, err)
	require.Equal(t, 2, rep.Total)
	assert.Equal(t, "SEC-0001", rep.Findings[0].ID)
	assert.Equal(t, "Dynamic code evaluation", rep.Findings[0].Title)
	assert.Equal(t, 3, rep.Findings[0].Line)
	assert.Equal(t, "DEBT-0001", rep.Findings[1].ID)
	require.Len(t, rep.Analyzers, 2)
}

func TestScan_MinSeverityAndFailOn(t *testing.T) {
	dir, cfgFile := fixture(t)

	out, err := execute(t, "scan", dir, "--config", cfgFile, "--format", "json",
		"--categories", "security,tech_debt", "--min-severity", "medium", "--fail-on", "high")
	require.ErrorIs(t, err, ErrFailOnThreshold)

	rep, err := finding.ReadReport(bytes.NewReader([]byte(out)))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Total, "the TODO is filtered out")

	_, err = execute(t, "scan", dir, "--config", cfgFile, "--categories", "tech_debt", "--fail-on", "high")
	assert.NoError(t, err)
}

func TestScan_InvalidInput(t *testing.T) {
	dir, cfgFile := fixture(t)

	_, err := execute(t, "scan", dir, "--config", cfgFile, "--categories", "style")
	assert.ErrorIs(t, err, finding.ErrUnknownCategory)

	_, err = execute(t, "scan", dir, "--config", cfgFile, "--fail-on", "severe")
	assert.ErrorIs(t, err, finding.ErrUnknownSeverity)

	_, err = execute(t, "scan", filepath.Join(dir, "missing"), "--config", cfgFile)
	assert.Error(t, err)
}

func TestPrioritize_FromSavedReport(t *testing.T) {
	dir, cfgFile := fixture(t)
	reportFile := filepath.Join(t.TempDir(), "out", "report.json")

	_, err := execute(t, "scan", dir, "--config", cfgFile, "--format", "json",
		"--categories", "security,tech_debt", "--out", reportFile)
	require.NoError(t, err)

	out, err := execute(t, "prioritize", reportFile, "--config", cfgFile, "--format", "json")
	require.NoError(t, err)

	var ranked []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &ranked))
	require.Len(t, ranked, 2)
	assert.Equal(t, "SEC-0001", ranked[0]["id"])

	_, err = execute(t, "prioritize", reportFile, "--config", cfgFile, "--bucket", "someday")
	assert.Error(t, err)
}

func TestPrioritize_MalformedReport(t *testing.T) {
	_, cfgFile := fixture(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"findings": [{"id": ""}]}`), 0644))

	_, err := execute(t, "prioritize", bad, "--config", cfgFile)
	assert.ErrorContains(t, err, "malformed")
}

func TestRecordHistoryAndDiff(t *testing.T) {
	dir, cfgFile := fixture(t)

	_, err := execute(t, "scan", dir, "--config", cfgFile, "--categories", "security,tech_debt", "--record")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte(
		"def run(expr):\n    # TODO: validate expr\n    return int(expr)\n"), 0644))
	_, err = execute(t, "scan", dir, "--config", cfgFile, "--categories", "security,tech_debt", "--record")
	require.NoError(t, err)

	out, err := execute(t, "history", "--config", cfgFile, "--format", "json")
	require.NoError(t, err)
	var snapshots []metrics.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snapshots))
	require.Len(t, snapshots, 2)
	assert.Equal(t, 2, snapshots[0].Total)
	assert.Equal(t, 1, snapshots[1].Total)

	out, err = execute(t, "diff", "--config", cfgFile, "--format", "json")
	require.NoError(t, err)
	var d metrics.Diff
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	require.Len(t, d.Resolved, 1)
	assert.Equal(t, "SEC-0001", d.Resolved[0].ID)
	assert.Empty(t, d.New)

	out, err = execute(t, "trend", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Change:     -1 findings")
	assert.Contains(t, out, "RESOLVED (1)")
}

func TestDiff_NoSnapshots(t *testing.T) {
	_, cfgFile := fixture(t)

	_, err := execute(t, "diff", "--config", cfgFile)
	assert.ErrorContains(t, err, "no snapshots")
}

func TestInit(t *testing.T) {
	_, cfgFile := fixture(t)
	dir := t.TempDir()

	_, err := execute(t, "init", dir, "--config", cfgFile, "--project", "svc")
	require.NoError(t, err)

	loaded, err := config.Load(filepath.Join(dir, config.DefaultFileName))
	require.NoError(t, err)
	assert.Equal(t, "svc", loaded.Project.ID)
	assert.Equal(t, config.DefaultConfig().Thresholds, loaded.Thresholds)

	_, err = execute(t, "init", dir, "--config", cfgFile)
	assert.ErrorContains(t, err, "already exists")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Heron v")
}

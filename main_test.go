package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/nconklindev/tabjson/internal/converter"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRun_DefaultJobs(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, "ny_data.csv", "submission_date,state,new_cases\n01/22/2021,NY,042\n")
	writeFile(t, "nj_data.csv", "submission_date,state,new_cases\n01/22/2021,NJ,7\n01/23/2021,NJ,8\n")
	writeFile(t, "pa_data.csv", "submission_date,state,new_cases\n")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), runOptions{}, &stdout, &stderr)
	require.NoError(t, err)

	ny, err := os.ReadFile(filepath.Join(dir, "ny_data.json"))
	require.NoError(t, err)
	assert.Equal(t, "042", gjson.GetBytes(ny, "0.new_cases").String())

	nj, err := os.ReadFile(filepath.Join(dir, "nj_data.json"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.GetBytes(nj, "#").Int())

	pa, err := os.ReadFile(filepath.Join(dir, "pa_data.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(pa))

	assert.Contains(t, stdout.String(), "3 converted")
	assert.Contains(t, stderr.String(), "batch: finished")
}

func TestRun_FailureNamesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), "x\n1\n")
	cfgPath := filepath.Join(dir, "tabjson.yaml")
	writeFile(t, cfgPath, "base_dir: "+dir+"\n"+
		"log_level: error\n"+
		"jobs:\n"+
		"  - source: missing.csv\n"+
		"    destination: missing.json\n"+
		"  - source: a.csv\n"+
		"    destination: a.json\n")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), runOptions{configPath: cfgPath}, &stdout, &stderr)

	require.ErrorIs(t, err, converter.ErrSourceNotFound)
	assert.Contains(t, err.Error(), "missing.csv")
	assert.FileExists(t, filepath.Join(dir, "a.json"))
	assert.NoFileExists(t, filepath.Join(dir, "missing.json"))
}

func TestRun_Interrupted(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, "ny_data.csv", "state\nNY\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	err := run(ctx, runOptions{}, &stdout, &stderr)

	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "interrupted after 0 of 3 jobs")
	assert.Contains(t, stdout.String(), "3 skipped")
	assert.NoFileExists(t, filepath.Join(dir, "ny_data.json"))
}

func TestRootCmd(t *testing.T) {
	t.Run("rejects arguments", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"extra.csv"})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		assert.Error(t, cmd.Execute())
	})

	t.Run("prints version", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--version"})
		cmd.SetOut(&out)
		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), "tabjson dev")
	})
}

// chdir changes the working directory for the duration of the test, like
// testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

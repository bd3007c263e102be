package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&app{})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", dbPath, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestCLI_ReconcileRecordAndMemory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AIDAT_CONFIG", filepath.Join(dir, "config.toml"))
	dbPath := filepath.Join(dir, "aidat.db")

	statement := writeFile(t, dir, "statement.csv", "date,description,amount\n2024-12-01,Ahmet Yılmaz Aralık Aidat,\"500,00\"\n2024-12-02,EFT MARKET,120\n")
	roster := writeFile(t, dir, "roster.csv", "id,student_name,student_surname,parent_name,parent_surname,status\na1,Ahmet,Yılmaz,,,aktif\n")

	out, err := runCLI(t, dbPath, "reconcile", "--statement", statement, "--roster", roster, "--record")
	require.NoError(t, err)
	require.Contains(t, out, "recorded 1 payments")
	require.Contains(t, out, "computed")

	out, err = runCLI(t, dbPath, "reconcile", "--statement", statement, "--roster", roster, "--record")
	require.NoError(t, err)
	require.Contains(t, out, "recorded 0 payments")
	require.Contains(t, out, "refused 1 duplicates:")
	require.Contains(t, out, "historical")

	out, err = runCLI(t, dbPath, "memory", "list")
	require.NoError(t, err)
	require.Contains(t, out, "1 remembered matches")

	out, err = runCLI(t, dbPath, "dedup", "check", "--statement", statement)
	require.NoError(t, err)
	require.Contains(t, out, "2 lines: 1 unique, 1 duplicates, 0 to confirm")

	_, err = runCLI(t, dbPath, "reset")
	require.Error(t, err)

	out, err = runCLI(t, dbPath, "reset", "--yes")
	require.NoError(t, err)
	require.Contains(t, out, "all data removed")

	out, err = runCLI(t, dbPath, "dedup", "stats")
	require.NoError(t, err)
	require.Contains(t, out, "payments 0")
}

func TestCLI_ReconcileRequiresInputs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AIDAT_CONFIG", filepath.Join(dir, "config.toml"))

	_, err := runCLI(t, filepath.Join(dir, "aidat.db"), "reconcile")
	require.ErrorContains(t, err, "--statement and --roster are required")
}

func TestScoreColor(t *testing.T) {
	t.Parallel()

	require.Equal(t, colorSuccess, scoreColor(95, 70, 85))
	require.Equal(t, colorSuccess, scoreColor(85, 70, 85))
	require.Equal(t, colorWarning, scoreColor(75, 70, 85))
	require.Equal(t, colorError, scoreColor(40, 70, 85))
}

func TestCLI_DemoThenReconcile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AIDAT_CONFIG", filepath.Join(dir, "config.toml"))
	dbPath := filepath.Join(dir, "aidat.db")

	out, err := runCLI(t, dbPath, "demo", "--out", dir, "--athletes", "10", "--rows", "25")
	require.NoError(t, err)
	require.Contains(t, out, "wrote 10 athletes and 25 statement lines")
	_, err = os.Stat(dbPath)
	require.True(t, os.IsNotExist(err))

	out, err = runCLI(t, dbPath, "reconcile", "--statement", filepath.Join(dir, "statement.csv"), "--roster", filepath.Join(dir, "roster.csv"))
	require.NoError(t, err)
	require.Contains(t, out, "Reconciled 25 statement lines")
}

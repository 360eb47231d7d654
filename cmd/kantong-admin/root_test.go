package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "kantong.db")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", dbPath)
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	return dbPath
}

func TestMigrateUpAndVersion(t *testing.T) {
	setEnv(t)

	out, err := execute(t, "migrate", "up")
	if err != nil {
		t.Fatalf("migrate up: %v\n%s", err, out)
	}
	if !strings.Contains(out, "schema at version 2") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = execute(t, "migrate", "version")
	if err != nil {
		t.Fatalf("migrate version: %v", err)
	}
	if !strings.Contains(out, "version 2 (clean)") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestStreakRecomputeRequiresUser(t *testing.T) {
	setEnv(t)
	if _, err := execute(t, "streak-recompute"); err == nil {
		t.Fatal("expected error without --user")
	}
}

func TestStreakRecomputeUnknownUser(t *testing.T) {
	setEnv(t)
	out, err := execute(t, "streak-recompute", "--user", "u1")
	if err != nil {
		t.Fatalf("recompute: %v\n%s", err, out)
	}
	if !strings.Contains(out, "u1 current=0 longest=0") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestExportSummaryWithoutBudget(t *testing.T) {
	setEnv(t)
	_, err := execute(t, "export-summary", "--user", "u1", "--year", "2025", "--month", "1")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found, got %v", err)
	}
}

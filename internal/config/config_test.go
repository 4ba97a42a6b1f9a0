package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, sources, err := Load(dir, "", Config{}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d, want 4", cfg.WorkerCount)
	}

	if cfg.SweepInterval != "5s" {
		t.Errorf("SweepInterval = %q, want 5s", cfg.SweepInterval)
	}

	if sources.Project != "" || sources.Global != "" {
		t.Errorf("expected no sources loaded, got %+v", sources)
	}
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `{"worker_count": 8}`)

	cfg, sources, err := Load(dir, "", Config{}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WorkerCount != 8 {
		t.Errorf("WorkerCount = %d, want 8", cfg.WorkerCount)
	}

	if sources.Project == "" {
		t.Errorf("expected project source to be recorded")
	}
}

func TestLoad_SourcesReflectExplicitConfigPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `{"worker_count": 8}`)

	explicit := filepath.Join(dir, "explicit.json")
	writeFile(t, explicit, `{"worker_count": 12}`)

	_, sources, err := Load(dir, explicit, Config{}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Sources{Project: explicit}
	if diff := cmp.Diff(want, sources); diff != "" {
		t.Errorf("Sources mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_JSONCComments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "{\n  // worker pool size\n  \"worker_count\": 6,\n}")

	cfg, _, err := Load(dir, "", Config{}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WorkerCount != 6 {
		t.Errorf("WorkerCount = %d, want 6", cfg.WorkerCount)
	}
}

func TestLoad_CLIOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `{"worker_count": 8}`)

	cfg, _, err := Load(dir, "", Config{WorkerCount: 16}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WorkerCount != 16 {
		t.Errorf("WorkerCount = %d, want 16", cfg.WorkerCount)
	}
}

func TestLoad_ExplicitConfigNotFound(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Load(dir, "missing.json", Config{}, nil)
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoad_InvalidSweepInterval(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `{"sweep_interval": "not-a-duration"}`)

	_, _, err := Load(dir, "", Config{}, nil)
	if err == nil {
		t.Fatal("expected error for invalid sweep_interval")
	}
}

func TestSweepIntervalDuration_FallsBackOnEmpty(t *testing.T) {
	cfg := Config{}
	if got, want := cfg.SweepIntervalDuration().String(), "5s"; got != want {
		t.Errorf("SweepIntervalDuration = %s, want %s", got, want)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

// chdir changes into dir for the duration of the test. It mirrors
// testing.T.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir()) // avoid picking up a developer's config.yaml

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir == "" {
		t.Error("expected a default data dir")
	}
	if cfg.DBPath != filepath.Join(cfg.DataDir, "campusdash.db") {
		t.Errorf("expected db path derived from data dir, got %q", cfg.DBPath)
	}
	if cfg.LegacyFilename != "campusdash-db.json" {
		t.Errorf("unexpected legacy filename %q", cfg.LegacyFilename)
	}
	if cfg.OverflowPolicy != "clamp" {
		t.Errorf("expected default policy clamp, got %q", cfg.OverflowPolicy)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CAMPUSDASH_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("CAMPUSDASH_BILLING_OVERFLOW_POLICY", "rollover")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath != "/tmp/override.db" {
		t.Errorf("expected env override for db path, got %q", cfg.DBPath)
	}
	if cfg.OverflowPolicy != "rollover" {
		t.Errorf("expected env override for policy, got %q", cfg.OverflowPolicy)
	}
}

func TestLegacySearchDirs(t *testing.T) {
	cfg := &Config{DataDir: "/data/campusdash"}
	dirs := cfg.LegacySearchDirs()
	if len(dirs) < 1 || dirs[0] != "/data/campusdash" {
		t.Errorf("expected the data dir first, got %v", dirs)
	}
}

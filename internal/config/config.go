// Package config loads application settings from an optional config.yaml and
// CAMPUSDASH_* environment variables, with sensible defaults for a local
// single-user install.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the CLI wires into the core components.
type Config struct {
	// DataDir is the persistent app-data directory; it holds the database and
	// is the preferred location of the legacy JSON file.
	DataDir string
	// DBPath is the SQLite database file.
	DBPath string
	// LegacyFilename is the legacy flat-file database name searched for in
	// DataDir and the working directory.
	LegacyFilename string

	// OverflowPolicy is the billing calendar-overflow policy: "clamp" or
	// "rollover".
	OverflowPolicy string

	// Backup settings for cloud snapshots.
	BackupBucket      string
	BackupPrefix      string
	BackupCredentials string
}

// Load reads configuration. A missing config file is fine; defaults and
// environment variables still apply.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".campusdash"))
	}
	v.SetEnvPrefix("campusdash")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data.dir", defaultDataDir())
	v.SetDefault("database.path", "")
	v.SetDefault("legacy.filename", "campusdash-db.json")
	v.SetDefault("billing.overflow_policy", "clamp")
	v.SetDefault("backup.bucket", "")
	v.SetDefault("backup.prefix", "backups")
	v.SetDefault("backup.credentials_file", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{
		DataDir:           v.GetString("data.dir"),
		DBPath:            v.GetString("database.path"),
		LegacyFilename:    v.GetString("legacy.filename"),
		OverflowPolicy:    v.GetString("billing.overflow_policy"),
		BackupBucket:      v.GetString("backup.bucket"),
		BackupPrefix:      v.GetString("backup.prefix"),
		BackupCredentials: v.GetString("backup.credentials_file"),
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "campusdash.db")
	}
	return cfg, nil
}

// LegacySearchDirs returns the candidate directories for the legacy JSON
// file: the app-data directory first, then the working directory.
func (c *Config) LegacySearchDirs() []string {
	dirs := []string{c.DataDir}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	return dirs
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "campusdash")
	}
	return "."
}

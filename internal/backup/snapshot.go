package backup

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"
)

// SnapshotName builds the object name for a backup taken at t, e.g.
// "backups/campusdash-20260901-150405.db".
func SnapshotName(prefix string, t time.Time) string {
	name := fmt.Sprintf("campusdash-%s.db", t.UTC().Format("20060102-150405"))
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Snapshot uploads the database file and returns the object name it was
// stored under. The store should be closed (or at least checkpointed) first
// so the file on disk is consistent.
func Snapshot(ctx context.Context, svc Service, prefix, dbPath string, t time.Time) (string, error) {
	object := SnapshotName(prefix, t)
	if err := svc.Upload(ctx, object, dbPath); err != nil {
		return "", fmt.Errorf("snapshot %s: %w", object, err)
	}
	return object, nil
}

// Restore downloads a snapshot and writes it over the database file. The
// previous file, if any, is kept next to it with a .bak suffix.
func Restore(ctx context.Context, svc Service, objectName, dbPath string) error {
	data, err := svc.Download(ctx, objectName)
	if err != nil {
		return fmt.Errorf("restore %s: %w", objectName, err)
	}
	if _, err := os.Stat(dbPath); err == nil {
		if err := os.Rename(dbPath, dbPath+".bak"); err != nil {
			return fmt.Errorf("restore %s: keep previous db: %w", objectName, err)
		}
	}
	if err := os.WriteFile(dbPath, data, 0o644); err != nil {
		return fmt.Errorf("restore %s: write db: %w", objectName, err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// CheckpointManager keeps point-in-time copies of the ledger database next
// to it, in a checkpoints directory.
type CheckpointManager struct {
	db             *sql.DB
	now            func() time.Time
	dbPath         string
	checkpointsDir string
	maxAuto        int
}

// CheckpointInfo describes a stored checkpoint.
type CheckpointInfo struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion uint           `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// Checkpoint errors.
var (
	ErrCheckpointNotFound    = errors.New("checkpoint not found")
	ErrCheckpointCorrupted   = errors.New("checkpoint integrity check failed")
	ErrCheckpointExists      = errors.New("checkpoint already exists")
	ErrCheckpointUnsupported = errors.New("checkpoints require a file-backed database")
	ErrInvalidCheckpointTag  = errors.New("invalid checkpoint tag")
)

// DefaultMaxAutoCheckpoints is how many automatic checkpoints are retained.
const DefaultMaxAutoCheckpoints = 5

// Checkpoints returns a manager for this store's database.
func (s *SQLiteStorage) Checkpoints() (*CheckpointManager, error) {
	if s.dbPath == ":memory:" {
		return nil, ErrCheckpointUnsupported
	}

	absPath, err := filepath.Abs(s.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	checkpointsDir := filepath.Join(filepath.Dir(absPath), "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &CheckpointManager{
		db:             s.db,
		now:            time.Now,
		dbPath:         absPath,
		checkpointsDir: checkpointsDir,
		maxAuto:        DefaultMaxAutoCheckpoints,
	}, nil
}

// Dir returns the directory checkpoints are written to.
func (cm *CheckpointManager) Dir() string {
	return cm.checkpointsDir
}

// Create writes a consistent copy of the database under tag. An empty tag
// is generated from the current time.
func (cm *CheckpointManager) Create(ctx context.Context, tag, description string) (*CheckpointInfo, error) {
	return cm.create(ctx, tag, description, false)
}

// AutoCheckpoint creates a checkpoint ahead of a destructive operation and
// prunes automatic checkpoints beyond the retention count. Pruning failures
// are logged.
func (cm *CheckpointManager) AutoCheckpoint(ctx context.Context, operation string) (*CheckpointInfo, error) {
	tag := fmt.Sprintf("auto-%s-%s", operation, cm.now().UTC().Format("20060102-150405.000"))
	info, err := cm.create(ctx, tag, fmt.Sprintf("Automatic checkpoint before %s", operation), true)
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-checkpoint: %w", err)
	}

	if err := cm.cleanupOldAutoCheckpoints(ctx); err != nil {
		slog.Warn("failed to clean up old auto-checkpoints", "error", err)
	}
	return info, nil
}

func (cm *CheckpointManager) create(ctx context.Context, tag, description string, auto bool) (*CheckpointInfo, error) {
	if tag == "" {
		tag = "checkpoint-" + cm.now().UTC().Format("20060102-150405")
	}
	if err := validateCheckpointTag(tag); err != nil {
		return nil, err
	}

	checkpointPath := cm.dataPath(tag)
	if _, err := os.Stat(checkpointPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrCheckpointExists, tag)
	}

	rowCounts, err := cm.collectRowCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect row counts: %w", err)
	}

	var schemaVersion uint
	if err := cm.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&schemaVersion); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	if err := cm.backupDatabase(ctx, checkpointPath); err != nil {
		return nil, fmt.Errorf("failed to backup database: %w", err)
	}

	if err := verifyCheckpointIntegrity(checkpointPath); err != nil {
		if rmErr := os.Remove(checkpointPath); rmErr != nil {
			slog.Error("failed to remove corrupted checkpoint", "error", rmErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrCheckpointCorrupted, err)
	}

	stat, err := os.Stat(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
	}

	info := &CheckpointInfo{
		ID:            tag,
		CreatedAt:     cm.now().UTC(),
		Description:   description,
		FileSize:      stat.Size(),
		RowCounts:     rowCounts,
		SchemaVersion: schemaVersion,
		IsAuto:        auto,
	}

	if err := saveMetadata(cm.metaPath(tag), info); err != nil {
		if rmErr := os.Remove(checkpointPath); rmErr != nil {
			slog.Error("failed to remove checkpoint file after metadata save failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save metadata: %w", err)
	}

	slog.Info("created checkpoint", "id", tag, "size", info.FileSize, "auto", auto)
	return info, nil
}

// List returns all checkpoints, newest first. Unreadable metadata files are
// skipped.
func (cm *CheckpointManager) List(_ context.Context) ([]CheckpointInfo, error) {
	entries, err := os.ReadDir(cm.checkpointsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	checkpoints := make([]CheckpointInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}

		info, err := loadMetadata(filepath.Join(cm.checkpointsDir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable checkpoint metadata", "file", entry.Name(), "error", err)
			continue
		}
		checkpoints = append(checkpoints, *info)
	}

	sort.SliceStable(checkpoints, func(i, j int) bool {
		return checkpoints[i].CreatedAt.After(checkpoints[j].CreatedAt)
	})
	return checkpoints, nil
}

// Delete removes a checkpoint and its metadata.
func (cm *CheckpointManager) Delete(_ context.Context, tag string) error {
	if err := validateCheckpointTag(tag); err != nil {
		return err
	}

	checkpointPath := cm.dataPath(tag)
	if _, err := os.Stat(checkpointPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrCheckpointNotFound, tag)
		}
		return fmt.Errorf("failed to access checkpoint: %w", err)
	}

	if err := os.Remove(checkpointPath); err != nil {
		return fmt.Errorf("failed to remove checkpoint file: %w", err)
	}
	if err := os.Remove(cm.metaPath(tag)); err != nil {
		slog.Debug("failed to remove metadata file", "error", err, "id", tag)
	}
	return nil
}

func (cm *CheckpointManager) cleanupOldAutoCheckpoints(ctx context.Context) error {
	checkpoints, err := cm.List(ctx)
	if err != nil {
		return err
	}

	autoCount := 0
	for _, cp := range checkpoints {
		if !cp.IsAuto {
			continue
		}
		autoCount++
		if autoCount > cm.maxAuto {
			if err := cm.Delete(ctx, cp.ID); err != nil {
				slog.Debug("failed to delete old auto-checkpoint during cleanup", "error", err, "checkpoint", cp.ID)
			}
		}
	}
	return nil
}

func (cm *CheckpointManager) collectRowCounts(ctx context.Context) (map[string]int, error) {
	tableQueries := map[string]string{
		"transactions": "SELECT COUNT(*) FROM transactions",
		"categories":   "SELECT COUNT(*) FROM categories",
		"budgets":      "SELECT COUNT(*) FROM budgets",
		"action_logs":  "SELECT COUNT(*) FROM action_logs",
	}

	counts := make(map[string]int, len(tableQueries))
	for table, query := range tableQueries {
		var count int
		if err := cm.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = count
	}
	return counts, nil
}

func (cm *CheckpointManager) backupDatabase(ctx context.Context, destPath string) error {
	if _, err := cm.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	// VACUUM INTO takes its target as a literal, so the path is checked first.
	if strings.ContainsAny(destPath, `'";`) || !filepath.IsAbs(destPath) || strings.Contains(destPath, "..") {
		return fmt.Errorf("invalid destination path: %s", destPath)
	}
	// #nosec G201 - destPath is validated above
	if _, err := cm.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return fmt.Errorf("failed to vacuum into checkpoint: %w", err)
	}
	return nil
}

func (cm *CheckpointManager) dataPath(tag string) string {
	return filepath.Join(cm.checkpointsDir, tag+".db")
}

func (cm *CheckpointManager) metaPath(tag string) string {
	return filepath.Join(cm.checkpointsDir, tag+".meta.json")
}

func validateCheckpointTag(tag string) error {
	if tag == "" || strings.ContainsAny(tag, `/\'";`) || strings.Contains(tag, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidCheckpointTag, tag)
	}
	return nil
}

func saveMetadata(path string, info *CheckpointInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func loadMetadata(path string) (*CheckpointInfo, error) {
	// #nosec G304 - path is built from the checkpoints directory listing
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var info CheckpointInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func verifyCheckpointIntegrity(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("failed to close checkpoint database", "error", err)
		}
	}()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

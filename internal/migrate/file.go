package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/bryankimani/todo-list/internal/store"
)

// Decode parses a database file, keeping numbers as json.Number.
func Decode(data []byte) (map[string]any, error) {
	v, err := decodeValue(data)
	if err != nil {
		return nil, err
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidDocument)
	}
	return doc, nil
}

// Encode renders doc with two-space indentation.
func Encode(doc map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return append(data, '\n'), nil
}

// FileOptions control MigrateFile.
type FileOptions struct {
	Options

	// DryRun reports without writing.
	DryRun bool

	// Now is the backfill time. Zero uses the current time.
	Now time.Time

	Logger *zap.Logger
}

// MigrateFile migrates the database at path. The file is rewritten only
// when a migration changed something, the result passes validation, and
// DryRun is unset.
func MigrateFile(path string, opts FileOptions) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}

	report, err := Run(doc, now, opts.Options)
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return report, err
	}

	for _, r := range report.Results {
		logger.Info("migration applied", zap.String("migration", r.Name), zap.Int("touched", r.Touched))
	}
	if opts.DryRun || !report.Changed() {
		logger.Info("database not written", zap.String("path", path),
			zap.Bool("dry_run", opts.DryRun), zap.Bool("changed", report.Changed()))
		return report, nil
	}

	out, err := Encode(doc)
	if err != nil {
		return report, err
	}
	if err := store.WriteFileAtomic(path, out, info.Mode().Perm()); err != nil {
		return report, fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("database migrated", zap.String("path", path))
	return report, nil
}

// ValidateFile checks the database at path without modifying it.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return err
	}
	return Validate(doc)
}

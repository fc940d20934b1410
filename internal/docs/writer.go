package docs

import (
	"go.uber.org/zap"

	"github.com/bral/git-bump-go/internal/apperr"
	"github.com/bral/git-bump-go/internal/fsutil"
	"github.com/bral/git-bump-go/internal/report"
)

// Writer persists rendered documents, optionally backing up the previous version.
type Writer struct {
	backup   bool
	reporter report.Reporter
	logger   *zap.Logger
}

// NewWriter returns a Writer. A nil logger is replaced with a no-op logger.
func NewWriter(backup bool, r report.Reporter, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{backup: backup, reporter: r, logger: logger}
}

// Write replaces path with content. Failures are returned as persistence errors naming
// the file.
func (w *Writer) Write(path, content string) error {
	if w.backup {
		backupPath, err := fsutil.Backup(path)
		if err != nil {
			return apperr.Persistence(path, err)
		}
		if backupPath != "" {
			report.Infof(w.reporter, report.IconBackup, "Backup created: %s", backupPath)
		}
	}
	if err := fsutil.AtomicWrite(path, []byte(content)); err != nil {
		w.logger.Error("document write failed", zap.String("path", path), zap.Error(err))
		return apperr.Persistence(path, err)
	}
	w.logger.Info("document written", zap.String("path", path), zap.Int("bytes", len(content)))
	return nil
}

// WriteIfMissing writes content only when path does not exist. It reports whether a file
// was written.
func (w *Writer) WriteIfMissing(path, content string) (bool, error) {
	if fsutil.Exists(path) {
		return false, nil
	}
	if err := fsutil.AtomicWrite(path, []byte(content)); err != nil {
		return false, apperr.Persistence(path, err)
	}
	return true, nil
}

package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Archiver moves processed manifest files into a per-period archive
// directory so a watched inbox is not reprocessed on the next run.
type Archiver struct {
	archiveDir string
	logger     *slog.Logger
}

// NewArchiver creates an archiver rooted at archiveDir.
func NewArchiver(archiveDir string, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		archiveDir: archiveDir,
		logger:     logger.With(slog.String("component", "archiver")),
	}
}

// Archive moves path into <archiveDir>/<period>/ and returns the new
// location. An existing file with the same name is overwritten; a
// rerun of the same source file archives to the same place.
func (a *Archiver) Archive(path, period string) (string, error) {
	destDir := filepath.Join(a.archiveDir, period)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	dest := filepath.Join(destDir, filepath.Base(path))
	if err := moveFile(path, dest); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", path, err)
	}

	a.logger.Info("manifest archived",
		slog.String("source", path),
		slog.String("destination", dest))

	return dest, nil
}

// moveFile renames src to dst, falling back to copy-and-remove when
// the two sit on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}

package monitor

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"academytracker/lib/roster"
)

// backupFiles copies report artifacts to <dir>/<award id>/. The backup
// location is usually a mounted network share, so failures are logged
// and swallowed rather than failing the run.
func backupFiles(ctx context.Context, dir string, source roster.Source, paths []string) {
	if dir == "" {
		return
	}

	target := filepath.Join(dir, source.AwardID)
	if err := os.MkdirAll(target, 0o755); err != nil {
		slog.WarnContext(ctx, "failed to create backup directory",
			"source", source.Code, "dir", target, "err", err)
		return
	}

	for _, path := range paths {
		if err := copyFile(path, filepath.Join(target, filepath.Base(path))); err != nil {
			slog.WarnContext(ctx, "failed to back up report file",
				"source", source.Code, "file", path, "err", err)
			continue
		}
		slog.InfoContext(ctx, "backed up report file",
			"source", source.Code, "file", filepath.Base(path))
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

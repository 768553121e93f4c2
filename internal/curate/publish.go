package curate

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"garden/internal/fileutil"
	"garden/internal/logging"
	"garden/internal/manifest"
	"garden/internal/services"
)

// Publication describes what Publish wrote.
type Publication struct {
	Entries []manifest.Entry
	Removed int
	Bytes   int64
}

// Publish replaces the payloads in opts.OutputDir with selected and rewrites
// the manifest. Files in the output directory without the payload extension
// are left alone.
func Publish(selected []Candidate, opts Options, logger *slog.Logger) (Publication, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	ext := opts.extension()
	for _, cand := range selected {
		if err := manifest.ValidateID(cand.ID); err != nil {
			return Publication{}, services.Wrap(services.ErrValidation, "publish", "check id", "", err)
		}
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return Publication{}, services.Wrap(services.ErrFilesystem, "publish", "create output directory", opts.OutputDir, err)
	}

	removed, err := purgeStale(opts.OutputDir, ext)
	if err != nil {
		return Publication{}, err
	}
	if removed > 0 {
		logger.Info("removed stale models", logging.Int("removed", removed), logging.String("dir", opts.OutputDir))
	}

	pub := Publication{Entries: make([]manifest.Entry, 0, len(selected)), Removed: removed}
	for _, cand := range selected {
		target := filepath.Join(opts.OutputDir, manifest.FileName(cand.ID, ext))
		written, err := fileutil.CopyFileVerified(cand.Path, target)
		if err != nil {
			return pub, services.Wrap(services.ErrFilesystem, "publish", "copy payload", cand.ID, err)
		}
		pub.Bytes += written
		pub.Entries = append(pub.Entries, manifest.NewEntry(cand.ID, ext, opts.PublicDir, opts.OutputDir, opts.OptimizedDir))
		logger.Info("saved model",
			logging.String("uid", cand.ID),
			logging.String("size", humanize.IBytes(uint64(written))),
		)
	}

	if err := manifest.Write(opts.ManifestPath, pub.Entries); err != nil {
		return pub, services.Wrap(services.ErrFilesystem, "publish", "write manifest", opts.ManifestPath, err)
	}

	problems, err := manifest.VerifyEntries(pub.Entries, opts.PublicDir, opts.OutputDir, ext)
	if err != nil {
		return pub, services.Wrap(services.ErrFilesystem, "publish", "verify", "", err)
	}
	if len(problems) > 0 {
		details := make([]string, 0, len(problems))
		for _, p := range problems {
			details = append(details, p.Kind+" "+p.ID)
		}
		return pub, services.Wrap(services.ErrFilesystem, "publish", "verify", strings.Join(details, ", "), nil)
	}
	return pub, nil
}

// purgeStale removes every *.ext file directly inside dir.
func purgeStale(dir, ext string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, services.Wrap(services.ErrFilesystem, "publish", "list output directory", dir, err)
	}
	suffix := "." + ext
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return removed, services.Wrap(services.ErrFilesystem, "publish", "remove stale model", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

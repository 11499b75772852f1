package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/negaga53/codecompass/internal/diag"
	"github.com/negaga53/codecompass/internal/ignore"
)

// Options configures a scan. All fields are read-only during the walk.
type Options struct {
	// MaxDepth limits how many directory levels below the root are entered.
	// Zero means unlimited.
	MaxDepth int
	// MaxFileSize is the size ceiling in bytes; larger files are listed
	// with Truncated set. Zero disables the ceiling.
	MaxFileSize int64
	Matcher     *ignore.Matcher
}

// Walk visits every non-ignored file under root depth-first, with directory
// entries in lexical order. Symlinks are never followed. Unreadable entries
// are recorded as diagnostics and skipped. The returned error is non-nil only
// when the context is done or visit fails.
func Walk(ctx context.Context, root string, opts Options, visit func(FileRecord) error) ([]diag.Diagnostic, error) {
	if opts.Matcher == nil {
		opts.Matcher = ignore.NewMatcher(nil)
	}
	w := &walker{root: root, opts: opts, visit: visit}
	err := w.walkDir(ctx, "", 0)
	return w.diagnostics, err
}

// Scan collects the full inventory of Walk.
func Scan(ctx context.Context, root string, opts Options) ([]FileRecord, []diag.Diagnostic, error) {
	records := make([]FileRecord, 0)
	diagnostics, err := Walk(ctx, root, opts, func(record FileRecord) error {
		records = append(records, record)
		return nil
	})
	return records, diagnostics, err
}

type walker struct {
	root        string
	opts        Options
	visit       func(FileRecord) error
	diagnostics []diag.Diagnostic
}

func (w *walker) walkDir(ctx context.Context, relDir string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(filepath.Join(w.root, filepath.FromSlash(relDir)))
	if err != nil {
		w.skip(relDir, "failed to read directory: %v", err)
		return nil
	}

	for _, entry := range entries {
		relPath := path.Join(relDir, entry.Name())
		if relDir == "" {
			relPath = entry.Name()
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			w.skip(relPath, "symlink not followed")
			continue
		}

		if entry.IsDir() {
			if w.opts.Matcher.ShouldIgnore(relPath, true) {
				continue
			}
			if w.opts.MaxDepth > 0 && depth >= w.opts.MaxDepth {
				continue
			}
			if err := w.walkDir(ctx, relPath, depth+1); err != nil {
				return err
			}
			continue
		}

		if !entry.Type().IsRegular() {
			continue
		}
		if w.opts.Matcher.ShouldIgnore(relPath, false) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			w.skip(relPath, "failed to stat file: %v", err)
			continue
		}

		record := Classify(relPath)
		record.Size = info.Size()
		if w.opts.MaxFileSize > 0 && record.Size > w.opts.MaxFileSize {
			record.Truncated = true
			w.skip(relPath, "file size %d exceeds ceiling %d; listed without parsing", record.Size, w.opts.MaxFileSize)
		}

		if err := w.visit(record); err != nil {
			return fmt.Errorf("visit %s: %w", relPath, err)
		}
	}
	return nil
}

func (w *walker) skip(relPath, format string, args ...any) {
	if relPath == "" {
		relPath = "."
	}
	w.diagnostics = append(w.diagnostics, diag.Warning(diag.KindFileSkipped, relPath, format, args...))
}

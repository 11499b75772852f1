package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/negaga53/codecompass/internal/config"
	"github.com/negaga53/codecompass/internal/indexer"
	"github.com/negaga53/codecompass/internal/logging"
)

func BenchmarkIndexBuild_MediumRepo(b *testing.B) {
	root := b.TempDir()
	createSyntheticPythonRepo(b, root, 250)
	cfg := config.Default()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g, _, err := indexer.Build(context.Background(), root, cfg, indexer.WithLogger(logging.Nop()))
		if err != nil {
			b.Fatalf("build failed: %v", err)
		}
		if len(g.Modules()) == 0 {
			b.Fatalf("expected modules")
		}
	}
}

func createSyntheticPythonRepo(tb testing.TB, root string, files int) {
	tb.Helper()

	for pkg := 0; pkg < 10; pkg++ {
		writeFile(tb, filepath.Join(root, "app", fmt.Sprintf("pkg%d", pkg), "__init__.py"), "")
	}
	writeFile(tb, filepath.Join(root, "app", "__init__.py"), "")

	for i := 0; i < files; i++ {
		prev := (i + files - 1) % files
		src := fmt.Sprintf(`import os
from app.pkg%d.mod_%03d import func_%d


def func_%d():
    return helper_%d()


def helper_%d():
    return func_%d


class Service%d:
    def run(self):
        return os.getcwd()
`, prev%10, prev, prev, i, i, i, prev, i)
		writeFile(tb, filepath.Join(root, "app", fmt.Sprintf("pkg%d", i%10), fmt.Sprintf("mod_%03d.py", i)), src)
	}
}

func writeFile(tb testing.TB, path, content string) {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		tb.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tb.Fatalf("write failed: %v", err)
	}
}

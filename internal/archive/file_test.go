package archive_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aipulse/news-archive/internal/archive"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileMergeBatchCreatesArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ai_news.md")
	f := archive.NewFile(path, discardLogger())

	batch := "## 15 Dec 2025\n* Item B\n"
	require.NoError(t, f.MergeBatch(batch))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, batch, string(data))
}

func TestFileMergeBatchAppendsUnseen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ai_news.md")
	f := archive.NewFile(path, discardLogger())

	require.NoError(t, f.MergeBatch("## 14 Dec 2025\n* Item A\n"))
	require.NoError(t, f.MergeBatch("## 15 Dec 2025\n* Item B\n## 14 Dec 2025\n* Item A\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(data), "* Item A"))
	require.Contains(t, string(data), "* Item B")
}

func TestFileMergeBatchConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ai_news.md")
	f := archive.NewFile(path, discardLogger())

	batches := []string{
		"## 15 Dec 2025\n* Item B\n",
		"## 14 Dec 2025\n* Item A\n",
		"## 15 Dec 2025\n* Item B\n* Item C\n",
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(batches))
	for _, batch := range batches {
		batch := batch
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.MergeBatch(batch)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, title := range []string{"* Item A", "* Item B", "* Item C"} {
		require.Equal(t, 1, strings.Count(string(data), title+"\n"), "item %q", title)
	}
}

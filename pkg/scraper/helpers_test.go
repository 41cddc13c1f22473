package scraper

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/scraper-node/internal/batch"
	"github.com/JakeFAU/scraper-node/internal/config"
)

type jobDirs struct {
	file string
	out  string
	logs string
}

func testSettings() *config.Settings {
	return &config.Settings{
		StopFile:     "STOP",
		PollInterval: 20 * time.Millisecond,
		CancelGrace:  200 * time.Millisecond,
	}
}

func newTestNode(bulk int) *Node {
	return &Node{Name: "shop", BulkSize: bulk, settings: testSettings()}
}

// writeJob creates a job file with the given overrides merged over a minimal
// run-mode document.
func writeJob(t *testing.T, overrides map[string]any) jobDirs {
	t.Helper()
	root := t.TempDir()
	dirs := jobDirs{
		file: filepath.Join(root, "job.json"),
		out:  filepath.Join(root, "out"),
		logs: filepath.Join(root, "logs"),
	}
	doc := map[string]any{
		"url":           "https://example.com/catalog",
		"params":        "[DEFAULT]\nquery = laptops\n",
		"output_folder": dirs.out,
		"log_folder":    dirs.logs,
		"debug_mode":    false,
	}
	for k, v := range overrides {
		doc[k] = v
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dirs.file, raw, 0o600))
	return dirs
}

func listExt(t *testing.T, dir, ext string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ext) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}

func readDocs(t *testing.T, dir string) []batch.Doc {
	t.Helper()
	var docs []batch.Doc
	for _, path := range listExt(t, dir, ".json") {
		// #nosec G304 -- test reads from the controlled temp directory.
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		var f batch.File
		require.NoError(t, json.Unmarshal(raw, &f))
		docs = append(docs, f.Docs...)
	}
	return docs
}

func readLog(t *testing.T, dir string) string {
	t.Helper()
	logs := listExt(t, dir, ".log")
	require.Len(t, logs, 1)
	// #nosec G304 -- test reads from the controlled temp directory.
	raw, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	return string(raw)
}

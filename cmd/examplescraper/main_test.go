package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/scraper-node/internal/batch"
	"github.com/JakeFAU/scraper-node/internal/jobfile"
	"github.com/JakeFAU/scraper-node/internal/params"
	"github.com/JakeFAU/scraper-node/pkg/scraper"
)

func siteServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, `<html><head><title>Home</title></head><body>
<a href="/a">a</a><a href="/b#top">b</a><a href="/b-copy">b again</a><a href="https://elsewhere.example/">out</a></body></html>`)
		case "/a":
			fmt.Fprint(w, `<html><head><title>A</title></head><body><a href="/">home</a></body></html>`)
		case "/b", "/b-copy":
			fmt.Fprint(w, `<html><body>no title</body></html>`)
		default:
			http.NotFound(w, r)
		}
	})
	return httptest.NewServer(mux)
}

func writeJob(t *testing.T, url, params string, extra map[string]any) (file, out string) {
	t.Helper()
	root := t.TempDir()
	file = filepath.Join(root, "job.json")
	out = filepath.Join(root, "out")
	doc := map[string]any{
		"url":           url,
		"params":        params,
		"output_folder": out,
		"log_folder":    filepath.Join(root, "logs"),
		"debug_mode":    true,
	}
	for k, v := range extra {
		doc[k] = v
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, raw, 0o600))
	return file, out
}

func readDocs(t *testing.T, dir string) []batch.Doc {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var docs []batch.Doc
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		// #nosec G304 -- test reads from the controlled temp directory.
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		var f batch.File
		require.NoError(t, json.Unmarshal(raw, &f))
		docs = append(docs, f.Docs...)
	}
	return docs
}

// The same body served at /b and /b-copy is stored once.
func TestCrawlFollowsSameSiteLinks(t *testing.T) {
	srv := siteServer()
	defer srv.Close()

	file, out := writeJob(t, srv.URL+"/", "", nil)
	outcome, err := newNode().Execute(context.Background(), []string{file}, crawl)
	require.NoError(t, err)
	assert.Equal(t, scraper.ReasonCompleted, outcome.Reason)

	docs := readDocs(t, out)
	require.Len(t, docs, 3)
	urls := make([]string, 0, len(docs))
	for _, d := range docs {
		urls = append(urls, d.URL)
		if d.URL == srv.URL+"/b" {
			assert.Nil(t, d.Title)
		}
		assert.Len(t, d.Columns["content_sha256"], 64)
	}
	assert.ElementsMatch(t, []string{srv.URL + "/", srv.URL + "/a", srv.URL + "/b"}, urls)
}

func TestCrawlStopsAtQuota(t *testing.T) {
	srv := siteServer()
	defer srv.Close()

	file, out := writeJob(t, srv.URL+"/", "", map[string]any{"maximum_rows": 2})
	outcome, err := newNode().Execute(context.Background(), []string{file}, crawl)
	require.NoError(t, err)
	assert.Equal(t, scraper.ReasonQuotaExceeded, outcome.Reason)
	assert.Len(t, readDocs(t, out), 2)
}

func TestCrawlRespectsMaxPages(t *testing.T) {
	srv := siteServer()
	defer srv.Close()

	file, out := writeJob(t, srv.URL+"/", "[DEFAULT]\nmax_pages = 1\n", nil)
	outcome, err := newNode().Execute(context.Background(), []string{file}, crawl)
	require.NoError(t, err)
	assert.Equal(t, scraper.ReasonCompleted, outcome.Reason)
	assert.Len(t, readDocs(t, out), 1)
}

func TestCrawlRejectsBadMaxPages(t *testing.T) {
	file, _ := writeJob(t, "https://example.com/", "[DEFAULT]\nmax_pages = zero\n", nil)
	outcome, err := newNode().Execute(context.Background(), []string{file}, crawl)
	require.NoError(t, err)
	assert.Equal(t, scraper.ReasonFailed, outcome.Reason)
	assert.Equal(t, 1, outcome.ExitCode())
}

func TestFeaturesAdvertisesColumns(t *testing.T) {
	file, _ := writeJob(t, "https://example.com/", "", nil)
	_, err := newNode().Execute(context.Background(), []string{"--features", file}, crawl)
	require.NoError(t, err)

	// #nosec G304 -- test reads from the controlled temp directory.
	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	var features jobfile.Features
	require.NoError(t, json.Unmarshal(raw, &features))
	require.Len(t, features.Columns, 5)
	assert.Equal(t, jobfile.Column{Name: "status", Type: "$num_int"}, features.Columns[0])
	assert.Equal(t, "$num_datetime", features.Columns[3].Type)

	defaults, err := params.Decode(features.Params)
	require.NoError(t, err)
	assert.Equal(t, "20", defaults["max_pages"])
	assert.Equal(t, "5", defaults["rps"])
}

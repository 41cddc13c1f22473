package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	collyfetcher "github.com/JakeFAU/scraper-node/internal/fetcher/colly"
	"github.com/JakeFAU/scraper-node/internal/hash/sha256"
	"github.com/JakeFAU/scraper-node/internal/policy/ratelimit"
	"github.com/JakeFAU/scraper-node/pkg/scraper"
)

const (
	defaultMaxPages = 20
	defaultRPS      = 5.0
)

func newNode() *scraper.Node {
	return &scraper.Node{
		Name:        "examplescraper",
		Description: "Follows same-site links from the start URL and stores each HTML page.",
		Columns: []scraper.Column{
			{Name: "status", Type: scraper.Integer},
			{Name: "depth", Type: scraper.Integer},
			{Name: "links", Type: scraper.Integer},
			{Name: "fetched_at", Type: scraper.DateTime},
			{Name: "content_sha256", Type: scraper.StringID},
		},
		Parameters: map[string]string{
			"max_pages":  strconv.Itoa(defaultMaxPages),
			"rps":        strconv.FormatFloat(defaultRPS, 'f', -1, 64),
			"user_agent": "scraper-node/1.0",
		},
	}
}

func main() {
	newNode().Main(crawl)
}

type queued struct {
	url   string
	depth int
}

func crawl(ctx context.Context, job *scraper.Job) error {
	logger := job.Logger()
	params := job.Parameters()

	maxPages := defaultMaxPages
	if raw, ok := params["max_pages"]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid max_pages %q", raw)
		}
		maxPages = n
	}

	rps := defaultRPS
	if raw, ok := params["rps"]; ok {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid rps %q", raw)
		}
		rps = v
	}

	start, err := url.Parse(job.URL())
	if err != nil || start.Host == "" {
		return fmt.Errorf("invalid start url %q", job.URL())
	}

	cfg := collyfetcher.Config{UserAgent: params["user_agent"], Timeout: 15 * time.Second}
	if proxy, ok := job.Proxy(); ok {
		cfg.Proxy = proxy.URL()
		logger.Info("Using proxy", zap.String("type", proxy.Type), zap.String("host", proxy.Host))
	}
	fetcher := collyfetcher.New(cfg)
	limiter := ratelimit.New(ratelimit.Config{RPS: rps, Burst: 1, Logger: logger})
	bodies := sha256.NewSet()

	seen := map[string]struct{}{start.String(): {}}
	frontier := []queued{{url: start.String()}}
	for pages := 0; len(frontier) > 0 && pages < maxPages; pages++ {
		next := frontier[0]
		frontier = frontier[1:]

		if err := limiter.Wait(ctx, next.url); err != nil {
			return err
		}
		page, err := fetcher.Fetch(ctx, next.url)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("Fetch failed", zap.String("url", next.url), zap.Error(err))
			continue
		}

		digest, isNew := bodies.Add(page.Body)
		if !isNew {
			logger.Debug("Duplicate content skipped", zap.String("url", page.URL))
			continue
		}

		var title *string
		if page.Title != "" {
			title = scraper.Title(page.Title)
		}
		err = job.Add(scraper.Record{
			URL:     page.URL,
			Title:   title,
			Content: page.Body,
			Columns: map[string]any{
				"status":         page.StatusCode,
				"depth":          next.depth,
				"links":          len(page.Links),
				"fetched_at":     time.Now().UTC().Format(time.RFC3339),
				"content_sha256": digest,
			},
		})
		if errors.Is(err, scraper.ErrQuotaExceeded) {
			return err
		}
		if err != nil {
			return fmt.Errorf("add %s: %w", page.URL, err)
		}

		for _, link := range page.Links {
			u, err := url.Parse(link)
			if err != nil || u.Host != start.Host {
				continue
			}
			u.Fragment = ""
			key := u.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			frontier = append(frontier, queued{url: key, depth: next.depth + 1})
		}
	}
	return nil
}

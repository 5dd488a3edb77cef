// Package scraper produces article chunks for indexing. The web scraper
// crawls news seed pages, extracts readable article bodies, and splits
// them into fixed-size chunks; MockSource produces a deterministic sample
// set for offline use.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
)

// Crawl limits. Seed pages are depth 0, article pages depth 1.
const (
	maxCrawlDepth  = 2
	maxArticleSize = 1 << 20
	minBodyRunes   = 200
)

// Item is one scraped article before chunking.
type Item struct {
	URL         string
	Title       string
	Source      string
	Text        string
	PublishedAt time.Time
}

// Source produces articles for ingestion.
type Source interface {
	Fetch(ctx context.Context) ([]Item, error)
}

// Config tunes the web scraper.
type Config struct {
	Parallelism int
	Delay       time.Duration
	Timeout     time.Duration
	SeedURLs    []string
	UserAgent   string
}

// Web crawls seed pages and extracts article text.
type Web struct {
	cfg    Config
	logger *slog.Logger
}

// NewWeb creates a web scraper. Zero config fields take sane defaults.
func NewWeb(cfg Config, logger *slog.Logger) *Web {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 2
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "newsrag/1.0"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Web{cfg: cfg, logger: logger}
}

// Fetch visits every seed URL, follows same-host article links one level
// deep, and returns the readable articles found. Pages whose extracted
// body is too short to be an article are skipped.
func (w *Web) Fetch(ctx context.Context) ([]Item, error) {
	if len(w.cfg.SeedURLs) == 0 {
		return nil, fmt.Errorf("no seed URLs configured")
	}

	hosts := make(map[string]bool, len(w.cfg.SeedURLs))
	for _, seed := range w.cfg.SeedURLs {
		u, err := url.Parse(seed)
		if err != nil {
			return nil, fmt.Errorf("invalid seed URL %q: %w", seed, err)
		}
		hosts[u.Hostname()] = true
	}

	c := colly.NewCollector(
		colly.MaxDepth(maxCrawlDepth),
		colly.UserAgent(w.cfg.UserAgent),
		colly.MaxBodySize(maxArticleSize),
		colly.Async(true),
		colly.StdlibContext(ctx),
	)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: w.cfg.Parallelism,
		Delay:       w.cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("invalid crawl limits: %w", err)
	}
	c.SetRequestTimeout(w.cfg.Timeout)

	var (
		mu    sync.Mutex
		items []Item
	)

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" {
			return
		}
		u, err := url.Parse(link)
		if err != nil || !hosts[u.Hostname()] {
			return
		}
		// Links are only followed from seed pages.
		if e.Request.Depth > 1 {
			return
		}
		if err := e.Request.Visit(link); err != nil {
			w.logger.Debug("skipping link", "url", link, "reason", err)
		}
	})

	c.OnResponse(func(r *colly.Response) {
		if !strings.Contains(r.Headers.Get("Content-Type"), "text/html") {
			return
		}
		item, ok := w.extract(r)
		if !ok {
			return
		}
		mu.Lock()
		items = append(items, item)
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		w.logger.Warn("fetch failed", "url", r.Request.URL.String(), "error", err)
	})

	for _, seed := range w.cfg.SeedURLs {
		if err := c.Visit(seed); err != nil {
			w.logger.Warn("seed visit failed", "url", seed, "error", err)
		}
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.logger.Info("scrape complete", "seeds", len(w.cfg.SeedURLs), "articles", len(items))
	return items, nil
}

// extract pulls the readable article body out of an HTML response.
// Readability supplies title and body; OpenGraph meta tags fill in
// site name and publication time when readability does not.
func (w *Web) extract(r *colly.Response) (Item, bool) {
	pageURL := r.Request.URL
	body := string(r.Body)

	art, err := readability.FromReader(strings.NewReader(body), pageURL)
	if err != nil {
		w.logger.Debug("not readable", "url", pageURL.String(), "error", err)
		return Item{}, false
	}

	text := strings.TrimSpace(art.TextContent)
	if len([]rune(text)) < minBodyRunes {
		return Item{}, false
	}

	var meta pageMeta
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		meta = extractMeta(doc)
	}

	title := strings.TrimSpace(art.Title)
	if title == "" {
		title = pageURL.Hostname()
	}

	source := strings.TrimSpace(art.SiteName)
	if source == "" {
		source = meta.SiteName
	}
	if source == "" {
		source = pageURL.Hostname()
	}

	item := Item{
		URL:    pageURL.String(),
		Title:  title,
		Source: source,
		Text:   text,
	}
	switch {
	case art.PublishedTime != nil:
		item.PublishedAt = *art.PublishedTime
	default:
		item.PublishedAt = meta.PublishedAt
	}
	return item, true
}

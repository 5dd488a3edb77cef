package scraper

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// pageMeta is metadata read from a page's meta tags. Readability output
// takes precedence; these fill the gaps.
type pageMeta struct {
	SiteName    string
	PublishedAt time.Time
}

// timeFormats accepted in article:published_time content, most common
// first.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// extractMeta reads OpenGraph metadata from parsed HTML.
func extractMeta(doc *goquery.Document) pageMeta {
	var meta pageMeta

	doc.Find("meta[property='og:site_name']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if content, ok := s.Attr("content"); ok {
			meta.SiteName = strings.TrimSpace(content)
		}
		return false
	})

	doc.Find("meta[property='article:published_time'], meta[name='date']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		content, ok := s.Attr("content")
		if !ok {
			return true
		}
		for _, layout := range timeFormats {
			if t, err := time.Parse(layout, strings.TrimSpace(content)); err == nil {
				meta.PublishedAt = t
				return false
			}
		}
		return true
	})

	return meta
}

package news

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// FeedSource is one RSS feed to pull headlines from.
type FeedSource struct {
	Name string
	URL  string
}

// DefaultFeedSources lists the global market feeds used as fallback
// when web search is unavailable.
var DefaultFeedSources = []FeedSource{
	{Name: "Yahoo Finance", URL: "https://finance.yahoo.com/news/rssindex"},
	{Name: "CNBC Markets", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
	{Name: "MarketWatch", URL: "https://feeds.content.dowjones.io/public/rss/mw_topstories"},
}

// RSS searches configured feeds for items mentioning the topic.
type RSS struct {
	sources []FeedSource
	parser  *gofeed.Parser
}

// NewRSS creates the searcher over the default feeds.
func NewRSS() *RSS {
	return NewRSSWithSources(DefaultFeedSources)
}

// NewRSSWithSources creates the searcher over custom feeds.
func NewRSSWithSources(sources []FeedSource) *RSS {
	return &RSS{sources: sources, parser: gofeed.NewParser()}
}

// Name returns the backend name.
func (r *RSS) Name() string { return "rss" }

// Search pulls every feed and keeps items matching any topic keyword.
// Failed feeds are skipped.
func (r *RSS) Search(ctx context.Context, topic string, limit int) ([]RawResult, error) {
	keywords := topicKeywords(topic)

	var results []RawResult
	for _, src := range r.sources {
		feed, err := r.parser.ParseURLWithContext(src.URL, ctx)
		if err != nil {
			continue
		}
		for _, item := range feed.Items {
			if !matchesAny(item.Title+" "+item.Description, keywords) {
				continue
			}
			raw := RawResult{
				Title:   item.Title,
				Link:    item.Link,
				Snippet: cleanHTML(item.Description),
			}
			if item.PublishedParsed != nil {
				raw.Date = item.PublishedParsed.Format("2006-01-02")
			}
			results = append(results, raw)
			if len(results) >= limit {
				return results, nil
			}
		}
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("rss search: no items matched %q", topic)
	}
	return results, nil
}

// topicKeywords splits a topic into lowercase match terms.
func topicKeywords(topic string) []string {
	fields := strings.Fields(strings.ToLower(topic))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		keywords = append(keywords, f)
	}
	return keywords
}

// matchesAny checks if text contains any of the keywords (case-insensitive).
func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

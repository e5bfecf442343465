// Package news collects market headlines on a best-effort basis.
// Collection never fails an enclosing request: when every backend is
// down the collector returns an empty list.
package news

import (
	"context"
	"time"

	"github.com/seenimoa/tradewinds/pkg/models"
)

// RawResult is a headline as returned by a search backend, before
// sentiment annotation.
type RawResult struct {
	Title   string
	Link    string
	Snippet string
	Date    string
}

// Searcher finds recent headlines for a topic.
type Searcher interface {
	Name() string
	Search(ctx context.Context, topic string, limit int) ([]RawResult, error)
}

// sentimentLabels is the rotation applied to collected headlines until
// a real classifier is wired in.
var sentimentLabels = []string{"positive", "negative", "neutral"}

// Collector tries its searchers in order and returns results from the
// first one that yields anything.
type Collector struct {
	searchers []Searcher
	timeout   time.Duration
}

// NewCollector creates a collector over the given backends, tried in
// the order supplied.
func NewCollector(timeout time.Duration, searchers ...Searcher) *Collector {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Collector{searchers: searchers, timeout: timeout}
}

// Collect gathers up to limit headlines for the topic. Backends that
// error or return nothing are skipped; when all do, the result is empty
// rather than an error.
func (c *Collector) Collect(ctx context.Context, topic string, limit int) []models.NewsItem {
	if limit <= 0 {
		limit = 5
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	for _, s := range c.searchers {
		results, err := s.Search(ctx, topic, limit)
		if err != nil || len(results) == 0 {
			continue
		}
		if len(results) > limit {
			results = results[:limit]
		}
		return annotate(results)
	}
	return []models.NewsItem{}
}

// annotate converts raw results to news items, assigning the rotating
// sentiment label by position.
func annotate(results []RawResult) []models.NewsItem {
	items := make([]models.NewsItem, 0, len(results))
	for i, r := range results {
		items = append(items, models.NewsItem{
			Title:     r.Title,
			Link:      r.Link,
			Snippet:   r.Snippet,
			Date:      r.Date,
			Sentiment: sentimentLabels[i%len(sentimentLabels)],
		})
	}
	return items
}

// SentimentHistory produces a demo sentiment series for the topic, one
// point per day counting back from today.
func SentimentHistory(topic string, days int) []models.SentimentPoint {
	if days <= 0 {
		days = 10
	}
	now := time.Now()
	points := make([]models.SentimentPoint, 0, days)
	for i := 0; i < days; i++ {
		points = append(points, models.SentimentPoint{
			Date:      now.AddDate(0, 0, -(days - 1 - i)).Format("2006-01-02"),
			Sentiment: sentimentLabels[i%len(sentimentLabels)],
		})
	}
	return points
}

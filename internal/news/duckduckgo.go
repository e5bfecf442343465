package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const ddgUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DuckDuckGo searches the HTML endpoint, which needs no API key.
type DuckDuckGo struct {
	baseURL string
	client  *http.Client
}

// DuckDuckGoOption customizes the searcher.
type DuckDuckGoOption func(*DuckDuckGo)

// WithDuckDuckGoBaseURL overrides the endpoint, mainly for tests.
func WithDuckDuckGoBaseURL(u string) DuckDuckGoOption {
	return func(d *DuckDuckGo) { d.baseURL = u }
}

// NewDuckDuckGo creates the searcher with production defaults.
func NewDuckDuckGo(opts ...DuckDuckGoOption) *DuckDuckGo {
	d := &DuckDuckGo{
		baseURL: "https://html.duckduckgo.com/html/",
		client:  &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the backend name.
func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search scrapes the results page for the topic.
func (d *DuckDuckGo) Search(ctx context.Context, topic string, limit int) ([]RawResult, error) {
	q := url.Values{}
	q.Set("q", topic+" news")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", ddgUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo search: status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo parse: %w", err)
	}

	var results []RawResult
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		anchor := sel.Find(".result__a")
		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			return true
		}
		link, _ := anchor.Attr("href")
		results = append(results, RawResult{
			Title:   title,
			Link:    resolveRedirect(link),
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
		})
		return len(results) < limit
	})

	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return link
}

package model

import "time"

// Page is a single scraped page.
type Page struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Markdown   string `json:"markdown"`
	StatusCode int    `json:"status_code"`
}

// PageCache stores a cached scrape result.
type PageCache struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Page      Page      `json:"page"`
	Source    string    `json:"source"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Package model defines the data types shared by the lead pipeline.
package model

import "strings"

// Business is a candidate returned by the places lookup.
type Business struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	WebsiteURL string `json:"website_url,omitempty"`
	Address    string `json:"address,omitempty"`
}

// HasWebsite reports whether the business can be scraped at all.
func (b Business) HasWebsite() bool {
	return strings.TrimSpace(b.WebsiteURL) != ""
}

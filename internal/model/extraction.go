package model

import "strings"

// ExtractionResult is the two-key answer returned by the model.
type ExtractionResult struct {
	Email     *string `json:"email"`
	OwnerName *string `json:"ownerName"`
}

// Normalize maps the sentinel values models emit despite instructions
// (the literal string "null" and the empty string) to nil. Surrounding
// whitespace is trimmed. Normalize is idempotent.
func (r ExtractionResult) Normalize() ExtractionResult {
	return ExtractionResult{
		Email:     normalizeField(r.Email),
		OwnerName: normalizeField(r.OwnerName),
	}
}

// HasEmail reports whether a usable email is present.
func (r ExtractionResult) HasEmail() bool { return r.Email != nil }

// HasOwner reports whether a usable owner name is present.
func (r ExtractionResult) HasOwner() bool { return r.OwnerName != nil }

func normalizeField(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" || s == "null" {
		return nil
	}
	return &s
}

// FetchResult is best-effort text from a website or a web search.
type FetchResult struct {
	Text      string `json:"text"`
	Succeeded bool   `json:"succeeded"`
	Source    string `json:"source,omitempty"`
}

// NewFetchResult builds a FetchResult from text, truncating it to limit
// runes when limit is positive.
func NewFetchResult(text, source string, limit int) FetchResult {
	text = Truncate(strings.TrimSpace(text), limit)
	if text == "" {
		return FetchResult{}
	}
	return FetchResult{Text: text, Succeeded: true, Source: source}
}

// Truncate cuts s to at most limit runes. A non-positive limit disables it.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

package scrape

import (
	"html"
	"regexp"
	"strings"
)

var (
	titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	// Go's regexp has no backreferences, so each removable block gets its own pattern.
	blockRes = func() []*regexp.Regexp {
		var out []*regexp.Regexp
		for _, tag := range []string{"script", "style", "noscript", "svg"} {
			out = append(out, regexp.MustCompile(`(?is)<`+tag+`\b[^>]*>.*?</`+tag+`\s*>`))
		}
		return out
	}()
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// PageTitle returns the trimmed <title> of an HTML document.
func PageTitle(body string) string {
	m := titleRe.FindStringSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(html.UnescapeString(m[1]))
	}
	return ""
}

// StripHTML turns an HTML document into plain text. Script and style
// blocks are dropped; every other tag, nav and footer included, becomes a
// space. Entities are decoded and all whitespace runs become a single space.
func StripHTML(doc string) string {
	doc = commentRe.ReplaceAllString(doc, " ")
	for _, re := range blockRes {
		doc = re.ReplaceAllString(doc, " ")
	}
	doc = tagRe.ReplaceAllString(doc, " ")
	doc = html.UnescapeString(doc)
	doc = strings.ReplaceAll(doc, "\u00a0", " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(doc, " "))
}

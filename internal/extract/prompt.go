package extract

import (
	"fmt"
	"strings"

	"github.com/sells-group/lead-engine/internal/model"
)

// Default text bounds applied when PromptInput leaves them unset.
const (
	DefaultWebsiteLimit = 15000
	DefaultSearchLimit  = 15000
)

// PromptInput is everything the model gets to see about one business.
type PromptInput struct {
	BusinessName string
	WebsiteURL   string
	Locality     string
	WebsiteText  string
	SearchText   string
	WebsiteLimit int
	SearchLimit  int
}

const outputContract = `Respond with exactly one raw JSON object and nothing else: no prose, no explanation, no markdown code fences.
The object has exactly two keys:
{
  "email": "the contact email address, or null",
  "ownerName": "the full name of the owner or founder, or null"
}
Use the JSON literal null (not the string "null") for anything you cannot determine with confidence.`

const ownerRules = `Rules for ownerName:
- Report the true owner(s) or founder(s) of the business. If there are several, join their full names with " en ".
- Do not report managers, store or team leads, employees, interns, support contacts or other staff.
- Copy names exactly as the sources spell them.
- Never guess or invent a name. If the sources do not name an owner, use null.

Rules for email:
- Report the general or most specific contact email address that belongs to this business's own domain if there is one.
- Never construct an address yourself. If none appears in the sources, use null.`

// BuildPrompt assembles the extraction prompt for a text-only model. The
// search evidence comes first in the instructions because websites tend to
// show staff rather than owners.
func BuildPrompt(in PromptInput) string {
	websiteLimit := orDefault(in.WebsiteLimit, DefaultWebsiteLimit)
	searchLimit := orDefault(in.SearchLimit, DefaultSearchLimit)

	var b strings.Builder
	writeIdentity(&b, in)
	b.WriteString(`Tasks:
1. Find the contact email address of this business.
2. Find the true owner or founder of this business.

Consult the WEB SEARCH RESULTS first when determining ownership: they contain independent sources such as news articles, company registries and social profiles. Then check whether the WEBSITE CONTENT confirms or adds to what you found, and combine both.

`)
	b.WriteString(ownerRules)
	b.WriteString("\n\n=== WEB SEARCH RESULTS ===\n")
	writeSection(&b, in.SearchText, searchLimit)
	b.WriteString("\n=== WEBSITE CONTENT ===\n")
	writeSection(&b, in.WebsiteText, websiteLimit)
	b.WriteString("\n")
	b.WriteString(outputContract)
	return b.String()
}

// BuildGroundedPrompt assembles the prompt for a model that runs its own web
// searches. Only the website text is included.
func BuildGroundedPrompt(in PromptInput) string {
	websiteLimit := orDefault(in.WebsiteLimit, DefaultWebsiteLimit)

	var b strings.Builder
	writeIdentity(&b, in)
	b.WriteString(`Tasks:
1. Find the contact email address of this business.
2. Search the web for the true owner or founder of this business. Prefer company registries, news articles and professional profiles over the business's own website.

`)
	b.WriteString(ownerRules)
	b.WriteString("\n\n=== WEBSITE CONTENT ===\n")
	writeSection(&b, in.WebsiteText, websiteLimit)
	b.WriteString("\n")
	b.WriteString(outputContract)
	return b.String()
}

func writeIdentity(b *strings.Builder, in PromptInput) {
	b.WriteString("You extract B2B contact data for a local business.\n\n")
	fmt.Fprintf(b, "Business name: %s\n", strings.TrimSpace(in.BusinessName))
	fmt.Fprintf(b, "Website: %s\n", strings.TrimSpace(in.WebsiteURL))
	if l := strings.TrimSpace(in.Locality); l != "" {
		fmt.Fprintf(b, "Location: %s\n", l)
	}
	b.WriteString("\n")
}

func writeSection(b *strings.Builder, text string, limit int) {
	text = model.Truncate(strings.TrimSpace(text), limit)
	if text == "" {
		b.WriteString("(none available)\n")
		return
	}
	b.WriteString(text)
	b.WriteString("\n")
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

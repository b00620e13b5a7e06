package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/lead-engine/internal/model"
)

// Classify derives the lead status and the guessed address from an
// extraction result:
//
//	email and owner   -> verified, first-name@domain
//	email only        -> general
//	owner only        -> verified, first-name@domain
//	neither           -> failed
//
// When the guess cannot be built (no domain, or a name without letters or
// digits) an owner does not count: email+owner degrades to general and
// owner-only to failed. VerifiedEmail is non-nil exactly when the status
// is verified.
func Classify(email, ownerName *string, websiteURL string) model.Classification {
	res := model.ExtractionResult{Email: email, OwnerName: ownerName}.Normalize()

	var guess *string
	if res.HasOwner() {
		guess = guessEmail(*res.OwnerName, websiteURL)
	}

	switch {
	case guess != nil:
		return model.Classification{Status: model.LeadStatusVerified, VerifiedEmail: guess}
	case res.HasEmail():
		return model.Classification{Status: model.LeadStatusGeneral}
	default:
		return model.Classification{Status: model.LeadStatusFailed}
	}
}

func guessEmail(ownerName, websiteURL string) *string {
	first := FirstToken(ownerName)
	domain := DomainOf(websiteURL)
	if first == "" || domain == "" {
		return nil
	}
	return model.StringPtr(first + "@" + domain)
}

// DomainOf returns the host of a website URL without protocol, "www.",
// port or path: "https://www.example.nl/contact" -> "example.nl".
func DomainOf(websiteURL string) string {
	s := strings.ToLower(strings.TrimSpace(websiteURL))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "//")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(strings.TrimPrefix(s, "www."), ".")
	if strings.ContainsFunc(s, unicode.IsSpace) {
		return ""
	}
	return s
}

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FirstToken returns the first whitespace-separated part of a name, lower
// cased with diacritics folded and characters that cannot appear in an
// email local part removed: "José Fles" -> "jose".
func FirstToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}

	folded, _, err := transform.String(foldDiacritics, fields[0])
	if err != nil {
		folded = fields[0]
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == '.' && b.Len() > 0:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".-_")
}

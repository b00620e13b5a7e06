package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot block detected.
type BlockType string

// Block kinds.
const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// interstitialMax is the body size under which a page is treated as a
// challenge interstitial rather than a real page that embeds a widget.
const interstitialMax = 8 * 1024

// DetectBlock checks a response for anti-bot protection. Captcha markers only
// count on small pages: many small-business contact forms embed reCAPTCHA.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "checking your browser before accessing") {
		return true, BlockCloudflare
	}

	if len(body) >= interstitialMax {
		return false, BlockNone
	}

	if strings.Contains(lower, "captcha") {
		return true, BlockCaptcha
	}
	if strings.Contains(lower, "<noscript") && strings.Contains(lower, "enable javascript") {
		return true, BlockJSShell
	}
	if strings.Contains(lower, `http-equiv="refresh"`) && len(StripHTML(string(body))) < 200 {
		return true, BlockJSShell
	}

	return false, BlockNone
}

package extract

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-engine/internal/model"
)

// Parse decodes a model answer into a normalized ExtractionResult. Code
// fences and text around the outermost JSON object are stripped first.
// Both keys may be absent or null, but the answer must be an object with at
// least one of them, and present values must be strings or null.
func Parse(text string) (model.ExtractionResult, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return model.ExtractionResult{}, eris.New("extract: empty model output")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return model.ExtractionResult{}, eris.Wrapf(err, "extract: decode model output %q", clip(cleaned, 200))
	}

	emailRaw, hasEmail := raw["email"]
	ownerRaw, hasOwner := raw["ownerName"]
	if !hasEmail && !hasOwner {
		return model.ExtractionResult{}, eris.Errorf("extract: model output has neither email nor ownerName: %q", clip(cleaned, 200))
	}

	email, err := stringOrNull(emailRaw)
	if err != nil {
		return model.ExtractionResult{}, eris.Wrap(err, "extract: field email")
	}
	owner, err := stringOrNull(ownerRaw)
	if err != nil {
		return model.ExtractionResult{}, eris.Wrap(err, "extract: field ownerName")
	}

	return model.ExtractionResult{Email: email, OwnerName: owner}.Normalize(), nil
}

func stringOrNull(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, eris.Errorf("expected string or null, got %s", clip(string(raw), 50))
	}
	return &s, nil
}

// cleanJSON strips markdown code fences and isolates the outermost {...}.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Drop the language tag (json, JSON, ...) on the fence line.
		if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.Contains(text[:nl], "{") {
			text = text[nl+1:]
		} else {
			text = strings.TrimPrefix(strings.TrimPrefix(text, "json"), "JSON")
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

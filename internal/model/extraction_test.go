package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionResult_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        ExtractionResult
		wantEmail *string
		wantOwner *string
	}{
		{name: "both nil", in: ExtractionResult{}},
		{name: "literal null", in: ExtractionResult{Email: StringPtr("null"), OwnerName: StringPtr("null")}},
		{name: "empty strings", in: ExtractionResult{Email: StringPtr(""), OwnerName: StringPtr("")}},
		{name: "whitespace only", in: ExtractionResult{Email: StringPtr("  "), OwnerName: StringPtr("\t")}},
		{
			name:      "values kept",
			in:        ExtractionResult{Email: StringPtr("info@acme.nl"), OwnerName: StringPtr("Jan de Vries")},
			wantEmail: StringPtr("info@acme.nl"),
			wantOwner: StringPtr("Jan de Vries"),
		},
		{
			name:      "values trimmed",
			in:        ExtractionResult{Email: StringPtr(" info@acme.nl "), OwnerName: StringPtr("null")},
			wantEmail: StringPtr("info@acme.nl"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.in.Normalize()
			assert.Equal(t, tt.wantEmail, got.Email)
			assert.Equal(t, tt.wantOwner, got.OwnerName)

			// Idempotent.
			assert.Equal(t, got, got.Normalize())
		})
	}
}

func TestExtractionResult_Normalize_DoesNotAliasInput(t *testing.T) {
	email := " info@acme.nl "
	in := ExtractionResult{Email: &email}
	out := in.Normalize()
	require.NotNil(t, out.Email)
	assert.Equal(t, "info@acme.nl", *out.Email)
	assert.Equal(t, " info@acme.nl ", email)
}

func TestExtractionResult_Presence(t *testing.T) {
	r := ExtractionResult{Email: StringPtr("a@b.nl")}
	assert.True(t, r.HasEmail())
	assert.False(t, r.HasOwner())
}

func TestNewFetchResult(t *testing.T) {
	r := NewFetchResult("  hello  ", "firecrawl", 0)
	assert.True(t, r.Succeeded)
	assert.Equal(t, "hello", r.Text)
	assert.Equal(t, "firecrawl", r.Source)

	empty := NewFetchResult("   ", "local", 10)
	assert.False(t, empty.Succeeded)
	assert.Empty(t, empty.Text)
	assert.Empty(t, empty.Source)

	cut := NewFetchResult("abcdefghij", "local", 4)
	assert.Equal(t, "abcd", cut.Text)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	// Multi-byte runes are never split.
	assert.Equal(t, "café", Truncate("café au lait", 4))
}

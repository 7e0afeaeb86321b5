package selector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestToCSS_Supported covers the supported vocabulary end to end.
func TestToCSS_Supported(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		xpath string
		want  string
	}{
		{
			name:  "descendant tags",
			xpath: "//table//th",
			want:  "table th",
		},
		{
			name:  "child separator maps to child combinator",
			xpath: "//table/tr/td",
			want:  "table > tr > td",
		},
		{
			name:  "attribute contains",
			xpath: `//th[contains(@style, 'font-size: 26px')]`,
			want:  `th[style*="font-size: 26px"]`,
		},
		{
			name:  "class list idiom maps to class selector",
			xpath: `//td[contains(concat(' ', @class, ' '), ' caltabletdnum ')]`,
			want:  "td.caltabletdnum",
		},
		{
			name:  "class list idiom with two classes",
			xpath: `//div[contains(concat(' ', @class, ' '), ' cal grid ')]`,
			want:  "div.cal.grid",
		},
		{
			name:  "plain class contains stays attribute substring",
			xpath: `//td[contains(@class, 'caltabletdevt')]`,
			want:  `td[class*="caltabletdevt"]`,
		},
		{
			name:  "conjunction",
			xpath: `//span[contains(@style, 'color') and contains(@class, 'big')]`,
			want:  `span[style*="color"][class*="big"]`,
		},
		{
			name:  "fixed index is structural nth-child",
			xpath: "//table//tr[2]/td[1]",
			want:  "table tr:nth-child(2) > td:nth-child(1)",
		},
		{
			name:  "trailing text step stripped",
			xpath: "//td//a/text()",
			want:  "td a",
		},
		{
			name:  "trailing attribute step stripped",
			xpath: "//a/@href",
			want:  "a",
		},
		{
			name:  "relative descendant prefix",
			xpath: ".//span[contains(@class, 'tag')]",
			want:  `span[class*="tag"]`,
		},
		{
			name:  "predicate then trailing text",
			xpath: `//td[contains(concat(' ', @class, ' '), ' caltabletdevt ')]//a/text()`,
			want:  "td.caltabletdevt a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ToCSS(tt.xpath)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestToCSS_Rejected verifies constructs outside the subset fail with
// ErrUnsupported instead of mis-translating.
func TestToCSS_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		xpath string
	}{
		{"sibling axis", "//tr/following-sibling::tr[1]"},
		{"parent step", "//td/../tr"},
		{"text content predicate", `//table[contains(., 'Calendar')]//th`},
		{"nested element predicate", `//td[.//span[@style='x']]`},
		{"wildcard", "//*"},
		{"positional index outside enumerated set", "//div[3]"},
		{"positional index above tag bound", "//td[5]"},
		{"mid-path text step", "//td/text()/a"},
		{"mid-path attribute step", "//a/@href/span"},
		{"bare attribute equality", `//span[@style='color: red']`},
		{"or conjunction", `//td[contains(@class, 'a') or contains(@class, 'b')]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ToCSS(tt.xpath)
			require.Error(t, err, "xpath %q should be rejected", tt.xpath)
			assert.True(t, errors.Is(err, ErrUnsupported), "expected ErrUnsupported, got %v", err)
		})
	}
}

// TestToCSS_Invalid covers malformed expressions, which error without the
// ErrUnsupported sentinel.
func TestToCSS_Invalid(t *testing.T) {
	t.Parallel()

	for _, xpath := range []string{"", "   ", "//td[contains(@class, 'x'", "//text()"} {
		if _, err := ToCSS(xpath); err == nil {
			t.Fatalf("expected error for %q", xpath)
		}
	}
}

// TestToCSS_Pure verifies translation is deterministic for repeated input.
func TestToCSS_Pure(t *testing.T) {
	t.Parallel()

	const xpath = `//table//td[contains(concat(' ', @class, ' '), ' caltabletdnum ')]`
	a, err := ToCSS(xpath)
	require.NoError(t, err)
	b, err := ToCSS(xpath)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

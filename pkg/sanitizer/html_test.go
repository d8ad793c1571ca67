package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tela/pkg/sanitizer"
)

func TestStripHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in, want string
	}{
		{"plain text", "Dupont Jean", "Dupont Jean"},
		{"empty", "", ""},
		{"nested tags", `<div><p>Service <span>RH</span></p></div>`, "Service RH"},
		{"script removed with body", `Note<script>alert(1)</script>`, "Note"},
		{"style removed with body", `a<style>p{color:red}</style>b`, "ab"},
		{"event handler", `<img src="x" onerror="alert(1)">`, ""},
		{"javascript link keeps text", `<a href="javascript:alert(1)">lien</a>`, "lien"},
		{"text is escaped", `5 < 6 & "ok"`, "5 &lt; 6 &amp; &#34;ok&#34;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sanitizer.StripHTML(tt.in))
		})
	}
}

func TestSanitizeHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in, want string
	}{
		{"formatting kept", `<p>Bonjour <strong>Claire</strong></p>`, `<p>Bonjour <strong>Claire</strong></p>`},
		{"lists kept", `<ul><li>un</li><li>deux</li></ul>`, `<ul><li>un</li><li>deux</li></ul>`},
		{"script dropped", `<p>ok</p><script>alert(1)</script>`, `<p>ok</p>`},
		{"attributes dropped", `<p onclick="x()" style="color:red">ok</p>`, `<p>ok</p>`},
		{"unknown tags unwrapped", `<div><span>ok</span></div>`, `ok`},
		{"links get nofollow", `<a href="https://example.com">site</a>`, `<a href="https://example.com" rel="nofollow">site</a>`},
		{"javascript href dropped", `<a href="javascript:alert(1)">x</a>`, `x`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sanitizer.SanitizeHTML(tt.in))
		})
	}
}

func TestRichTextFilter(t *testing.T) {
	t.Parallel()

	got, err := sanitizer.SanitizeValue(`<p>Note <em>interne</em></p><iframe src="x"></iframe>`, attrs("rich_text", true, "type", "string"))
	require.NoError(t, err)
	assert.Equal(t, `<p>Note <em>interne</em></p>`, got)
	assert.True(t, sanitizer.IsFilter("rich_text"))
}

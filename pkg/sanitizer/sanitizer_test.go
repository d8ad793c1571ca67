package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tela/pkg/attribute"
	"github.com/dmitrymomot/tela/pkg/sanitizer"
)

func attrs(kv ...any) attribute.Attributes {
	out := make(attribute.Attributes, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, attribute.Attr{Name: kv[i].(string), Value: kv[i+1]})
	}
	return out
}

func TestSanitizeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		attrs attribute.Attributes
		want  any
	}{
		{"trim then capitalize", "  durand ", attrs("trim", true, "capitalize", true, "type", "string"), "Durand"},
		{"capitalize multibyte", "élodie", attrs("capitalize", true, "type", "string"), "Élodie"},
		{"uppercase", "Ça va", attrs("uppercase", true, "type", "string"), "ÇA VA"},
		{"lowercase", "ÉCOLE", attrs("lowercase", true, "type", "string"), "école"},
		{"disabled filter", "  x ", attrs("trim", false, "type", "string"), "  x "},
		{"trim custom chars", "--x--", attrs("trim", "-", "type", "string"), "x"},
		{"digit to float", "+1 234,5", attrs("digit", true, "type", "float"), 1234.5},
		{"digit to int", "12 abc", attrs("digit", true, "type", "integer"), int64(12)},
		{"digit nil", nil, attrs("digit", true, "type", "integer"), int64(0)},
		{"escape", `<b>a</b> & "b"`, attrs("escape", true, "type", "string"), "a &amp; &#34;b&#34;"},
		{"strip tags", `<p>a & b</p>`, attrs("strip_tags", true, "type", "string"), "a & b"},
		{"format date", "25/12/2024", attrs("format_date", []any{"02/01/2006", "2006-01-02"}, "type", "date"), "2024-12-25"},
		{"bool on", "on", attrs("type", "boolean"), true},
		{"bool off", "off", attrs("type", "boolean"), false},
		{"bool int", int64(1), attrs("type", "bool"), true},
		{"object from json", `{"a":1}`, attrs("type", "object"), map[string]any{"a": float64(1)}},
		{"array from json", `[1,"b"]`, attrs("type", "array"), []any{float64(1), "b"}},
		{"array from string slice", []string{"a", "b"}, attrs("type", "array"), []any{"a", "b"}},
		{"blank object", "  ", attrs("type", "object"), nil},
		{"int to string", int64(5), attrs("type", "varchar"), "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := sanitizer.SanitizeValue(tt.value, tt.attrs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeValue_Errors(t *testing.T) {
	t.Parallel()

	_, err := sanitizer.SanitizeValue("x", attrs("type", "blob"))
	assert.ErrorIs(t, err, sanitizer.ErrUnknownType)

	_, err = sanitizer.SanitizeValue("25/12/2024", attrs("format_date", []any{"02/01/2006"}, "type", "date"))
	assert.ErrorIs(t, err, sanitizer.ErrFormatDateArgs)

	_, err = sanitizer.SanitizeValue("x", attrs("trim", 3, "type", "string"))
	assert.ErrorIs(t, err, sanitizer.ErrFilterArg)

	_, err = sanitizer.SanitizeValue(`{"a":`, attrs("type", "object"))
	assert.ErrorIs(t, err, sanitizer.ErrInvalidJSON)

	_, err = sanitizer.SanitizeValue(`{"a":1}`, attrs("type", "array"))
	assert.ErrorIs(t, err, sanitizer.ErrInvalidJSON)
}

func TestSanitizer(t *testing.T) {
	t.Parallel()

	def := attribute.NewDefinition("utilisateur", []attribute.Property{
		{Name: "uti_nom", Attributes: attrs("trim", true, "type", "string")},
		{Name: "uti_actif", Attributes: attrs("type", "boolean")},
	})
	data := map[string]any{"uti_nom": " Durand ", "uti_actif": "1", "token": "abc"}

	t.Run("lenient keeps unknown keys", func(t *testing.T) {
		t.Parallel()
		out, err := sanitizer.New(def).Sanitize(data, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"uti_nom": "Durand", "uti_actif": true, "token": "abc"}, out)
	})

	t.Run("strict drops unknown keys", func(t *testing.T) {
		t.Parallel()
		out, err := sanitizer.New(def, sanitizer.WithStrict()).Sanitize(data, nil)
		require.NoError(t, err)
		assert.NotContains(t, out, "token")
	})

	t.Run("extra attributes", func(t *testing.T) {
		t.Parallel()
		out, err := sanitizer.New(def, sanitizer.WithStrict()).Sanitize(data, map[string]attribute.Attributes{
			"uti_nom": attrs("uppercase", true),
			"token":   attrs("uppercase", true, "type", "string"),
		})
		require.NoError(t, err)
		assert.Equal(t, "DURAND", out["uti_nom"])
		assert.Equal(t, "ABC", out["token"])
		assert.Equal(t, " Durand ", data["uti_nom"])
	})
}

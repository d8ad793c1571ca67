package export_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tela/pkg/export"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	columns := []string{"uti_matricule", "uti_nom", "uti_actif", "uti_date_creation"}
	rows := []map[string]any{
		{"uti_matricule": "007", "uti_nom": "Bond", "uti_actif": true, "uti_date_creation": time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"uti_matricule": "A12", "uti_nom": nil, "uti_actif": false},
	}

	t.Run("forced strings", func(t *testing.T) {
		t.Parallel()
		out, err := export.CSVBytes(columns, rows)
		require.NoError(t, err)

		assert.True(t, bytes.HasPrefix(out, []byte("\xEF\xBB\xBF")))
		lines := strings.Split(strings.TrimSuffix(string(out[3:]), "\n"), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "uti_matricule;uti_nom;uti_actif;uti_date_creation", lines[0])
		assert.Equal(t, `"=""007""";"=""Bond""";"=""1""";"=""2024-05-01 00:00:00"""`, lines[1])
		assert.Equal(t, `"=""A12""";"=""""";"=""0""";"="""""`, lines[2])
	})

	t.Run("raw values and delimiter", func(t *testing.T) {
		t.Parallel()
		out, err := export.CSVBytes(columns[:2], rows, export.WithRawValues(), export.WithDelimiter(','))
		require.NoError(t, err)
		assert.Equal(t, "\xEF\xBB\xBFuti_matricule,uti_nom\n007,Bond\nA12,\n", string(out))
	})
}

func TestCSV_Errors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	assert.ErrorIs(t, export.CSV(&buf, []string{"a"}, nil), export.ErrNoRows)
	assert.ErrorIs(t, export.CSV(&buf, nil, []map[string]any{{"a": 1}}), export.ErrNoColumns)
	assert.Zero(t, buf.Len())
}

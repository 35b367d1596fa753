package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/smilemakc/smslabel/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLabel() taxonomy.Label {
	amount := 200.0
	return taxonomy.Label{
		MessageID:     1,
		Industry:      taxonomy.IndustryFinance,
		Type:          taxonomy.TypeTransactionAlert,
		Confidence:    0.9,
		NeedsReview:   false,
		Reasons:       []string{"rule: financial_keyword", "fusion_conflict"},
		Entities:      taxonomy.Entities{AccountSuffix: "1234", Amount: &amount},
		RulesVersion:  taxonomy.RulesVersion,
		ModelVersion:  "mock-1",
		SchemaVersion: taxonomy.SchemaVersion,
	}
}

func TestWriteCSV_HeaderAndRow(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []taxonomy.Label{sampleLabel()}))

	r := csv.NewReader(strings.NewReader(buf.String()))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, taxonomy.IndustryFinance, rows[1][0])
	assert.Equal(t, taxonomy.TypeTransactionAlert, rows[1][1])
	assert.Equal(t, "1234", rows[1][8])
	assert.Equal(t, "200", rows[1][6])
	assert.Equal(t, "rule: financial_keyword | fusion_conflict", rows[1][15])
}

func TestWriteCSV_EmptyEntitiesAreBlank(t *testing.T) {
	var buf bytes.Buffer
	l := taxonomy.Normalize(taxonomy.Label{Industry: taxonomy.IndustryOther, Type: taxonomy.TypeOther})
	require.NoError(t, WriteCSV(&buf, []taxonomy.Label{l}))

	r := csv.NewReader(strings.NewReader(buf.String()))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[1][6]) // amount
	assert.Equal(t, "", rows[1][4]) // brand
}

func TestWriteJSONL_OneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	labels := []taxonomy.Label{sampleLabel(), sampleLabel()}
	require.NoError(t, WriteJSONL(&buf, labels))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	for _, line := range lines {
		assert.Contains(t, line, `"industry":"`+taxonomy.IndustryFinance+`"`)
	}
}

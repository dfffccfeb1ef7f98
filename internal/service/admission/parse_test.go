package admission

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	in := "\xef\xbb\xbfEmail, Name ,Company,Plan\n" +
		"ann@acme.io,Ann,Acme,\n" +
		"\n" +
		"bob@acme.io,,Acme,pro\n" +
		"short@acme.io\n"
	rows, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Candidate{Email: "ann@acme.io", Name: "Ann", Metadata: map[string]any{"Company": "Acme"}}, rows[0])
	assert.Equal(t, map[string]any{"Company": "Acme", "Plan": "pro"}, rows[1].Metadata)
	assert.Equal(t, "short@acme.io", rows[2].Email)
	assert.Nil(t, rows[2].Metadata)
}

func TestParseCSV_MissingEmailColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("name,company\nAnn,Acme\n"))
	assert.ErrorIs(t, err, ErrMissingEmailColumn)
}

func TestParseCSV_Empty(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseJSON(t *testing.T) {
	rows, err := ParseJSON(strings.NewReader(`[{"email":"a@acme.io","name":"A","metadata":{"plan":"pro"}},{"email":"b@acme.io"}]`))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "pro", rows[0].Metadata["plan"])

	_, err = ParseJSON(strings.NewReader(`{"email":"a@acme.io"}`))
	assert.Error(t, err)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, "csv", FormatFor("contacts.CSV", ""))
	assert.Equal(t, "json", FormatFor("contacts.json", "text/csv"))
	assert.Equal(t, "json", FormatFor("upload", "application/json"))
	assert.Equal(t, "", FormatFor("upload.xlsx", "application/octet-stream"))

	_, err := ParseRows("xlsx", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

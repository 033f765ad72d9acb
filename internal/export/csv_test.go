package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/OxiForms/internal/models"
)

func colorForm() *models.Form {
	return &models.Form{
		Name: "Colors",
		Fields: []models.Field{
			{ID: "title", Type: models.FieldHeading, Label: "Pick colors"},
			{ID: "name", Type: models.FieldText, Label: "Name"},
			{ID: "colors", Type: models.FieldCheckbox, Label: "Colors", Options: []models.Option{
				{Label: "Red", Value: "Red"}, {Label: "Blue", Value: "Blue"},
			}},
			{ID: "subscribe", Type: models.FieldCheckbox, Label: "Subscribe"},
			{ID: "note", Type: models.FieldTextarea, Label: "Note, if any"},
		},
	}
}

func submissions() []models.Submission {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return []models.Submission{
		{ID: "1", CreatedAt: at, Data: map[string]any{
			"name": "Ada", "colors": []any{"Red", "Blue"}, "subscribe": true,
		}},
		{ID: "2", CreatedAt: at.Add(time.Hour), Data: map[string]any{
			"name": `Grace "Amazing" Hopper`, "colors": []string{"Blue"}, "note": "line one\nline two",
		}},
	}
}

func TestWriteCSVSubmissions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, colorForm(), submissions(), SubmissionsExport))

	want := "Submitted At,Name,Colors,Subscribe,\"Note, if any\"\n" +
		"2024-03-01T09:30:00Z,Ada,Red; Blue,true,\n" +
		"2024-03-01T10:30:00Z,\"Grace \"\"Amazing\"\" Hopper\",Blue,,\"line one\nline two\"\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVResponses(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, colorForm(), submissions()[:1], ResponsesExport))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Submission Date", "Name", "Colors", "Subscribe", "Note, if any"}, rows[0])
	assert.Equal(t, []string{"2024-03-01T09:30:00Z", "Ada", "Red, Blue", "Yes", ""}, rows[1])
}

func TestWriteCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, colorForm(), submissions(), SubmissionsExport))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, `Grace "Amazing" Hopper`, rows[2][1])
	assert.Equal(t, "line one\nline two", rows[2][4])
}

func TestPreset(t *testing.T) {
	o, ok := Preset("")
	assert.True(t, ok)
	assert.Equal(t, "; ", o.ListSeparator)

	o, ok = Preset("responses")
	assert.True(t, ok)
	assert.Equal(t, ", ", o.ListSeparator)

	_, ok = Preset("xlsx")
	assert.False(t, ok)
}

func TestEveryAnswerableTypeHasFormatter(t *testing.T) {
	for _, ft := range models.FieldTypes() {
		if ft == models.FieldHeading || ft == models.FieldParagraph {
			continue
		}
		_, ok := formatters[ft]
		assert.True(t, ok, "field type %q has no export formatter", ft)
	}
}

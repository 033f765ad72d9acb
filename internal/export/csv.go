// Package export renders stored submissions as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/parisxmas/OxiForms/internal/engine"
	"github.com/parisxmas/OxiForms/internal/models"
)

// Options controls how answers are turned into cell text.
type Options struct {
	TimestampHeader string
	TimeFormat      string
	ListSeparator   string
	YesNo           bool // render booleans as Yes/No instead of true/false
}

var (
	// SubmissionsExport is the dashboard submissions table export.
	SubmissionsExport = Options{
		TimestampHeader: "Submitted At",
		TimeFormat:      time.RFC3339,
		ListSeparator:   "; ",
	}

	// ResponsesExport is the responses page export.
	ResponsesExport = Options{
		TimestampHeader: "Submission Date",
		TimeFormat:      time.RFC3339,
		ListSeparator:   ", ",
		YesNo:           true,
	}
)

// Preset returns the export options registered under name.
func Preset(name string) (Options, bool) {
	switch name {
	case "", "submissions":
		return SubmissionsExport, true
	case "responses":
		return ResponsesExport, true
	}
	return Options{}, false
}

type formatter func(v any, o Options) string

// formatters is the per-type export table. Static field types have no
// column and therefore no entry.
var formatters = map[models.FieldType]formatter{
	models.FieldText:     formatScalar,
	models.FieldTextarea: formatScalar,
	models.FieldEmail:    formatScalar,
	models.FieldNumber:   formatScalar,
	models.FieldSelect:   formatScalar,
	models.FieldRadio:    formatScalar,
	models.FieldDate:     formatScalar,
	models.FieldCheckbox: formatChoice,
	models.FieldFile:     formatList,
}

// formatChoice renders a lone checkbox as a boolean and a checkbox group as
// its joined values.
func formatChoice(v any, o Options) string {
	if b, ok := v.(bool); ok {
		if o.YesNo {
			if b {
				return "Yes"
			}
			return "No"
		}
		return strconv.FormatBool(b)
	}
	return formatList(v, o)
}

func formatList(v any, o Options) string {
	switch s := v.(type) {
	case []string:
		return strings.Join(s, o.ListSeparator)
	case []any:
		parts := make([]string, len(s))
		for i, item := range s {
			parts[i] = formatScalar(item, o)
		}
		return strings.Join(parts, o.ListSeparator)
	}
	return formatScalar(v, o)
}

func formatScalar(v any, o Options) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return formatChoice(s, o)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case []string, []any:
		return formatList(s, o)
	default:
		return fmt.Sprint(s)
	}
}

func columns(form *models.Form) []models.Field {
	cols := make([]models.Field, 0, len(form.Fields))
	for _, f := range form.Fields {
		if engine.Answerable(f.Type) {
			cols = append(cols, f)
		}
	}
	return cols
}

// Header returns the header row: the timestamp column followed by one
// column per answerable field label, in field order.
func Header(form *models.Form, o Options) []string {
	cols := columns(form)
	header := make([]string, 0, len(cols)+1)
	header = append(header, o.TimestampHeader)
	for _, f := range cols {
		header = append(header, f.Label)
	}
	return header
}

// Row renders one submission in header order.
func Row(form *models.Form, sub *models.Submission, o Options) []string {
	cols := columns(form)
	row := make([]string, 0, len(cols)+1)
	row = append(row, sub.CreatedAt.UTC().Format(o.TimeFormat))
	for _, f := range cols {
		format, ok := formatters[f.Type]
		if !ok {
			format = formatScalar
		}
		row = append(row, format(sub.Data[f.ID], o))
	}
	return row
}

// WriteCSV writes the header and one row per submission. Cells containing
// a comma, quote or newline are quoted with inner quotes doubled.
func WriteCSV(w io.Writer, form *models.Form, subs []models.Submission, o Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(form, o)); err != nil {
		return err
	}
	for i := range subs {
		if err := cw.Write(Row(form, &subs[i], o)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

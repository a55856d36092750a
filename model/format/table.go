package format

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/janus-fieldvalue/model"
	"github.com/wbrown/janus-fieldvalue/model/codec"
	"github.com/wbrown/janus-fieldvalue/model/storage"
)

// TableFormatter renders values and documents as markdown tables
type TableFormatter struct {
	// MaxWidth is the maximum width for a column
	MaxWidth int
	// TruncateString is the string to append when truncating
	TruncateString string
	// Behavior controls how pending server timestamps are shown
	Behavior model.ServerTimestampBehavior
}

// NewTableFormatter creates a new table formatter with default settings
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		MaxWidth:       50,
		TruncateString: "...",
		Behavior:       model.ServerTimestampEstimate,
	}
}

// FormatValues renders values one per row with their type, type order,
// rendering and sort key
func (tf *TableFormatter) FormatValues(values []model.FieldValue) string {
	if len(values) == 0 {
		return "_No values_"
	}

	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{
			fmt.Sprintf("%d", i),
			v.Type().String(),
			v.Type().Order().String(),
			tf.formatValue(v),
			tf.truncate(hex.EncodeToString(codec.EncodeSortKey(v))),
		}
	}
	return tf.formatTable([]string{"#", "type", "order", "value", "sort key"}, rows, "values")
}

// FormatDocuments renders documents one per row with the given fields.
// A missing field renders as empty.
func (tf *TableFormatter) FormatDocuments(docs []*storage.Document, fields ...string) string {
	if len(docs) == 0 {
		return "_No documents_"
	}

	headers := append([]string{"id", "path"}, fields...)
	rows := make([][]string, len(docs))
	for i, d := range docs {
		row := []string{d.ID(), d.Key.String()}
		for _, f := range fields {
			v, ok := d.Field(f)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, tf.formatValue(v))
		}
		rows[i] = row
	}
	return tf.formatTable(headers, rows, "documents")
}

// formatTable formats headers and rows as a markdown table
func (tf *TableFormatter) formatTable(headers []string, rows [][]string, noun string) string {
	tableString := &strings.Builder{}

	// AlignNone keeps the markdown separators simple
	alignment := make([]tw.Align, len(headers))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()

	tableString.WriteString(fmt.Sprintf("\n_%d %s_\n", len(rows), noun))
	return tableString.String()
}

// formatValue renders a value for a table cell. Pending server timestamps
// follow the formatter's behavior.
func (tf *TableFormatter) formatValue(v model.FieldValue) string {
	if v.Type() == model.TypeServerTimestamp {
		return tf.truncate(serverTimestampString(v.AsServerTimestamp(), tf.Behavior))
	}
	// Pipes would split the markdown cell
	return tf.truncate(strings.ReplaceAll(v.String(), "|", "\\|"))
}

func serverTimestampString(st model.ServerTimestamp, behavior model.ServerTimestampBehavior) string {
	switch behavior {
	case model.ServerTimestampEstimate:
		return st.LocalWriteTime.String() + " (estimate)"
	case model.ServerTimestampPrevious:
		if prev, ok := st.Previous(); ok {
			return prev.String() + " (previous)"
		}
	}
	return "(pending)"
}

func (tf *TableFormatter) truncate(s string) string {
	if tf.MaxWidth <= 0 || len(s) <= tf.MaxWidth {
		return s
	}
	cut := tf.MaxWidth - len(tf.TruncateString)
	if cut < 0 {
		cut = 0
	}
	return s[:cut] + tf.TruncateString
}

// ValuesString renders values with the default formatter
func ValuesString(values []model.FieldValue) string {
	return NewTableFormatter().FormatValues(values)
}

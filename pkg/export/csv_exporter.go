package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter flattens a weekly timetable into spreadsheet-friendly rows.
type CSVExporter struct{}

// NewCSVExporter constructs a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render emits one record per scheduled session. Each section keeps its
// weekday heading as the leading column so the week order survives the
// flattening.
func (e *CSVExporter) Render(doc TimetableDocument) ([]byte, error) {
	if len(doc.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if err := writer.Write(append([]string{"Day"}, doc.Headers...)); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, section := range doc.Sections {
		for _, row := range section.Rows {
			record := make([]string, 0, len(doc.Headers)+1)
			record = append(record, section.Heading)
			for _, header := range doc.Headers {
				record = append(record, row[header])
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

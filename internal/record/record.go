// Package record defines the log event shapes shared by the ingestion core.
package record

import "strings"

// sourceWidth is the number of source characters shown in the UI.
const sourceWidth = 3

// Record is a single ingested log event. Records are never mutated after
// decoding; the store hands out copies.
type Record struct {
	Timestamp string `json:"date"`
	Severity  string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	Source    string `json:"source,omitempty"`
}

// Row is a Record whose timestamp has been rendered for display.
type Row struct {
	Time     string
	Severity string
	Category string
	Message  string
	Source   string
}

// ShortSource returns the source tag truncated for display.
func (r Row) ShortSource() string {
	src := strings.TrimSpace(r.Source)
	runes := []rune(src)
	if len(runes) > sourceWidth {
		return string(runes[:sourceWidth])
	}
	return src
}

// CloneRows returns an independent copy of rows.
func CloneRows(rows []Row) []Row {
	if len(rows) == 0 {
		return nil
	}
	dup := make([]Row, len(rows))
	copy(dup, rows)
	return dup
}

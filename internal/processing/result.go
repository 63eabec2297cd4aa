package processing

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// metadataResult is the minimal summary for binary categories (image, pdf).
type metadataResult struct {
	Type          string `json:"type"`
	FileSizeBytes int    `json:"file_size_bytes"`
	LastModified  int64  `json:"last_modified"`
	Message       string `json:"message"`
}

// textResult summarizes a plain-text file.
type textResult struct {
	Type           string `json:"type"`
	LineCount      int    `json:"line_count"`
	WordCount      int    `json:"word_count"`
	CharacterCount int    `json:"character_count"`
	Preview        string `json:"preview"`
	Message        string `json:"message"`
}

// tabularResult summarizes delimited-text and spreadsheet files. SheetNames
// is present only for workbooks.
type tabularResult struct {
	Type        string      `json:"type"`
	Rows        int         `json:"rows"`
	Columns     int         `json:"columns"`
	ColumnNames []string    `json:"column_names"`
	SheetNames  []string    `json:"sheet_names,omitempty"`
	SampleData  []SampleRow `json:"sample_data"`
	Message     string      `json:"message"`
}

type unsupportedResult struct {
	Message string `json:"message"`
}

// SampleRow is one sampled data row keyed by column name. It marshals as a
// JSON object whose keys appear in column order.
type SampleRow struct {
	Columns []string
	Values  []any
}

// MarshalJSON emits the row as an object preserving column order.
func (r SampleRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var value any
		if i < len(r.Values) {
			value = r.Values[i]
		}
		val, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// coerceValue converts a cell to a number when it parses as one, mirroring
// how sampled tabular data is presented (1, not "1").
func coerceValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func marshalResult(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// failureResult builds the terminal error payload persisted on Failed runs.
func failureResult(msg string) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{"error": msg})
	return raw
}

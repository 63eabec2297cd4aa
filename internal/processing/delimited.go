package processing

import (
	"encoding/csv"
	"encoding/json"
	"strings"
)

// delimitedExtractor parses csv-like text. Any parse failure falls through to
// plain-text handling instead of failing the file.
type delimitedExtractor struct {
	fallback Extractor
}

func (e delimitedExtractor) Extract(in Input) (json.RawMessage, error) {
	text := string(in.Data)

	delimiter, ok := detectDelimiter(firstLine(in.Data))
	if !ok {
		return e.fallback.Extract(in)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter

	records, err := reader.ReadAll()
	if err != nil || len(records) == 0 {
		return e.fallback.Extract(in)
	}

	header := records[0]
	dataRows := records[1:]

	sample := make([]SampleRow, 0, sampleRowLimit)
	for i, row := range dataRows {
		if i == sampleRowLimit {
			break
		}
		values := make([]any, len(header))
		for j := range header {
			if j < len(row) {
				values[j] = coerceValue(row[j])
			}
		}
		sample = append(sample, SampleRow{Columns: header, Values: values})
	}

	return marshalResult(tabularResult{
		Type:        "csv",
		Rows:        len(dataRows),
		Columns:     len(header),
		ColumnNames: header,
		SampleData:  sample,
		Message:     "CSV processing completed successfully.",
	})
}

// detectDelimiter samples a line for comma, semicolon and tab, returning the
// most frequent one.
func detectDelimiter(line string) (rune, bool) {
	best := rune(0)
	bestCount := 0
	for _, candidate := range []rune{',', ';', '\t'} {
		if count := strings.Count(line, string(candidate)); count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	if bestCount == 0 {
		return 0, false
	}
	return best, true
}

package processing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// spreadsheetExtractor summarizes workbooks: dimensions and column names from
// the first sheet, names of all sheets, and a bounded row sample.
type spreadsheetExtractor struct{}

func (spreadsheetExtractor) Extract(in Input) (json.RawMessage, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(in.Data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var header []string
	var dataRows [][]string
	if len(rows) > 0 {
		header = rows[0]
		dataRows = rows[1:]
	}

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
		Type:        "excel",
		Rows:        len(dataRows),
		Columns:     len(header),
		ColumnNames: header,
		SheetNames:  sheets,
		SampleData:  sample,
		Message:     "Excel processing completed successfully.",
	})
}

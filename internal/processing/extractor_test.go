package processing

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func extract(t *testing.T, category Category, data []byte) map[string]any {
	t.Helper()
	registry := NewRegistry()
	raw, err := registry.Extract(category, Input{
		Data:         data,
		MIME:         "application/octet-stream",
		LastModified: time.Unix(1700000000, 0),
	})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	return result
}

func TestTextExtractorCounts(t *testing.T) {
	result := extract(t, CategoryText, []byte("hello world\nsecond line\n"))

	if result["type"] != "text" {
		t.Fatalf("unexpected type: %v", result["type"])
	}
	if result["line_count"] != float64(2) {
		t.Fatalf("expected 2 lines, got %v", result["line_count"])
	}
	if result["word_count"] != float64(4) {
		t.Fatalf("expected 4 words, got %v", result["word_count"])
	}
	if result["character_count"] != float64(24) {
		t.Fatalf("expected 24 characters, got %v", result["character_count"])
	}
	if result["preview"] != "hello world\nsecond line\n" {
		t.Fatalf("unexpected preview: %q", result["preview"])
	}
}

func TestTextExtractorCountsUnicodeWords(t *testing.T) {
	// Accented letters are word characters, not run separators.
	result := extract(t, CategoryText, []byte("héllo wörld"))

	if result["word_count"] != float64(2) {
		t.Fatalf("expected 2 words, got %v", result["word_count"])
	}
	if result["character_count"] != float64(11) {
		t.Fatalf("expected 11 characters, got %v", result["character_count"])
	}
}

func TestTextPreviewTruncation(t *testing.T) {
	exact := strings.Repeat("x", 500)
	if got := preview(exact); got != exact {
		t.Fatalf("500-char text must not be truncated")
	}

	over := strings.Repeat("x", 501)
	got := preview(over)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated preview must end with ellipsis marker")
	}
	if len([]rune(got)) != 503 {
		t.Fatalf("expected 500 chars plus marker, got %d", len([]rune(got)))
	}
}

func TestCountLinesTrailingNewline(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"one\n", 1},
		{"one\ntwo", 2},
		{"one\ntwo\n", 2},
	}
	for _, tc := range cases {
		if got := countLines(tc.text); got != tc.want {
			t.Fatalf("countLines(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestDelimitedExtractorSummarizesCSV(t *testing.T) {
	result := extract(t, CategoryDelimited, []byte("a,b\n1,2\n3,4\n"))

	if result["type"] != "csv" {
		t.Fatalf("unexpected type: %v", result["type"])
	}
	if result["rows"] != float64(2) {
		t.Fatalf("expected 2 data rows, got %v", result["rows"])
	}
	if result["columns"] != float64(2) {
		t.Fatalf("expected 2 columns, got %v", result["columns"])
	}

	sample, ok := result["sample_data"].([]any)
	if !ok || len(sample) != 2 {
		t.Fatalf("expected 2 sample rows, got %v", result["sample_data"])
	}
	first, ok := sample[0].(map[string]any)
	if !ok {
		t.Fatalf("sample row is not an object: %v", sample[0])
	}
	// Numeric-looking cells are coerced to numbers.
	if first["a"] != float64(1) || first["b"] != float64(2) {
		t.Fatalf("expected coerced numeric cells, got %v", first)
	}
}

func TestDelimitedExtractorHeaderOnly(t *testing.T) {
	result := extract(t, CategoryDelimited, []byte("a,b,c\n"))

	if result["rows"] != float64(0) {
		t.Fatalf("expected 0 data rows, got %v", result["rows"])
	}
	sample, ok := result["sample_data"].([]any)
	if !ok || len(sample) != 0 {
		t.Fatalf("expected empty sample list, got %v", result["sample_data"])
	}
}

func TestDelimitedExtractorCapsSampleRows(t *testing.T) {
	result := extract(t, CategoryDelimited, []byte("a,b\n"+strings.Repeat("1,2\n", 20)))

	if result["rows"] != float64(20) {
		t.Fatalf("expected 20 data rows, got %v", result["rows"])
	}
	sample := result["sample_data"].([]any)
	if len(sample) != 5 {
		t.Fatalf("expected sample capped at 5 rows, got %d", len(sample))
	}
}

func TestDelimitedExtractorFallsBackToTextOnParseFailure(t *testing.T) {
	// Unbalanced quote makes csv.ReadAll fail; the file must still complete
	// as plain text.
	result := extract(t, CategoryDelimited, []byte("a,b\n\"unclosed,2\n"))

	if result["type"] != "text" {
		t.Fatalf("expected plain-text fallback, got type %v", result["type"])
	}
}

func TestSpreadsheetExtractor(t *testing.T) {
	workbook := excelize.NewFile()
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	cells := map[string]any{
		"A1": "name", "B1": "score",
		"A2": "alice", "B2": 10,
		"A3": "bob", "B3": 20,
	}
	for cell, value := range cells {
		if err := workbook.SetCellValue(sheet, cell, value); err != nil {
			t.Fatalf("SetCellValue: %v", err)
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	result := extract(t, CategorySpreadsheet, buf.Bytes())

	if result["type"] != "excel" {
		t.Fatalf("unexpected type: %v", result["type"])
	}
	if result["rows"] != float64(2) {
		t.Fatalf("expected 2 data rows, got %v", result["rows"])
	}
	if result["columns"] != float64(2) {
		t.Fatalf("expected 2 columns, got %v", result["columns"])
	}
	sheets, ok := result["sheet_names"].([]any)
	if !ok || len(sheets) != 1 {
		t.Fatalf("expected one sheet name, got %v", result["sheet_names"])
	}
}

func TestUnsupportedCategoryCompletesWithMessage(t *testing.T) {
	registry := NewRegistry()
	raw, err := registry.Extract(CategoryUnsupported, Input{MIME: "application/zip"})
	if err != nil {
		t.Fatalf("unsupported category must not error: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result["message"] != "Unsupported file type: application/zip" {
		t.Fatalf("unexpected message: %v", result["message"])
	}
}

func TestSampleRowPreservesColumnOrder(t *testing.T) {
	row := SampleRow{
		Columns: []string{"z", "a", "m"},
		Values:  []any{int64(1), "two", 3.5},
	}
	raw, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"z":1,"a":"two","m":3.5}`
	if string(raw) != want {
		t.Fatalf("got %s, want %s", raw, want)
	}
}

func TestCoerceValue(t *testing.T) {
	if v := coerceValue("42"); v != int64(42) {
		t.Fatalf("expected int64 42, got %T %v", v, v)
	}
	if v := coerceValue("3.14"); v != 3.14 {
		t.Fatalf("expected float 3.14, got %T %v", v, v)
	}
	if v := coerceValue("hello"); v != "hello" {
		t.Fatalf("expected string passthrough, got %T %v", v, v)
	}
}

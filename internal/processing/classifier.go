package processing

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Category is a content-derived class of uploaded file.
type Category string

const (
	CategoryImage       Category = "image"
	CategoryPDF         Category = "pdf"
	CategoryDelimited   Category = "delimited-text"
	CategoryText        Category = "plain-text"
	CategorySpreadsheet Category = "spreadsheet"
	CategoryUnsupported Category = "unsupported"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Classify inspects raw bytes and returns the detected category together with
// the detected MIME type. It never consults filenames or client-declared
// types; identical bytes always yield an identical result.
//
// Only OOXML workbooks are spreadsheets; legacy OLE workbooks cannot be
// parsed by the extractor and stay unsupported. Structured text formats
// (html, json, xml) are likewise unsupported, not plain text.
func Classify(data []byte) (Category, string) {
	mt := mimetype.Detect(data)
	detected := mt.String()

	switch {
	case strings.HasPrefix(detected, "image/"):
		return CategoryImage, detected
	case mt.Is("application/pdf"):
		return CategoryPDF, detected
	case mt.Is(mimeXLSX):
		return CategorySpreadsheet, detected
	}

	if isTextual(mt) {
		if _, ok := detectDelimiter(firstLine(data)); ok {
			return CategoryDelimited, detected
		}
		return CategoryText, detected
	}

	return CategoryUnsupported, detected
}

// isTextual admits bare text and its delimited variants. tab-separated-values
// is included because the detector distinguishes it where coarser sniffers
// report text/plain.
func isTextual(mt *mimetype.MIME) bool {
	return mt.Is("text/plain") || mt.Is("text/csv") || mt.Is("text/tab-separated-values")
}

func firstLine(data []byte) string {
	if idx := strings.IndexByte(string(data), '\n'); idx >= 0 {
		return string(data[:idx])
	}
	return string(data)
}

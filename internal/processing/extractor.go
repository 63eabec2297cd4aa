package processing

import (
	"encoding/json"
	"fmt"
	"time"
)

// Caps bounding result size. Contract values, not configuration.
const (
	sampleRowLimit = 5
	previewLimit   = 500
)

// Input carries everything an extractor may need about a classified file.
type Input struct {
	Data         []byte
	MIME         string
	LastModified time.Time
}

// Extractor produces a structured summary for one content category.
type Extractor interface {
	Extract(in Input) (json.RawMessage, error)
}

// Registry dispatches extraction by detected category, with an explicit
// unsupported fallback for everything it has no extractor for.
type Registry struct {
	extractors map[Category]Extractor
}

// NewRegistry wires the default extractor set. The delimited extractor falls
// back to plain-text handling when parsing fails.
func NewRegistry() *Registry {
	text := textExtractor{}
	return &Registry{
		extractors: map[Category]Extractor{
			CategoryImage:       metadataExtractor{kind: "image", message: "Image processing completed successfully."},
			CategoryPDF:         metadataExtractor{kind: "pdf", message: "PDF processing completed successfully."},
			CategoryText:        text,
			CategoryDelimited:   delimitedExtractor{fallback: text},
			CategorySpreadsheet: spreadsheetExtractor{},
		},
	}
}

// Extract runs the category's extractor. Categories without one yield the
// unsupported result, which is a successful outcome.
func (r *Registry) Extract(category Category, in Input) (json.RawMessage, error) {
	if extractor, ok := r.extractors[category]; ok {
		return extractor.Extract(in)
	}
	return marshalResult(unsupportedResult{
		Message: fmt.Sprintf("Unsupported file type: %s", in.MIME),
	})
}

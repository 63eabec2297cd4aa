package processing

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Unicode word characters; Go's \w is ASCII-only and would split accented
// words into multiple runs.
var wordRE = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// textExtractor summarizes plain text: line/word/character counts and a
// bounded preview.
type textExtractor struct{}

func (textExtractor) Extract(in Input) (json.RawMessage, error) {
	text := string(in.Data)

	return marshalResult(textResult{
		Type:           "text",
		LineCount:      countLines(text),
		WordCount:      len(wordRE.FindAllStringIndex(text, -1)),
		CharacterCount: utf8.RuneCountInString(text),
		Preview:        preview(text),
		Message:        "Text processing completed successfully.",
	})
}

// countLines counts newline-delimited segments; a trailing newline does not
// open an empty final line.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// preview returns at most previewLimit characters, appending an ellipsis
// marker only when the text was actually truncated.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit]) + "..."
}

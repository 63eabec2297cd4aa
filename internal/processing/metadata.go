package processing

import "encoding/json"

// metadataExtractor handles binary categories where only basic metadata is
// reported. Dimension/page extraction is a deliberate extension point.
type metadataExtractor struct {
	kind    string
	message string
}

func (e metadataExtractor) Extract(in Input) (json.RawMessage, error) {
	return marshalResult(metadataResult{
		Type:          e.kind,
		FileSizeBytes: len(in.Data),
		LastModified:  in.LastModified.Unix(),
		Message:       e.message,
	})
}

package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const indent = "    "

// Encode renders v as snapshot JSON: UTF-8, object keys sorted, four-space
// indentation, ": " between key and value, no trailing newline. v should be a
// map (Document or a decoded snapshot); map keys are always emitted in order.
//
// Encoding the result of Decode yields the original bytes.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, encodingErrorf("marshal: %v", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode parses snapshot bytes back into a generic object.
func Decode(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return out, nil
}

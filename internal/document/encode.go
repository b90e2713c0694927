package document

import (
	"bytes"
	"encoding/json"
	"io"
)

// Indent is the per-level indentation of written documents.
const Indent = "    "

// Encode writes records to w as a single JSON array, one object per record,
// indented with Indent. An empty or nil set is written as []. No newline
// follows the closing bracket.
func Encode(w io.Writer, records []*Record) error {
	if records == nil {
		records = []*Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	if err := enc.Encode(records); err != nil {
		return err
	}

	_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return err
}

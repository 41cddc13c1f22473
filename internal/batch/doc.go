// Package batch buffers collected documents and commits them to the output
// directory as crash-safe batch files.
//
// Each flush writes three steps: an empty <id>.lock marker, the <id>.json
// payload and finally the removal of the marker. Readers must ignore a
// .json file while its .lock sibling exists. A process killed between the
// first and last step leaves the marker behind; that batch is lost.
package batch

import "encoding/base64"

// Doc is one serialized record inside a batch file.
type Doc struct {
	URL     string         `json:"url"`
	Title   *string        `json:"title"`
	Content string         `json:"content"`
	Columns map[string]any `json:"columns"`
}

// File is the on-disk layout of a batch.
type File struct {
	Docs []Doc `json:"docs"`
}

// NewDoc builds a Doc, base64-encoding content with the standard alphabet.
func NewDoc(url string, title *string, content []byte, columns map[string]any) Doc {
	if columns == nil {
		columns = map[string]any{}
	}
	return Doc{
		URL:     url,
		Title:   title,
		Content: base64.StdEncoding.EncodeToString(content),
		Columns: columns,
	}
}

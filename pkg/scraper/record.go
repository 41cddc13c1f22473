package scraper

// Record is one collected document.
type Record struct {
	URL   string
	Title *string
	// Content is the raw payload. When nil, Text is used instead.
	Content []byte
	Text    string
	// Columns holds caller-defined extra values (strings, numbers, bools).
	Columns map[string]any
}

// payload normalizes the record content to bytes.
func (r Record) payload() []byte {
	if r.Content != nil {
		return r.Content
	}
	return []byte(r.Text)
}

// Title is a helper for the optional Record.Title field.
func Title(s string) *string {
	return &s
}

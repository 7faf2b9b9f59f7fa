package mdcode

// Unfence parses a Markdown document and returns all fenced code blocks
// in document order.
func Unfence(source []byte) (Blocks, error) {
	doc, err := Parse(source)
	if err != nil {
		return nil, err
	}

	return doc.Blocks()
}

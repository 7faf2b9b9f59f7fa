package mdcode

// Block is a fenced code region of a markdown document.
type Block struct {
	Lang string
	// Info is the raw info string following the language tag.
	Info      []byte
	Meta      Meta
	Code      []byte
	StartLine int
	EndLine   int

	metaErr error
}

// MetaErr returns the error met while parsing Info into Meta. Meta is nil
// when it is set. Only runnable blocks treat it as fatal.
func (b *Block) MetaErr() error {
	return b.metaErr
}

// Skipped reports whether the block opted out of execution with skip=true.
func (b *Block) Skipped() bool {
	return b.Meta.Bool(metaSkip)
}

type Blocks []*Block

const metaSkip = "skip"

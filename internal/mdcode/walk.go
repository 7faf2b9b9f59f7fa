package mdcode

import (
	"bytes"
	"errors"
	"regexp"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// The language tag runs up to the first whitespace or an opening brace of
// {key=value} meta.
var reInfo = regexp.MustCompile(`^\s*([^\s{]+)\s*(.*?)\s*$`)

// ErrInvalidUTF8 is returned by [Parse] when the source is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("markdown source is not valid UTF-8")

// Walker is a callback invoked for each fenced code block found in a Markdown
// document, in document order.
type Walker func(block *Block) error

// Document is a parsed Markdown source. It is read-only once parsed.
type Document struct {
	Source []byte
	Root   ast.Node
}

// Parse parses a Markdown document into its goldmark tree.
func Parse(source []byte) (*Document, error) {
	if !utf8.Valid(source) {
		return nil, ErrInvalidUTF8
	}

	parser := goldmark.DefaultParser()
	reader := text.NewReader(source)
	root := parser.Parse(reader).OwnerDocument()

	return &Document{Source: source, Root: root}, nil
}

// Line returns the position of the document root. The root always starts on
// the first line.
func (d *Document) Line() int {
	return 1
}

// Blocks returns every fenced code block of the document in document order.
func (d *Document) Blocks() (Blocks, error) {
	var blocks Blocks

	err := d.Walk(func(block *Block) error {
		blocks = append(blocks, block)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return blocks, nil
}

// Walk calls walker for every fenced code block of the document.
func (d *Document) Walk(walker Walker) error {
	source := d.Source

	return ast.Walk(d.Root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		node = transformCommentedCodeBlock(node, entering, source)

		fcb := asFencedCodeBlock(node, entering)
		if fcb == nil {
			return ast.WalkContinue, nil
		}

		if err := walker(extractBlock(fcb, source)); err != nil {
			return ast.WalkStop, err
		}

		return ast.WalkContinue, nil
	})
}

func asFencedCodeBlock(node ast.Node, entering bool) *ast.FencedCodeBlock {
	if entering || node.Kind() != ast.KindFencedCodeBlock {
		return nil
	}

	if fcb, ok := node.(*ast.FencedCodeBlock); ok {
		return fcb
	}

	return nil
}

func extractBlock(fcb *ast.FencedCodeBlock, source []byte) *Block {
	lang, info := extractInfo(fcb, source)

	block := &Block{Lang: lang, Info: info, Code: extractCode(fcb, source)}
	block.Meta, block.metaErr = parseMeta(info)
	block.StartLine, block.EndLine = extractLines(fcb, source)

	return block
}

func extractLines(fcb *ast.FencedCodeBlock, source []byte) (int, int) {
	var startLine, endLine int

	if fcb.Info != nil {
		startLine = lineAt(source, fcb.Info.Segment.Start)
	} else {
		lines := fcb.Lines()
		if lines.Len() > 0 {
			startLine = lineAt(source, lines.At(0).Start) - 1
		}
	}

	lines := fcb.Lines()
	if lines.Len() > 0 {
		endLine = lineAt(source, lines.At(lines.Len()-1).Stop)
	} else if startLine > 0 {
		endLine = startLine + 1
	}

	return startLine, endLine
}

func lineAt(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}

	return bytes.Count(source[:offset], []byte{'\n'}) + 1
}

func extractCode(fcb *ast.FencedCodeBlock, source []byte) []byte {
	var buff bytes.Buffer

	lines := fcb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)

		buff.Write(seg.Value(source))
	}

	return buff.Bytes()
}

func extractInfo(fcb *ast.FencedCodeBlock, source []byte) (string, []byte) {
	if fcb.Info == nil {
		return "", nil
	}

	return parseInfo(fcb.Info.Text(source))
}

func parseInfo(text []byte) (string, []byte) {
	all := reInfo.FindSubmatch(text)
	if all == nil {
		return "", nil
	}

	return string(all[1]), all[2]
}

var (
	reCommentedCodeBlock = regexp.MustCompile(`^\s*(<!--)?\s*<script\s*type=["']text/markdown["']\s*>\s*$`)
	reFences             = regexp.MustCompile("^\\s*```")
)

// transformCommentedCodeBlock turns a fenced block wrapped in a
// <script type="text/markdown"> HTML block into a real fenced code block node.
func transformCommentedCodeBlock(node ast.Node, entering bool, source []byte) ast.Node { //nolint:ireturn
	if entering || node.Kind() != ast.KindHTMLBlock {
		return node
	}

	html, ok := node.(*ast.HTMLBlock)
	if !ok {
		return node
	}

	const minLines = 2

	lines := html.Lines()
	if lines.Len() < minLines {
		return node
	}

	seg := lines.At(0)
	if !reCommentedCodeBlock.Match(seg.Value(source)) {
		return node
	}

	seg = lines.At(1)

	loc := reFences.FindIndex(seg.Value(source))
	if loc == nil {
		return node
	}

	info := ast.NewTextSegment(text.NewSegment(seg.Start+loc[1], seg.Stop-1))
	fcb := ast.NewFencedCodeBlock(info)

	last := lines.At(lines.Len() - 1)
	if !reFences.Match(last.Value(source)) {
		return node
	}

	segs := text.NewSegments()

	for i := 2; i < lines.Len()-1; i++ {
		segs.Append(lines.At(i))
	}

	fcb.SetLines(segs)

	return fcb
}

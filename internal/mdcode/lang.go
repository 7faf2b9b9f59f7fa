package mdcode

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultLanguages are the info-string tags treated as runnable JavaScript.
var DefaultLanguages = []string{"javascript", "js", "cjs", "mjs"}

// Languages matches block language tags against a set of glob patterns.
// Matching is case-insensitive. The zero value matches nothing.
type Languages struct {
	patterns []glob.Glob
}

// NewLanguages compiles the given patterns. An empty list selects
// [DefaultLanguages].
func NewLanguages(patterns ...string) (*Languages, error) {
	if len(patterns) == 0 {
		patterns = DefaultLanguages
	}

	langs := &Languages{patterns: make([]glob.Glob, 0, len(patterns))}

	for _, pattern := range patterns {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid language pattern %q: %w", pattern, err)
		}

		langs.patterns = append(langs.patterns, g)
	}

	return langs, nil
}

// Match reports whether lang is a runnable tag. Untagged blocks never match.
func (l *Languages) Match(lang string) bool {
	if l == nil || len(lang) == 0 {
		return false
	}

	lang = strings.ToLower(lang)

	for _, g := range l.patterns {
		if g.Match(lang) {
			return true
		}
	}

	return false
}

// Executable returns, in document order, the blocks whose language is
// runnable and that are not marked skip. A runnable block whose info string
// cannot be parsed is an error; other blocks are inert whatever their info.
func (l *Languages) Executable(blocks Blocks) (Blocks, error) {
	var res Blocks

	for _, block := range blocks {
		if !l.Match(block.Lang) {
			continue
		}

		if err := block.MetaErr(); err != nil {
			return nil, fmt.Errorf("info string of %s block at line %d: %w", block.Lang, block.StartLine, err)
		}

		if !block.Skipped() {
			res = append(res, block)
		}
	}

	return res, nil
}

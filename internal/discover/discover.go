// Package discover finds the markdown files of a directory tree.
package discover

import (
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/gobwas/glob"
)

// DefaultInclude selects markdown files at any depth.
var DefaultInclude = []string{"**.md", "**.markdown"}

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Files walks root in fsys and returns, in lexical order, the slash
// separated paths of files matching any include pattern. Patterns
// are matched against the path relative to root, with '/' as separator.
// An empty include list selects DefaultInclude.
func Files(fsys fs.FS, root string, include []string) ([]string, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}

	globs := make([]glob.Glob, 0, len(include))

	for _, pattern := range include {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}

		globs = append(globs, g)
	}

	var files []string

	err := fs.WalkDir(fsys, root, func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if name != root && skipDirs[entry.Name()] {
				return fs.SkipDir
			}

			return nil
		}

		if matchAny(globs, relative(root, name)) {
			files = append(files, name)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)

	return files, nil
}

func relative(root, name string) string {
	if root == "." || root == "" {
		return name
	}

	rel := name[len(path.Clean(root)):]
	if len(rel) > 0 && rel[0] == '/' {
		rel = rel[1:]
	}

	return rel
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}

	return false
}

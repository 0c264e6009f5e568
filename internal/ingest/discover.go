package ingest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

type SourceFile struct {
	Path string
}

var sourceExts = []string{".md", ".markdown", ".mdx"}

// DiscoverSource lists Markdown files under root in lexical path order. A
// missing root yields no files and no error.
func DiscoverSource(root string) ([]SourceFile, error) {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var out []SourceFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if slices.Contains(sourceExts, strings.ToLower(filepath.Ext(d.Name()))) {
			out = append(out, SourceFile{Path: path})
		}
		return nil
	})
	return out, err
}

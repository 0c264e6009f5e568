package build

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"bytesite/internal/domain/content"
)

// Fingerprint identifies the inputs of a static build. Two builds with the
// same Sum produce the same pages, apart from the generation time.
type Fingerprint struct {
	Articles string
	Pages    string
	Theme    string
	Config   string
	Repos    string
}

func (f Fingerprint) Sum() string {
	h := sha256.New()
	for _, part := range []string{f.Articles, f.Pages, f.Theme, f.Config, f.Repos} {
		_, _ = io.WriteString(h, part)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func HashArticles(arts []content.Article) string {
	keys := make([]string, 0, len(arts))
	for _, a := range arts {
		keys = append(keys, a.Meta.Slug+"\x00"+a.Body.ContentHash)
	}
	return hashStrings(keys)
}

func HashPages(pages []content.Page) string {
	keys := make([]string, 0, len(pages))
	for _, p := range pages {
		keys = append(keys, p.Slug+"\x00"+p.Body.ContentHash)
	}
	return hashStrings(keys)
}

// HashValue hashes the JSON form of v.
func HashValue(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// HashTree hashes relative paths and contents of every file under root.
// A missing root hashes like an empty one.
func HashTree(root string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, _ = io.WriteString(h, filepath.ToSlash(rel))
		_, _ = h.Write([]byte{0})
		_, err = io.Copy(h, f)
		return err
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashStrings(keys []string) string {
	slices.Sort(keys)
	h := sha256.New()
	for _, k := range keys {
		_, _ = io.WriteString(h, k)
		_, _ = h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

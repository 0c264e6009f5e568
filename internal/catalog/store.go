package catalog

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"bytesite/internal/domain/content"
)

var ErrDuplicateSlug = errors.New("catalog: duplicate slug")

// Store is an immutable snapshot of article records.
type Store struct {
	articles []content.Article
}

// NewStore copies articles into a new snapshot. Slugs must be unique and
// non-empty.
func NewStore(articles []content.Article) (*Store, error) {
	seen := make(map[string]struct{}, len(articles))
	out := make([]content.Article, 0, len(articles))
	for _, a := range articles {
		slug := a.Meta.Slug
		if strings.TrimSpace(slug) == "" {
			return nil, fmt.Errorf("catalog: empty slug (source %q)", a.Body.SourcePath)
		}
		if _, ok := seen[slug]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, slug)
		}
		seen[slug] = struct{}{}
		out = append(out, a.Clone())
	}
	return &Store{articles: out}, nil
}

func (s *Store) Len() int {
	return len(s.articles)
}

// All yields a copy of every record, published or not, in load order.
func (s *Store) All() iter.Seq[content.Article] {
	return func(yield func(content.Article) bool) {
		for _, a := range s.articles {
			if !yield(a.Clone()) {
				return
			}
		}
	}
}

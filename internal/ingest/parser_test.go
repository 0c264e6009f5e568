package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerr "bytesite/internal/domain/errors"
)

func TestParseFrontMatter(t *testing.T) {
	raw := []byte("---\r\ntitle: Hello\r\nslug: hello-world\r\ndate: 2024-03-01\r\ndescription: First post\r\ntags: [go, web]\r\n---\r\n# Heading\r\n\r\nBody text.\r\n")

	fm, body, err := ParseFrontMatter(raw)
	require.NoError(t, err)
	assert.Equal(t, "Hello", fm.Title)
	assert.Equal(t, "hello-world", fm.Slug)
	assert.Equal(t, "2024-03-01", fm.Date)
	assert.Equal(t, []string{"go", "web"}, fm.Tags)
	assert.Nil(t, fm.Published)
	assert.True(t, fm.IsPublished())
	assert.Equal(t, "# Heading\n\nBody text.", string(body))
}

func TestParseFrontMatter_PublishedFalse(t *testing.T) {
	fm, _, err := ParseFrontMatter([]byte("---\npublished: false\n---\nx"))
	require.NoError(t, err)
	require.NotNil(t, fm.Published)
	assert.False(t, fm.IsPublished())
}

func TestParseFrontMatter_BodyKeepsRules(t *testing.T) {
	_, body, err := ParseFrontMatter([]byte("---\ntitle: t\n---\nabove\n\n---\n\nbelow"))
	require.NoError(t, err)
	assert.Equal(t, "above\n\n---\n\nbelow", string(body))
}

func TestSplitFrontMatter_Edges(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		header string
		body   string
		err    error
	}{
		{name: "empty", in: "", err: errNoFrontMatter},
		{name: "no header", in: "just text", body: "just text", err: errNoFrontMatter},
		{name: "header only", in: "---\ntitle: x\n---", header: "title: x"},
		{name: "empty header", in: "---\n---\nbody", body: "body"},
		{name: "bare separators", in: "---\n---"},
		{name: "unterminated", in: "---\ntitle: x\nbody", body: "---\ntitle: x\nbody", err: errInvalidFrontMatter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, b, err := SplitFrontMatter([]byte(tt.in))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.header, string(h))
			assert.Equal(t, tt.body, string(b))
		})
	}
}

func TestFrontMatter_Validate(t *testing.T) {
	err := FrontMatter{Title: "t"}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerr.ErrInvalid))

	var ve domainerr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{"slug", "date", "description"}, ve.Fields())
}

func TestFrontMatter_ValidateBadDate(t *testing.T) {
	err := FrontMatter{Title: "t", Slug: "s", Date: "someday", Description: "d"}.Validate()
	var ve domainerr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"date"}, ve.Fields())
}

func TestFrontMatter_ValidateOK(t *testing.T) {
	fm := FrontMatter{Title: "t", Slug: "s", Date: "2024-01-02", Description: "d"}
	assert.NoError(t, fm.Validate())
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, ParseTime("2024-02-29"))
	assert.Equal(t, want, ParseTime("February 29, 2024"))
	assert.Equal(t, 2024, ParseTime("2024-02-29T10:00:00+02:00").Year())
	assert.True(t, ParseTime("").IsZero())
	assert.True(t, ParseTime("yesterday").IsZero())
}

func TestResolveSlug(t *testing.T) {
	assert.Equal(t, "explicit-slug", ResolveSlug(" Explicit Slug ", "Title", "a.md"))
	assert.Equal(t, "hy2ng-privacy-policy", ResolveSlug("", "Hy2ng: Privacy Policy", "a.md"))
	assert.Equal(t, "convertit-privacy", ResolveSlug("", "", "/x/convertit_privacy.md"))
	assert.Equal(t, "", ResolveSlug("", "", "/x/!!!.md"))
}

func TestHashBytes(t *testing.T) {
	assert.Equal(t, HashBytes([]byte("a")), HashBytes([]byte("a")))
	assert.NotEqual(t, HashBytes([]byte("a")), HashBytes([]byte("b")))
	assert.Len(t, HashBytes(nil), 64)
}

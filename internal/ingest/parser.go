package ingest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	domainerr "bytesite/internal/domain/errors"
)

var errNoFrontMatter = errors.New("no front matter found")
var errInvalidFrontMatter = errors.New("invalid front matter")

// FrontMatter is the YAML header of a blog article.
type FrontMatter struct {
	Title       string   `yaml:"title" validate:"required"`
	Slug        string   `yaml:"slug" validate:"required"`
	Date        string   `yaml:"date" validate:"required"`
	Description string   `yaml:"description" validate:"required"`
	Tags        []string `yaml:"tags"`
	// nil means the key was absent; absent counts as published.
	Published *bool `yaml:"published"`
}

func (fm FrontMatter) IsPublished() bool {
	return fm.Published == nil || *fm.Published
}

// PageFrontMatter is the YAML header of a standalone page.
type PageFrontMatter struct {
	Title    string `yaml:"title" validate:"required"`
	Slug     string `yaml:"slug"`
	Subtitle string `yaml:"subtitle"`
	Updated  string `yaml:"updated"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate reports every missing required field and an unparsable date.
func (fm FrontMatter) Validate() error {
	var ve domainerr.ValidationError
	if err := domainerr.FromValidator(validate.Struct(fm)); err != nil {
		var inner domainerr.ValidationError
		if !errors.As(err, &inner) {
			return err
		}
		ve.Items = append(ve.Items, inner.Items...)
	}
	if strings.TrimSpace(fm.Date) != "" && ParseTime(fm.Date).IsZero() {
		ve.Add("date", "must be a calendar date such as 2006-01-02")
	}
	if ve.HasAny() {
		return ve
	}
	return nil
}

func (fm PageFrontMatter) Validate() error {
	return domainerr.FromValidator(validate.Struct(fm))
}

// SplitFrontMatter separates the "---" delimited YAML header from the body.
func SplitFrontMatter(raw []byte) (header, body []byte, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, raw, errNoFrontMatter
	}

	norm := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	norm = bytes.ReplaceAll(norm, []byte("\r"), []byte("\n"))

	const (
		sep      = "---"
		sepLine  = sep + "\n"
		closeMid = "\n" + sep + "\n"
	)

	if !bytes.HasPrefix(norm, []byte(sepLine)) {
		return nil, norm, errNoFrontMatter
	}
	rest := norm[len(sepLine):]

	switch {
	case bytes.HasPrefix(rest, []byte(sepLine)):
		// "---\n---\n": empty header
		body = rest[len(sepLine):]
	case bytes.Contains(rest, []byte(closeMid)):
		parts := bytes.SplitN(rest, []byte(closeMid), 2)
		header, body = parts[0], parts[1]
	case bytes.HasSuffix(rest, []byte("\n"+sep)):
		header = rest[:len(rest)-len("\n"+sep)]
	case bytes.Equal(bytes.TrimSpace(rest), []byte(sep)):
	default:
		return nil, norm, errInvalidFrontMatter
	}
	return bytes.TrimSpace(header), bytes.TrimSpace(body), nil
}

func ParseFrontMatter(raw []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter
	body, err := decodeFrontMatter(raw, &fm)
	return fm, body, err
}

func ParsePageFrontMatter(raw []byte) (PageFrontMatter, []byte, error) {
	var fm PageFrontMatter
	body, err := decodeFrontMatter(raw, &fm)
	return fm, body, err
}

func decodeFrontMatter(raw []byte, out any) ([]byte, error) {
	header, body, err := SplitFrontMatter(raw)
	if err != nil {
		return body, err
	}
	if len(header) > 0 {
		if err := yaml.Unmarshal(header, out); err != nil {
			return body, err
		}
	}
	return body, nil
}

// ResolveSlug prefers the explicit slug, then the title, then the file name.
func ResolveSlug(slug, title, path string) string {
	if s := strings.TrimSpace(slug); s != "" {
		return slugify(s)
	}
	if t := strings.TrimSpace(title); t != "" {
		return slugify(t)
	}
	base := filepath.Base(path)
	return slugify(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ParseTime accepts RFC 3339 and the common date layouts; it returns the
// zero time when nothing matches.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		time.DateOnly,
		"2006-01-02 15:04",
		time.DateTime,
		"January 2, 2006",
	} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func slugify(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var out []rune
	lastDash := false

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]

		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			out = append(out, unicode.ToLower(r))
			lastDash = false
		default:
			if !lastDash && len(out) > 0 {
				out = append(out, '-')
				lastDash = true
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	return string(out)
}

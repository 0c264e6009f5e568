// Package stats derives word counts and reading-time estimates from article
// bodies.
package stats

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultWordsPerMinute is the assumed average reading speed.
const DefaultWordsPerMinute = 200

type Stats struct {
	WordCount      int
	ReadingTime    string
	ReadingMinutes int
}

type Config struct {
	WordsPerMinute int
}

// Compute uses DefaultWordsPerMinute.
func Compute(body string) Stats {
	return Config{WordsPerMinute: DefaultWordsPerMinute}.Compute(body)
}

// Compute never fails. An empty body yields zero words and zero minutes.
func (c Config) Compute(body string) Stats {
	wpm := c.WordsPerMinute
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	words := len(strings.Fields(body))
	minutes := (words + wpm - 1) / wpm
	return Stats{
		WordCount:      words,
		ReadingTime:    Label(minutes),
		ReadingMinutes: minutes,
	}
}

func Label(minutes int) string {
	return fmt.Sprintf("%d min read", minutes)
}

// FormatWords renders a word count with the digit grouping of tag, e.g.
// "1,234 words" for English.
func FormatWords(n int, tag language.Tag) string {
	p := message.NewPrinter(tag)
	if n == 1 {
		return p.Sprintf("%d word", n)
	}
	return p.Sprintf("%d words", n)
}

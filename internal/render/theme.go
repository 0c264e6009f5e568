package render

import "strings"

// BlockKind names one of the content blocks the Markdown renderer knows how
// to present. The set is closed: anything else renders with goldmark's
// default HTML.
type BlockKind string

const (
	BlockHeading1    BlockKind = "h1"
	BlockHeading2    BlockKind = "h2"
	BlockHeading3    BlockKind = "h3"
	BlockHeading4    BlockKind = "h4"
	BlockHeading5    BlockKind = "h5"
	BlockHeading6    BlockKind = "h6"
	BlockParagraph   BlockKind = "p"
	BlockList        BlockKind = "ul"
	BlockOrderedList BlockKind = "ol"
	BlockListItem    BlockKind = "li"
	BlockQuote       BlockKind = "blockquote"
	BlockInlineCode  BlockKind = "code"
	BlockCode        BlockKind = "codeblock"
	BlockLink        BlockKind = "a"
	BlockImage       BlockKind = "img"
	BlockRule        BlockKind = "hr"
	BlockTable       BlockKind = "table"
	BlockTableHead   BlockKind = "th"
	BlockTableCell   BlockKind = "td"
	BlockAlert       BlockKind = "alert"
	BlockCallout     BlockKind = "callout"
)

// AlertVariant is the flavour of an alert block.
type AlertVariant string

const (
	AlertInfo    AlertVariant = "info"
	AlertWarning AlertVariant = "warning"
	AlertError   AlertVariant = "error"
	AlertSuccess AlertVariant = "success"
)

// Theme maps block kinds to the CSS classes emitted for them.
type Theme struct {
	Classes map[BlockKind]string

	// Alerts holds the extra class added per alert variant.
	Alerts map[AlertVariant]string

	CalloutEmoji string
	ImageWidth   int
	ImageHeight  int
}

func DefaultTheme() Theme {
	return Theme{
		Classes: map[BlockKind]string{
			BlockHeading1:    "md-h1",
			BlockHeading2:    "md-h2",
			BlockHeading3:    "md-h3",
			BlockHeading4:    "md-h4",
			BlockHeading5:    "md-h5",
			BlockHeading6:    "md-h6",
			BlockParagraph:   "md-p",
			BlockList:        "md-ul",
			BlockOrderedList: "md-ol",
			BlockListItem:    "md-li",
			BlockQuote:       "md-quote",
			BlockInlineCode:  "md-code",
			BlockCode:        "md-codeblock",
			BlockLink:        "md-link",
			BlockImage:       "md-img",
			BlockRule:        "md-hr",
			BlockTable:       "md-table",
			BlockTableHead:   "md-th",
			BlockTableCell:   "md-td",
			BlockAlert:       "md-alert",
			BlockCallout:     "md-callout",
		},
		Alerts: map[AlertVariant]string{
			AlertInfo:    "md-alert-info",
			AlertWarning: "md-alert-warning",
			AlertError:   "md-alert-error",
			AlertSuccess: "md-alert-success",
		},
		CalloutEmoji: "💡",
		ImageWidth:   800,
		ImageHeight:  600,
	}
}

// Class returns the class for k, or "" when the theme leaves it unstyled.
func (t Theme) Class(k BlockKind) string {
	return t.Classes[k]
}

// Merge overlays the non-empty entries of o onto t.
func (t Theme) Merge(o Theme) Theme {
	out := Theme{
		Classes:      make(map[BlockKind]string, len(t.Classes)),
		Alerts:       make(map[AlertVariant]string, len(t.Alerts)),
		CalloutEmoji: t.CalloutEmoji,
		ImageWidth:   t.ImageWidth,
		ImageHeight:  t.ImageHeight,
	}
	for k, v := range t.Classes {
		out.Classes[k] = v
	}
	for k, v := range o.Classes {
		if v != "" {
			out.Classes[k] = v
		}
	}
	for k, v := range t.Alerts {
		out.Alerts[k] = v
	}
	for k, v := range o.Alerts {
		if v != "" {
			out.Alerts[k] = v
		}
	}
	if o.CalloutEmoji != "" {
		out.CalloutEmoji = o.CalloutEmoji
	}
	if o.ImageWidth > 0 {
		out.ImageWidth = o.ImageWidth
	}
	if o.ImageHeight > 0 {
		out.ImageHeight = o.ImageHeight
	}
	return out
}

// ThemeFromClasses builds an overlay theme from configured class names.
// Keys are block kinds ("h1", "codeblock") or "alert.<variant>".
func ThemeFromClasses(classes map[string]string) Theme {
	t := Theme{
		Classes: make(map[BlockKind]string),
		Alerts:  make(map[AlertVariant]string),
	}
	for k, v := range classes {
		if variant, ok := strings.CutPrefix(k, "alert."); ok {
			t.Alerts[AlertVariant(variant)] = v
			continue
		}
		t.Classes[BlockKind(k)] = v
	}
	return t
}

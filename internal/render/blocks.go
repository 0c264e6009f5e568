package render

import (
	"bytes"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindAlert is the node kind of alert and callout blocks.
var KindAlert = ast.NewNodeKind("Alert")

// Alert is a blockquote promoted to an alert or callout by a leading
// "[!VARIANT]" marker line.
type Alert struct {
	ast.BaseBlock
	Variant AlertVariant
	Callout bool
	Emoji   string
}

func (n *Alert) Kind() ast.NodeKind {
	return KindAlert
}

func (n *Alert) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Variant": string(n.Variant),
		"Callout": strconv.FormatBool(n.Callout),
		"Emoji":   n.Emoji,
	}, nil)
}

var alertMarker = regexp.MustCompile(`^\[!([A-Za-z]+)(?:[ \t]+([^\]]*))?\]`)

var alertAliases = map[string]AlertVariant{
	"INFO":      AlertInfo,
	"NOTE":      AlertInfo,
	"IMPORTANT": AlertWarning,
	"WARNING":   AlertWarning,
	"ERROR":     AlertError,
	"CAUTION":   AlertError,
	"DANGER":    AlertError,
	"SUCCESS":   AlertSuccess,
	"TIP":       AlertSuccess,
}

// blockTransformer decorates nodes with theme classes and promotes marked
// blockquotes to Alert nodes.
type blockTransformer struct {
	theme Theme
}

func (t *blockTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	var quotes []*ast.Blockquote

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			t.setClass(v, headingKind(v.Level))
		case *ast.Paragraph:
			t.setClass(v, BlockParagraph)
		case *ast.List:
			if v.IsOrdered() {
				t.setClass(v, BlockOrderedList)
			} else {
				t.setClass(v, BlockList)
			}
		case *ast.ListItem:
			t.setClass(v, BlockListItem)
		case *ast.Blockquote:
			quotes = append(quotes, v)
		case *ast.CodeSpan:
			t.setClass(v, BlockInlineCode)
		case *ast.Link:
			t.setClass(v, BlockLink)
			markExternal(v, v.Destination)
		case *ast.AutoLink:
			t.setClass(v, BlockLink)
			markExternal(v, v.URL(source))
		case *ast.Image:
			t.setClass(v, BlockImage)
			t.sizeImage(v)
		case *ast.ThematicBreak:
			t.setClass(v, BlockRule)
		case *east.Table:
			t.setClass(v, BlockTable)
		case *east.TableCell:
			if _, ok := v.Parent().(*east.TableHeader); ok {
				t.setClass(v, BlockTableHead)
			} else {
				t.setClass(v, BlockTableCell)
			}
		}
		return ast.WalkContinue, nil
	})

	// Replacing nodes during the walk would confuse the iterator.
	for _, q := range quotes {
		if t.promote(q, source) != nil {
			continue
		}
		t.setClass(q, BlockQuote)
	}
}

func (t *blockTransformer) setClass(n ast.Node, k BlockKind) {
	if c := t.theme.Class(k); c != "" {
		n.SetAttributeString("class", []byte(c))
	}
}

func (t *blockTransformer) sizeImage(img *ast.Image) {
	if _, ok := img.AttributeString("width"); !ok && t.theme.ImageWidth > 0 {
		img.SetAttributeString("width", []byte(strconv.Itoa(t.theme.ImageWidth)))
	}
	if _, ok := img.AttributeString("height"); !ok && t.theme.ImageHeight > 0 {
		img.SetAttributeString("height", []byte(strconv.Itoa(t.theme.ImageHeight)))
	}
	img.SetAttributeString("loading", []byte("lazy"))
}

func markExternal(n ast.Node, dest []byte) {
	if !isExternal(dest) {
		return
	}
	n.SetAttributeString("target", []byte("_blank"))
	n.SetAttributeString("rel", []byte("noopener noreferrer"))
}

func isExternal(dest []byte) bool {
	d := bytes.ToLower(bytes.TrimSpace(dest))
	return bytes.HasPrefix(d, []byte("http://")) || bytes.HasPrefix(d, []byte("https://"))
}

func headingKind(level int) BlockKind {
	switch level {
	case 1:
		return BlockHeading1
	case 2:
		return BlockHeading2
	case 3:
		return BlockHeading3
	case 4:
		return BlockHeading4
	case 5:
		return BlockHeading5
	default:
		return BlockHeading6
	}
}

// promote swaps q for an Alert when its first line is a known marker and
// returns the new node, or nil when q stays a blockquote.
func (t *blockTransformer) promote(q *ast.Blockquote, source []byte) *Alert {
	para, ok := q.FirstChild().(*ast.Paragraph)
	if !ok || para.Lines().Len() == 0 {
		return nil
	}
	line := para.Lines().At(0)
	value := line.Value(source)
	trimmed := bytes.TrimLeft(value, " \t")
	m := alertMarker.FindSubmatch(trimmed)
	if m == nil {
		return nil
	}

	name := strings.ToUpper(string(m[1]))
	alert := &Alert{}
	if name == "CALLOUT" {
		alert.Callout = true
		alert.Emoji = strings.TrimSpace(string(m[2]))
		if alert.Emoji == "" {
			alert.Emoji = t.theme.CalloutEmoji
		}
	} else {
		v, ok := alertAliases[name]
		if !ok {
			return nil
		}
		alert.Variant = v
	}

	markerEnd := line.Start + (len(value) - len(trimmed)) + len(m[0])
	stripMarker(para, markerEnd, line.Stop, source)
	if para.ChildCount() == 0 {
		q.RemoveChild(q, para)
	}

	for c := q.FirstChild(); c != nil; {
		next := c.NextSibling()
		alert.AppendChild(alert, c)
		c = next
	}
	q.Parent().ReplaceChild(q.Parent(), q, alert)
	return alert
}

// stripMarker drops the inline text covering [start of paragraph, end) and
// trims the space left behind on the marker line.
func stripMarker(para *ast.Paragraph, end, lineStop int, source []byte) {
	for c := para.FirstChild(); c != nil; {
		next := c.NextSibling()
		txt, ok := c.(*ast.Text)
		if !ok {
			return
		}
		switch {
		case txt.Segment.Stop <= end:
			para.RemoveChild(para, c)
		default:
			if txt.Segment.Start < end {
				txt.Segment = txt.Segment.WithStart(end)
			}
			if txt.Segment.Start < lineStop {
				txt.Segment = txt.Segment.TrimLeftSpace(source)
			}
			return
		}
		c = next
	}
}

// blockRenderer renders the nodes whose markup goes beyond what attributes
// on goldmark's default output can express.
type blockRenderer struct {
	theme Theme
}

func (r *blockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCode)
	reg.Register(KindAlert, r.renderAlert)
}

func (r *blockRenderer) renderFencedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</code></pre></div>\n")
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	lang := "text"
	if l := n.Language(source); len(l) > 0 {
		lang = string(l)
	}
	lang = html.EscapeString(lang)

	_, _ = w.WriteString(`<div class="`)
	_, _ = w.WriteString(html.EscapeString(r.theme.Class(BlockCode)))
	_, _ = w.WriteString(`" data-language="`)
	_, _ = w.WriteString(lang)
	_, _ = w.WriteString(`"><pre><code class="language-`)
	_, _ = w.WriteString(lang)
	_, _ = w.WriteString(`">`)

	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(seg.Value(source)))
	}
	return ast.WalkContinue, nil
}

func (r *blockRenderer) renderAlert(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Alert)
	if n.Callout {
		if entering {
			_, _ = w.WriteString(`<aside class="`)
			_, _ = w.WriteString(html.EscapeString(r.theme.Class(BlockCallout)))
			_, _ = w.WriteString(`"><span class="callout-emoji" aria-hidden="true">`)
			_, _ = w.WriteString(html.EscapeString(n.Emoji))
			_, _ = w.WriteString(`</span><div class="callout-body">` + "\n")
		} else {
			_, _ = w.WriteString("</div></aside>\n")
		}
		return ast.WalkContinue, nil
	}

	if entering {
		classes := strings.TrimSpace(r.theme.Class(BlockAlert) + " " + r.theme.Alerts[n.Variant])
		_, _ = w.WriteString(`<div class="`)
		_, _ = w.WriteString(html.EscapeString(classes))
		_, _ = w.WriteString(`" role="note" data-variant="`)
		_, _ = w.WriteString(string(n.Variant))
		_, _ = w.WriteString(`">` + "\n")
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}

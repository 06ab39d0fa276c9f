// Package markdown renders the small Markdown subset used by synopses and
// the legal pages as a templ component.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/a-h/templ"
)

var (
	reBold        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldAlt     = regexp.MustCompile(`__(.+?)__`)
	reItalic      = regexp.MustCompile(`\*([^*]+)\*`)
	reInlineCode  = regexp.MustCompile("`([^`]+)`")
	reLink        = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	reOrderedItem = regexp.MustCompile(`^(\d+)\.\s`)
	reStripMarks  = regexp.MustCompile("[*_`#>]+")
	reStripLink   = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
)

// Markdown returns a templ.Component that renders md as HTML.
func Markdown(md string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, md)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// HTML renders md and returns the markup.
func HTML(md string) string {
	var buf bytes.Buffer
	Render(&buf, md)
	return buf.String()
}

// renderer tracks the one block element that may be open at a time.
type renderer struct {
	buf  *bytes.Buffer
	open string
}

func (r *renderer) close() {
	if r.open == "" {
		return
	}
	if r.open == "pre" {
		r.buf.WriteString("</code></pre>")
	} else {
		r.buf.WriteString("</" + r.open + ">")
	}
	r.open = ""
}

// enter opens tag unless it is already open. It reports whether tag was
// already open.
func (r *renderer) enter(tag string) bool {
	if r.open == tag {
		return true
	}
	r.close()
	if tag == "pre" {
		r.buf.WriteString("<pre><code>")
	} else {
		r.buf.WriteString("<" + tag + ">")
	}
	r.open = tag
	return false
}

// Render writes the HTML representation of md to buf. Top-level headings
// are demoted to <h2> since pages already carry their own <h1>.
func Render(buf *bytes.Buffer, md string) {
	r := &renderer{buf: buf}
	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimRight(raw, "\r")

		if strings.HasPrefix(line, "```") {
			if r.open == "pre" {
				r.close()
			} else {
				r.enter("pre")
			}
			continue
		}
		if r.open == "pre" {
			buf.WriteString(html.EscapeString(line))
			buf.WriteString("\n")
			continue
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			r.close()
		case strings.HasPrefix(trimmed, "---"):
			r.close()
			buf.WriteString("<hr/>")
		case strings.HasPrefix(trimmed, "### "):
			heading(r, "h3", trimmed[4:])
		case strings.HasPrefix(trimmed, "## "):
			heading(r, "h2", trimmed[3:])
		case strings.HasPrefix(trimmed, "# "):
			heading(r, "h2", trimmed[2:])
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			r.enter("ul")
			buf.WriteString("<li>" + FormatInline(strings.TrimSpace(trimmed[2:])) + "</li>")
		case reOrderedItem.MatchString(trimmed):
			r.enter("ol")
			buf.WriteString("<li>" + FormatInline(strings.TrimSpace(reOrderedItem.ReplaceAllString(trimmed, ""))) + "</li>")
		case strings.HasPrefix(trimmed, "> "):
			if r.enter("blockquote") {
				buf.WriteString("<br/>")
			}
			buf.WriteString(FormatInline(strings.TrimSpace(trimmed[2:])))
		default:
			if r.enter("p") {
				buf.WriteString(" ")
			}
			buf.WriteString(FormatInline(trimmed))
		}
	}
	r.close()
}

func heading(r *renderer, tag, text string) {
	r.close()
	r.buf.WriteString("<" + tag + ">" + FormatInline(strings.TrimSpace(text)) + "</" + tag + ">")
}

// applyOutsideTags applies fn only to text segments outside HTML tags,
// so that formatting regexes never touch URLs inside href attributes.
func applyOutsideTags(s string, fn func(string) string) string {
	var buf strings.Builder
	for len(s) > 0 {
		lt := strings.Index(s, "<")
		if lt < 0 {
			buf.WriteString(fn(s))
			break
		}
		if lt > 0 {
			buf.WriteString(fn(s[:lt]))
		}
		gt := strings.Index(s[lt:], ">")
		if gt < 0 {
			buf.WriteString(s[lt:])
			break
		}
		buf.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return buf.String()
}

// FormatInline escapes s and applies bold, italic, inline code and links.
// Absolute links open in a new tab.
func FormatInline(s string) string {
	escaped := html.EscapeString(s)
	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		attrs := ""
		if strings.HasPrefix(href, "http") {
			attrs = ` target="_blank" rel="noopener noreferrer"`
		}
		return `<a href="` + href + `"` + attrs + `>` + match[1] + `</a>`
	})
	// Inline code is swapped for placeholders so emphasis never reaches it.
	var code []string
	escaped = reInlineCode.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reInlineCode.FindStringSubmatch(m)
		code = append(code, "<code>"+match[1]+"</code>")
		return "\x00" + strconv.Itoa(len(code)-1) + "\x00"
	})
	escaped = applyOutsideTags(escaped, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reBoldAlt.ReplaceAllString(seg, "<strong>$1</strong>")
		return reItalic.ReplaceAllString(seg, "<em>$1</em>")
	})
	for i, c := range code {
		escaped = strings.Replace(escaped, "\x00"+strconv.Itoa(i)+"\x00", c, 1)
	}
	return escaped
}

// SafeURL validates a URL for use in an href. Site-relative paths, anchors
// and http, https, mailto and tel URLs pass; anything else yields "".
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if (strings.HasPrefix(val, "/") && !strings.HasPrefix(val, "//")) || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}

// Excerpt returns md as plain text, collapsed to one line and cut at a word
// boundary to at most max runes. It feeds meta descriptions and cards.
func Excerpt(md string, max int) string {
	text := reStripLink.ReplaceAllString(md, "$1")
	text = reStripMarks.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:max])
	if runes[max] != ' ' {
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

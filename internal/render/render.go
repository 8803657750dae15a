// Package render converts documents into Pango markup for the preview label.
package render

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const DefaultCacheSize = 64

var headingSizes = map[int]string{
	1: "xx-large",
	2: "x-large",
	3: "large",
	4: "medium",
	5: "medium",
	6: "small",
}

var markupEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape makes s safe to embed in Pango markup.
func Escape(s string) string {
	return markupEscaper.Replace(s)
}

// Renderer turns markdown into Pango markup. Results are cached by content.
type Renderer struct {
	md    goldmark.Markdown
	cache *lru.Cache[uint64, string]
	mu    sync.Mutex
	hits  int64
	miss  int64
}

func New(cacheSize int) (*Renderer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	cache, err := lru.New[uint64, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}

	return &Renderer{
		md:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
		cache: cache,
	}, nil
}

// Markdown renders src. The output always has balanced tags.
func (r *Renderer) Markdown(src []byte) string {
	key := hash(src)
	if out, ok := r.cache.Get(key); ok {
		r.mu.Lock()
		r.hits++
		r.mu.Unlock()
		return out
	}

	doc := r.md.Parser().Parse(text.NewReader(src))
	w := &writer{src: src}
	ast.Walk(doc, w.walk)
	out := strings.TrimRight(w.buf.String(), "\n")

	r.cache.Add(key, out)
	r.mu.Lock()
	r.miss++
	r.mu.Unlock()
	return out
}

// Plain renders src verbatim in a monospace span.
func (r *Renderer) Plain(src []byte) string {
	return "<tt>" + Escape(string(src)) + "</tt>"
}

// Stats returns cache hits and misses.
func (r *Renderer) Stats() (hits, misses int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits, r.miss
}

func hash(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

type listState struct {
	ordered bool
	next    int
}

type writer struct {
	src   []byte
	buf   strings.Builder
	lists []listState
}

func (w *writer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Document:
	case *ast.Heading:
		if entering {
			fmt.Fprintf(&w.buf, `<span size="%s" weight="bold">`, headingSizes[node.Level])
		} else {
			w.buf.WriteString("</span>\n\n")
		}
	case *ast.Paragraph:
		if !entering {
			if w.inList() {
				w.buf.WriteString("\n")
			} else {
				w.buf.WriteString("\n\n")
			}
		}
	case *ast.TextBlock:
		if !entering {
			w.buf.WriteString("\n")
		}
	case *ast.Text:
		if entering {
			w.buf.WriteString(Escape(string(node.Segment.Value(w.src))))
			switch {
			case node.HardLineBreak():
				w.buf.WriteString("\n")
			case node.SoftLineBreak():
				w.buf.WriteString(" ")
			}
		}
	case *ast.String:
		if entering {
			w.buf.WriteString(Escape(string(node.Value)))
		}
	case *ast.Emphasis:
		tag := "i"
		if node.Level >= 2 {
			tag = "b"
		}
		w.tag(tag, entering)
	case *ast.CodeSpan:
		w.tag("tt", entering)
	case *ast.FencedCodeBlock:
		w.codeBlock(node.Lines())
		return ast.WalkSkipChildren, nil
	case *ast.CodeBlock:
		w.codeBlock(node.Lines())
		return ast.WalkSkipChildren, nil
	case *ast.Link:
		if entering {
			fmt.Fprintf(&w.buf, `<a href="%s">`, Escape(string(node.Destination)))
		} else {
			w.buf.WriteString("</a>")
		}
	case *ast.AutoLink:
		if entering {
			url := string(node.URL(w.src))
			label := string(node.Label(w.src))
			if node.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
				url = "mailto:" + url
			}
			fmt.Fprintf(&w.buf, `<a href="%s">%s</a>`, Escape(url), Escape(label))
		}
		return ast.WalkSkipChildren, nil
	case *ast.Image:
		if entering {
			fmt.Fprintf(&w.buf, `<a href="%s">[image: `, Escape(string(node.Destination)))
		} else {
			w.buf.WriteString("]</a>")
		}
	case *ast.List:
		if entering {
			w.lists = append(w.lists, listState{ordered: node.IsOrdered(), next: node.Start})
		} else {
			w.lists = w.lists[:len(w.lists)-1]
			if !w.inList() {
				w.buf.WriteString("\n")
			}
		}
	case *ast.ListItem:
		if entering {
			w.listMarker()
		}
	case *ast.Blockquote:
		w.span(`<span foreground="#6a737d" style="italic">`, entering)
	case *ast.ThematicBreak:
		if entering {
			w.buf.WriteString("──────────\n\n")
		}
	case *ast.HTMLBlock, *ast.RawHTML:
		return ast.WalkSkipChildren, nil
	case *east.Strikethrough:
		w.tag("s", entering)
	case *east.TaskCheckBox:
		if entering {
			if node.IsChecked {
				w.buf.WriteString("☑ ")
			} else {
				w.buf.WriteString("☐ ")
			}
		}
	case *east.Table:
		if !entering {
			w.buf.WriteString("\n")
		}
	case *east.TableHeader:
		w.span(`<span weight="bold">`, entering)
		if !entering {
			w.buf.WriteString("\n")
		}
	case *east.TableRow:
		if !entering {
			w.buf.WriteString("\n")
		}
	case *east.TableCell:
		if entering && n.PreviousSibling() != nil {
			w.buf.WriteString(" │ ")
		}
	}
	return ast.WalkContinue, nil
}

func (w *writer) tag(name string, entering bool) {
	if entering {
		w.buf.WriteString("<" + name + ">")
	} else {
		w.buf.WriteString("</" + name + ">")
	}
}

func (w *writer) span(open string, entering bool) {
	if entering {
		w.buf.WriteString(open)
	} else {
		w.buf.WriteString("</span>")
	}
}

func (w *writer) inList() bool {
	return len(w.lists) > 0
}

func (w *writer) listMarker() {
	depth := len(w.lists)
	if depth == 0 {
		return
	}
	w.buf.WriteString(strings.Repeat("    ", depth-1))
	state := &w.lists[depth-1]
	if state.ordered {
		w.buf.WriteString(strconv.Itoa(state.next) + ". ")
		state.next++
	} else {
		w.buf.WriteString("• ")
	}
}

func (w *writer) codeBlock(lines *text.Segments) {
	w.buf.WriteString(`<span font_family="monospace">`)
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		w.buf.WriteString(Escape(string(line.Value(w.src))))
	}
	w.buf.WriteString("</span>\n")
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pipeline turns a post document into presentational nodes for the
// public site and derives plain-text metadata (excerpts, reading time,
// headings) from it. Every function here is pure: no I/O, no shared state,
// and the same document always yields the same output.
//
// Header, paragraph, quote and table cell text is editor-authored HTML and is
// passed through untouched. Code and list items are escaped. Presentation
// templates must print Node.HTML and Node.Items without further escaping.
package pipeline

import (
	"fmt"
	"html/template"
	"strings"

	"estatepress/internal/document"
)

// NodeKind identifies what a rendered node represents.
type NodeKind string

const (
	NodeHeading   NodeKind = "heading"
	NodeParagraph NodeKind = "paragraph"
	NodeList      NodeKind = "list"
	NodeQuote     NodeKind = "quote"
	NodeCode      NodeKind = "code"
	NodeFigure    NodeKind = "figure"
	NodeFrame     NodeKind = "frame"
	NodeTable     NodeKind = "table"
)

// Node is one presentational unit. Which fields are set depends on Kind.
type Node struct {
	Kind    NodeKind
	Level   int             // heading rank 1..6
	ID      string          // heading anchor, e.g. "heading-0"
	HTML    template.HTML   // heading, paragraph, quote or escaped code content
	Ordered bool            // list numbering
	Items   []template.HTML // escaped list items
	URL     string          // image or frame source
	Caption string          // figure, frame or quote attribution (plain text)
	Rows    []Row           // table rows
}

// Row is a table row.
type Row struct {
	Cells []Cell
}

// Cell is a table cell; Header cells render as <th>.
type Cell struct {
	Header bool
	HTML   template.HTML
}

// escaper mirrors the five-character escape the stored content has always
// used, which writes the apostrophe as &#039;.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML escapes &, <, >, " and '.
func EscapeHTML(s string) string {
	return escaper.Replace(s)
}

// Render maps each recognised block to exactly one node, preserving order.
// Unknown blocks produce nothing.
func Render(doc document.Document) []Node {
	nodes := make([]Node, 0, len(doc.Blocks))
	headings := 0

	for _, b := range doc.Blocks {
		switch v := b.(type) {
		case document.Header:
			nodes = append(nodes, Node{
				Kind:  NodeHeading,
				Level: v.Level,
				ID:    headingID(headings),
				HTML:  template.HTML(v.Text),
			})
			headings++

		case document.Paragraph:
			nodes = append(nodes, Node{Kind: NodeParagraph, HTML: template.HTML(v.Text)})

		case document.List:
			items := make([]template.HTML, len(v.Items))
			for i, it := range v.Items {
				items[i] = template.HTML(EscapeHTML(it))
			}
			nodes = append(nodes, Node{
				Kind:    NodeList,
				Ordered: v.Style == document.ListOrdered,
				Items:   items,
			})

		case document.Quote:
			nodes = append(nodes, Node{
				Kind:    NodeQuote,
				HTML:    template.HTML(v.Text),
				Caption: v.Caption,
			})

		case document.Code:
			nodes = append(nodes, Node{Kind: NodeCode, HTML: template.HTML(EscapeHTML(v.Code))})

		case document.Image:
			nodes = append(nodes, Node{Kind: NodeFigure, URL: v.File.URL, Caption: v.Caption})

		case document.Embed:
			nodes = append(nodes, Node{Kind: NodeFrame, URL: v.Embed, Caption: v.Caption})

		case document.Table:
			nodes = append(nodes, Node{Kind: NodeTable, Rows: tableRows(v)})

		case document.Unknown:
			// Written by a newer editor; nothing to show.
		}
	}
	return nodes
}

func tableRows(t document.Table) []Row {
	rows := make([]Row, len(t.Content))
	for i, content := range t.Content {
		cells := make([]Cell, len(content))
		for j, c := range content {
			cells[j] = Cell{Header: i == 0 && t.WithHeadings, HTML: template.HTML(c)}
		}
		rows[i] = Row{Cells: cells}
	}
	return rows
}

func headingID(n int) string {
	return fmt.Sprintf("heading-%d", n)
}

// Heading is an entry of a post's table of contents.
type Heading struct {
	ID    string
	Level int
	Text  string
}

// Headings lists header blocks in order with the same anchors Render uses.
func Headings(doc document.Document) []Heading {
	var out []Heading
	for _, b := range doc.Blocks {
		h, ok := b.(document.Header)
		if !ok {
			continue
		}
		out = append(out, Heading{
			ID:    headingID(len(out)),
			Level: h.Level,
			Text:  stripTags(h.Text),
		})
	}
	return out
}

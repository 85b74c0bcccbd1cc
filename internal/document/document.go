// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package document defines the block-based rich content stored with every
// blog post. A Document is an ordered list of blocks; each block is one of a
// closed set of payload types selected by its tag. Blocks with tags this
// package does not know are kept as Unknown so that saving a post written by
// a newer editor never drops content, and every consumer skips them.
package document

import (
	"errors"
)

// Kind is the tag that selects a block's payload shape.
type Kind string

const (
	KindHeader    Kind = "header"
	KindParagraph Kind = "paragraph"
	KindList      Kind = "list"
	KindQuote     Kind = "quote"
	KindCode      Kind = "code"
	KindImage     Kind = "image"
	KindEmbed     Kind = "embed"
	KindTable     Kind = "table"
)

// SchemaVersion is written with every encoded document. Documents saved
// before the field existed decode as version 1.
const SchemaVersion = 1

// ErrInvalidDocument is returned when a document cannot be published.
var ErrInvalidDocument = errors.New("document has no blocks")

// Block is implemented by the payload types in this package only.
type Block interface {
	Kind() Kind
	isBlock()
}

// Header is a heading of rank Level (1..6). Text may contain inline HTML.
type Header struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Paragraph holds trusted inline HTML.
type Paragraph struct {
	Text string `json:"text"`
}

// ListStyle selects between numbered and bulleted lists.
type ListStyle string

const (
	ListOrdered   ListStyle = "ordered"
	ListUnordered ListStyle = "unordered"
)

// List is a flat list of plain-text items.
type List struct {
	Style ListStyle `json:"style"`
	Items []string  `json:"items"`
}

// Quote is a pull quote with an optional attribution.
type Quote struct {
	Text    string `json:"text"`
	Caption string `json:"caption,omitempty"`
}

// Code is a verbatim code listing.
type Code struct {
	Code string `json:"code"`
}

// File points at an uploaded object.
type File struct {
	URL string `json:"url"`
}

// Image references an uploaded image by its public URL.
type Image struct {
	File    File   `json:"file"`
	Caption string `json:"caption,omitempty"`
}

// Embed is an iframe source such as a video player URL.
type Embed struct {
	Embed   string `json:"embed"`
	Caption string `json:"caption,omitempty"`
}

// Table is a grid of cells; the first row is a heading row iff WithHeadings.
type Table struct {
	Content      [][]string `json:"content"`
	WithHeadings bool       `json:"withHeadings"`
}

// Unknown preserves a block whose tag is not recognised.
type Unknown struct {
	Type string
	Data []byte
}

func (Header) Kind() Kind    { return KindHeader }
func (Paragraph) Kind() Kind { return KindParagraph }
func (List) Kind() Kind      { return KindList }
func (Quote) Kind() Kind     { return KindQuote }
func (Code) Kind() Kind      { return KindCode }
func (Image) Kind() Kind     { return KindImage }
func (Embed) Kind() Kind     { return KindEmbed }
func (Table) Kind() Kind     { return KindTable }
func (u Unknown) Kind() Kind { return Kind(u.Type) }

func (Header) isBlock()    {}
func (Paragraph) isBlock() {}
func (List) isBlock()      {}
func (Quote) isBlock()     {}
func (Code) isBlock()      {}
func (Image) isBlock()     {}
func (Embed) isBlock()     {}
func (Table) isBlock()     {}
func (Unknown) isBlock()   {}

// Document is the ordered block sequence of a post. Order is render order.
type Document struct {
	Blocks []Block
}

// New returns a document holding the given blocks.
func New(blocks ...Block) Document {
	return Document{Blocks: blocks}
}

// Len returns the number of blocks, including unknown ones.
func (d Document) Len() int {
	return len(d.Blocks)
}

// IsEmpty reports whether the document has no blocks at all.
func (d Document) IsEmpty() bool {
	return len(d.Blocks) == 0
}

// Clone returns a copy that shares no mutable slices with d.
func (d Document) Clone() Document {
	if d.Blocks == nil {
		return Document{}
	}
	out := make([]Block, len(d.Blocks))
	for i, b := range d.Blocks {
		switch v := b.(type) {
		case List:
			v.Items = append([]string(nil), v.Items...)
			out[i] = v
		case Table:
			rows := make([][]string, len(v.Content))
			for j, row := range v.Content {
				rows[j] = append([]string(nil), row...)
			}
			v.Content = rows
			out[i] = v
		case Unknown:
			v.Data = append([]byte(nil), v.Data...)
			out[i] = v
		default:
			out[i] = b
		}
	}
	return Document{Blocks: out}
}

// ValidateForPublish reports ErrInvalidDocument for a document without
// blocks. Title and slug checks belong to the post, not the document.
func ValidateForPublish(d Document) error {
	if d.IsEmpty() {
		return ErrInvalidDocument
	}
	return nil
}

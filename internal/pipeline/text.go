package pipeline

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"estatepress/internal/document"
)

const (
	// DefaultWordsPerMinute is the reading speed used by EstimateReadTime.
	DefaultWordsPerMinute = 200

	// TruncationMarker is appended to text cut by ExtractPlainText.
	TruncationMarker = "..."
)

var (
	// breakingTag matches tags that separate words visually.
	breakingTag = regexp.MustCompile(`(?i)<\s*/?\s*(br|p|div|li|h[1-6]|tr|td|th)\b[^>]*>`)
	// anyTag matches any remaining terminated tag. A lone "<" is text.
	anyTag = regexp.MustCompile(`<[^>]*>`)
)

// stripTags removes markup, decodes entities and collapses whitespace.
// Only for the HTML-bearing blocks: headers, paragraphs, quotes and cells.
func stripTags(s string) string {
	s = breakingTag.ReplaceAllString(s, " ")
	s = anyTag.ReplaceAllString(s, "")
	return collapseSpace(html.UnescapeString(s))
}

// collapseSpace is the whole treatment for list items, which are plain
// text and rendered escaped.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ExtractPlainText concatenates header, paragraph and list text in block
// order, strips markup and cuts the result to maxLength characters,
// appending TruncationMarker when anything was cut. maxLength <= 0 disables
// truncation.
func ExtractPlainText(doc document.Document, maxLength int) string {
	var sb strings.Builder
	for _, b := range doc.Blocks {
		var part string
		switch v := b.(type) {
		case document.Header:
			part = stripTags(v.Text)
		case document.Paragraph:
			part = stripTags(v.Text)
		case document.List:
			part = collapseSpace(strings.Join(v.Items, " "))
		}
		if part == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(part)

		if maxLength > 0 && utf8.RuneCountInString(sb.String()) > maxLength {
			break
		}
	}

	text := sb.String()
	if maxLength <= 0 || utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxLength])) + TruncationMarker
}

// EstimateReadTime returns whole minutes (at least 1) to read the text of
// every block that carries prose: headers, paragraphs, quotes, lists and
// tables. wordsPerMinute <= 0 falls back to DefaultWordsPerMinute.
func EstimateReadTime(doc document.Document, wordsPerMinute int) int {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}

	words := 0
	count := func(s string) {
		words += len(strings.Fields(stripTags(s)))
	}

	for _, b := range doc.Blocks {
		switch v := b.(type) {
		case document.Header:
			count(v.Text)
		case document.Paragraph:
			count(v.Text)
		case document.Quote:
			count(v.Text)
		case document.List:
			for _, it := range v.Items {
				words += len(strings.Fields(it))
			}
		case document.Table:
			for _, row := range v.Content {
				for _, cell := range row {
					count(cell)
				}
			}
		}
	}

	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Excerpt returns the authored excerpt when present, otherwise text
// extracted from the document.
func Excerpt(explicit *string, doc document.Document, maxLength int) string {
	if explicit != nil {
		if s := strings.TrimSpace(*explicit); s != "" {
			return s
		}
	}
	return ExtractPlainText(doc, maxLength)
}

// internal/common/htmltext/text.go

// Package htmltext turns HTML documents and fragments into plain text.
package htmltext

import (
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	manyNewlines = regexp.MustCompile(`\n{3,}`)
	manySpaces   = regexp.MustCompile(` {2,}`)
)

// Parse reads an HTML document.
func Parse(r io.Reader) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(r)
}

// Text joins every text node under the selection with sep, in document order.
func Text(sel *goquery.Selection, sep string) string {
	var parts []string
	for _, n := range sel.Nodes {
		collect(n, &parts)
	}
	return strings.Join(parts, sep)
}

func collect(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		*parts = append(*parts, n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, parts)
	}
}

// FragmentText strips tags from an HTML fragment such as an RSS summary.
// Plain text passes through unchanged.
func FragmentText(fragment, sep string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}
	doc, err := Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return Text(doc.Find("body"), sep)
}

// Collapse reduces runs of three or more newlines to two and runs of spaces
// to one, then trims.
func Collapse(s string) string {
	s = manyNewlines.ReplaceAllString(s, "\n\n")
	s = manySpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n < 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Package document exposes the small set of HTML queries the scrapers need.
//
// Extraction code works against Node, a capability interface over a parsed
// page, so the list and detail extractors do not depend on the concrete
// parser. The implementation here is backed by goquery.
package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Node is one element (or the root) of a parsed HTML document
type Node interface {
	// Find returns all descendants matching a CSS selector, in document order
	Find(selector string) []Node
	// First returns the first descendant matching a CSS selector
	First(selector string) (Node, bool)
	// Children returns the direct element children matching a CSS selector
	Children(selector string) []Node
	// Next returns the element sibling immediately after this node
	Next() (Node, bool)
	// Text returns the node's text with whitespace runs collapsed
	Text() string
	// Attr returns the value of an attribute
	Attr(name string) (string, bool)
	// Is reports whether the node matches a CSS selector
	Is(selector string) bool
}

// Parse parses an HTML document
func Parse(r io.Reader) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return node{sel: doc.Selection}, nil
}

// ParseString parses an HTML document held in a string
func ParseString(html string) (Node, error) {
	return Parse(strings.NewReader(html))
}

type node struct {
	sel *goquery.Selection
}

func (n node) Find(selector string) []Node {
	return wrap(n.sel.Find(selector))
}

func (n node) First(selector string) (Node, bool) {
	found := n.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return node{sel: found}, true
}

func (n node) Children(selector string) []Node {
	return wrap(n.sel.ChildrenFiltered(selector))
}

func (n node) Next() (Node, bool) {
	next := n.sel.Next()
	if next.Length() == 0 {
		return nil, false
	}
	return node{sel: next}, true
}

func (n node) Text() string {
	return CollapseSpace(n.sel.Text())
}

func (n node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n node) Is(selector string) bool {
	return n.sel.Is(selector)
}

func wrap(sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(i int, s *goquery.Selection) {
		nodes = append(nodes, node{sel: s})
	})
	return nodes
}

// CollapseSpace trims s and replaces every whitespace run with one space
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

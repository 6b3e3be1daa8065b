package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped elements never contribute text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Head:     true,
	atom.Template: true,
}

// block elements end the current line.
var block = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Tr: true, atom.Li: true,
	atom.Table: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Hr: true, atom.Pre: true, atom.Center: true,
	atom.Blockquote: true, atom.Section: true, atom.Article: true,
}

// cell elements are separated by a tab so table columns do not run together.
var cell = map[atom.Atom]bool{
	atom.Td: true,
	atom.Th: true,
}

// ExtractText parses HTML and returns the visible body text. Script and style
// content is dropped and block-level elements start new lines, so the result
// reads line by line like the rendered page.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	root := findBody(doc)
	if root == nil {
		root = doc
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipped[n.DataAtom] {
				return
			}
		case html.CommentNode:
			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode {
			switch {
			case block[n.DataAtom]:
				buf.WriteByte('\n')
			case cell[n.DataAtom]:
				buf.WriteByte('\t')
			}
		}
	}
	walk(root)

	return buf.String(), nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// LooksLikeHTML sniffs the first bytes of a document for HTML markup.
func LooksLikeHTML(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.ToLower(bytes.TrimSpace(head))
	for _, marker := range [][]byte{[]byte("<!doctype html"), []byte("<html"), []byte("<body"), []byte("<head")} {
		if bytes.Contains(head, marker) {
			return true
		}
	}
	return false
}

// toText returns data as text, extracting it first when it is HTML.
func toText(data []byte) (string, error) {
	if LooksLikeHTML(data) {
		return ExtractText(bytes.NewReader(data))
	}
	return string(data), nil
}

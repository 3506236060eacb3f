// Package render turns stored document content into downloadable files.
package render

import (
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Source is the flat input every renderer consumes.
type Source struct {
	Title       string
	Number      string
	Provisional bool
	SchoolName  string
	SchoolCode  string
	Author      string
	Content     string
	GeneratedAt time.Time
}

// Block is a paragraph of text extracted from stored HTML content.
type Block struct {
	Text    string
	Heading bool
}

var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

var headingAtoms = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// Blocks flattens HTML (or plain text) into paragraphs. Script and style bodies are dropped.
func Blocks(content string) []Block {
	nodes, err := html.ParseFragment(strings.NewReader(content), &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	if err != nil {
		return plainBlocks(content)
	}

	var (
		blocks  []Block
		current strings.Builder
		heading bool
	)
	flush := func() {
		text := strings.Join(strings.Fields(current.String()), " ")
		if text != "" {
			blocks = append(blocks, Block{Text: text, Heading: heading})
		}
		current.Reset()
		heading = false
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			current.WriteByte(' ')
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
			if blockAtoms[n.DataAtom] {
				flush()
				heading = headingAtoms[n.DataAtom]
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if n.Type == html.ElementNode && blockAtoms[n.DataAtom] {
			flush()
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	flush()
	return blocks
}

func plainBlocks(content string) []Block {
	var blocks []Block
	for _, line := range strings.Split(content, "\n") {
		if text := strings.TrimSpace(line); text != "" {
			blocks = append(blocks, Block{Text: text})
		}
	}
	return blocks
}

func numberLabel(src Source) string {
	switch {
	case src.Number == "":
		return "Number pending"
	case src.Provisional:
		return "Provisional no. " + src.Number
	default:
		return "No. " + src.Number
	}
}

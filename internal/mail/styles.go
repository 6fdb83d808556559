package mail

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const bodyStyle = "font-family: Arial, sans-serif; font-size: 16px; color: #333333; background-color: #ffffff; line-height: 1.5;"

// Mail clients drop <style> blocks so every tag carries its own style
var tagStyles = map[string]string{
	"h1":         "font-size: 24px; color: #333333; font-weight: bold; margin-top: 20px; margin-bottom: 10px;",
	"h2":         "font-size: 20px; color: #333333; font-weight: bold; margin-top: 18px; margin-bottom: 8px;",
	"p":          "font-size: 16px; color: #666666; margin: 10px 0; line-height: 1.6;",
	"a":          "color: #0056b3; text-decoration: none; font-weight: bold;",
	"ul":         "list-style-type: none; padding: 0;",
	"li":         "margin-bottom: 10px;",
	"hr":         "border: none; border-top: 1px solid #dddddd; margin: 20px 0;",
	"code":       "font-family: monospace; background-color: #f4f4f4; padding: 2px 4px;",
	"blockquote": "border-left: 4px solid #dddddd; margin: 10px 0; padding-left: 10px; color: #777777;",
}

// ApplyEmailStyles inlines presentational styles into every known tag and
// wraps the result in a styled container. Tags that already have a style
// attribute are left alone, so applying it twice changes nothing.
func ApplyEmailStyles(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return s, nil
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return "", fmt.Errorf("failed to parse html, %w", err)
	}

	for _, n := range nodes {
		styleTree(n)
	}

	if !isWrapper(nodes) {
		wrapper := &html.Node{
			Type:     html.ElementNode,
			Data:     "div",
			DataAtom: atom.Div,
			Attr:     []html.Attribute{{Key: "style", Val: bodyStyle}},
		}
		for _, n := range nodes {
			wrapper.AppendChild(n)
		}
		nodes = []*html.Node{wrapper}
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("failed to render html, %w", err)
		}
	}

	return buf.String(), nil
}

func styleTree(n *html.Node) {
	if n.Type == html.ElementNode {
		if style, ok := tagStyles[n.Data]; ok && !hasAttr(n, "style") {
			n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: style})
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		styleTree(c)
	}
}

func isWrapper(nodes []*html.Node) bool {
	var elems []*html.Node
	for _, n := range nodes {
		switch n.Type {
		case html.ElementNode:
			elems = append(elems, n)
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				return false
			}
		}
	}

	return len(elems) == 1 && elems[0].DataAtom == atom.Div && hasAttr(elems[0], "style")
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}

	return false
}

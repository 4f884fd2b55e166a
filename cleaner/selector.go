package cleaner

import (
	"bytes"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// RemoveSelector parses an HTML fragment, detaches every element matching
// selector and renders what is left.
func RemoveSelector(fragment string, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	matches := cascadia.QueryAll(doc, sel)
	if len(matches) == 0 {
		return fragment, nil
	}
	for _, node := range matches {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}

	body := cascadia.Query(doc, cascadia.MustCompile("body"))
	if body == nil {
		body = doc
	}

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

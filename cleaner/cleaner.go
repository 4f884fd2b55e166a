// Package cleaner turns product description markup into Markdown.
package cleaner

import (
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// noise is markup that carries nothing worth keeping in a description.
const noise = "img, svg, picture, video, form, button, input"

// Cleaner converts description fragments. The converter is created once and
// reused; Cleaner is safe for concurrent use.
type Cleaner struct {
	mdConverter *converter.Converter
}

// NewCleaner initialises the Cleaner with a pre-configured Markdown converter.
func NewCleaner() *Cleaner {
	return &Cleaner{
		mdConverter: newMarkdownConverter(),
	}
}

// Description converts a description fragment from pageURL into trimmed
// Markdown. Media and form controls are dropped first. An empty result means
// the description had no text.
func (c *Cleaner) Description(fragment string, pageURL string) (string, error) {
	stripped, err := RemoveSelector(fragment, noise)
	if err != nil {
		return "", err
	}

	domain := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		domain = u.Scheme + "://" + u.Host
	}

	md, err := ToMarkdown(c.mdConverter, stripped, domain)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

package scraper

import "strings"

// tagPathDelimiter precedes the tag in a tag anchor's href.
const tagPathDelimiter = "/collections/all/"

// SplitList splits a detail value on ", " and "; ", trimming tokens and
// dropping empty ones. It never returns an empty non-nil slice.
func SplitList(raw string) []string {
	raw = strings.ReplaceAll(raw, "; ", ", ")
	var out []string
	for _, tok := range strings.Split(raw, ", ") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// CASNumbers splits a CAS value. The whole field is absent when any token is
// a "n/a" marker.
func CASNumbers(raw string) []string {
	tokens := SplitList(raw)
	for _, tok := range tokens {
		if strings.Contains(strings.ToLower(tok), "n/a") {
			return nil
		}
	}
	return tokens
}

// Odour lower-cases and splits an odour value. The list stops at the first
// token containing a full stop: its text before the stop is kept if
// non-empty, and everything after is prose, not descriptors.
func Odour(raw string) []string {
	var out []string
	for _, tok := range SplitList(strings.ToLower(raw)) {
		if head, _, found := strings.Cut(tok, "."); found {
			if head = strings.TrimSpace(head); head != "" {
				out = append(out, head)
			}
			break
		}
		out = append(out, tok)
	}
	return out
}

// Solvent trims a solvent value. "none" and "n/a" markers, in any case, mean
// no solvent.
func Solvent(raw string) *string {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	if s == "" || strings.Contains(lower, "none") || strings.Contains(lower, "n/a") {
		return nil
	}
	return &s
}

// TagFromLink isolates the tag from a tag anchor href, dropping any query
// or fragment. It reports false for hrefs that are not tag links.
func TagFromLink(href string) (string, bool) {
	_, tag, found := strings.Cut(href, tagPathDelimiter)
	if !found {
		return "", false
	}
	tag, _, _ = strings.Cut(tag, "?")
	tag, _, _ = strings.Cut(tag, "#")
	tag = strings.TrimSpace(strings.Trim(tag, "/"))
	return tag, tag != ""
}

// Tags derives the tag list from tag anchor hrefs, keeping order.
func Tags(hrefs []string) []string {
	var out []string
	for _, href := range hrefs {
		if tag, ok := TagFromLink(href); ok {
			out = append(out, tag)
		}
	}
	return out
}

// SlugFromLink strips the product path prefix and any query string or
// fragment from a listing link.
func SlugFromLink(link string) string {
	link, _, _ = strings.Cut(link, "?")
	link, _, _ = strings.Cut(link, "#")
	if i := strings.LastIndex(link, "/products/"); i >= 0 {
		link = link[i+len("/products/"):]
	}
	return strings.Trim(strings.TrimSpace(link), "/")
}

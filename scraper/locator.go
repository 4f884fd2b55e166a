package scraper

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/daltunay/perfumes/models"
)

// Detail labels read from the product info block.
const (
	LabelCAS          = "CAS No."
	LabelOdour        = "Odour (decreasing)"
	LabelSolvent      = "Solvent"
	LabelSynonyms     = "Main Synonyms"
	LabelManufacturer = "Manufacturer"
)

// ErrMissingLink is returned when a listing entry carries no product link.
var ErrMissingLink = errors.New("listing entry has no product link")

// Locator finds the product fields in catalog markup. Selector knowledge
// lives behind this interface so a markup change stays in one place.
type Locator interface {
	// ListingLinks returns the product link of every entry on a listing
	// page, in document order. An empty result marks the end of the catalog.
	ListingLinks(doc *goquery.Document) ([]string, error)

	// Title returns the product display name, or models.ErrMissingTitle.
	Title(doc *goquery.Document) (string, error)

	// TypeBadge returns the raw type badge text.
	TypeBadge(doc *goquery.Document) (string, bool)

	// TagLinks returns the hrefs of the tag anchors in the description.
	TagLinks(doc *goquery.Document) []string

	// Details returns the labelled detail rows, label to raw value.
	Details(doc *goquery.Document) map[string]string

	// Description returns the description markup without the tag line.
	Description(doc *goquery.Document) (string, bool)
}

var (
	listingEntrySel = cascadia.MustCompile("div.wishlist-hero-custom-button.wishlisthero-floating")
	titleSel        = cascadia.MustCompile("div.product__title h1")
	infoSel         = cascadia.MustCompile("div.product__info-container")
	typeBadgeSel    = cascadia.MustCompile("div.product-type-badge")
	descriptionSel  = cascadia.MustCompile("div.product__description.rte.quick-add-hidden")
	tagIconSel      = cascadia.MustCompile("i.fa.fa-tags")
	anchorSel       = cascadia.MustCompile("a")
	hrSel           = cascadia.MustCompile("hr")
	paragraphSel    = cascadia.MustCompile("p")
	strongSel       = cascadia.MustCompile("strong")
)

// listingLinkAttr holds the product link on a listing entry.
const listingLinkAttr = "data-wlh-link"

// PellWall locates fields in pellwall.com storefront markup.
type PellWall struct{}

func (PellWall) ListingLinks(doc *goquery.Document) ([]string, error) {
	entries := doc.FindMatcher(listingEntrySel)
	links := make([]string, 0, entries.Length())
	var err error
	entries.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link, ok := s.Attr(listingLinkAttr)
		if !ok || strings.TrimSpace(link) == "" {
			err = ErrMissingLink
			return false
		}
		links = append(links, link)
		return true
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (PellWall) Title(doc *goquery.Document) (string, error) {
	h1 := doc.FindMatcher(titleSel).First()
	if h1.Length() == 0 {
		return "", models.ErrMissingTitle
	}
	name := collapse(h1.Text())
	if name == "" {
		return "", models.ErrMissingTitle
	}
	return name, nil
}

func (PellWall) TypeBadge(doc *goquery.Document) (string, bool) {
	a := doc.FindMatcher(infoSel).First().
		FindMatcher(typeBadgeSel).First().
		FindMatcher(anchorSel).First()
	if a.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(a.Text()), true
}

func (PellWall) TagLinks(doc *goquery.Document) []string {
	icon := doc.FindMatcher(descriptionSel).First().FindMatcher(tagIconSel).First()
	if icon.Length() == 0 {
		return nil
	}
	var hrefs []string
	icon.NextAllMatcher(anchorSel).Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs
}

func (PellWall) Details(doc *goquery.Document) map[string]string {
	hr := doc.FindMatcher(infoSel).First().FindMatcher(hrSel).First()
	if hr.Length() == 0 {
		return nil
	}
	details := make(map[string]string)
	hr.NextAllMatcher(paragraphSel).Each(func(_ int, p *goquery.Selection) {
		strong := p.FindMatcher(strongSel).First()
		if strong.Length() == 0 {
			return
		}
		label := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(strong.Text()), ":"))
		if label == "" {
			return
		}
		// Later rows with the same label win.
		details[label] = detailValue(strings.TrimSpace(p.Text()), label)
	})
	return details
}

func (PellWall) Description(doc *goquery.Document) (string, bool) {
	desc := doc.FindMatcher(descriptionSel).First()
	if desc.Length() == 0 {
		return "", false
	}
	desc = desc.Clone()
	icon := desc.FindMatcher(tagIconSel).First()
	if icon.Length() > 0 {
		icon.NextAllMatcher(anchorSel).Remove()
		icon.Remove()
	}
	fragment, err := desc.Html()
	if err != nil {
		return "", false
	}
	return fragment, true
}

// detailValue strips the label from a detail row's text. Rows whose text
// does not start with the label fall back to everything after the first
// colon.
func detailValue(text, label string) string {
	value := text
	if rest, ok := strings.CutPrefix(value, label); ok {
		value = rest
	} else if _, after, found := strings.Cut(value, ":"); found {
		value = after
	}
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, ":")
	return strings.TrimSpace(value)
}

// collapse trims s and folds internal whitespace runs to one space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

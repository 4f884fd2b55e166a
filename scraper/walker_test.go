package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/daltunay/perfumes/engine"
	"github.com/daltunay/perfumes/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingPage(links ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="collection">`)
	for _, l := range links {
		fmt.Fprintf(&b, `<div class="card"><div class="wishlist-hero-custom-button wishlisthero-floating" data-wlh-link="%s"></div></div>`, l)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func newListingServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/ingredients", r.URL.Path)
		body, ok := pages[r.URL.Query().Get("page")]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeHTML(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWalker_DiscoverIdentifiers(t *testing.T) {
	srv := newListingServer(t, map[string]string{
		"1": listingPage("/products/ambroxan?variant=1", "/products/iso-e-super"),
		"2": listingPage("/products/hedione", "/products/ambroxan"),
		"3": listingPage(),
	})

	w := NewWalker(engine.NewHTTPEngine(), Options{ListingURL: srv.URL + "/collections/ingredients"})
	slugs, err := w.DiscoverIdentifiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ambroxan", "iso-e-super", "hedione", "ambroxan"}, slugs)
}

func TestWalker_EmptyCatalog(t *testing.T) {
	srv := newListingServer(t, map[string]string{"1": listingPage()})

	w := NewWalker(engine.NewHTTPEngine(), Options{ListingURL: srv.URL + "/collections/ingredients"})
	slugs, err := w.DiscoverIdentifiers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, slugs)
}

func TestWalker_PageFailureAborts(t *testing.T) {
	srv := newListingServer(t, map[string]string{
		"1": listingPage("/products/ambroxan"),
	})

	w := NewWalker(engine.NewHTTPEngine(), Options{ListingURL: srv.URL + "/collections/ingredients"})
	slugs, err := w.DiscoverIdentifiers(context.Background())
	require.Error(t, err)
	assert.Nil(t, slugs)

	var walkErr *models.CatalogWalkError
	require.ErrorAs(t, err, &walkErr)
	assert.Equal(t, 2, walkErr.Page)
	assert.Contains(t, walkErr.URL, "page=2")
}

func TestWalker_EntryWithoutLink(t *testing.T) {
	srv := newListingServer(t, map[string]string{
		"1": `<html><body><div class="wishlist-hero-custom-button wishlisthero-floating"></div></body></html>`,
	})

	w := NewWalker(engine.NewHTTPEngine(), Options{ListingURL: srv.URL + "/collections/ingredients"})
	_, err := w.DiscoverIdentifiers(context.Background())
	require.ErrorIs(t, err, ErrMissingLink)

	var walkErr *models.CatalogWalkError
	require.ErrorAs(t, err, &walkErr)
	assert.Equal(t, 1, walkErr.Page)
}

func TestWalker_PageURL(t *testing.T) {
	w := NewWalker(engine.NewHTTPEngine(), Options{ListingURL: "https://pellwall.com/collections/ingredients-for-perfumery"})
	u, err := w.PageURL(3)
	require.NoError(t, err)
	assert.Equal(t, "https://pellwall.com/collections/ingredients-for-perfumery?page=3", u)

	w = NewWalker(engine.NewHTTPEngine(), Options{ListingURL: "https://pellwall.com/collections/x?sort_by=title"})
	u, err = w.PageURL(1)
	require.NoError(t, err)
	assert.Equal(t, "https://pellwall.com/collections/x?page=1&sort_by=title", u)

	_, err = NewWalker(engine.NewHTTPEngine(), Options{}).PageURL(1)
	assert.Error(t, err)
}

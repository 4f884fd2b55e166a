package models

import (
	"strings"
	"time"
)

// Product is one perfumery ingredient as published on the source catalog.
//
// Optional fields use nil for "absent". After Normalize, an optional field
// is never an empty string or an empty slice.
type Product struct {
	// ID is assigned by the store; zero until the product is persisted.
	ID int64 `json:"id,omitempty"`

	// Slug is the source-assigned identifier and the natural key.
	Slug string `json:"slug"`

	// URL is the canonical detail-page address derived from Slug.
	URL string `json:"url"`

	// Name is the display name. Always present.
	Name string `json:"name"`

	Type         *string  `json:"type"`
	Tags         []string `json:"tags"`
	CASNo        []string `json:"cas_no"`
	Odour        []string `json:"odour"`
	Solvent      *string  `json:"solvent"`
	Synonyms     []string `json:"synonyms"`
	Manufacturer *string  `json:"manufacturer"`

	// Description is the product description rendered as Markdown.
	Description *string `json:"description"`

	// UpdatedAt is set by the store on write.
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Normalize applies the absence rule to every optional field: blank strings
// and empty slices become nil, and blank tokens are dropped from slices.
func Normalize(p *Product) {
	p.Type = optString(p.Type)
	p.Solvent = optString(p.Solvent)
	p.Manufacturer = optString(p.Manufacturer)
	p.Description = optString(p.Description)

	p.Tags = optList(p.Tags)
	p.CASNo = optList(p.CASNo)
	p.Odour = optList(p.Odour)
	p.Synonyms = optList(p.Synonyms)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func optString(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func optList(items []string) []string {
	var out []string
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

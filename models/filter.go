package models

import (
	"fmt"
	"slices"
	"strings"
)

// List filter modes.
const (
	ModeAny   = "any"   // product has at least one of the values
	ModeAll   = "all"   // product has every value
	ModeExact = "exact" // product's set equals the value set
)

// Text filter matches.
const (
	MatchExact    = "exact"
	MatchContains = "contains"
)

var (
	listFields = []string{"cas_no", "odour", "synonyms", "tags"}
	textFields = []string{"manufacturer", "name", "slug", "solvent", "type"}
)

// ProductFilter selects products by one field. The zero value matches
// everything.
type ProductFilter struct {
	// Field is the product field to filter on, by its JSON name.
	Field string `form:"field"`

	// Mode applies to list fields: "any" (default), "all", "exact".
	Mode string `form:"mode"`

	// Match applies to text fields: "exact" (default), "contains".
	// "contains" is case-insensitive.
	Match string `form:"match"`

	// Values are the query values. A text field matches if any value matches.
	Values []string `form:"q"`
}

// Defaults applies default values to unset fields.
func (f *ProductFilter) Defaults() {
	if f.Mode == "" {
		f.Mode = ModeAny
	}
	if f.Match == "" {
		f.Match = MatchExact
	}

	// Accept both ?q=a&q=b and ?q=a,b.
	var values []string
	for _, v := range f.Values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	f.Values = values
}

// Empty reports whether the filter selects every product.
func (f ProductFilter) Empty() bool {
	return f.Field == "" || len(f.Values) == 0
}

// Validate checks field, mode and match names.
func (f ProductFilter) Validate() error {
	if f.Field == "" {
		return nil
	}
	switch {
	case slices.Contains(listFields, f.Field):
		if f.Mode != ModeAny && f.Mode != ModeAll && f.Mode != ModeExact {
			return fmt.Errorf("invalid mode %q: want any, all or exact", f.Mode)
		}
	case slices.Contains(textFields, f.Field):
		if f.Match != MatchExact && f.Match != MatchContains {
			return fmt.Errorf("invalid match %q: want exact or contains", f.Match)
		}
	default:
		return fmt.Errorf("unknown field %q", f.Field)
	}
	return nil
}

// Key identifies the filter for caching.
func (f ProductFilter) Key() string {
	if f.Empty() {
		return "all"
	}
	values := slices.Clone(f.Values)
	slices.Sort(values)
	return f.Field + "|" + f.Mode + "|" + f.Match + "|" + strings.Join(values, "\x1f")
}

// Matches reports whether p passes the filter.
func (f ProductFilter) Matches(p *Product) bool {
	if f.Empty() {
		return true
	}

	if slices.Contains(listFields, f.Field) {
		return matchList(listValue(p, f.Field), f.Values, f.Mode)
	}

	text := textValue(p, f.Field)
	if text == nil {
		return false
	}
	for _, v := range f.Values {
		switch f.Match {
		case MatchContains:
			if strings.Contains(strings.ToLower(*text), strings.ToLower(v)) {
				return true
			}
		default:
			if *text == v {
				return true
			}
		}
	}
	return false
}

func matchList(have, want []string, mode string) bool {
	if len(have) == 0 {
		return false
	}
	switch mode {
	case ModeAll:
		for _, w := range want {
			if !slices.Contains(have, w) {
				return false
			}
		}
		return true
	case ModeExact:
		for _, w := range want {
			if !slices.Contains(have, w) {
				return false
			}
		}
		for _, h := range have {
			if !slices.Contains(want, h) {
				return false
			}
		}
		return true
	default:
		for _, w := range want {
			if slices.Contains(have, w) {
				return true
			}
		}
		return false
	}
}

func listValue(p *Product, field string) []string {
	switch field {
	case "cas_no":
		return p.CASNo
	case "odour":
		return p.Odour
	case "synonyms":
		return p.Synonyms
	case "tags":
		return p.Tags
	}
	return nil
}

func textValue(p *Product, field string) *string {
	switch field {
	case "name":
		return &p.Name
	case "slug":
		return &p.Slug
	case "type":
		return p.Type
	case "solvent":
		return p.Solvent
	case "manufacturer":
		return p.Manufacturer
	}
	return nil
}

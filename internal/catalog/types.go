package catalog

import "strings"

// Source tags for Product.Source
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// PlaceholderImageURL is served when no upstream image field resolves.
const PlaceholderImageURL = "https://placehold.co/400x300?text=Sneaker"

// DefaultRetailPrice is the reference price used when no numeric price field
// resolves from the upstream payload.
const DefaultRetailPrice = 150.0

// Product is the canonical shape returned to the storefront.
type Product struct {
	SKU          string      `json:"sku"`
	Title        string      `json:"title"`
	Image        string      `json:"image"`
	LastUpdated  string      `json:"lastUpdated"` // RFC3339
	RegularPrice float64     `json:"regularPrice"`
	Sizes        []SizeOffer `json:"sizes"`
	Source       string      `json:"source"` // live | fallback

	// Diagnostic metadata; informational only, not stable across calls.
	MatchedEndpoint string `json:"matchedEndpoint,omitempty"`
	AvailableCount  int    `json:"availableCount"`
	Note            string `json:"note,omitempty"`
}

// SizeOffer is one size row of a Product. Price 0 means "no price quoted".
type SizeOffer struct {
	Size      string  `json:"size"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
}

// CanonicalSKU trims whitespace around each "/"-delimited segment of a
// compound SKU ("AAA-1 / BBB-2" -> "AAA-1/BBB-2").
func CanonicalSKU(sku string) string {
	segs := strings.Split(sku, "/")
	for i, s := range segs {
		segs[i] = strings.TrimSpace(s)
	}
	return strings.Join(segs, "/")
}

func countAvailable(sizes []SizeOffer) int {
	n := 0
	for _, s := range sizes {
		if s.Available {
			n++
		}
	}
	return n
}

package catalog

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Normalizer maps heterogeneous vendor payloads into the canonical Product
// shape. It is a total function over JSON-parseable input: unresolvable fields
// fall back instead of failing (lenient policy).
type Normalizer struct {
	nowFunc func() time.Time
}

// NewNormalizer returns a Normalizer using the wall clock for capture times.
func NewNormalizer() *Normalizer {
	return &Normalizer{nowFunc: time.Now}
}

// Normalize builds a Product from an arbitrary vendor payload.
// requestedIdentifier is the caller-supplied SKU or id, used for synthesized
// placeholders; the returned Product carries it verbatim.
func (n *Normalizer) Normalize(payload map[string]any, requestedIdentifier string) Product {
	regular := resolveRegularPrice(payload)
	sizes := extractSizes(payload, regular)

	title, ok := firstString(payload, "title", "name", "product_name", "productName")
	if !ok {
		title = "Product " + requestedIdentifier
	}

	updated, ok := firstString(payload, "updated_at", "lastUpdated", "last_updated")
	if !ok {
		updated = n.nowFunc().UTC().Format(time.RFC3339)
	}

	return Product{
		SKU:            requestedIdentifier,
		Title:          title,
		Image:          resolveImage(payload),
		LastUpdated:    updated,
		RegularPrice:   regular,
		Sizes:          sizes,
		Source:         SourceLive,
		AvailableCount: countAvailable(sizes),
	}
}

// priceExtractor is one step of the regular-price fallback cascade. Keeping
// the cascade as an ordered slice keeps the priority auditable field-by-field.
type priceExtractor struct {
	name string
	fn   func(map[string]any) (float64, bool)
}

func numField(key string) func(map[string]any) (float64, bool) {
	return func(m map[string]any) (float64, bool) {
		return asNumber(m[key])
	}
}

func centsField(key string) func(map[string]any) (float64, bool) {
	return func(m map[string]any) (float64, bool) {
		v, ok := asNumber(m[key])
		if !ok {
			return 0, false
		}
		return v / 100, true
	}
}

var priceCascade = []priceExtractor{
	{"retailPrice", numField("retailPrice")},
	{"retail_price_cents", centsField("retail_price_cents")},
	{"msrp", numField("msrp")},
	{"basePrice", numField("basePrice")},
	{"lowestAsk", numField("lowestAsk")},
	{"lowest_ask", numField("lowest_ask")},
	{"price", numField("price")},
	{"averagePrice", numField("averagePrice")},
}

func resolveRegularPrice(payload map[string]any) float64 {
	for _, ex := range priceCascade {
		if v, ok := ex.fn(payload); ok && v > 0 {
			return v
		}
	}
	return DefaultRetailPrice
}

func resolveImage(payload map[string]any) string {
	if s, ok := firstString(payload, "image", "thumbnail", "imageUrl"); ok {
		return s
	}
	if media, ok := payload["media"].([]any); ok && len(media) > 0 {
		if m, ok := media[0].(map[string]any); ok {
			if s, ok := asString(m["imageUrl"]); ok {
				return s
			}
		}
	}
	if images, ok := payload["images"].([]any); ok && len(images) > 0 {
		if s, ok := asString(images[0]); ok {
			return s
		}
	}
	return PlaceholderImageURL
}

// extractSizes runs the size-shape cascade: the first shape present in the
// payload wins; if it yields nothing after filtering, the canonical ladder is
// synthesized at the regular price.
func extractSizes(payload map[string]any, regular float64) []SizeOffer {
	var sizes []SizeOffer
	matched := false

	if list, ok := payload["variants"].([]any); ok && len(list) > 0 {
		sizes, matched = extractVariantList(list, regular), true
	} else if list, ok := payload["sizes"].([]any); ok && len(list) > 0 {
		sizes, matched = extractVariantList(list, regular), true
	} else if list, ok := payload["asks"].([]any); ok && len(list) > 0 {
		sizes, matched = extractOfferList(list), true
	} else if list, ok := payload["bids"].([]any); ok && len(list) > 0 {
		sizes, matched = extractOfferList(list), true
	} else if stats, ok := marketStats(payload); ok {
		sizes, matched = extractMarketStats(stats), true
	}

	if !matched || len(sizes) == 0 {
		return defaultLadder(regular)
	}
	return sizes
}

// extractVariantList handles the variants[] and sizes[] shapes.
func extractVariantList(list []any, regular float64) []SizeOffer {
	out := make([]SizeOffer, 0, len(list))
	for _, raw := range list {
		e, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		label := sizeLabel(firstRaw(e, "size", "us_size", "usSize"))
		if label == "" {
			continue
		}

		price, ok := firstNumber(e, "price", "lowest_ask", "lowestAsk", "ask")
		if !ok {
			price = regular
		}

		offer := SizeOffer{Size: label, Price: price}
		if count, ok := firstNumber(e, "total_asks", "totalAsks", "ask_count", "askCount", "num_asks"); ok {
			// Live-market shape: a quoted price alone is not enough,
			// there must also be open interest.
			offer.Available = price > 0 && count > 0
		} else {
			offer.Available = true
			if b, ok := e["available"].(bool); ok && !b {
				offer.Available = false
			}
			if stock, ok := asNumber(e["stock"]); ok && stock <= 0 {
				offer.Available = false
			}
		}
		out = append(out, offer)
	}
	return out
}

// extractOfferList handles the asks[] and bids[] shapes. The presence of a
// live offer implies availability.
func extractOfferList(list []any) []SizeOffer {
	out := make([]SizeOffer, 0, len(list))
	for _, raw := range list {
		e, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		label := sizeLabel(firstRaw(e, "size", "shoe_size"))
		if label == "" {
			continue
		}
		price, ok := firstNumber(e, "price", "amount")
		if !ok {
			continue
		}
		out = append(out, SizeOffer{Size: label, Price: price, Available: true})
	}
	return out
}

// marketStats finds the real-time statistics map keyed by size label
// ("US_8_5" -> {...}). Only values that are themselves objects count.
func marketStats(payload map[string]any) (map[string]any, bool) {
	for _, key := range []string{"market", "market_data", "marketData"} {
		m, ok := payload[key].(map[string]any)
		if !ok {
			continue
		}
		for _, v := range m {
			if _, ok := v.(map[string]any); ok {
				return m, true
			}
		}
	}
	return nil, false
}

func extractMarketStats(stats map[string]any) []SizeOffer {
	out := make([]SizeOffer, 0, len(stats))
	for key, raw := range stats {
		e, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		label := marketKeyLabel(key)
		if label == "" {
			continue
		}
		_, hasAsk := asNumber(e["lowest_ask"])
		price, ok := firstNumber(e, "lowest_ask", "last_sale")
		if !ok {
			continue
		}
		out = append(out, SizeOffer{Size: label, Price: price, Available: hasAsk})
	}
	sort.Slice(out, func(i, j int) bool {
		return sizeValue(out[i].Size) < sizeValue(out[j].Size)
	})
	return out
}

func defaultLadder(regular float64) []SizeOffer {
	out := make([]SizeOffer, 0, 11)
	for v := 7.0; v <= 12.0; v += 0.5 {
		out = append(out, SizeOffer{
			Size:      "US " + trimFloat(v),
			Price:     regular,
			Available: true,
		})
	}
	return out
}

// sizeLabel normalizes a raw size value into "US <n>". Missing or "Unknown"
// labels collapse to "" so callers can drop the entry.
func sizeLabel(v any) string {
	if f, ok := asNumber(v); ok {
		return "US " + trimFloat(f)
	}
	s, ok := asString(v)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "unknown") {
		return ""
	}
	if rest, found := strings.CutPrefix(strings.ToUpper(s), "US"); found {
		s = strings.TrimSpace(rest)
		if s == "" {
			return ""
		}
	}
	return "US " + s
}

// marketKeyLabel converts a statistics-map key like "US_8_5" to "US 8.5".
func marketKeyLabel(key string) string {
	key = strings.TrimSpace(key)
	if rest, found := strings.CutPrefix(strings.ToUpper(key), "US_"); found {
		rest = strings.ReplaceAll(rest, "_", ".")
		if rest == "" {
			return ""
		}
		return "US " + rest
	}
	return sizeLabel(strings.ReplaceAll(key, "_", "."))
}

func sizeValue(label string) float64 {
	v, err := strconv.ParseFloat(strings.TrimPrefix(label, "US "), 64)
	if err != nil {
		return math.MaxFloat64
	}
	return v
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// --- generic payload helpers ---

func asString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) {
			return 0, false
		}
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func firstString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := asString(m[k]); ok {
			return s, true
		}
	}
	return "", false
}

func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if f, ok := asNumber(m[k]); ok {
			return f, true
		}
	}
	return 0, false
}

func firstRaw(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

package catalog

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

// Synthesizer produces clearly-flagged mock Products when upstream resolution
// is impossible. Output is deterministic per (identifier, market): the random
// source is seeded from the pair, so the same product looks the same across
// calls and across tests while different products still look varied.
type Synthesizer struct {
	nowFunc  func() time.Time
	seedFunc func(identifier, market string) int64
}

// NewSynthesizer returns a Synthesizer with the default identifier-hash seed.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		nowFunc:  time.Now,
		seedFunc: hashSeed,
	}
}

func hashSeed(identifier, market string) int64 {
	h := fnv.New64a()
	h.Write([]byte(identifier))
	h.Write([]byte{'-'})
	h.Write([]byte(market))
	return int64(h.Sum64())
}

// Synthesize builds a fallback Product for the given identifier. note is a
// short operator-facing reason ("all upstream candidates failed", "missing
// upstream credential") carried in the diagnostic metadata.
func (s *Synthesizer) Synthesize(identifier, market, note string) Product {
	rng := rand.New(rand.NewSource(s.seedFunc(identifier, market)))

	regular := 100 + float64(rng.Intn(40))*5 // 100..295 in steps of 5

	// Wider real-shoe ladder than the normalizer's: US 6.5 through 15.
	sizes := make([]SizeOffer, 0, 18)
	for v := 6.5; v <= 15.0; v += 0.5 {
		jitter := float64(rng.Intn(12)) * 5
		offer := SizeOffer{
			Size:      "US " + trimFloat(v),
			Price:     math.Round(regular + jitter),
			Available: true,
		}
		// Roughly one size in six is sold out.
		if rng.Intn(6) == 0 {
			offer.Price = 0
			offer.Available = false
		}
		sizes = append(sizes, offer)
	}

	return Product{
		SKU:            identifier,
		Title:          "Product " + identifier,
		Image:          PlaceholderImageURL,
		LastUpdated:    s.nowFunc().UTC().Format(time.RFC3339),
		RegularPrice:   regular,
		Sizes:          sizes,
		Source:         SourceFallback,
		AvailableCount: countAvailable(sizes),
		Note:           note,
	}
}

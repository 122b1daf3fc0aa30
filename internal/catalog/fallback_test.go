package catalog

import (
	"reflect"
	"testing"
	"time"
)

func fixedSynthesizer() *Synthesizer {
	s := NewSynthesizer()
	s.nowFunc = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSynthesize_Deterministic(t *testing.T) {
	s := fixedSynthesizer()

	a := s.Synthesize("AAA-1/BBB-2", "US", "all upstream candidates failed")
	b := s.Synthesize("AAA-1/BBB-2", "US", "all upstream candidates failed")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("fallback output not deterministic:\n%+v\n%+v", a, b)
	}

	// a different identifier should not produce the same ladder
	c := s.Synthesize("CCC-3", "US", "all upstream candidates failed")
	if reflect.DeepEqual(a.Sizes, c.Sizes) && a.RegularPrice == c.RegularPrice {
		t.Fatalf("distinct identifiers produced identical fallback data")
	}
}

func TestSynthesize_Shape(t *testing.T) {
	s := fixedSynthesizer()
	p := s.Synthesize("DQ-123", "US", "missing upstream credential")

	if p.Source != SourceFallback {
		t.Fatalf("expected fallback source, got %s", p.Source)
	}
	if len(p.Sizes) == 0 {
		t.Fatalf("fallback product must never have empty sizes")
	}
	if p.Sizes[0].Size != "US 6.5" || p.Sizes[len(p.Sizes)-1].Size != "US 15" {
		t.Fatalf("unexpected ladder bounds: %s .. %s", p.Sizes[0].Size, p.Sizes[len(p.Sizes)-1].Size)
	}
	if p.RegularPrice < 100 || p.RegularPrice > 295 {
		t.Fatalf("regular price out of range: %v", p.RegularPrice)
	}
	for _, offer := range p.Sizes {
		if offer.Available && offer.Price <= 0 {
			t.Fatalf("available size without a price: %+v", offer)
		}
		if !offer.Available && offer.Price != 0 {
			t.Fatalf("sold-out size should carry the zero sentinel: %+v", offer)
		}
	}
	if p.Note != "missing upstream credential" {
		t.Fatalf("note not carried: %q", p.Note)
	}
	if p.Title != "Product DQ-123" {
		t.Fatalf("unexpected title: %q", p.Title)
	}
}

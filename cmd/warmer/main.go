// Command warmer resolves a batch of SKUs through the live pipeline before a
// demo, reporting which products resolve live and which fall back. Useful to
// catch an expired credential or a dead upstream before the storefront does.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kaorikusaka20/kicksdb-netlify-demo/internal/catalog"
	"github.com/kaorikusaka20/kicksdb-netlify-demo/internal/config"
	"github.com/kaorikusaka20/kicksdb-netlify-demo/internal/upstream"
)

// Processor resolves SKUs through the same resolver/normalizer chain the
// gateway uses.
type Processor struct {
	resolver    *upstream.Resolver
	normalizer  *catalog.Normalizer
	synthesizer *catalog.Synthesizer
	market      string
	log         *zap.Logger
}

// NewProcessor creates a processor from the deployment config.
func NewProcessor(cfg config.Config, market string, logger *zap.Logger) *Processor {
	return &Processor{
		resolver:    upstream.NewResolver(cfg.APIBase, cfg.APIKey, cfg.UpstreamTimeout, logger),
		normalizer:  catalog.NewNormalizer(),
		synthesizer: catalog.NewSynthesizer(),
		market:      market,
		log:         logger,
	}
}

// Warm resolves one SKU, falling back to synthesized data the way the
// gateway would.
func (p *Processor) Warm(ctx context.Context, sku string) catalog.Product {
	sku = catalog.CanonicalSKU(sku)
	payload, endpoint, err := p.resolver.Resolve(ctx, sku, p.market, false)
	if err != nil {
		if !errors.Is(err, upstream.ErrExhausted) {
			p.log.Warn("unexpected resolver error", zap.String("sku", sku), zap.Error(err))
		}
		return p.synthesizer.Synthesize(sku, p.market, err.Error())
	}
	product := p.normalizer.Normalize(payload, sku)
	product.MatchedEndpoint = endpoint
	return product
}

func main() {
	skuList := flag.String("skus", "", "comma-separated SKU list to warm")
	market := flag.String("market", "", "market code (default from DEFAULT_MARKET)")
	workers := flag.Int("workers", 4, "concurrent fetches")
	flag.Parse()

	cfg := config.Load()
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	if *market == "" {
		*market = cfg.DefaultMarket
	}

	skus := make([]string, 0, 8)
	for _, s := range strings.Split(*skuList, ",") {
		if s = strings.TrimSpace(s); s != "" {
			skus = append(skus, s)
		}
	}
	if len(skus) == 0 {
		fmt.Fprintln(os.Stderr, "usage: warmer -skus SKU1,SKU2[,...] [-market US] [-workers 4]")
		os.Exit(2)
	}
	if cfg.APIKey == "" {
		logger.Warn("KICKS_API_KEY not set, every SKU will report fallback")
	}

	proc := NewProcessor(cfg, *market, logger)
	ctx := context.Background()

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	fallbacks := 0

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sku := range jobs {
				product := proc.Warm(ctx, sku)
				mu.Lock()
				if product.Source == catalog.SourceFallback {
					fallbacks++
				}
				fmt.Printf("%-30s %-8s price=%.2f sizes=%d available=%d\n",
					product.SKU, product.Source, product.RegularPrice,
					len(product.Sizes), product.AvailableCount)
				mu.Unlock()
			}
		}()
	}

	for _, sku := range skus {
		jobs <- sku
	}
	close(jobs)
	wg.Wait()

	fmt.Printf("warmed %d products, %d served from fallback\n", len(skus), fallbacks)
	if fallbacks == len(skus) {
		// every SKU falling back means the upstream integration is down
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.InitialFields = map[string]any{"service": "catalog-warmer"}
	l, _ := cfg.Build()
	return l
}

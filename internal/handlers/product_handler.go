package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	internalaws "github.com/kaorikusaka20/kicksdb-netlify-demo/internal/aws"
	"github.com/kaorikusaka20/kicksdb-netlify-demo/internal/cache"
	"github.com/kaorikusaka20/kicksdb-netlify-demo/internal/catalog"
	"github.com/kaorikusaka20/kicksdb-netlify-demo/internal/validation"
)

// ProductResolver yields a raw upstream payload for an identifier, or an
// error once every endpoint candidate is exhausted.
type ProductResolver interface {
	Resolve(ctx context.Context, identifier, market string, isID bool) (map[string]any, string, error)
}

// HandlerConfig groups dependencies for the catalog handler.
type HandlerConfig struct {
	Cache         *cache.Cache
	Resolver      ProductResolver
	Normalizer    *catalog.Normalizer
	Synthesizer   *catalog.Synthesizer
	Metrics       *internalaws.MetricsPublisher // nil disables metrics
	Logger        *zap.Logger
	DefaultMarket string
	CredentialSet bool
}

// corsHeaders makes every catalog response consumable from any storefront
// origin. The gateway owns caching, so intermediaries are told not to.
func corsHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
	c.Header("Cache-Control", "no-store")
	c.Next()
}

// RegisterCatalogRoutes registers routes for the product catalog API.
func RegisterCatalogRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	r.HandleMethodNotAllowed = true
	r.NoMethod(corsHeaders, func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	r.OPTIONS("/product", corsHeaders, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	r.GET("/product", corsHeaders, func(c *gin.Context) {
		ctx := c.Request.Context()

		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-Id", reqID)

		var q validation.ProductQuery
		if err := validation.BindQueryAndValidate(c, &q, v); err != nil {
			// BindQueryAndValidate already wrote a 400
			return
		}

		sku := catalog.CanonicalSKU(q.SKU)
		identifier, isID := sku, false
		if id := strings.TrimSpace(q.ID); id != "" {
			identifier, isID = id, true
		}
		market := strings.ToUpper(strings.TrimSpace(q.Market))
		if market == "" {
			market = cfg.DefaultMarket
		}

		log := cfg.Logger.With(
			zap.String("request_id", reqID),
			zap.String("identifier", identifier),
			zap.String("market", market),
		)

		key := cache.Key(identifier, market)
		if p, ok := cfg.Cache.Get(key); ok {
			_ = cfg.Metrics.Count(ctx, internalaws.MetricCacheHit, nil)
			log.Info("cache hit")
			c.JSON(http.StatusOK, p)
			return
		}
		_ = cfg.Metrics.Count(ctx, internalaws.MetricCacheMiss, nil)

		// the SKU is the storefront-facing identifier; fall back to the
		// opaque id when the caller only supplied that
		displayID := sku
		if displayID == "" {
			displayID = identifier
		}

		var product catalog.Product
		switch {
		case !cfg.CredentialSet:
			// always-respond policy: a misconfigured deployment serves
			// deterministic fallback data for every lookup, never a 500
			log.Warn("no upstream credential configured, serving fallback")
			product = cfg.Synthesizer.Synthesize(displayID, market, "missing upstream credential")
			_ = cfg.Metrics.Count(ctx, internalaws.MetricFallbackServed, nil)
		default:
			payload, endpoint, err := cfg.Resolver.Resolve(ctx, identifier, market, isID)
			if err != nil {
				log.Warn("upstream resolution exhausted, serving fallback", zap.Error(err))
				product = cfg.Synthesizer.Synthesize(displayID, market, err.Error())
				_ = cfg.Metrics.Count(ctx, internalaws.MetricFallbackServed, nil)
			} else {
				product = cfg.Normalizer.Normalize(payload, displayID)
				product.MatchedEndpoint = endpoint
				_ = cfg.Metrics.Count(ctx, internalaws.MetricUpstreamResolved, map[string]string{"Endpoint": endpoint})
			}
		}

		cfg.Cache.Put(key, product)
		log.Info("resolved product",
			zap.String("source", product.Source),
			zap.Int("sizes", len(product.Sizes)),
		)
		c.JSON(http.StatusOK, product)
	})
}

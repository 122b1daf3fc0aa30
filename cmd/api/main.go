package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	internalaws "github.com/kaorikusaka20/kicksdb-netlify-demo/internal/aws"
	"github.com/kaorikusaka20/kicksdb-netlify-demo/internal/cache"
	"github.com/kaorikusaka20/kicksdb-netlify-demo/internal/catalog"
	"github.com/kaorikusaka20/kicksdb-netlify-demo/internal/config"
	"github.com/kaorikusaka20/kicksdb-netlify-demo/internal/handlers"
	"github.com/kaorikusaka20/kicksdb-netlify-demo/internal/upstream"
)

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.InitialFields = map[string]any{"service": "catalog-gateway"}
	l, _ := cfg.Build()
	return l
}

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterCatalogRoutes(r, cfg)

	return r
}

func main() {
	cfg := config.Load()
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resultCache := cache.New(cfg.CacheTTL)
	resultCache.StartSweeper(ctx, cfg.SweepInterval)

	var metrics *internalaws.MetricsPublisher
	if cfg.MetricsNamespace != "" {
		clients, err := internalaws.NewAWSClients(ctx)
		if err != nil {
			log.Fatalf("failed to init aws clients: %v", err)
		}
		metrics = internalaws.NewMetricsPublisher(clients.CloudWatch, cfg.MetricsNamespace)
	}

	if cfg.APIKey == "" {
		logger.Warn("KICKS_API_KEY not set, gateway will serve synthesized fallback data only")
	}

	hcfg := handlers.HandlerConfig{
		Cache:         resultCache,
		Resolver:      upstream.NewResolver(cfg.APIBase, cfg.APIKey, cfg.UpstreamTimeout, logger),
		Normalizer:    catalog.NewNormalizer(),
		Synthesizer:   catalog.NewSynthesizer(),
		Metrics:       metrics,
		Logger:        logger,
		DefaultMarket: cfg.DefaultMarket,
		CredentialSet: cfg.APIKey != "",
	}

	r := setupRouter(hcfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		addr := ":" + cfg.Port
		logger.Info("running local server", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		// the adapter handles proxying; use adapter.ProxyWithContext for proper context propagation
		return adapter.ProxyWithContext(ctx, req)
	})
}

package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/atelier-moda/storefront/internal/pricing"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr            string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	CommerceURL     string        `usage:"Base URL of the commerce service (STOREFRONT_COMMERCE_URL)" flag:"commerce-url"`
	CommerceTimeout time.Duration `default:"10s" usage:"Commerce client request timeout" flag:"commerce-timeout"`
	CatalogTTL      time.Duration `default:"5m" usage:"Product catalog cache freshness window" flag:"catalog-ttl"`

	Pricing   PricingConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// PricingConfig holds the shipping fee policy as decimal strings.
type PricingConfig struct {
	FreeShippingThreshold string `default:"100" usage:"Subtotal above which shipping is free"`
	FlatShippingFee       string `default:"10" usage:"Flat shipping fee below the threshold"`
}

// SessionConfig controls per-shopper cart session lifecycle.
type SessionConfig struct {
	TTL              time.Duration `default:"3m" usage:"Idle time before a cart session is evicted"`
	SweepInterval    time.Duration `default:"30s" usage:"How often idle sessions are swept" flag:"session-sweep"`
	ReconcileTimeout time.Duration `default:"15s" usage:"Per-call bound on cart reconciliation" flag:"reconcile-timeout"`
}

// RateLimitConfig controls the per-client fixed window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (session cookie)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.CommerceURL == "" {
		return nil, errors.New("commerce URL is required: set STOREFRONT_COMMERCE_URL")
	}
	if _, err := cfg.PricingPolicy(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// PricingPolicy parses the configured fee policy into engine form.
func (c *Config) PricingPolicy() (pricing.Config, error) {
	threshold, err := decimal.NewFromString(c.Pricing.FreeShippingThreshold)
	if err != nil {
		return pricing.Config{}, errors.Wrap(err, "parse free shipping threshold")
	}
	fee, err := decimal.NewFromString(c.Pricing.FlatShippingFee)
	if err != nil {
		return pricing.Config{}, errors.Wrap(err, "parse flat shipping fee")
	}
	return pricing.Config{FreeShippingThreshold: threshold, FlatShippingFee: fee}, nil
}

// applyPlatformDefaults maps standard platform environment variables (PORT)
// onto the STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

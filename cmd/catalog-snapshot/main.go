// Command catalog-snapshot fetches the product catalog from the commerce
// service and writes it as a gzip-compressed JSON file, suitable for seeding
// a CDN or edge cache.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"

	"github.com/atelier-moda/storefront/internal/commerce"
)

func main() {
	var (
		commerceURL string
		outPath     string
		timeout     time.Duration
	)

	flag.StringVar(&commerceURL, "commerce-url", "", "commerce service base URL (or STOREFRONT_COMMERCE_URL env)")
	flag.StringVar(&outPath, "out", "catalog.json.gz", "output file path")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "fetch timeout")
	flag.Parse()

	if commerceURL == "" {
		commerceURL = os.Getenv("STOREFRONT_COMMERCE_URL")
	}
	if commerceURL == "" {
		slog.Error("commerce URL is required: set --commerce-url or STOREFRONT_COMMERCE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, commerceURL, outPath, timeout); err != nil {
		slog.Error("catalog snapshot failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog snapshot completed", slog.String("out", outPath))
}

func run(ctx context.Context, commerceURL, outPath string, timeout time.Duration) error {
	client := commerce.New(commerceURL, commerce.Options{Timeout: timeout})

	slog.Info("fetching catalog", slog.String("url", commerceURL))
	products, err := client.ListProducts(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	slog.Info("catalog fetched", slog.Int("products", len(products)))

	f, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "create %s", outPath)
	}
	defer func() { _ = f.Close() }()

	zw := pgzip.NewWriter(f)
	if _, err := zw.Write(encodeSnapshot(products)); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "flush snapshot")
	}
	return f.Close()
}

func encodeSnapshot(products []commerce.Product) []byte {
	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("fetched_at", func(e *jx.Encoder) { e.Str(time.Now().UTC().Format(time.RFC3339)) })
		e.Field("products", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range products {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
						e.Field("price", func(e *jx.Encoder) { e.RawStr(p.Price.StringFixed(2)) })
						e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
					})
				}
			})
		})
	})
	return e.Bytes()
}

// Command seed-db loads the demo catalog from a JSON file into the database.
// Products whose SKU already exists are skipped, so reruns are safe.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/pimstack/catalog-service/internal/domain/catalog"
	"github.com/pimstack/catalog-service/internal/domain/product"
	"github.com/pimstack/catalog-service/internal/repository"
)

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return seedProducts(ctx, catalog.NewService(repository.NewProductRepository(pool)), productsFile)
}

func seedProducts(ctx context.Context, svc *catalog.Service, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var requests []catalog.CreateProductRequest
	if err := json.Unmarshal(data, &requests); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("seeding products", slog.Int("count", len(requests)))

	for _, req := range requests {
		p, err := svc.CreateProduct(ctx, req)
		if err != nil {
			var dup *product.DuplicateSKUError
			if errors.As(err, &dup) {
				slog.Info("product already seeded", slog.String("sku", req.SKU))
				continue
			}
			return errors.Wrapf(err, "seed product %s", req.SKU)
		}

		slog.Info("seeded product",
			slog.Int64("id", p.ID),
			slog.String("sku", p.SKU),
			slog.Int("translations", len(p.Translations)),
		)
	}

	return nil
}

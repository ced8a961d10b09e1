// Command catalog-import bulk-loads products from a JSONL file (optionally
// gzip-compressed) into the catalog database. Each line is one product
// payload in the same shape as POST /products. Lines that fail validation or
// collide on SKU are logged and skipped; the import keeps going.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/pimstack/catalog-service/internal/domain/catalog"
	"github.com/pimstack/catalog-service/internal/domain/product"
	"github.com/pimstack/catalog-service/internal/repository"
)

const maxLineBytes = 1 << 20

func main() {
	var (
		filePath    string
		databaseURL string
		workers     int
	)

	flag.StringVar(&filePath, "file", "", "path to products JSONL file (.jsonl or .jsonl.gz)")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&workers, "workers", 4, "number of concurrent insert workers")
	flag.Parse()

	if filePath == "" {
		slog.Error("input file is required: set --file")
		os.Exit(1)
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, filePath, databaseURL, workers); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, filePath, databaseURL string, workers int) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	svc := catalog.NewService(repository.NewProductRepository(pool))

	var (
		imported   atomic.Int64
		duplicates atomic.Int64
		invalid    atomic.Int64
	)

	lines := make(chan []byte, workers*2)

	g, ctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for line := range lines {
				req, err := decodeProduct(line)
				if err != nil {
					invalid.Add(1)
					slog.Warn("skipping malformed line", slog.String("error", err.Error()))
					continue
				}

				_, err = svc.CreateProduct(ctx, req)
				switch {
				case err == nil:
					imported.Add(1)
				case isSkippable(err):
					duplicates.Add(1)
					slog.Warn("skipping product", slog.String("sku", req.SKU), slog.String("reason", err.Error()))
				default:
					return errors.Wrapf(err, "insert product %s", req.SKU)
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(lines)
		return streamLines(ctx, filePath, func(line []byte) error {
			buf := make([]byte, len(line))
			copy(buf, line)
			select {
			case lines <- buf:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("import summary",
		slog.Int64("imported", imported.Load()),
		slog.Int64("duplicates", duplicates.Load()),
		slog.Int64("invalid", invalid.Load()),
	)

	return nil
}

// isSkippable reports whether an insert error is a per-record problem rather
// than an infrastructure failure.
func isSkippable(err error) bool {
	var (
		verr *catalog.ValidationError
		dup  *product.DuplicateSKUError
	)
	return errors.As(err, &verr) || errors.As(err, &dup)
}

// streamLines opens the file, transparently decompressing .gz, and calls fn
// for each non-empty line.
func streamLines(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// decodeProduct parses one JSONL record. The price literal is kept verbatim
// so the decimal-places validation sees exactly what the file contains.
func decodeProduct(line []byte) (catalog.CreateProductRequest, error) {
	var req catalog.CreateProductRequest

	d := jx.DecodeBytes(line)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "sku":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "sku")
			}
			req.SKU = s
		case "price":
			n, err := d.Num()
			if err != nil {
				return errors.Wrap(err, "price")
			}
			req.Price = json.Number(n.String())
		case "translations":
			return d.Arr(func(d *jx.Decoder) error {
				t, err := decodeTranslation(d)
				if err != nil {
					return err
				}
				req.Translations = append(req.Translations, t)
				return nil
			})
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return catalog.CreateProductRequest{}, errors.Wrap(err, "decode product")
	}

	return req, nil
}

func decodeTranslation(d *jx.Decoder) (catalog.TranslationRequest, error) {
	var t catalog.TranslationRequest
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "language", "name", "description":
		default:
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return errors.Wrap(err, key)
		}
		switch key {
		case "language":
			t.Language = s
		case "name":
			t.Name = s
		case "description":
			t.Description = s
		}
		return nil
	}); err != nil {
		return t, errors.Wrap(err, "decode translation")
	}
	return t, nil
}

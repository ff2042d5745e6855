package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/stevemurr/storefront-server/config"
	"github.com/stevemurr/storefront-server/handler"
	"github.com/stevemurr/storefront-server/internal/devseed"
	"github.com/stevemurr/storefront-server/model"
	"github.com/stevemurr/storefront-server/store"
	"github.com/stevemurr/storefront-server/upstream"
)

func main() {
	fs := pflag.NewFlagSet("storefront-server", pflag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(flags.ConfigPath())
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	if err := flags.Apply(cfg); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	log, err := cfg.NewLogger()
	if err != nil {
		logrus.Fatalf("failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	productModel, err := model.ProductModel(cfg.Products.Model)
	if err != nil {
		return err
	}

	products, err := store.New(ctx, store.Options{
		Backend:         cfg.Store.Backend,
		DataDir:         cfg.Store.DataDir,
		Name:            "products",
		DatabaseURL:     cfg.Store.DatabaseURL,
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxIdleConns,
		ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to create store (backend=%s): %w", cfg.Store.Backend, err)
	}
	if c, ok := products.(io.Closer); ok {
		defer c.Close()
	}

	if err := seedProducts(ctx, cfg, products, productModel, log); err != nil {
		return err
	}
	users, err := seedUsers(cfg)
	if err != nil {
		return err
	}

	h := handler.New(handler.Options{
		Products:     products,
		Users:        users,
		ProductModel: productModel,
		Upstream:     upstream.New(cfg.Upstream.Timeout, log),
		FoxURL:       cfg.Upstream.FoxURL,
		ProductsURL:  cfg.Upstream.ProductsURL,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.Chain(h, log, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	log.WithFields(logrus.Fields{
		"addr":  srv.Addr,
		"store": cfg.Store.Backend,
		"model": cfg.Products.Model,
	}).Info("Storefront Server starting")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// seedProducts fills an empty product store with the built-in records (for
// the fakestore model) and the records of the configured seed file.
func seedProducts(ctx context.Context, cfg *config.Config, s store.Store, productModel map[string]any, log logrus.FieldLogger) error {
	if !cfg.Products.Seed {
		return nil
	}
	existing, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	var records []map[string]any
	if cfg.Products.Model == model.ProductModelFakeStore {
		if records, err = devseed.Products(); err != nil {
			return err
		}
	}
	fromFile, err := devseed.LoadRecords(cfg.Products.SeedFile)
	if err != nil {
		return err
	}
	records, err = devseed.Validate(productModel, append(records, fromFile...))
	if err != nil {
		return err
	}
	n, err := s.AppendMany(ctx, records)
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	log.WithField("count", n).Info("seeded products")
	return nil
}

func seedUsers(cfg *config.Config) (*store.MemoryStore, error) {
	if !cfg.Users.Seed {
		return store.NewMemoryStore(), nil
	}
	records, err := devseed.Users()
	if err != nil {
		return nil, err
	}
	records, err = devseed.Validate(model.User, records)
	if err != nil {
		return nil, err
	}
	return store.NewMemoryStore(records...), nil
}

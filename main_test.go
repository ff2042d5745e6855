package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/stevemurr/storefront-server/config"
	"github.com/stevemurr/storefront-server/model"
	"github.com/stevemurr/storefront-server/store"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSeedProductsFakeStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	s := store.NewMemoryStore()

	if err := seedProducts(ctx, cfg, s, model.Product, quietLogger()); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 seeded products, got %d", s.Len())
	}

	// A non-empty store is left alone.
	if err := seedProducts(ctx, cfg, s, model.Product, quietLogger()); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected seeding to be skipped, got %d products", s.Len())
	}
}

func TestSeedProductsCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	raw := `[{"product_id":"p-1","name":"Desk","price":1499,"currency":"SEK","tags":["oak"]}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Products.Model = model.ProductModelCatalog
	cfg.Products.SeedFile = path

	s := store.NewMemoryStore()
	if err := seedProducts(context.Background(), cfg, s, model.CatalogProduct, quietLogger()); err != nil {
		t.Fatal(err)
	}
	docs, _ := s.List(context.Background())
	if len(docs) != 1 || docs[0]["product_id"] != "p-1" {
		t.Fatalf("unexpected seed result: %v", docs)
	}
}

func TestSeedProductsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte(`[{"title":"no id"}]`), 0o644)
	cfg := config.Default()
	cfg.Products.SeedFile = path

	s := store.NewMemoryStore()
	if err := seedProducts(context.Background(), cfg, s, model.Product, quietLogger()); err == nil {
		t.Fatal("expected invalid seed file to fail")
	}
	if s.Len() != 0 {
		t.Fatal("invalid seed reached the store")
	}
}

func TestSeedUsers(t *testing.T) {
	cfg := config.Default()
	users, err := seedUsers(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if users.Len() != 3 {
		t.Fatalf("expected 3 users, got %d", users.Len())
	}

	cfg.Users.Seed = false
	users, _ = seedUsers(cfg)
	if users.Len() != 0 {
		t.Fatal("expected empty user store")
	}
}

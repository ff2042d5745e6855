package devseed_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stevemurr/storefront-server/internal/devseed"
	"github.com/stevemurr/storefront-server/model"
)

func TestBuiltinSeedsAreValid(t *testing.T) {
	products, err := devseed.Products()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := devseed.Validate(model.Product, products); err != nil {
		t.Fatalf("built-in products: %v", err)
	}
	if len(products) != 2 || products[0]["title"] != "Laptop" {
		t.Fatalf("unexpected product seed: %v", products)
	}

	users, err := devseed.Users()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := devseed.Validate(model.User, users); err != nil {
		t.Fatalf("built-in users: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
}

func TestLoadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	raw := `[{"product_id":"p-1","name":"Desk","price":1499,"currency":"SEK","color":"oak"}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := devseed.LoadRecords(path)
	if err != nil {
		t.Fatal(err)
	}
	valid, err := devseed.Validate(model.CatalogProduct, records)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := valid[0]["color"]; ok {
		t.Fatal("expected undeclared field to be dropped")
	}
}

func TestLoadRecordsKeepsLargeIntegers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	raw := `[{"id":9007199254740993,"title":"Desk","price":1499.5,"description":"","category":"Furniture","image":"http://x","rating":{"rate":4.1,"count":3}}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	records, err := devseed.LoadRecords(path)
	if err != nil {
		t.Fatal(err)
	}
	valid, err := devseed.Validate(model.Product, records)
	if err != nil {
		t.Fatal(err)
	}
	if got := valid[0]["id"]; got != json.Number("9007199254740993") {
		t.Fatalf("id changed while loading: %v", got)
	}
}

func TestLoadRecordsEmptyPath(t *testing.T) {
	records, err := devseed.LoadRecords("")
	if err != nil || records != nil {
		t.Fatalf("expected nil, nil; got %v, %v", records, err)
	}
}

func TestValidateRejectsBadSeed(t *testing.T) {
	_, err := devseed.Validate(model.User, []map[string]any{{"username": "Benny"}})
	if err == nil {
		t.Fatal("expected error for incomplete user")
	}
}

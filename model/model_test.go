package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stevemurr/storefront-server/model"
	"github.com/stevemurr/storefront-server/schema"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestProductExample(t *testing.T) {
	doc := decode(t, `{"id":1,"title":"Laptop","price":299.99,"description":"...","category":"Electronics","image":"http://x","rating":{"rate":4.2,"count":85}}`)
	if err := schema.Validate(model.Product, doc); err != nil {
		t.Fatalf("expected pass: %v", err)
	}
}

func TestProductRatingCountMustBeInteger(t *testing.T) {
	doc := decode(t, `{"id":1,"title":"Laptop","price":299.99,"description":"...","category":"Electronics","image":"http://x","rating":{"rate":4.2,"count":8.5}}`)
	if err := schema.Validate(model.Product, doc); err == nil {
		t.Fatal("expected error for fractional rating count")
	}
}

func TestCatalogProductOptionalFields(t *testing.T) {
	minimal := decode(t, `{"product_id":"p-1","name":"Desk","price":1499,"currency":"SEK"}`)
	got, err := schema.DecodeObject(model.CatalogProduct, minimal)
	if err != nil {
		t.Fatalf("expected pass: %v", err)
	}
	for _, f := range []string{"category", "brand", "tags", "dimensions"} {
		if _, ok := got[f]; ok {
			t.Fatalf("expected unset %q to stay absent", f)
		}
	}

	full := decode(t, `{"product_id":"p-2","name":"Shelf","price":399,"currency":"EUR","category":null,
		"tags":["wood","oak"],"dimensions":{"width_cm":80,"height_cm":200,"depth_cm":30}}`)
	if err := schema.Validate(model.CatalogProduct, full); err != nil {
		t.Fatalf("expected pass: %v", err)
	}

	bad := decode(t, `{"product_id":"p-3","name":"Lamp","price":10,"currency":"USD","dimensions":{"width_cm":"wide"}}`)
	if err := schema.Validate(model.CatalogProduct, bad); err == nil {
		t.Fatal("expected error for malformed dimensions")
	}
}

func TestUserPublicHidesPassword(t *testing.T) {
	user := map[string]any{"username": "Benny", "password": "123", "is_enabled": true}
	if err := schema.Validate(model.User, user); err != nil {
		t.Fatal(err)
	}
	out, err := schema.Project(model.UserPublic, user)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out.(map[string]any)["password"]; ok {
		t.Fatal("password leaked through UserPublic")
	}
}

func TestProductModel(t *testing.T) {
	for name, want := range map[string]string{"": "id", "fakestore": "id", "catalog": "product_id"} {
		s, err := model.ProductModel(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := s["properties"].(map[string]any)[want]; !ok {
			t.Fatalf("model %q: expected property %q", name, want)
		}
	}
	if _, err := model.ProductModel("legacy"); err == nil {
		t.Fatal("expected error for unknown product model")
	}
}

func TestNamesSorted(t *testing.T) {
	names := model.Names()
	if len(names) != len(model.Registry) {
		t.Fatalf("expected %d names, got %d", len(model.Registry), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

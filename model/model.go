// Package model declares the record schemas served by the storefront API.
//
// Each schema is a JSON Schema document consumed by package schema. Fields
// listed under "required" must be present; everything else is optional and
// stays absent when unset.
package model

import (
	"fmt"
	"sort"
)

func str() map[string]any  { return map[string]any{"type": "string"} }
func num() map[string]any  { return map[string]any{"type": "number"} }
func intg() map[string]any { return map[string]any{"type": "integer"} }

func nullable(t map[string]any) map[string]any {
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[k] = v
	}
	out["type"] = []any{t["type"], "null"}
	return out
}

// Rating is the {rate, count} pair attached to a FakeStore product.
var Rating = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"rate":  num(),
		"count": intg(),
	},
	"required": []any{"rate", "count"},
}

// Product matches the FakeStore product shape.
var Product = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":          intg(),
		"title":       str(),
		"price":       num(),
		"description": str(),
		"category":    str(),
		"image":       str(),
		"rating":      Rating,
	},
	"required": []any{"id", "title", "price", "description", "category", "image", "rating"},
}

// Dimensions is the physical size of a catalog product in centimetres.
var Dimensions = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"width_cm":  num(),
		"height_cm": num(),
		"depth_cm":  num(),
	},
	"required": []any{"width_cm", "height_cm", "depth_cm"},
}

// CatalogProduct is the product shape persisted to the products table.
var CatalogProduct = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"product_id": str(),
		"name":       str(),
		"price":      num(),
		"currency":   str(),
		"category":   nullable(str()),
		"brand":      nullable(str()),
		"tags": map[string]any{
			"type":  []any{"array", "null"},
			"items": str(),
		},
		"dimensions": nullable(Dimensions),
	},
	"required": []any{"product_id", "name", "price", "currency"},
}

// User is the full user record accepted on creation.
var User = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"username":   str(),
		"password":   str(),
		"is_enabled": map[string]any{"type": "boolean"},
	},
	"required": []any{"username", "password", "is_enabled"},
}

// UserPublic is the user shape returned by list endpoints.
var UserPublic = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"username": str(),
	},
	"required": []any{"username"},
}

// Fox is the payload of the random fox API.
var Fox = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"image": str(),
		"link":  str(),
	},
	"required": []any{"image", "link"},
}

// Item is the response of the item lookup endpoint.
var Item = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"item_id": intg(),
		"color":   nullable(str()),
	},
	"required": []any{"item_id", "color"},
}

// Registry maps model names to their schemas.
var Registry = map[string]map[string]any{
	"Product":        Product,
	"Rating":         Rating,
	"CatalogProduct": CatalogProduct,
	"Dimensions":     Dimensions,
	"User":           User,
	"UserPublic":     UserPublic,
	"Fox":            Fox,
	"Item":           Item,
}

// Names returns the registered model names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Product model selectors accepted in configuration.
const (
	ProductModelFakeStore = "fakestore"
	ProductModelCatalog   = "catalog"
)

// ProductModel returns the product schema selected by name.
func ProductModel(name string) (map[string]any, error) {
	switch name {
	case ProductModelFakeStore, "":
		return Product, nil
	case ProductModelCatalog:
		return CatalogProduct, nil
	default:
		return nil, fmt.Errorf("unknown product model: %q (supported: %s, %s)", name, ProductModelFakeStore, ProductModelCatalog)
	}
}

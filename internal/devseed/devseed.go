// Package devseed provides the records a fresh server starts with.
package devseed

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/stevemurr/storefront-server/schema"
)

//go:embed data/*.json
var builtin embed.FS

// Products returns the built-in product seed (FakeStore shape).
func Products() ([]map[string]any, error) {
	return readBuiltin("data/products.json")
}

// Users returns the built-in user seed.
func Users() ([]map[string]any, error) {
	return readBuiltin("data/users.json")
}

func readBuiltin(name string) ([]map[string]any, error) {
	data, err := builtin.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", name, err)
	}
	return decodeRecords(name, data)
}

// LoadRecords reads seed records from disk. The file is expected to
// contain a JSON array of objects.
func LoadRecords(path string) ([]map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read seed: %w", err)
	}
	return decodeRecords(path, data)
}

func decodeRecords(name string, data []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("devseed: decode %s: %w", name, err)
	}
	return records, nil
}

// Validate decodes every record against model so seeds obey the same
// rules as request bodies.
func Validate(model map[string]any, records []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(records))
	for i, rec := range records {
		doc, err := schema.DecodeObject(model, rec)
		if err != nil {
			return nil, fmt.Errorf("devseed: record %d: %w", i, err)
		}
		out = append(out, doc)
	}
	return out, nil
}

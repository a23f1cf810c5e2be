// Package catalog loads the product list the storefront sells from a
// configurable source.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/utils"
)

// maxCatalogBytes caps what a remote source may send us.
const maxCatalogBytes = 8 << 20

var ErrFetch = errors.New("catalog fetch failed")

// FetchError wraps any failure to retrieve or accept a catalog.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch catalog from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// Source retrieves the raw product records.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.ProductRecord, error)
}

// Catalog is the validated product list for the lifetime of the process.
type Catalog struct {
	source  string
	records []models.ProductRecord
	byKey   map[string]int
}

// Load fetches from src and validates the result. Every failure comes back
// as a *FetchError.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	records, err := src.Fetch(ctx)
	if err != nil {
		return nil, &FetchError{Source: src.Name(), Err: err}
	}

	c, err := New(src.Name(), records)
	if err != nil {
		return nil, &FetchError{Source: src.Name(), Err: err}
	}
	return c, nil
}

// New validates records: each must pass struct validation, carry a price in
// whole cents and have a name no other record uses.
func New(source string, records []models.ProductRecord) (*Catalog, error) {
	if len(records) == 0 {
		return nil, errors.New("catalog is empty")
	}

	c := &Catalog{
		source:  source,
		records: make([]models.ProductRecord, len(records)),
		byKey:   make(map[string]int, len(records)),
	}
	copy(c.records, records)

	names := make([]string, len(c.records))
	for i, r := range c.records {
		if err := utils.ValidateStruct(&r); err != nil {
			return nil, fmt.Errorf("product %d (%q): %w", i, r.Name, err)
		}
		if !r.Price.Equal(r.Price.Round(2)) {
			return nil, fmt.Errorf("product %d (%q): price %s has more than two decimal places", i, r.Name, r.Price)
		}
		names[i] = r.Name
	}

	keys, err := utils.ProductKeys(names)
	if err != nil {
		return nil, err
	}
	for i, key := range keys {
		c.byKey[key] = i
	}

	return c, nil
}

func (c *Catalog) Source() string {
	return c.source
}

func (c *Catalog) Len() int {
	return len(c.records)
}

// Records returns a copy of the product records in catalog order.
func (c *Catalog) Records() []models.ProductRecord {
	out := make([]models.ProductRecord, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Catalog) Lookup(key string) (models.ProductRecord, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return models.ProductRecord{}, false
	}
	return c.records[i], true
}

// Categories lists the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var categories []string
	for _, r := range c.records {
		if !seen[r.Category] {
			seen[r.Category] = true
			categories = append(categories, r.Category)
		}
	}
	return categories
}

func decode(r io.Reader) ([]models.ProductRecord, error) {
	var records []models.ProductRecord
	dec := json.NewDecoder(io.LimitReader(r, maxCatalogBytes))
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return records, nil
}

package badges

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path"
)

//go:embed catalog.json
var catalogJSON []byte

// CatalogEntry is one known badge image.
type CatalogEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Catalog resolves badge ids to image files. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	entries []CatalogEntry
	byID    map[string]CatalogEntry
}

// NewCatalog parses a JSON array of catalog entries. Ids must be unique and
// every entry needs an image.
func NewCatalog(data []byte) (*Catalog, error) {
	var entries []CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing badge catalog: %w", err)
	}

	c := &Catalog{entries: entries, byID: make(map[string]CatalogEntry, len(entries))}
	for _, e := range entries {
		if e.ID == "" || e.Image == "" {
			return nil, fmt.Errorf("badge catalog entry %q is missing an id or image", e.Name)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate badge catalog id %q", e.ID)
		}
		c.byID[e.ID] = e
	}
	return c, nil
}

// EmbeddedCatalog returns the catalog compiled into the binary.
func EmbeddedCatalog() (*Catalog, error) {
	return NewCatalog(catalogJSON)
}

// Lookup returns the image filename for a badge id.
func (c *Catalog) Lookup(id string) (string, bool) {
	e, ok := c.byID[id]
	if !ok {
		return "", false
	}
	return path.Base(e.Image), true
}

// All returns the catalog entries in file order.
func (c *Catalog) All() []CatalogEntry {
	return append([]CatalogEntry(nil), c.entries...)
}

package roles

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table names shipped in the default catalog.
const (
	TableRecommendations = "recommendations"
	TableCustomers       = "customers"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the static, versioned role configuration: which features each
// role may see, the column catalogs of every table, and the product segments
// with their bias filters. It is loaded once at startup and never mutated.
type Catalog struct {
	Version     int                      `yaml:"version"`
	Permissions Permissions              `yaml:"permissions"`
	Tables      map[string]ColumnCatalog `yaml:"tables"`
	Segments    []Segment                `yaml:"segments"`
	Insights    Insights                 `yaml:"insights"`
}

// Segment is a product segment and the biases it can be filtered by.
// The first bias is the default selection.
type Segment struct {
	Product string   `yaml:"product" json:"product"`
	Biases  []string `yaml:"biases" json:"biases"`
}

// Insight is one bar of the top-insights charts.
type Insight struct {
	Name  string  `yaml:"name" json:"name"`
	Value float64 `yaml:"value" json:"value"`
}

// Insights holds the top-products and top-biases series shown before the
// upstream insights arrive or when they cannot be fetched.
type Insights struct {
	TopProducts []Insight `yaml:"top_products" json:"top_products"`
	TopBiases   []Insight `yaml:"top_biases" json:"top_biases"`
}

// LoadCatalog reads a catalog from path. An empty path loads the embedded
// default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read role catalog: %w", err)
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the embedded catalog. It panics if the embedded
// file is invalid, which is a build defect.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded role catalog: %v", err))
	}
	return c
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse role catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the catalog for structural errors.
// Returns an error describing all failures.
func (c *Catalog) Validate() error {
	var errs []string

	if c.Version <= 0 {
		errs = append(errs, "version must be positive")
	}
	if len(c.Tables) == 0 {
		errs = append(errs, "at least one table is required")
	}
	for name, t := range c.Tables {
		if t.Identity.ID == "" {
			errs = append(errs, fmt.Sprintf("table %q: identity column id is required", name))
		}
		seen := make(map[string]bool)
		for i, e := range t.Entries {
			if e.ID == "" {
				errs = append(errs, fmt.Sprintf("table %q: entry %d has no id", name, i))
				continue
			}
			if seen[e.ID] {
				errs = append(errs, fmt.Sprintf("table %q: duplicate column %q", name, e.ID))
			}
			seen[e.ID] = true
		}
	}
	for i, s := range c.Segments {
		if s.Product == "" {
			errs = append(errs, fmt.Sprintf("segment %d has no product", i))
		}
		if len(s.Biases) == 0 {
			errs = append(errs, fmt.Sprintf("segment %q has no biases", s.Product))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid role catalog:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Table returns the column catalog registered under name.
func (c *Catalog) Table(name string) (ColumnCatalog, bool) {
	t, ok := c.Tables[name]
	return t, ok
}

// Columns resolves the visible columns of table for role.
func (c *Catalog) Columns(table, role string) ([]ColumnEntry, error) {
	t, ok := c.Table(table)
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	return ResolveColumns(role, t, c.Permissions), nil
}

// Segment returns the segment for product.
func (c *Catalog) Segment(product string) (Segment, bool) {
	for _, s := range c.Segments {
		if s.Product == product {
			return s, true
		}
	}
	return Segment{}, false
}

// DefaultSegment returns the first segment, or the zero value when the
// catalog has none.
func (c *Catalog) DefaultSegment() Segment {
	if len(c.Segments) == 0 {
		return Segment{}
	}
	return c.Segments[0]
}

// Filter normalizes a product/bias selection. An unknown product falls back
// to the default segment; a bias the segment does not offer falls back to
// the segment's first bias.
func (c *Catalog) Filter(product, bias string) (string, string) {
	seg, ok := c.Segment(product)
	if !ok {
		seg = c.DefaultSegment()
	}
	for _, b := range seg.Biases {
		if b == bias {
			return seg.Product, bias
		}
	}
	if len(seg.Biases) == 0 {
		return seg.Product, ""
	}
	return seg.Product, seg.Biases[0]
}

// WithPermissions returns a copy of c whose permissions are replaced by p.
func (c *Catalog) WithPermissions(p Permissions) *Catalog {
	cp := *c
	cp.Permissions = make(Permissions, len(p))
	for role, ids := range p {
		cp.Permissions[role] = append([]string{}, ids...)
	}
	return &cp
}

package roles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Positive(t, c.Version)
	require.Contains(t, c.Tables, TableRecommendations)
	require.Contains(t, c.Tables, TableCustomers)

	rec, _ := c.Table(TableRecommendations)
	assert.Equal(t, "product_name", rec.Identity.ID)
	assert.Equal(t, []string{"match_score", "risk_level", "knowledge_min", "biases", "reason"}, ColumnIDs(rec.Entries))

	cust, _ := c.Table(TableCustomers)
	assert.Equal(t, "customer_id", cust.Identity.ID)

	assert.Len(t, c.Segments, 8)
	assert.Equal(t, "Capital Protection ETF", c.DefaultSegment().Product)
	assert.Equal(t, "Loss Aversion", c.DefaultSegment().Biases[0])
	assert.Len(t, c.Insights.TopProducts, 5)
}

func TestCatalog_Columns(t *testing.T) {
	c := DefaultCatalog()

	cols, err := c.Columns(TableRecommendations, "Compliance Officer")
	require.NoError(t, err)
	assert.Equal(t, []string{"product_name", "risk_level", "knowledge_min"}, ColumnIDs(cols))

	cols, err = c.Columns(TableRecommendations, "Admin")
	require.NoError(t, err)
	assert.Len(t, cols, 6)

	_, err = c.Columns("nope", "Admin")
	assert.Error(t, err)
}

func TestCatalog_Filter(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name        string
		product     string
		bias        string
		wantProduct string
		wantBias    string
	}{
		{"valid pair", "Liquid Fund", "Framing", "Liquid Fund", "Framing"},
		{"bias not offered", "Liquid Fund", "Herding", "Liquid Fund", "Loss Aversion"},
		{"empty bias", "Nifty50 Index Fund", "", "Nifty50 Index Fund", "Herding"},
		{"unknown product", "Bitcoin", "Herding", "Capital Protection ETF", "Loss Aversion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, b := c.Filter(tt.product, tt.bias)
			assert.Equal(t, tt.wantProduct, p)
			assert.Equal(t, tt.wantBias, b)
		})
	}
}

func TestLoadCatalog_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := []byte(`
version: 1
permissions:
  Relationship Manager: []
tables:
  recommendations:
    identity: {id: product_name, header: Product, rule: product}
    entries:
      - {id: reason, header: Reason}
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	cols, err := c.Columns(TableRecommendations, "Relationship Manager")
	require.NoError(t, err)
	assert.Equal(t, []string{"product_name"}, ColumnIDs(cols))

	ids, mapped := c.Permissions.Lookup("Relationship Manager")
	assert.True(t, mapped)
	assert.Empty(t, ids)
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "version: [", "parse role catalog"},
		{"no version", "tables: {t: {identity: {id: x}}}", "version must be positive"},
		{"no tables", "version: 1", "at least one table"},
		{"missing identity", "version: 1\ntables: {t: {entries: [{id: a}]}}", "identity column id is required"},
		{"duplicate column", "version: 1\ntables: {t: {identity: {id: x}, entries: [{id: a}, {id: a}]}}", "duplicate column"},
		{"segment without biases", "version: 1\ntables: {t: {identity: {id: x}}}\nsegments: [{product: p}]", "has no biases"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCatalog_WithPermissionsCopies(t *testing.T) {
	c := DefaultCatalog()
	src := Permissions{"Relationship Manager": {"reason"}}

	next := c.WithPermissions(src)
	src["Relationship Manager"][0] = "mutated"

	assert.Equal(t, []string{"reason"}, next.Permissions["Relationship Manager"])
	assert.NotEqual(t, c.Permissions["Relationship Manager"], next.Permissions["Relationship Manager"])
}

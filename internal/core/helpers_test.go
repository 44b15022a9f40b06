package core

import (
	"slices"
	"testing"
)

// ============================================================================
// Test Fixtures
// ============================================================================

const (
	colRegion  = "Region"
	colCompany = "Company"
	colType    = "Type"
	colRevenue = "Revenue"
)

// regionRows is the five-row region/type dataset used across filter tests.
func regionRows() []Row {
	return []Row{
		{colRegion: String("North"), colType: String("Cable"), colCompany: String("Alfa AB"), colRevenue: Number(120)},
		{colRegion: String("South"), colType: String("Cable"), colCompany: String("Beta AB"), colRevenue: Number(80)},
		{colRegion: String("North"), colType: String("Pipe"), colCompany: String("Alfa AB"), colRevenue: Number(45.5)},
		{colRegion: String("East"), colType: String("Pipe"), colCompany: String("Gamma Energi"), colRevenue: Null},
		{colRegion: Null, colType: String("Cabinet"), colCompany: String("Beta AB"), colRevenue: Number(10)},
	}
}

func regionDataset(t testing.TB) *Dataset {
	t.Helper()
	ds, err := NewDataset(
		[]string{colRegion, colType, colCompany, colRevenue},
		regionRows(),
		colRevenue,
	)
	if err != nil {
		t.Fatalf("NewDataset() error = %v", err)
	}
	return ds
}

func regionCatalog(t testing.TB, useIndex bool) *Catalog {
	t.Helper()
	cat, err := NewCatalog(regionDataset(t), []string{colRegion, colType}, CatalogOptions{UseIndex: useIndex})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	return cat
}

// rowKeys renders each row as "region/type" so results compare as strings.
func rowKeys(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Get(colRegion).String() + "/" + r.Get(colType).String()
	}
	return out
}

func assertRows(t *testing.T, got []Row, want ...string) {
	t.Helper()
	if keys := rowKeys(got); !slices.Equal(keys, want) {
		t.Errorf("rows = %v, want %v", keys, want)
	}
}

// recorder collects published updates.
type recorder struct {
	updates []Update
}

func (r *recorder) Publish(u Update) {
	r.updates = append(r.updates, u)
}

func (r *recorder) kinds() []UpdateKind {
	out := make([]UpdateKind, len(r.updates))
	for i, u := range r.updates {
		out[i] = u.Kind
	}
	return out
}

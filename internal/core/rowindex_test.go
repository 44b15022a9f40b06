package core

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowIndex_MatchesScan(t *testing.T) {
	rows := regionRows()
	idx, err := NewRowIndex(rows, []string{colRegion, colType, colCompany})
	require.NoError(t, err)

	cases := [][]Selection{
		nil,
		{{Column: colRegion, Values: NewValueSet("North")}},
		{{Column: colRegion, Values: NewValueSet("North")}, {Column: colType, Values: NewValueSet("Cable")}},
		{{Column: colRegion, Values: NewValueSet("East", "South")}, {Column: colType, Values: NewValueSet("Cabinet")}},
		{{Column: colRegion, Values: NewValueSet()}, {Column: colType, Values: NewValueSet("Pipe")}},
		{{Column: colCompany, Values: NewValueSet("Beta AB")}, {Column: colType, Values: NewValueSet("Cabinet", "Cable")}},
		{{Column: colRegion, Values: NewValueSet("Nowhere")}},
	}

	for i, sels := range cases {
		for _, mode := range []CombinationMode{Exclusive, Inclusive} {
			t.Run(fmt.Sprintf("case%d/%s", i, mode), func(t *testing.T) {
				want := rowKeys(ApplySelections(rows, sels, mode))
				got := rowKeys(idx.Apply(sels, mode))
				assert.Equal(t, want, got)
			})
		}
	}
}

func TestRowIndex_FallsBackForUnindexedColumn(t *testing.T) {
	rows := regionRows()
	idx, err := NewRowIndex(rows, []string{colRegion})
	require.NoError(t, err)
	assert.True(t, idx.Indexed(colRegion))
	assert.False(t, idx.Indexed(colRevenue))

	sels := []Selection{
		{Column: colRegion, Values: NewValueSet("North")},
		{Column: colRevenue, Values: NewValueSet("120")},
	}
	assert.Equal(t, rowKeys(ApplySelections(rows, sels, Exclusive)), rowKeys(idx.Apply(sels, Exclusive)))
	assert.Equal(t, []string{"North/Cable"}, rowKeys(idx.Apply(sels, Exclusive)))
}

func TestRowIndex_RandomizedEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	regions := []string{"Skåne", "Halland", "Kalmar", "Gotland"}
	types := []string{"El", "Fiber", "Gas", "Fjärrvärme", "VA"}

	rows := make([]Row, 500)
	for i := range rows {
		r := Row{colType: String(types[rng.Intn(len(types))])}
		if rng.Intn(10) > 0 {
			r[colRegion] = String(regions[rng.Intn(len(regions))])
		} else {
			r[colRegion] = Null
		}
		rows[i] = r
	}

	idx, err := NewRowIndex(rows, []string{colRegion, colType})
	require.NoError(t, err)

	pick := func(universe []string) ValueSet {
		s := NewValueSet()
		for _, v := range universe {
			if rng.Intn(3) == 0 {
				s[v] = struct{}{}
			}
		}
		return s
	}

	for i := 0; i < 50; i++ {
		sels := []Selection{
			{Column: colRegion, Values: pick(regions)},
			{Column: colType, Values: pick(types)},
		}
		for _, mode := range []CombinationMode{Exclusive, Inclusive} {
			want := ApplySelections(rows, sels, mode)
			got := idx.Apply(sels, mode)
			require.Len(t, got, len(want), "iteration %d mode %s", i, mode)
			for j := range want {
				assert.Equal(t, want[j].Get(colRegion), got[j].Get(colRegion))
				assert.Equal(t, want[j].Get(colType), got[j].Get(colType))
			}
		}
	}
}

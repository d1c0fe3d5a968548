package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkthreads/stocksync/pkg/constants"
)

func TestFindVariantCaseInsensitive(t *testing.T) {
	c := &Container{}
	require.NoError(t, c.AddVariant(&Variant{Color: "Heather Grey", Size: "XL"}))

	assert.NotNil(t, c.FindVariant("heather grey", "xl"))
	assert.NotNil(t, c.FindVariant("HEATHER GREY", "Xl"))
	assert.Nil(t, c.FindVariant("heather grey", "2xl"))
}

func TestAddVariantRejectsDuplicatePair(t *testing.T) {
	c := &Container{}
	require.NoError(t, c.AddVariant(&Variant{Color: "Red", Size: "S"}))

	err := c.AddVariant(&Variant{Color: "red", Size: "s"})
	assert.Error(t, err)
	assert.Len(t, c.Variants, 1)
}

func TestAddVariantEnforcesCap(t *testing.T) {
	c := &Container{}
	for i := 0; i < constants.MaxVariantsPerProduct; i++ {
		require.NoError(t, c.AddVariant(&Variant{Color: "Red", Size: fmt.Sprintf("size-%d", i)}))
	}

	err := c.AddVariant(&Variant{Color: "Red", Size: "one-too-many"})
	assert.Error(t, err)
	assert.Len(t, c.Variants, constants.MaxVariantsPerProduct)
}

func TestHasRoomLookAhead(t *testing.T) {
	tests := []struct {
		name     string
		placed   int
		ofColor  int
		sameHere int
		want     bool
	}{
		{"empty container", 0, 40, 0, true},
		{"exactly at cap is closed", 60, 40, 0, false},
		{"one below cap is open", 59, 40, 0, true},
		{"same color already placed is not double counted", 80, 40, 25, true},
		{"full", 100, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Container{}
			for i := 0; i < tt.sameHere; i++ {
				require.NoError(t, c.AddVariant(&Variant{Color: "Navy", Size: fmt.Sprintf("n%d", i)}))
			}
			for i := tt.sameHere; i < tt.placed; i++ {
				require.NoError(t, c.AddVariant(&Variant{Color: "Red", Size: fmt.Sprintf("r%d", i)}))
			}
			assert.Equal(t, tt.want, c.HasRoom("Navy", tt.ofColor))
		})
	}
}

func TestRebuildOptions(t *testing.T) {
	c := &Container{}
	require.NoError(t, c.AddVariant(&Variant{Color: "Red", Size: "S"}))
	require.NoError(t, c.AddVariant(&Variant{Color: "Red", Size: "M"}))
	require.NoError(t, c.AddVariant(&Variant{Color: "Navy", Size: "S"}))

	c.RebuildOptions()

	require.Len(t, c.Options, 2)
	assert.Equal(t, "Size", c.Options[0].Name)
	assert.Equal(t, []string{"S", "M"}, c.Options[0].Values)
	assert.Equal(t, "Color", c.Options[1].Name)
	assert.Equal(t, []string{"Red", "Navy"}, c.Options[1].Values)
}

func TestGroupOpen(t *testing.T) {
	g := NewGroup("Bella+Canvas/3001", "3001", "Bella+Canvas")

	full := &Container{}
	for i := 0; i < constants.MaxVariantsPerProduct; i++ {
		require.NoError(t, full.AddVariant(&Variant{Color: "Red", Size: fmt.Sprintf("s%d", i)}))
	}
	open := &Container{}
	g.Add(full)
	g.Add(open)

	got, candidates := g.Open("Navy", 10)
	assert.Same(t, open, got)
	assert.Equal(t, 1, candidates)

	// A run too large for any container falls back to capacity filling.
	got, candidates = g.Open("Navy", constants.MaxVariantsPerProduct+1)
	assert.Same(t, open, got)
	assert.Equal(t, 1, candidates)
}

func TestGroupOpenFallsBackWhenRunCannotFitWhole(t *testing.T) {
	g := NewGroup("Bella+Canvas/3001", "3001", "Bella+Canvas")

	c := &Container{}
	for i := 0; i < 80; i++ {
		require.NoError(t, c.AddVariant(&Variant{Color: "Red", Size: fmt.Sprintf("s%d", i)}))
	}
	g.Add(c)

	// 40 more of a new color cannot fit whole (80+40 > 100), but the
	// container still has room, so the run is split at the cap.
	got, _ := g.Open("Navy", 40)
	assert.Same(t, c, got)
}

func TestGroupOpenAllFull(t *testing.T) {
	g := NewGroup("k", "s", "v")
	full := &Container{}
	for i := 0; i < constants.MaxVariantsPerProduct; i++ {
		require.NoError(t, full.AddVariant(&Variant{Color: "Red", Size: fmt.Sprintf("s%d", i)}))
	}
	g.Add(full)

	got, candidates := g.Open("Navy", 1)
	assert.Nil(t, got)
	assert.Zero(t, candidates)
}

func TestGroupVariantCount(t *testing.T) {
	g := NewGroup("k", "s", "v")
	a := &Container{}
	require.NoError(t, a.AddVariant(&Variant{Color: "Red", Size: "S"}))
	b := &Container{}
	require.NoError(t, b.AddVariant(&Variant{Color: "Red", Size: "M"}))
	require.NoError(t, b.AddVariant(&Variant{Color: "Red", Size: "L"}))
	g.Add(a)
	g.Add(b)

	assert.Equal(t, 3, g.VariantCount())
}

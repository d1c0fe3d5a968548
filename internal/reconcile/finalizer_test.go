package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkthreads/stocksync/internal/ledger"
	"github.com/bulkthreads/stocksync/internal/shopify"
	"github.com/bulkthreads/stocksync/pkg/catalog"
	"github.com/bulkthreads/stocksync/pkg/errors"
)

// dirtyContainer creates a remote shell and wraps it in an in-memory
// container carrying pending variants, mirroring what matching produces.
func dirtyContainer(t *testing.T, client *fakeClient, title, body string, variants ...*catalog.Variant) *catalog.Container {
	t.Helper()
	created, err := client.CreateProduct(context.Background(), &shopify.Product{
		Title:  title,
		Vendor: "Bella+Canvas",
	})
	require.NoError(t, err)

	c := &catalog.Container{
		RemoteID: created.ID,
		Handle:   created.Handle,
		Title:    title,
		Vendor:   "Bella+Canvas",
		BodyHTML: body,
	}
	for _, v := range variants {
		require.NoError(t, c.AddVariant(v))
	}
	return c
}

func TestFinalizeDeclaresOptionsBeforeVariants(t *testing.T) {
	client := newFakeClient()
	l := ledger.New()
	f := newFinalizer(client, l, NewImageResolver(), false)

	c := dirtyContainer(t, client, "Bella+Canvas 3001: Tee", "desc",
		&catalog.Variant{Color: "Black", Size: "S", Price: 4.52, ItemIdentifier: "A1"},
		&catalog.Variant{Color: "Black", Size: "M", Price: 4.52, ItemIdentifier: "A2"},
		&catalog.Variant{Color: "White", Size: "S", Price: 4.52, ItemIdentifier: "A3"},
	)
	g := catalog.NewGroup("bella+canvas/3001", "3001", "Bella+Canvas")
	g.Add(c)

	require.NoError(t, f.FinalizeGroup(context.Background(), g))

	saved, err := client.GetProduct(context.Background(), c.RemoteID)
	require.NoError(t, err)
	require.Len(t, saved.Options, 2)
	assert.Equal(t, "Size", saved.Options[0].Name)
	assert.Equal(t, []string{"S", "M"}, saved.Options[0].Values)
	assert.Equal(t, "Color", saved.Options[1].Name)
	assert.Equal(t, []string{"Black", "White"}, saved.Options[1].Values)

	require.Len(t, saved.Variants, 3)
	for _, v := range saved.Variants {
		assert.NotZero(t, v.ID)
		assert.NotEmpty(t, v.Option1, "option1 carries the size")
		assert.NotEmpty(t, v.Option2, "option2 carries the color")
	}
	assert.Equal(t, "4.52", saved.Variants[0].Price)
}

func TestFinalizeRecordsLedgerEntries(t *testing.T) {
	client := newFakeClient()
	l := ledger.New()
	f := newFinalizer(client, l, NewImageResolver(), false)

	c := dirtyContainer(t, client, "Bella+Canvas 3001: Tee", "desc",
		&catalog.Variant{Color: "Black", Size: "S", ItemIdentifier: "A1"},
		&catalog.Variant{Color: "White", Size: "M", ItemIdentifier: "A2"},
	)
	g := catalog.NewGroup("bella+canvas/3001", "3001", "Bella+Canvas")
	g.Add(c)

	require.NoError(t, f.FinalizeGroup(context.Background(), g))

	for _, id := range []string{"A1", "A2"} {
		entry, ok := l.Get(id)
		require.True(t, ok, "identifier %s must be recorded", id)
		assert.Equal(t, c.RemoteID, entry.ProductID)
		assert.NotZero(t, entry.VariantID)
	}
}

func TestFinalizeCrossLinksContainers(t *testing.T) {
	client := newFakeClient()
	f := newFinalizer(client, ledger.New(), NewImageResolver(), false)

	// Only the second container carries a descriptive body; it becomes primary.
	c1 := dirtyContainer(t, client, "Bella+Canvas 3001: Tee, Basic Colors", "",
		&catalog.Variant{Color: "Red", Size: "S", ItemIdentifier: "B1"})
	c2 := dirtyContainer(t, client, "Bella+Canvas 3001: Tee", "<p>Soft tee</p>",
		&catalog.Variant{Color: "Black", Size: "S", ItemIdentifier: "B2"})

	g := catalog.NewGroup("bella+canvas/3001", "3001", "Bella+Canvas")
	g.Add(c1)
	g.Add(c2)

	require.NoError(t, f.FinalizeGroup(context.Background(), g))

	for _, c := range []*catalog.Container{c1, c2} {
		mfs, err := client.Metafields(context.Background(), c.RemoteID)
		require.NoError(t, err)

		values := map[string]string{}
		for _, mf := range mfs {
			require.Equal(t, metafieldNamespace, mf.Namespace)
			values[mf.Key] = mf.Value
		}
		assert.Equal(t, c2.Handle, values[mainProductKey])
		assert.Equal(t, c1.Handle, values[otherProductsKey])
	}
}

func TestFinalizeKeepsExistingPrimary(t *testing.T) {
	client := newFakeClient()
	f := newFinalizer(client, ledger.New(), NewImageResolver(), false)

	c1 := dirtyContainer(t, client, "Bella+Canvas 3001: Tee", "<p>body one</p>",
		&catalog.Variant{Color: "Red", Size: "S", ItemIdentifier: "C1"})
	c2 := dirtyContainer(t, client, "Bella+Canvas 3001: Tee, Basic Colors", "<p>body two</p>",
		&catalog.Variant{Color: "Black", Size: "S", ItemIdentifier: "C2"})

	// A prior run designated the second container as primary.
	_, err := client.SetMetafield(context.Background(), c1.RemoteID, shopify.Metafield{
		Namespace: metafieldNamespace,
		Key:       mainProductKey,
		Value:     c2.Handle,
		Type:      "single_line_text_field",
	})
	require.NoError(t, err)

	g := catalog.NewGroup("bella+canvas/3001", "3001", "Bella+Canvas")
	g.Add(c1)
	g.Add(c2)

	require.NoError(t, f.FinalizeGroup(context.Background(), g))

	mfs, err := client.Metafields(context.Background(), c1.RemoteID)
	require.NoError(t, err)
	var main string
	for _, mf := range mfs {
		if mf.Key == mainProductKey {
			main = mf.Value
		}
	}
	assert.Equal(t, c2.Handle, main, "existing primary designation must survive")
}

func TestFinalizeSkipsCleanContainers(t *testing.T) {
	client := newFakeClient()
	f := newFinalizer(client, ledger.New(), NewImageResolver(), false)

	c := dirtyContainer(t, client, "Bella+Canvas 3001: Tee", "desc")
	c.Dirty = false
	g := catalog.NewGroup("bella+canvas/3001", "3001", "Bella+Canvas")
	g.Add(c)

	require.NoError(t, f.FinalizeGroup(context.Background(), g))
	assert.Zero(t, client.updateCalls)
}

func TestFinalizeIsolatesContainerFailures(t *testing.T) {
	client := newFakeClient()
	l := ledger.New()
	f := newFinalizer(client, l, NewImageResolver(), false)

	bad := dirtyContainer(t, client, "Bella+Canvas 3001: Tee", "desc",
		&catalog.Variant{Color: "Red", Size: "S", ItemIdentifier: "D1"})
	good := dirtyContainer(t, client, "Bella+Canvas 3001: Tee, Basic Colors", "",
		&catalog.Variant{Color: "Black", Size: "S", ItemIdentifier: "D2"})
	client.failUpdate[bad.RemoteID] = errors.NewAPIError("update", 422, "invalid variant")

	g := catalog.NewGroup("bella+canvas/3001", "3001", "Bella+Canvas")
	g.Add(bad)
	g.Add(good)

	// A rejected container is logged and skipped, not a hard failure.
	require.NoError(t, f.FinalizeGroup(context.Background(), g))

	assert.False(t, l.Known("D1"), "failed container must not reach the ledger")
	assert.True(t, l.Known("D2"), "sibling container still finalizes")
}

func TestFinalizeSurfacesHardFailures(t *testing.T) {
	client := newFakeClient()
	f := newFinalizer(client, ledger.New(), NewImageResolver(), false)

	c := dirtyContainer(t, client, "Bella+Canvas 3001: Tee", "desc",
		&catalog.Variant{Color: "Red", Size: "S", ItemIdentifier: "E1"})
	client.failUpdate[c.RemoteID] = errors.ErrRateLimitExhausted

	g := catalog.NewGroup("bella+canvas/3001", "3001", "Bella+Canvas")
	g.Add(c)

	err := f.FinalizeGroup(context.Background(), g)
	require.Error(t, err)
	assert.True(t, errors.IsRateLimitExhausted(err))
}

func TestFinalizeToleratesDesignationLookupFailure(t *testing.T) {
	client := newFakeClient()
	l := ledger.New()
	f := newFinalizer(client, l, NewImageResolver(), false)

	c := dirtyContainer(t, client, "Bella+Canvas 3001: Tee", "desc",
		&catalog.Variant{Color: "Red", Size: "S", ItemIdentifier: "E1"})
	client.failMetafields[c.RemoteID] = errors.NewAPIError("metafields", 422, "unprocessable")

	g := catalog.NewGroup("bella+canvas/3001", "3001", "Bella+Canvas")
	g.Add(c)

	require.NoError(t, f.FinalizeGroup(context.Background(), g))
	assert.True(t, l.Known("E1"), "container is still finalized without the designation")
}

func TestFinalizeSurfacesDesignationHardFailure(t *testing.T) {
	client := newFakeClient()
	f := newFinalizer(client, ledger.New(), NewImageResolver(), false)

	c := dirtyContainer(t, client, "Bella+Canvas 3001: Tee", "desc",
		&catalog.Variant{Color: "Red", Size: "S", ItemIdentifier: "E1"})
	client.failMetafields[c.RemoteID] = errors.ErrRateLimitExhausted

	g := catalog.NewGroup("bella+canvas/3001", "3001", "Bella+Canvas")
	g.Add(c)

	err := f.FinalizeGroup(context.Background(), g)
	require.Error(t, err)
	assert.True(t, errors.IsRateLimitExhausted(err))
}

func TestFinalizeDryRunWritesNothing(t *testing.T) {
	client := newFakeClient()
	f := newFinalizer(client, ledger.New(), NewImageResolver(), true)

	c := dirtyContainer(t, client, "Bella+Canvas 3001: Tee", "desc",
		&catalog.Variant{Color: "Red", Size: "S", ItemIdentifier: "F1"})
	g := catalog.NewGroup("bella+canvas/3001", "3001", "Bella+Canvas")
	g.Add(c)

	require.NoError(t, f.FinalizeGroup(context.Background(), g))
	assert.Zero(t, client.updateCalls)
}

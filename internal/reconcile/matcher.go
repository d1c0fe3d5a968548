package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bulkthreads/stocksync/internal/ledger"
	"github.com/bulkthreads/stocksync/internal/shopify"
	"github.com/bulkthreads/stocksync/pkg/catalog"
	"github.com/bulkthreads/stocksync/pkg/constants"
	"github.com/bulkthreads/stocksync/pkg/feeds"
	"github.com/bulkthreads/stocksync/pkg/logging"
)

// colorGroups are the title suffixes for overflow containers of one style,
// indexed by how many containers the style already has.
var colorGroups = []string{
	"", "Basic Colors", "Traditional Colors", "Extended Colors", "Extended Colors 2",
	"Extended Colors 3", "Extended Colors 4", "Extended Colors 5", "Extended Colors 6",
	"Extended Colors 7", "Extended Colors 8", "Extended Colors 9", "Extended Colors 10",
}

// matcher assigns canonical items to container groups: skip when the item
// already has a remote representation, otherwise bin-pack it into an open
// container, opening a new one when every candidate would overflow the cap.
type matcher struct {
	client shopify.Client
	ledger *ledger.Ledger
	prices feeds.PriceBook
	dryRun bool

	// vendorCache holds remote products fetched per vendor; styles of one
	// vendor share a single find call.
	vendorCache map[string][]*shopify.Product

	// nextDryRunID hands out placeholder container ids during dry runs.
	nextDryRunID int64
}

func newMatcher(client shopify.Client, l *ledger.Ledger, prices feeds.PriceBook, dryRun bool) *matcher {
	return &matcher{
		client:      client,
		ledger:      l,
		prices:      prices,
		dryRun:      dryRun,
		vendorCache: make(map[string][]*shopify.Product),
	}
}

// BuildGroups matches all items and returns the container groups ready for
// finalization. Matching is single-threaded; the returned groups are
// partitioned across workers afterwards.
func (m *matcher) BuildGroups(ctx context.Context, items []catalog.Item) ([]*catalog.Group, error) {
	log := logging.FromContext(ctx)

	if len(items) == 0 {
		return nil, nil
	}

	// ofColor look-ahead counts per (style, color).
	ofColor := make(map[string]int, len(items))
	for _, item := range items {
		ofColor[item.StyleKey()+"\x00"+item.ColorKey()]++
	}

	groups := make(map[string]*catalog.Group)
	var order []string

	progress := -1
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		g, ok := groups[item.StyleKey()]
		if !ok {
			var err error
			g, err = m.discoverGroup(ctx, item)
			if err != nil {
				return nil, err
			}
			groups[item.StyleKey()] = g
			order = append(order, item.StyleKey())
		}

		if err := m.placeItem(ctx, g, item, ofColor[item.StyleKey()+"\x00"+item.ColorKey()]); err != nil {
			return nil, err
		}

		if p := 100 * i / len(items); p/constants.ProductProgressStep > progress {
			progress = p / constants.ProductProgressStep
			log.Info().Int("percent", p).Msg("Matching progress")
		}
	}
	log.Info().Int("percent", 100).Msg("Matching progress")

	sort.Strings(order)
	out := make([]*catalog.Group, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out, nil
}

// discoverGroup queries the remote for containers already belonging to the
// item's style. Matching is by (vendor, style substring in title), not exact
// container attributes: earlier runs may have created containers with
// slightly different titles.
func (m *matcher) discoverGroup(ctx context.Context, item catalog.Item) (*catalog.Group, error) {
	products, ok := m.vendorCache[item.Vendor]
	if !ok {
		var err error
		products, err = m.client.FindProductsByVendor(ctx, item.Vendor)
		if err != nil {
			return nil, err
		}
		m.vendorCache[item.Vendor] = products
	}

	g := catalog.NewGroup(item.StyleKey(), item.Style, item.Vendor)
	for _, p := range products {
		if strings.Contains(p.Title, item.Style) {
			g.Add(containerFromRemote(p))
		}
	}
	return g, nil
}

// placeItem implements the matching algorithm for a single item.
func (m *matcher) placeItem(ctx context.Context, g *catalog.Group, item catalog.Item, ofColor int) error {
	log := logging.FromContext(ctx)

	// Ledger short-circuit: a known identifier is never reprocessed as new.
	// A stale entry (container known remotely but the variant gone) is
	// dropped and the item falls through as new.
	if entry, known := m.ledger.Get(item.Identifier); known {
		if m.entryIsStale(g, entry, item) {
			log.Warn().
				Str("item", item.Identifier).
				Int64("product_id", entry.ProductID).
				Int64("variant_id", entry.VariantID).
				Msg("Dropping stale ledger entry, re-treating item as new")
			m.ledger.Drop(item.Identifier)
		} else {
			return nil
		}
	}

	// Remote match: an item whose (color, size) already exists on a known
	// container is recorded and skipped; no remote write occurs. A pending
	// variant for the pair means the feed carried a duplicate row, which is
	// skipped rather than aborting the style.
	for _, c := range g.Containers {
		v := c.FindVariant(item.ColorName, item.Size)
		if v == nil {
			continue
		}
		if v.RemoteID != 0 {
			m.ledger.Record(item.Identifier, c.RemoteID, v.RemoteID)
			return nil
		}
		log.Warn().
			Str("item", item.Identifier).
			Str("color", item.ColorName).
			Str("size", item.Size).
			Msg("Duplicate (color, size) row in feed, skipping")
		return nil
	}

	// Bin-pack: first open container wins; more than one candidate flags the
	// style for review.
	target, candidates := g.Open(item.ColorName, ofColor)
	if candidates > 1 && !g.Ambiguous {
		g.Ambiguous = true
		log.Warn().
			Str("style", item.Style).
			Int("candidates", candidates).
			Msg("Multiple open containers for style, picking first")
	}

	if target == nil {
		var err error
		target, err = m.openContainer(ctx, g, item)
		if err != nil {
			return err
		}
		g.Add(target)
	}

	return target.AddVariant(&catalog.Variant{
		Color:          item.ColorName,
		Size:           item.Size,
		Price:          m.price(item),
		ImageRef:       item.FrontImage,
		ItemIdentifier: item.Identifier,
	})
}

// entryIsStale reports whether a ledger entry references a variant that no
// longer exists on a container we can see remotely. Containers outside the
// fetched set are trusted: absence of the product is not evidence of a stale
// variant.
func (m *matcher) entryIsStale(g *catalog.Group, entry ledger.Entry, item catalog.Item) bool {
	for _, c := range g.Containers {
		if c.RemoteID != entry.ProductID {
			continue
		}
		v := c.FindVariant(item.ColorName, item.Size)
		return v == nil || v.RemoteID != entry.VariantID
	}
	return false
}

// openContainer creates a new remote container shell. The remote create is
// immediate so later items can reference its id; options, body and
// metafields are deferred to finalization.
func (m *matcher) openContainer(ctx context.Context, g *catalog.Group, item catalog.Item) (*catalog.Container, error) {
	title := fmt.Sprintf("%s %s: %s", item.Vendor, item.Style, item.ShortDescription)
	if n := len(g.Containers); n > 0 && n < len(colorGroups) {
		title = fmt.Sprintf("%s, %s", title, colorGroups[n])
	}

	c := &catalog.Container{
		Title:    title,
		Vendor:   item.Vendor,
		Category: item.Category,
		BodyHTML: item.FullDescription,
	}

	if m.dryRun {
		m.nextDryRunID--
		c.RemoteID = m.nextDryRunID
		return c, nil
	}

	created, err := m.client.CreateProduct(ctx, &shopify.Product{
		Title:       c.Title,
		Vendor:      c.Vendor,
		ProductType: c.Category,
	})
	if err != nil {
		return nil, err
	}
	c.RemoteID = created.ID
	c.Handle = created.Handle
	return c, nil
}

// price looks up the item's unit price.
func (m *matcher) price(item catalog.Item) float64 {
	if item.Price != 0 {
		return item.Price
	}
	return m.prices.Lookup(item.Identifier)
}

// containerFromRemote converts a remote product into an in-memory container.
// Products without recognizable color/size options convert to an empty
// variant list; matching falls through to bin-packing for them.
func containerFromRemote(p *shopify.Product) *catalog.Container {
	c := &catalog.Container{
		RemoteID: p.ID,
		Title:    p.Title,
		Handle:   p.Handle,
		Vendor:   p.Vendor,
		Category: p.ProductType,
		BodyHTML: p.BodyHTML,
	}
	colorPos, sizePos := p.OptionPositions()
	if colorPos == 0 || sizePos == 0 {
		return c
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		c.Variants = append(c.Variants, &catalog.Variant{
			RemoteID:        v.ID,
			InventoryItemID: v.InventoryItemID,
			Color:           v.OptionValue(colorPos),
			Size:            v.OptionValue(sizePos),
			ImageID:         v.ImageID,
		})
	}
	for _, opt := range p.Options {
		c.Options = append(c.Options, catalog.Option{Name: opt.Name, Values: opt.Values})
	}
	return c
}

package reconcile

import (
	"context"
	"strconv"
	"strings"

	"github.com/bulkthreads/stocksync/internal/ledger"
	"github.com/bulkthreads/stocksync/internal/shopify"
	"github.com/bulkthreads/stocksync/pkg/catalog"
	"github.com/bulkthreads/stocksync/pkg/errors"
	"github.com/bulkthreads/stocksync/pkg/logging"
)

const (
	// metafieldNamespace is the annotation namespace for container cross-links.
	metafieldNamespace = "api_integration"
	// mainProductKey names the primary container of a style.
	mainProductKey = "main_product"
	// otherProductsKey lists the secondary containers of a style.
	otherProductsKey = "other_products"
)

// Variant creation convention: option1 is the size, option2 the color. Kept
// in sync with catalog.Container.RebuildOptions ordering.
const (
	sizePosition  = 1
	colorPosition = 2
)

// finalizer persists container groups through the remote client: options
// before variants, primary/secondary cross-links, and per-variant images.
type finalizer struct {
	client shopify.Client
	ledger *ledger.Ledger
	images *ImageResolver
	dryRun bool
}

func newFinalizer(client shopify.Client, l *ledger.Ledger, images *ImageResolver, dryRun bool) *finalizer {
	return &finalizer{client: client, ledger: l, images: images, dryRun: dryRun}
}

// FinalizeGroup persists one container group. Per-container failures are
// logged and skipped so a single bad container cannot sink its siblings; the
// returned error is non-nil only for hard remote failures (retry exhaustion),
// which mark the whole run unclean.
func (f *finalizer) FinalizeGroup(ctx context.Context, g *catalog.Group) error {
	log := logging.FromContext(ctx).With().Str("style", g.Style).Logger()

	if f.dryRun {
		for _, c := range g.Containers {
			log.Info().
				Str("title", c.Title).
				Int("variants", len(c.Variants)).
				Bool("dirty", c.Dirty).
				Msg("Dry run: would finalize container")
		}
		return nil
	}

	primary, secondaries, err := f.pickPrimary(ctx, g)
	if err != nil {
		log.Error().Err(err).Msg("Primary designation lookup failed")
		return err
	}

	var hard error
	for _, c := range g.Containers {
		if !c.Dirty {
			continue
		}
		if err := f.finalizeContainer(ctx, g, c, primary, secondaries); err != nil {
			log.Error().Err(err).Int64("product_id", c.RemoteID).Msg("Container finalization failed, skipping its variants")
			if errors.IsRateLimitExhausted(err) || errors.IsRemoteUnavailable(err) {
				hard = err
			}
		}
	}
	return hard
}

// pickPrimary chooses the group's primary container and returns the handles
// of the remaining secondaries. An existing main_product annotation from a
// prior run wins; otherwise the first container with a non-empty descriptive
// body, else simply the first. Lookup failures are logged and ignored except
// for hard remote failures, which are returned.
func (f *finalizer) pickPrimary(ctx context.Context, g *catalog.Group) (string, []string, error) {
	if len(g.Containers) == 0 {
		return "", nil, nil
	}
	log := logging.FromContext(ctx)

	primary := ""
	for _, c := range g.Containers {
		if c.RemoteID <= 0 {
			continue
		}
		mfs, err := f.client.Metafields(ctx, c.RemoteID)
		if err != nil {
			if errors.IsRateLimitExhausted(err) || errors.IsRemoteUnavailable(err) {
				return "", nil, err
			}
			log.Warn().Err(err).Int64("product_id", c.RemoteID).Msg("Metafield lookup failed, ignoring any prior designation")
			continue
		}
		for _, mf := range mfs {
			if mf.Namespace == metafieldNamespace && mf.Key == mainProductKey && mf.Value != "" {
				primary = mf.Value
			}
		}
	}
	if primary == "" {
		for _, c := range g.Containers {
			if c.BodyHTML != "" {
				primary = handleOf(c)
				break
			}
		}
	}
	if primary == "" {
		primary = handleOf(g.Containers[0])
	}

	var secondaries []string
	for _, c := range g.Containers {
		if h := handleOf(c); h != primary {
			secondaries = append(secondaries, h)
		}
	}
	return primary, secondaries, nil
}

// handleOf returns the container's storefront handle, falling back to its id.
func handleOf(c *catalog.Container) string {
	if c.Handle != "" {
		return c.Handle
	}
	return strconv.FormatInt(c.RemoteID, 10)
}

// finalizeContainer persists one container: consolidated options, the
// product save (which creates pending variants), cross-link metafields,
// ledger entries for every variant, and variant images.
func (f *finalizer) finalizeContainer(ctx context.Context, g *catalog.Group, c *catalog.Container, primary string, secondaries []string) error {
	// Options must be declared before variants referencing them are valid.
	c.RebuildOptions()

	saved, err := f.client.UpdateProduct(ctx, remoteFromContainer(c))
	if err != nil {
		return err
	}
	if c.Handle == "" {
		c.Handle = saved.Handle
	}

	if err := f.crossLink(ctx, saved.ID, primary, secondaries); err != nil {
		return err
	}

	// Map saved variants back by (color, size) to learn their remote ids.
	for _, v := range c.Variants {
		if v.RemoteID == 0 {
			rv, ok := saved.FindVariant(v.Color, v.Size)
			if ok && rv != nil {
				v.RemoteID = rv.ID
				v.InventoryItemID = rv.InventoryItemID
			}
		}
		if v.ItemIdentifier != "" && v.RemoteID != 0 {
			f.ledger.Record(v.ItemIdentifier, saved.ID, v.RemoteID)
		}
	}

	return f.attachImages(ctx, c)
}

// crossLink writes the primary/secondary annotations on a container.
func (f *finalizer) crossLink(ctx context.Context, productID int64, primary string, secondaries []string) error {
	existing, err := f.client.Metafields(ctx, productID)
	if err != nil {
		return err
	}
	byKey := map[string]shopify.Metafield{}
	for _, mf := range existing {
		if mf.Namespace == metafieldNamespace {
			byKey[mf.Key] = mf
		}
	}

	main := byKey[mainProductKey]
	main.Namespace = metafieldNamespace
	main.Key = mainProductKey
	main.Value = primary
	main.Type = "single_line_text_field"
	if _, err := f.client.SetMetafield(ctx, productID, main); err != nil {
		return err
	}

	other := byKey[otherProductsKey]
	other.Namespace = metafieldNamespace
	other.Key = otherProductsKey
	other.Value = strings.Join(secondaries, ",")
	other.Type = "single_line_text_field"
	_, err = f.client.SetMetafield(ctx, productID, other)
	return err
}

// attachImages resolves and attaches an image for every variant lacking one,
// keyed by the deterministic front-image filename. The resolver caches per
// filename within the run, so duplicate colors across containers reuse one
// fetched image.
func (f *finalizer) attachImages(ctx context.Context, c *catalog.Container) error {
	log := logging.FromContext(ctx)

	for _, v := range c.Variants {
		if v.ImageID != 0 || v.ImageRef == "" || v.RemoteID == 0 {
			continue
		}
		imageID, err := f.images.Attach(ctx, f.client, c.RemoteID, v.ImageRef)
		if err != nil {
			// Image failures are cosmetic; never fail the container for one.
			log.Warn().Err(err).Str("image", v.ImageRef).Msg("Image resolution failed")
			continue
		}
		v.ImageID = imageID
		if _, err := f.client.UpdateVariant(ctx, &shopify.Variant{
			ID:        v.RemoteID,
			ProductID: c.RemoteID,
			ImageID:   imageID,
		}); err != nil {
			log.Warn().Err(err).Int64("variant_id", v.RemoteID).Msg("Variant image update failed")
		}
	}
	return nil
}

// remoteFromContainer builds the wire product for a container save. Existing
// variants carry their ids; pending ones are created by the save.
func remoteFromContainer(c *catalog.Container) *shopify.Product {
	p := &shopify.Product{
		ID:          c.RemoteID,
		Title:       c.Title,
		Handle:      c.Handle,
		Vendor:      c.Vendor,
		ProductType: c.Category,
		BodyHTML:    c.BodyHTML,
	}
	for i, opt := range c.Options {
		p.Options = append(p.Options, shopify.Option{
			Name:     opt.Name,
			Position: i + 1,
			Values:   opt.Values,
		})
	}
	for _, v := range c.Variants {
		rv := shopify.Variant{
			ID:      v.RemoteID,
			ImageID: v.ImageID,
		}
		rv.SetOptionValue(sizePosition, v.Size)
		rv.SetOptionValue(colorPosition, v.Color)
		if v.Price > 0 {
			rv.Price = strconv.FormatFloat(v.Price, 'f', 2, 64)
		}
		p.Variants = append(p.Variants, rv)
	}
	return p
}

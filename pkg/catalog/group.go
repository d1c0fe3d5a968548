package catalog

import "github.com/bulkthreads/stocksync/pkg/constants"

// Group is the set of containers belonging to one supplier style. A style
// maps to one or more containers because of the variant cap and because
// earlier runs may have left duplicate containers behind.
//
// A group is discovered once during matching, grows as items are assigned,
// is finalized exactly once, then discarded. After the matching phase a
// group is owned by a single worker and needs no locking.
type Group struct {
	StyleKey   string
	Style      string
	Vendor     string
	Containers []*Container

	// Ambiguous is set when more than one container satisfied the open
	// predicate and option layout could not be determined; such styles are
	// flagged for manual review at run end.
	Ambiguous bool
}

// NewGroup creates an empty container group for a style.
func NewGroup(styleKey, style, vendor string) *Group {
	return &Group{StyleKey: styleKey, Style: style, Vendor: vendor}
}

// Last returns the most recently opened container, or nil for an empty group.
func (g *Group) Last() *Container {
	if len(g.Containers) == 0 {
		return nil
	}
	return g.Containers[len(g.Containers)-1]
}

// Open returns the container the next item of the given color should go
// into, or nil when every container is full. Selection is two-tier: prefer
// the first container that can absorb the whole remaining color run (the
// look-ahead keeps a color together instead of selecting a container only to
// overflow it moments later), and when no container can, fall back to the
// first container with any room at all, splitting the run at the cap.
// Also reported is the number of whole-run candidates, so callers can flag
// ambiguous groups.
func (g *Group) Open(color string, ofColor int) (*Container, int) {
	var first *Container
	candidates := 0
	for _, c := range g.Containers {
		if c.HasRoom(color, ofColor) {
			if first == nil {
				first = c
			}
			candidates++
		}
	}
	if first != nil {
		return first, candidates
	}
	for _, c := range g.Containers {
		if len(c.Variants) < constants.MaxVariantsPerProduct {
			return c, 1
		}
	}
	return nil, 0
}

// Add appends a container to the group.
func (g *Group) Add(c *Container) {
	g.Containers = append(g.Containers, c)
}

// VariantCount returns the total variants across all containers.
func (g *Group) VariantCount() int {
	n := 0
	for _, c := range g.Containers {
		n += len(c.Variants)
	}
	return n
}

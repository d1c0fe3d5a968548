package shopify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// The inventory surface uses the Admin GraphQL API: variant listing is
// cursor-paginated and quantity changes go through the bulk adjustment
// mutation, both of which the REST API does not batch.

type graphqlRequest struct {
	Query string `json:"query"`
}

type graphqlResponse struct {
	Data struct {
		ProductVariants struct {
			Edges []struct {
				Cursor string `json:"cursor"`
				Node   struct {
					LegacyResourceID  string `json:"legacyResourceId"`
					InventoryQuantity int    `json:"inventoryQuantity"`
					InventoryItem     struct {
						ID string `json:"id"`
					} `json:"inventoryItem"`
					Product struct {
						LegacyResourceID string `json:"legacyResourceId"`
					} `json:"product"`
				} `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
		} `json:"productVariants"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

const listVariantsQuery = `{
  productVariants(first: %d%s) {
    edges {
      cursor
      node {
        legacyResourceId
        inventoryQuantity
        inventoryItem { id }
        product { legacyResourceId }
      }
    }
    pageInfo { hasNextPage }
  }
}`

// ListVariants pages through remote variants. The returned cursor is empty
// once the listing is exhausted; the final page may be partial or empty.
func (c *client) ListVariants(ctx context.Context, cursor string, pageSize int) ([]RemoteVariant, string, error) {
	after := ""
	if cursor != "" {
		after = fmt.Sprintf(", after: %q", cursor)
	}
	query := fmt.Sprintf(listVariantsQuery, pageSize, after)

	var resp graphqlResponse
	if err := c.do(ctx, "list_variants", ClassRead, http.MethodPost, "/graphql.json",
		graphqlRequest{Query: query}, &resp); err != nil {
		return nil, "", err
	}
	if len(resp.Errors) > 0 {
		return nil, "", fmt.Errorf("graphql: %s", resp.Errors[0].Message)
	}

	edges := resp.Data.ProductVariants.Edges
	variants := make([]RemoteVariant, 0, len(edges))
	last := ""
	for _, edge := range edges {
		variantID, _ := strconv.ParseInt(edge.Node.LegacyResourceID, 10, 64)
		productID, _ := strconv.ParseInt(edge.Node.Product.LegacyResourceID, 10, 64)
		variants = append(variants, RemoteVariant{
			VariantID:         variantID,
			ProductID:         productID,
			InventoryItemID:   edge.Node.InventoryItem.ID,
			InventoryQuantity: edge.Node.InventoryQuantity,
		})
		last = edge.Cursor
	}

	if !resp.Data.ProductVariants.PageInfo.HasNextPage {
		last = ""
	}
	return variants, last, nil
}

// BulkAdjustInventory issues one bulk delta adjustment at a location.
func (c *client) BulkAdjustInventory(ctx context.Context, locationID int64, adjustments []InventoryAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	entries := make([]string, len(adjustments))
	for i, adj := range adjustments {
		entries[i] = fmt.Sprintf("{inventoryItemId: %q, availableDelta: %d}", adj.InventoryItemID, adj.Delta)
	}

	mutation := fmt.Sprintf(`mutation {
  inventoryBulkAdjustQuantityAtLocation(
    locationId: %q,
    inventoryItemAdjustments: [%s]) {
    inventoryLevels { available }
  }
}`, LocationGID(locationID), strings.Join(entries, ",\n"))

	var resp graphqlResponse
	if err := c.do(ctx, "bulk_adjust", ClassBulk, http.MethodPost, "/graphql.json",
		graphqlRequest{Query: mutation}, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("graphql: %s", resp.Errors[0].Message)
	}
	return nil
}

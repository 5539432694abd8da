package mcp

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	"github.com/lukman83/dealdesk/internal/models"
	"github.com/lukman83/dealdesk/internal/platform"
	"github.com/lukman83/dealdesk/internal/tools"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

//nolint:gochecknoglobals
var (
	statuses       = lo.Map(models.Statuses, func(s models.Status, _ int) string { return string(s) })
	platforms      = platform.List()
	contactMethods = []string{string(models.ContactEmail), string(models.ContactWhatsApp), string(models.ContactSMS)}
	stringItems    = map[string]any{"type": "string"}
)

// schemas holds each tool's input parameters, keyed by tool name.
var schemas = map[string][]mcp.ToolOption{ //nolint:gochecknoglobals
	tools.SaveDeal: {
		mcp.WithString("title", mcp.Required(), mcp.Description("Item title")),
		mcp.WithString("source", mcp.Required(), mcp.Description("Where the deal was found, e.g. craigslist")),
		mcp.WithString("url", mcp.Description("Listing URL at the source")),
		mcp.WithNumber("buy_price", mcp.Required(), mcp.Description("Asking price, must be positive")),
		mcp.WithNumber("estimated_sell", mcp.Required(), mcp.Description("Expected resale price")),
		mcp.WithNumber("margin_pct", mcp.Required(), mcp.Description("Expected margin in percent of buy price")),
		mcp.WithArray("images", mcp.Items(stringItems), mcp.Description("Image URLs")),
		mcp.WithString("notes", mcp.Description("Free-form notes")),
	},
	tools.UpdateInventory: {
		mcp.WithString("deal_id", mcp.Required(), mcp.Description("Deal to update")),
		mcp.WithString("status", mcp.Enum(statuses...), mcp.Description("New status; omit to only append notes")),
		mcp.WithArray("listing_ids", mcp.Items(stringItems), mcp.Description("Listing ids, required for listed unless listing_urls is given")),
		mcp.WithArray("listing_urls", mcp.Items(stringItems), mcp.Description("Listing URLs")),
		mcp.WithNumber("sold_price", mcp.Description("Final sale price, required for sold")),
		mcp.WithString("sold_platform", mcp.Description("Where the item sold")),
		mcp.WithString("notes", mcp.Description("Appended as a dated line; the rejection reason for rejected")),
	},
	tools.GetDeal: {
		mcp.WithString("deal_id", mcp.Required(), mcp.Description("Deal id")),
	},
	tools.ListDeals: {
		mcp.WithString("status", mcp.Enum(statuses...), mcp.Description("Only deals in this status")),
	},
	tools.CalculateArbitrage: {
		mcp.WithNumber("buy_price", mcp.Required(), mcp.Description("Purchase price, must be positive")),
		mcp.WithNumber("estimated_sell", mcp.Required(), mcp.Description("Expected sale price")),
		mcp.WithString("platform", mcp.Description("Fee schedule (default: ebay; unknown names use ebay)")),
		mcp.WithNumber("shipping_cost", mcp.Description("Shipping cost (default: 0)")),
		mcp.WithNumber("other_costs", mcp.Description("Other costs (default: 0)")),
	},
	tools.ManageBuyer: {
		mcp.WithString("action", mcp.Enum("add", "update", "remove", "list"), mcp.Description("Action (default: list)")),
		mcp.WithString("name", mcp.Description("Buyer name, required except for list")),
		mcp.WithArray("categories", mcp.Items(stringItems), mcp.Description("Categories the buyer wants")),
		mcp.WithObject("price_range",
			mcp.Properties(map[string]any{
				"min": map[string]any{"type": "number"},
				"max": map[string]any{"type": "number"},
			}),
			mcp.Description("Inclusive price bounds"),
		),
		mcp.WithString("contact_method", mcp.Enum(contactMethods...), mcp.Description("Contact channel (default: email)")),
		mcp.WithString("contact_info", mcp.Description("Email address or phone number")),
		mcp.WithString("notes", mcp.Description("Free-form notes")),
		mcp.WithBoolean("active", mcp.Description("Whether the buyer receives alerts")),
	},
	tools.NotifyBuyerNetwork: {
		mcp.WithObject("item",
			mcp.Required(),
			mcp.Properties(map[string]any{
				"title":      map[string]any{"type": "string"},
				"price":      map[string]any{"type": "number"},
				"url":        map[string]any{"type": "string"},
				"images":     map[string]any{"type": "array", "items": stringItems},
				"margin_pct": map[string]any{"type": "number"},
			}),
			mcp.Description("The deal to announce; title is required"),
		),
		mcp.WithString("category", mcp.Description("Category; detected from the title when omitted")),
		mcp.WithBoolean("notify_all", mcp.Description("Notify every match instead of the first max_notifications")),
		mcp.WithNumber("max_notifications", mcp.Description("Cap on notifications (default: 3)")),
	},
	tools.GetInventoryStatus: {
		mcp.WithBoolean("detailed", mcp.Description("Include every deal, listing and buyer")),
	},
	tools.RecordListing: {
		mcp.WithString("deal_id", mcp.Required(), mcp.Description("Deal the listing belongs to")),
		mcp.WithString("platform", mcp.Enum(platforms...), mcp.Description("Marketplace (default: ebay)")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Listing title, truncated to the platform limit")),
		mcp.WithNumber("price", mcp.Required(), mcp.Description("Listing price")),
		mcp.WithString("url", mcp.Description("Listing URL once published")),
		mcp.WithString("session_id", mcp.Description("Existing browser session id")),
		mcp.WithBoolean("open_session", mcp.Description("Open a browser session on the platform's sell page")),
	},
}

func registerTools(s *server.MCPServer, svc *tools.Service) {
	for _, t := range svc.Tools() {
		opts := append([]mcp.ToolOption{mcp.WithDescription(t.Description)}, schemas[t.Name]...)
		s.AddTool(mcp.NewTool(t.Name, opts...), handle(svc, t.Name))
	}
}

// handle forwards the call arguments to the tool as its JSON request. Tool
// failures are returned as error results carrying the error envelope.
func handle(svc *tools.Service, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode arguments: %v", err)), nil
		}

		out, callErr := svc.Call(ctx, name, raw)

		data, err := tools.Marshal(tools.Envelope(out, callErr))
		if err != nil {
			return nil, fmt.Errorf("encode %s response: %w", name, err)
		}
		if callErr != nil {
			return mcp.NewToolResultError(string(data)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

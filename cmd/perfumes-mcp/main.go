// Command perfumes-mcp exposes the perfumes API to MCP clients over stdio.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/daltunay/perfumes/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("PERFUMES_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}
	client := newAPIClient(strings.TrimRight(apiURL, "/"), os.Getenv("PERFUMES_API_KEY"))

	if err := server.ServeStdio(newServer(client)); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(client *apiClient) *server.MCPServer {
	s := server.NewMCPServer(
		"perfumes",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("list_products",
		mcp.WithDescription("List every perfumery ingredient in the catalog with its type and tags."),
	), handleListProducts(client))

	s.AddTool(mcp.NewTool("get_product",
		mcp.WithDescription("Get one ingredient by slug: CAS numbers, odour, solvent, synonyms, manufacturer and description."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("The product slug, e.g. 'ambroxan'"),
		),
	), handleGetProduct(client))

	s.AddTool(mcp.NewTool("search_products",
		mcp.WithDescription("Filter ingredients by one field. List fields (tags, odour, cas_no, synonyms) use mode; text fields (name, slug, type, solvent, manufacturer) use match."),
		mcp.WithString("field",
			mcp.Required(),
			mcp.Description("Field to filter on"),
			mcp.Enum("tags", "odour", "cas_no", "synonyms", "name", "slug", "type", "solvent", "manufacturer"),
		),
		mcp.WithArray("values",
			mcp.Required(),
			mcp.Description("Values to match"),
			mcp.WithStringItems(),
		),
		mcp.WithString("mode",
			mcp.Description("List fields: 'any' (default), 'all' or 'exact'"),
			mcp.Enum(models.ModeAny, models.ModeAll, models.ModeExact),
		),
		mcp.WithString("match",
			mcp.Description("Text fields: 'exact' (default) or 'contains' (case-insensitive)"),
			mcp.Enum(models.MatchExact, models.MatchContains),
		),
	), handleSearchProducts(client))

	s.AddTool(mcp.NewTool("fetch_products",
		mcp.WithDescription("Scrape the upstream catalog and store new products. Blocks until the ingest job finishes, which can take several minutes."),
		mcp.WithBoolean("refresh",
			mcp.Description("Re-extract products that are already stored (default: false)"),
		),
		mcp.WithNumber("concurrency",
			mcp.Description("Parallel extractions, 1 to 16 (default: server setting)"),
		),
	), handleFetchProducts(client))

	return s
}

func handleListProducts(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := client.listProducts(ctx, models.ProductFilter{})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list products failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatList(resp.Products)), nil
	}
}

func handleGetProduct(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		slug, err := request.RequireString("slug")
		if err != nil {
			return mcp.NewToolResultError("slug is required"), nil
		}
		p, err := client.getProduct(ctx, slug)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get product failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatProduct(p)), nil
	}
}

func handleSearchProducts(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		field, err := request.RequireString("field")
		if err != nil {
			return mcp.NewToolResultError("field is required"), nil
		}
		values, err := request.RequireStringSlice("values")
		if err != nil {
			return mcp.NewToolResultError("values is required and must be an array of strings"), nil
		}

		filter := models.ProductFilter{
			Field:  field,
			Mode:   request.GetString("mode", ""),
			Match:  request.GetString("match", ""),
			Values: values,
		}
		resp, err := client.listProducts(ctx, filter)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatList(resp.Products)), nil
	}
}

func handleFetchProducts(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req := models.FetchRequest{
			Refresh:     request.GetBool("refresh", false),
			Concurrency: request.GetInt("concurrency", 0),
		}
		status, err := client.fetchProducts(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("fetch products failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Fetch %s: %s (%d discovered, %d pending, %d stored)\n",
			status.ID, status.Status, status.Discovered, status.Pending, status.Succeeded)
		if status.Error != nil {
			fmt.Fprintf(&sb, "Error: [%s] %s\n", status.Error.Code, status.Error.Message)
		}
		for _, f := range status.Failures {
			fmt.Fprintf(&sb, "FAILED %s: %s\n", f.Slug, f.Error)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func formatList(products []*models.Product) string {
	if len(products) == 0 {
		return "No products found."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d products\n\n", len(products))
	for _, p := range products {
		fmt.Fprintf(&sb, "- %s (%s)", p.Name, p.Slug)
		if p.Type != nil {
			fmt.Fprintf(&sb, " [%s]", *p.Type)
		}
		if len(p.Tags) > 0 {
			fmt.Fprintf(&sb, " tags: %s", strings.Join(p.Tags, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatProduct(p *models.Product) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\nSource: %s\n\n", p.Name, p.URL)

	fields := *p
	fields.Description = nil
	b, _ := json.MarshalIndent(fields, "", "  ")
	sb.Write(b)

	if p.Description != nil {
		sb.WriteString("\n\n")
		sb.WriteString(*p.Description)
	}
	return sb.String()
}

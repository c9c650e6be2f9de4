// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the stockpulse MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, store contract.ObservationStore) *server.MCPServer {
	s := server.NewMCPServer(
		"Stockpulse Inventory Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		store:   store,
	}

	// --- 1. Tool: get_stock_history ---
	s.AddTool(mcp.NewTool("get_stock_history",
		mcp.WithDescription("Bucket in-stock product counts by category over time, one point per scraping session or per hour."),
		mcp.WithString("strategy", mcp.Description("Bucketing strategy (session, hourly). Defaults to the server configuration."), mcp.Enum("session", "hourly")),
		mcp.WithBoolean("pushdown", mcp.Description("Aggregate inside PostgreSQL instead of in process. Ignored on other backends.")),
	), h.handleGetStockHistory)

	// --- 2. Tool: get_dashboard ---
	s.AddTool(mcp.NewTool("get_dashboard",
		mcp.WithDescription("Run one full refresh: catalog card, scraping status, stock history, charts and stock changes."),
		mcp.WithNumber("top", mcp.Description("Number of most expensive products to include.")),
		mcp.WithNumber("price_bins", mcp.Description("Number of bins in the price histogram.")),
	), h.handleGetDashboard)

	// --- 3. Tool: get_latest_session ---
	s.AddTool(mcp.NewTool("get_latest_session",
		mcp.WithDescription("Describe the most recent scraping session of any status: state, duration, counts and errors."),
	), h.handleGetLatestSession)

	// --- 4. Tool: get_stock_changes ---
	s.AddTool(mcp.NewTool("get_stock_changes",
		mcp.WithDescription("List products restocked, sold out, added or removed between the two latest completed sessions."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of products per change kind.")),
	), h.handleGetStockChanges)

	return s
}

// StartMCPServer starts the stockpulse MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, store contract.ObservationStore) error {
	s := NewMCPServer(baseCfg, store)
	return server.ServeStdio(s)
}

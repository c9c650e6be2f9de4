package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/stockpulse/core"
	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	store   contract.ObservationStore
}

// jsonResult renders a section as indented JSON, or as a tool error when its outcome is an error.
func jsonResult(outcome schema.Outcome, diagnostic string, data any) (*mcp.CallToolResult, error) {
	if outcome == schema.OutcomeError {
		return mcp.NewToolResultError(diagnostic), nil
	}
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetStockHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if s := request.GetString("strategy", ""); s != "" {
		cfg.Strategy = schema.StrategyName(strings.ToLower(strings.TrimSpace(s)))
	}
	if _, ok := schema.ValidStrategies[cfg.Strategy]; !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid strategy '%s'. must be session or hourly", cfg.Strategy)), nil
	}
	cfg.Pushdown = request.GetBool("pushdown", cfg.Pushdown)

	result := core.StockHistory(ctx, h.store, cfg.Strategy, cfg.Pushdown)
	return jsonResult(result.Outcome, result.Diagnostic, result)
}

func (h *toolHandler) handleGetDashboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if top := request.GetInt("top", 0); top != 0 {
		if top < 0 || top > contract.MaxTopProducts {
			return mcp.NewToolResultError(fmt.Sprintf("top must be greater than 0 and cannot exceed %d", contract.MaxTopProducts)), nil
		}
		cfg.TopProducts = top
	}
	if bins := request.GetInt("price_bins", 0); bins != 0 {
		if bins < 0 || bins > contract.MaxPriceBins {
			return mcp.NewToolResultError(fmt.Sprintf("price_bins must be greater than 0 and cannot exceed %d", contract.MaxPriceBins)), nil
		}
		cfg.PriceBins = bins
	}

	// Sections carry their own outcomes, so a partial failure still returns the dashboard.
	d := core.Refresh(ctx, h.store, core.OptionsFromConfig(cfg))
	return jsonResult(schema.OutcomeOK, "", d)
}

func (h *toolHandler) handleGetLatestSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary := core.LatestSessionSummary(ctx, h.store)
	return jsonResult(summary.Outcome, summary.Diagnostic, summary)
}

func (h *toolHandler) handleGetStockChanges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if l := request.GetInt("limit", 0); l != 0 {
		if l < 0 {
			return mcp.NewToolResultError("limit must be greater than 0"), nil
		}
		cfg.ChangesLimit = l
	}

	result := core.StockChanges(ctx, h.store, cfg.ChangesLimit)
	return jsonResult(result.Outcome, result.Diagnostic, result)
}

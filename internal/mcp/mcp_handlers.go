package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stravacontest/contest/core"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
)

// Trigger tags recomputations requested through MCP.
const Trigger = "mcp"

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg    *contract.Config
	store      contract.Store
	recomputer *core.Recomputer
}

func (h *toolHandler) handleGetLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = min(l, contract.MaxResultLimit)
	}

	req := core.LeaderboardRequest{
		Period: schema.Period(request.GetString("period", string(schema.WeekPeriod))),
		Year:   request.GetInt("year", cfg.ContestYear),
		Week:   request.GetInt("week", 0),
		Month:  request.GetInt("month", 0),
	}
	if _, ok := schema.ValidPeriods[req.Period]; !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid period '%s'", req.Period)), nil
	}
	if req.Period == schema.WeekPeriod && req.Week == 0 {
		return mcp.NewToolResultError("week is required for the week period"), nil
	}
	if req.Period == schema.MonthPeriod && req.Month == 0 {
		return mcp.NewToolResultError("month is required for the month period"), nil
	}

	board, err := core.GetLeaderboard(ctx, cfg, h.store, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("leaderboard failed: %v", err)), nil
	}
	return jsonResult(board)
}

func (h *toolHandler) handleGetAthletePoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID := int64(request.GetInt("athlete_id", 0))
	if athleteID <= 0 {
		return mcp.NewToolResultError("athlete_id is required"), nil
	}
	cfg := h.baseCfg.Clone()
	if y := request.GetInt("year", 0); y > 0 {
		cfg.ContestYear = y
	}

	points, err := core.GetWeeklyPoints(ctx, cfg, h.store, athleteID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}
	return jsonResult(points)
}

func (h *toolHandler) handleComputePoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = core.WithTrigger(ctx, Trigger)
	recomputer := h.recomputer

	if athleteID := int64(request.GetInt("athlete_id", 0)); athleteID > 0 {
		res, err := recomputer.ComputeAthleteByID(ctx, athleteID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("recompute failed: %v", err)), nil
		}
		return jsonResult(res)
	}

	report, err := recomputer.Compute(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recompute failed: %v", err)), nil
	}
	return jsonResult(report)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

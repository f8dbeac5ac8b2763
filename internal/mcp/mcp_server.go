// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stravacontest/contest/core"
	"github.com/stravacontest/contest/internal/contract"
)

// NewMCPServer initializes and configures the contest MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, store contract.Store) *server.MCPServer {
	s := server.NewMCPServer(
		"Contest Leaderboard Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg:    baseCfg,
		store:      store,
		recomputer: core.NewRecomputer(store, baseCfg, nil),
	}

	// --- 1. Tool: get_leaderboard ---
	s.AddTool(mcp.NewTool("get_leaderboard",
		mcp.WithDescription("Rank athletes by their contest points over a week, month or year."),
		mcp.WithString("period", mcp.Description("Leaderboard period. Defaults to 'week'."), mcp.Enum("week", "month", "year")),
		mcp.WithNumber("year", mcp.Description("ISO year for weeks, calendar year for months (defaults to the contest year).")),
		mcp.WithNumber("week", mcp.Description("ISO week number, required for the week period.")),
		mcp.WithNumber("month", mcp.Description("Month 1-12, required for the month period.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of athletes returned.")),
	), h.handleGetLeaderboard)

	// --- 2. Tool: get_athlete_points ---
	s.AddTool(mcp.NewTool("get_athlete_points",
		mcp.WithDescription("Score every week of the contest year for one athlete, with a per-rule breakdown."),
		mcp.WithNumber("athlete_id", mcp.Description("The athlete to score."), mcp.Required()),
		mcp.WithNumber("year", mcp.Description("Contest year (defaults to the configured year).")),
	), h.handleGetAthletePoints)

	// --- 3. Tool: compute_points ---
	s.AddTool(mcp.NewTool("compute_points",
		mcp.WithDescription("Recompute and persist weekly points for one athlete, or for everyone when athlete_id is omitted."),
		mcp.WithNumber("athlete_id", mcp.Description("The athlete to recompute.")),
	), h.handleComputePoints)

	return s
}

// StartMCPServer starts the contest MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, store contract.Store) error {
	s := NewMCPServer(baseCfg, store)
	return server.ServeStdio(s)
}

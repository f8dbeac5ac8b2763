package mcp_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stravacontest/contest/internal/contract"
	mcp_internal "github.com/stravacontest/contest/internal/mcp"
	"github.com/stravacontest/contest/internal/store"
	"github.com/stravacontest/contest/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServerStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.UpsertAthlete(ctx, schema.Athlete{ID: 1, FirstName: "Ada", LastName: "Lovelace"}))
	require.NoError(t, s.UpsertAthlete(ctx, schema.Athlete{ID: 2, FirstName: "Alan", LastName: "Turing"}))
	for i, day := range []int{3, 4, 5, 6} {
		require.NoError(t, s.UpsertActivity(ctx, schema.Activity{
			ID:         int64(100 + i),
			AthleteID:  1,
			StartDate:  time.Date(2025, time.March, day, 7, 0, 0, 0, time.UTC),
			MovingTime: 30 * time.Minute,
		}))
	}
	return s
}

func testConfig() *contract.Config {
	now := time.Date(2025, time.March, 12, 12, 0, 0, 0, time.UTC)
	return &contract.Config{
		MinActivityTime: 20 * time.Minute,
		ContestYear:     2025,
		Location:        time.UTC,
		Workers:         2,
		ResultLimit:     10,
		Now:             func() time.Time { return now },
	}
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s := mcp_internal.NewMCPServer(testConfig(), store.NewMemoryStore())

	tests := []struct {
		name   string
		tool   string
		args   map[string]any
		errMsg string
	}{
		{"leaderboard bad period", "get_leaderboard", map[string]any{"period": "decade"}, "invalid period"},
		{"leaderboard missing week", "get_leaderboard", map[string]any{"period": "week"}, "week is required"},
		{"leaderboard missing month", "get_leaderboard", map[string]any{"period": "month"}, "month is required"},
		{"leaderboard bad week", "get_leaderboard", map[string]any{"period": "week", "year": 2025.0, "week": 60.0}, "leaderboard failed"},
		{"points missing athlete", "get_athlete_points", map[string]any{}, "athlete_id is required"},
		{"points unknown athlete", "get_athlete_points", map[string]any{"athlete_id": 99.0}, "scoring failed"},
		{"compute unknown athlete", "compute_points", map[string]any{"athlete_id": 99.0}, "recompute failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, s, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(t, res), tt.errMsg)
		})
	}
}

func TestMCPServerHandlers_ComputeThenLeaderboard(t *testing.T) {
	st := newTestServerStore(t)
	s := mcp_internal.NewMCPServer(testConfig(), st)

	res := callTool(t, s, "compute_points", map[string]any{})
	require.False(t, res.IsError, resultText(t, res))
	var report schema.SweepReport
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &report))
	assert.Equal(t, 2, report.Athletes)
	assert.Equal(t, 1, report.Inserted)

	res = callTool(t, s, "get_leaderboard", map[string]any{"period": "week", "year": 2025.0, "week": 10.0})
	require.False(t, res.IsError, resultText(t, res))
	var board schema.Leaderboard
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &board))
	require.Len(t, board.Standings, 1)
	assert.Equal(t, int64(1), board.Standings[0].AthleteID)
	assert.Equal(t, 6, board.Standings[0].Points) // 4 days + bonus B
}

func TestMCPServerHandlers_AthletePoints(t *testing.T) {
	s := mcp_internal.NewMCPServer(testConfig(), newTestServerStore(t))

	res := callTool(t, s, "get_athlete_points", map[string]any{"athlete_id": 1.0})
	require.False(t, res.IsError, resultText(t, res))

	var points schema.WeeklyPoints
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &points))
	assert.Equal(t, int64(1), points.Athlete.ID)
	assert.Equal(t, 6, points.Total())
}

func TestMCPServerHandlers_ComputeSingleAthlete(t *testing.T) {
	s := mcp_internal.NewMCPServer(testConfig(), newTestServerStore(t))

	res := callTool(t, s, "compute_points", map[string]any{"athlete_id": 1.0})
	require.False(t, res.IsError, resultText(t, res))

	var sync schema.SyncResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &sync))
	assert.Equal(t, schema.SyncResult{AthleteID: 1, Weeks: 1, Inserted: 1}, sync)
}

// slowStore delays activity loads and records overlapping loads per athlete.
type slowStore struct {
	*store.MemoryStore

	mu     sync.Mutex
	active map[int64]int
	peak   map[int64]int
}

func (s *slowStore) LoadAllActivities(ctx context.Context, athleteID int64) ([]schema.Activity, error) {
	s.mu.Lock()
	s.active[athleteID]++
	s.peak[athleteID] = max(s.peak[athleteID], s.active[athleteID])
	s.mu.Unlock()

	time.Sleep(50 * time.Millisecond)

	s.mu.Lock()
	s.active[athleteID]--
	s.mu.Unlock()
	return s.MemoryStore.LoadAllActivities(ctx, athleteID)
}

func TestMCPServerHandlers_ConcurrentComputeSameAthlete(t *testing.T) {
	st := &slowStore{MemoryStore: newTestServerStore(t), active: map[int64]int{}, peak: map[int64]int{}}
	s := mcp_internal.NewMCPServer(testConfig(), st)
	tool := s.GetTool("compute_points")
	require.NotNil(t, tool)

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{
		Name:      "compute_points",
		Arguments: map[string]any{"athlete_id": 1.0},
	}}
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := tool.Handler(context.Background(), req)
			assert.NoError(t, err)
			if assert.NotNil(t, res) {
				assert.False(t, res.IsError)
			}
		}()
	}
	wg.Wait()

	st.mu.Lock()
	defer st.mu.Unlock()
	assert.Equal(t, 1, st.peak[1], "compute_points calls for one athlete must not overlap")
}

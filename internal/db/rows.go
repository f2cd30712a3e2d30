package db

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/davidgeorgehope/sre-tycoon/internal/game"
)

// Column lists shared by both dialects. Order must match the scan helpers.
const (
	companyColumns = `id, name, scenario, turn, action_points, budget, headcount, tech_debt, morale,
		uptime, revenue, customers, observability_level, oncall_burden, slo_defined, chaos_engineering,
		game_over, game_over_reason, score, low_uptime_streak, feature_pressure, turn_actions, version,
		created_at, updated_at`

	turnColumns = `company_id, turn_number, actions, budget, headcount, tech_debt, morale, uptime, revenue,
		customers, observability_level, slo_defined, chaos_engineering, oncall_burden, feature_pressure,
		low_uptime_streak, score, created_at`

	scoreColumns = `id, company_id, company_name, scenario, turns_to_completion, final_score, final_revenue,
		final_uptime, final_headcount, won, completed_at`
)

// scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func encodeActions(actions []game.ActionKind) (string, error) {
	if actions == nil {
		actions = []game.ActionKind{}
	}
	raw, err := json.Marshal(actions)
	if err != nil {
		return "", fmt.Errorf("encode actions: %w", err)
	}
	return string(raw), nil
}

func decodeActions(raw string) ([]game.ActionKind, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []game.ActionKind
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// groupEvents attaches events (ordered by turn then seq) to their turns.
func groupEvents(turns []game.TurnRecord, events map[int][]game.Event) {
	for i := range turns {
		evs := events[turns[i].TurnNumber]
		if evs == nil {
			evs = []game.Event{}
		}
		turns[i].Events = evs
	}
}

func emptyLeaderboard() game.Leaderboard {
	return game.Leaderboard{
		Winners: []game.ScoreRecord{},
		Recent:  []game.ScoreRecord{},
		Shame:   []game.ScoreRecord{},
	}
}

func finishTurn(t *game.TurnRecord) {
	t.Metrics.Turn = t.TurnNumber
	t.Metrics.ARR = t.Metrics.Revenue * 12
}

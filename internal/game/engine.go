package game

import (
	"fmt"
	"time"
)

// Engine resolves actions and turns for one company at a time. It holds
// no company state; all randomness comes from the injected source.
type Engine struct {
	rng Rand
}

func NewEngine(rng Rand) *Engine {
	if rng == nil {
		rng = NewLockedRand(0)
	}
	return &Engine{rng: rng}
}

// PerformAction spends one action point on key. Soft failures (not enough
// budget, no revenue to pitch, chaos without observability) come back as a
// successful result with Refunded set and the point left in place.
func (e *Engine) PerformAction(c *Company, key ActionKind) (ActionResult, error) {
	if c.GameOver {
		return ActionResult{}, ErrGameOver
	}
	if c.ActionPoints <= 0 {
		return ActionResult{}, ErrNoActionPoints
	}
	fn, ok := actionTable[key]
	if !ok {
		return ActionResult{}, fmt.Errorf("%w %q", ErrUnknownAction, key)
	}

	res := fn(e, c)
	res.Action = key
	c.clamp()
	if !res.Refunded {
		c.ActionPoints--
	}
	c.TurnActions = append(c.TurnActions, key)
	return res, nil
}

// EndTurn closes the current sprint: events, passive drift, terminal
// checks, scoring, then the ledger entry. A company that is still alive
// moves to the next turn with a fresh action-point allowance.
func (e *Engine) EndTurn(c *Company, now time.Time) (TurnOutcome, error) {
	if c.GameOver {
		return TurnOutcome{}, ErrGameOver
	}

	events := e.GenerateEvents(c)
	e.ApplyPassiveEffects(c)
	terminal := EvaluateGameOver(c)
	c.Score = CalculateScore(c)

	out := TurnOutcome{
		Events: events,
		Turn: TurnRecord{
			CompanyID:  c.ID,
			TurnNumber: c.Turn,
			Actions:    append([]ActionKind{}, c.TurnActions...),
			Events:     events,
			Metrics:    c.Metrics(),
			CreatedAt:  now,
		},
	}

	if terminal {
		out.Score = &ScoreRecord{
			CompanyID:         c.ID,
			CompanyName:       c.Name,
			Scenario:          c.Scenario,
			TurnsToCompletion: c.Turn,
			FinalScore:        c.Score,
			FinalRevenue:      c.Revenue,
			FinalUptime:       c.Uptime,
			FinalHeadcount:    c.Headcount,
			Won:               c.GameOverReason == ReasonIPO,
			CompletedAt:       now,
		}
		return out, nil
	}

	c.Turn++
	c.ActionPoints = ActionPointsFor(c.Headcount)
	c.TurnActions = nil
	return out, nil
}

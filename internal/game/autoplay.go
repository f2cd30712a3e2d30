package game

import "time"

type Policy func(c *Company, rng Rand) ActionKind

func RandomPolicy(_ *Company, rng Rand) ActionKind {
	return pick(rng, ActionKinds)
}

// SteadyPolicy plays the boring, reliable way: debt first, visibility
// second, growth once the basics are covered.
func SteadyPolicy(c *Company, _ Rand) ActionKind {
	switch {
	case c.TechDebt > 50:
		return ActionPayDebt
	case c.ObservabilityLevel < 3 && c.Budget > 3*ObservabilityCost(c.ObservabilityLevel):
		return ActionObservability
	case !c.SLODefined:
		return ActionDefineSLOs
	case c.Morale < 40:
		return ActionTeamBuilding
	case c.Budget < 250_000 && c.Revenue >= MinFundraiseRevenue:
		return ActionFundraise
	case c.Headcount <= IPOMinHeadcount && c.Budget > 1_000_000:
		return ActionHire
	case !c.ChaosEngineering && c.ObservabilityLevel >= ChaosReadyObs:
		return ActionChaosEngineering
	default:
		return ActionShipFeatures
	}
}

func PolicyByName(name string) (Policy, bool) {
	switch name {
	case "random":
		return RandomPolicy, true
	case "steady", "":
		return SteadyPolicy, true
	}
	return nil, false
}

// Play drives c through whole sprints with policy until the game ends or
// maxTurns sprints have been played. Refunded actions do not use up the
// sprint, so each sprint is capped at 2*MaxActionPoints attempts.
func (e *Engine) Play(c *Company, policy Policy, maxTurns int, now time.Time) ([]TurnOutcome, error) {
	var outcomes []TurnOutcome
	for played := 0; played < maxTurns && !c.GameOver; played++ {
		for attempts := 0; c.ActionPoints > 0 && attempts < 2*MaxActionPoints; attempts++ {
			if _, err := e.PerformAction(c, policy(c, e.rng)); err != nil {
				return outcomes, err
			}
		}
		out, err := e.EndTurn(c, now)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

type SimSummary struct {
	Scenario   string                 `json:"scenario"`
	Games      int                    `json:"games"`
	Wins       int                    `json:"wins"`
	Unfinished int                    `json:"unfinished"`
	Reasons    map[GameOverReason]int `json:"reasons"`
	AvgTurns   float64                `json:"avg_turns"`
	AvgScore   float64                `json:"avg_score"`
	BestScore  int64                  `json:"best_score"`
}

// Simulate autoplays games fresh companies of scenario with policy.
func (c *Catalog) Simulate(rng Rand, scenario string, policy Policy, games, maxTurns int, now time.Time) (SimSummary, error) {
	e := NewEngine(rng)
	sum := SimSummary{Scenario: scenario, Reasons: map[GameOverReason]int{}}
	var turns, score float64
	for i := 0; i < games; i++ {
		company, err := c.NewCompany(scenario, "", now)
		if err != nil {
			return sum, err
		}
		if _, err := e.Play(&company, policy, maxTurns, now); err != nil {
			return sum, err
		}
		sum.Games++
		turns += float64(company.Turn)
		score += float64(company.Score)
		if company.Score > sum.BestScore || i == 0 {
			sum.BestScore = company.Score
		}
		if !company.GameOver {
			sum.Unfinished++
			continue
		}
		sum.Reasons[company.GameOverReason]++
		if company.GameOverReason == ReasonIPO {
			sum.Wins++
		}
	}
	if sum.Games > 0 {
		sum.AvgTurns = turns / float64(sum.Games)
		sum.AvgScore = score / float64(sum.Games)
	}
	return sum, nil
}

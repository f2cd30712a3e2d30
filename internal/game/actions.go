package game

import (
	"fmt"
	"math"
)

type actionFunc func(e *Engine, c *Company) ActionResult

var actionTable = map[ActionKind]actionFunc{
	ActionShipFeatures:     (*Engine).shipFeatures,
	ActionPayDebt:          (*Engine).payDebt,
	ActionObservability:    (*Engine).investObservability,
	ActionHire:             (*Engine).hire,
	ActionDefineSLOs:       (*Engine).defineSLOs,
	ActionChaosEngineering: (*Engine).chaosEngineering,
	ActionTeamBuilding:     (*Engine).teamBuilding,
	ActionFundraise:        (*Engine).fundraise,
}

func (e *Engine) shipFeatures(c *Company) ActionResult {
	revenueBoost := float64(c.Headcount*randInt(e.rng, 500, 2000)) * (1 - c.TechDebt/200)
	customerBoost := randInt(e.rng, 10, 50) * int(math.Ceil(float64(c.Headcount)/5))
	debt := randFloat(e.rng, 2, 8)

	c.Revenue += revenueBoost
	c.Customers += customerBoost
	c.TechDebt = math.Min(c.TechDebt+debt, 100)
	if c.TechDebt > 60 {
		c.Morale -= randFloat(e.rng, 1, 3)
	}

	return ActionResult{
		Severity: SeveritySuccess,
		Message: fmt.Sprintf("[DEPLOY] Shipped features. Revenue +%s, +%d customers. Tech debt now %.1f%%.",
			FormatMoney(revenueBoost), customerBoost, c.TechDebt),
	}
}

func (e *Engine) payDebt(c *Company) ActionResult {
	reduction := randFloat(e.rng, 5, 15) * clampFloat(float64(c.Headcount)/10, 0.5, 3)
	c.TechDebt = math.Max(c.TechDebt-reduction, 0)
	c.Morale = math.Min(c.Morale+randFloat(e.rng, 1, 3), 100)

	return ActionResult{
		Severity: SeveritySuccess,
		Message:  fmt.Sprintf("[REFACTOR] Paid down tech debt by %.1f%%. Engineers finally deleted that TODO from 2019.", reduction),
	}
}

func ObservabilityCost(level int) float64 {
	return 50_000 * float64(level+1)
}

func (e *Engine) investObservability(c *Company) ActionResult {
	cost := ObservabilityCost(c.ObservabilityLevel)
	if c.Budget < cost {
		return ActionResult{
			Severity: SeverityDanger,
			Refunded: true,
			Message:  fmt.Sprintf("[ERROR] Can't afford observability upgrade. Need %s.", FormatMoney(cost)),
		}
	}

	c.Budget -= cost
	c.ObservabilityLevel = clampInt(c.ObservabilityLevel+1, 0, MaxObservability)
	c.OncallBurden = math.Max(c.OncallBurden-5, 0)

	return ActionResult{
		Severity: SeveritySuccess,
		Message: fmt.Sprintf("[OBSERVE] Observability level -> %d. You can now see %s.",
			c.ObservabilityLevel, observabilityFlavor(c.ObservabilityLevel)),
	}
}

func (e *Engine) hire(c *Company) ActionResult {
	cost := float64(randInt(e.rng, 80_000, 150_000))
	if c.Budget < cost {
		return ActionResult{
			Severity: SeverityDanger,
			Refunded: true,
			Message:  fmt.Sprintf("[ERROR] Can't afford to hire. Need %s. Maybe try fundraising?", FormatMoney(cost)),
		}
	}

	c.Budget -= cost
	c.Headcount++
	c.Morale = math.Min(c.Morale+randFloat(e.rng, 1, 2), 100)
	// Hiring never pushes on-call burden below 5.
	c.OncallBurden = math.Max(c.OncallBurden-2, 5)

	return ActionResult{
		Severity: SeveritySuccess,
		Message: fmt.Sprintf("[HIRE] New engineer onboarded! Headcount -> %d. They'll spend the first sprint asking where the docs are.",
			c.Headcount),
	}
}

func (e *Engine) defineSLOs(c *Company) ActionResult {
	if c.SLODefined {
		c.Uptime = math.Min(c.Uptime+randFloat(e.rng, 0.1, 0.3), MaxUptime)
		c.Customers += randInt(e.rng, 20, 100)
		return ActionResult{
			Severity: SeveritySuccess,
			Message:  "[SLO] Refined SLOs. Customer trust improving. Uptime target tightened.",
		}
	}

	c.SLODefined = true
	c.Uptime = math.Min(c.Uptime+randFloat(e.rng, 0.2, 0.5), MaxUptime)
	c.Customers += randInt(e.rng, 50, 200)
	return ActionResult{
		Severity: SeveritySuccess,
		Message:  "[SLO] SLOs defined! Customers can now see you actually care about reliability. Revolutionary.",
	}
}

// chaosEngineering without enough visibility is a soft failure: the
// experiment still leaves debt behind, but the action point comes back.
func (e *Engine) chaosEngineering(c *Company) ActionResult {
	if c.ObservabilityLevel < ChaosReadyObs {
		c.TechDebt += randFloat(e.rng, 1, 3)
		return ActionResult{
			Severity: SeverityWarning,
			Refunded: true,
			Message: fmt.Sprintf("[CHAOS] Ran chaos experiment. Broke everything. Couldn't figure out why because observability is at level %d. Invest in monitoring first, yeah?",
				c.ObservabilityLevel),
		}
	}

	c.ChaosEngineering = true
	found := randFloat(e.rng, 2, 8)
	c.TechDebt = math.Max(c.TechDebt-found, 0)
	c.Uptime = math.Min(c.Uptime+randFloat(e.rng, 0.1, 0.4), MaxUptime)

	return ActionResult{
		Severity: SeveritySuccess,
		Message:  fmt.Sprintf("[CHAOS] Chaos engineering found %.1f%% hidden debt. Fixed it before it fixed you at 3am.", found),
	}
}

func (e *Engine) teamBuilding(c *Company) ActionResult {
	boost := randFloat(e.rng, 5, 15)
	c.Morale = math.Min(c.Morale+boost, 100)
	c.OncallBurden = math.Max(c.OncallBurden-3, 0)

	return ActionResult{
		Severity: SeveritySuccess,
		Message:  fmt.Sprintf("[TEAM] %s Morale +%.1f%%.", pick(e.rng, teamActivities), boost),
	}
}

const MinFundraiseRevenue = 10_000.0

func (e *Engine) fundraise(c *Company) ActionResult {
	if c.Revenue < MinFundraiseRevenue {
		return ActionResult{
			Severity: SeverityWarning,
			Refunded: true,
			Message:  "[VC] Pitched to investors. They asked about revenue. Meeting ended quickly.",
		}
	}

	raised := c.Revenue * float64(randInt(e.rng, 10, 30))
	c.Budget += raised
	c.FeaturePressure += 3

	return ActionResult{
		Severity: SeveritySuccess,
		Message: fmt.Sprintf("[VC] Raised %s! Investors celebrated. Then asked when you're shipping AI features.",
			FormatMoney(raised)),
	}
}

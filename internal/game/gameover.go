package game

import "math"

// EvaluateGameOver checks terminal conditions in priority order and marks
// the company terminal on the first match. The IPO win is checked before
// any loss, and before the low-uptime streak is updated.
func EvaluateGameOver(c *Company) bool {
	if c.GameOver {
		return true
	}
	if c.IPOReady() {
		c.endGame(ReasonIPO)
		return true
	}

	if c.Uptime < LowUptimeThreshold {
		c.LowUptimeStreak++
	} else {
		c.LowUptimeStreak = 0
	}

	switch {
	case c.LowUptimeStreak >= LowUptimeLimit:
		c.endGame(ReasonUptime)
	case c.Budget <= 0:
		c.endGame(ReasonBankrupt)
	case c.Morale <= 0:
		c.endGame(ReasonMorale)
	case c.Headcount <= 0:
		c.endGame(ReasonNoTeam)
	default:
		return false
	}
	return true
}

func (c *Company) endGame(reason GameOverReason) {
	c.GameOver = true
	c.GameOverReason = reason
}

// CalculateScore is the live score for the company's current state.
func CalculateScore(c *Company) int64 {
	raw := c.Revenue/100 +
		c.Uptime*100 +
		float64(c.Customers) +
		float64(c.Headcount)*50 +
		(100-c.TechDebt)*10 +
		c.Morale*5 -
		float64(c.Turn)*10
	return int64(math.Round(raw))
}

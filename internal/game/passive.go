package game

// ApplyPassiveEffects runs the end-of-sprint drift that happens whatever
// the player chose: payroll and infra burn, organic growth, debt decay.
func (e *Engine) ApplyPassiveEffects(c *Company) {
	salaryBurn := float64(c.Headcount * randInt(e.rng, 8_000, 12_000))
	infraCost := float64(c.Customers) * randFloat(e.rng, 0.5, 2.0)
	c.Budget -= salaryBurn + infraCost

	if c.Customers > 0 {
		c.Revenue += float64(c.Customers) * randFloat(e.rng, 0.5, 2.0) * (1 - c.TechDebt/150)
	}

	if c.TechDebt > 70 {
		c.Uptime -= randFloat(e.rng, 0.1, 0.5)
		c.Morale -= randFloat(e.rng, 1, 3)
	}

	if c.SLODefined {
		c.Uptime += randFloat(e.rng, 0.05, 0.15)
	}
	c.clamp()

	c.FeaturePressure = max(c.FeaturePressure-1, 0)

	if c.Headcount < 10 {
		c.OncallBurden += randFloat(e.rng, 1, 3)
	}
	c.OncallBurden = clampFloat(c.OncallBurden, 0, 100)
}

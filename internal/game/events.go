package game

import (
	"fmt"
	"math"
)

const (
	SecurityVulnChance   = 0.12
	CompetitorChance     = 0.10
	BoardMeetingChance   = 0.15
	CloudIncidentChance  = 0.08
	ViralHNChance        = 0.07
	ComplianceChance     = 0.06
	BoardCrashPressure   = 5
	BoardHappyRevenue    = 1_000_000.0
	HNFragileDebt        = 50.0
	TrafficReadyDebt     = 30.0
	TrafficReadyObs      = 3
	SecurityCatchObs     = 4
	CloudResilientObs    = 5
	ChaosReadyObs        = 2
	EngineerQuitMinHeads = 1
)

// GenerateEvents draws this turn's world events, applying each one to c
// as it is drawn. At least one event is always returned.
func (e *Engine) GenerateEvents(c *Company) []Event {
	var events []Event
	add := func(fire bool, fn func(*Company) (Event, bool)) {
		if !fire {
			return
		}
		if ev, ok := fn(c); ok {
			c.clamp()
			events = append(events, ev)
		}
	}

	add(chance(e.rng, TrafficSpikeChance(c)), e.trafficSpike)
	add(chance(e.rng, OutageChance(c)), e.productionOutage)
	add(chance(e.rng, QuitChance(c)), e.engineerQuits)
	add(chance(e.rng, SecurityVulnChance), e.securityVuln)
	add(chance(e.rng, CompetitorChance), e.competitorLaunch)
	add(c.FeaturePressure > 0 || chance(e.rng, BoardMeetingChance), e.boardMeeting)
	add(chance(e.rng, CloudIncidentChance), e.cloudIncident)
	add(chance(e.rng, ViralHNChance), e.viralHNPost)
	add(chance(e.rng, ComplianceChance), e.complianceRequirement)

	if len(events) == 0 {
		add(true, e.quietSprint)
	}
	return events
}

func TrafficSpikeChance(c *Company) float64 {
	p := 0.15
	if c.Customers > 10_000 {
		p += 0.1
	}
	if c.Customers > 50_000 {
		p += 0.1
	}
	return p
}

func OutageChance(c *Company) float64 {
	p := 0.05 + c.TechDebt/200
	if c.ObservabilityLevel < 2 {
		p += 0.1
	}
	if c.ChaosEngineering {
		p -= 0.05
	}
	return clampFloat(p, 0.05, 0.5)
}

func QuitChance(c *Company) float64 {
	p := 0.05 + (100-c.Morale)/200 + c.OncallBurden/200
	if c.Morale > 80 {
		p -= 0.05
	}
	return clampFloat(p, 0.02, 0.4)
}

// OutageSeverity maps tech debt to an incident priority from 1 to 4.
func OutageSeverity(techDebt float64) int {
	return clampInt(int(math.Ceil(techDebt/25)), 1, 4)
}

func (e *Engine) trafficSpike(c *Company) (Event, bool) {
	if c.TechDebt < TrafficReadyDebt && c.ObservabilityLevel >= TrafficReadyObs {
		revenue := c.Revenue * randFloat(e.rng, 0.1, 0.3)
		customers := randInt(e.rng, 100, 500)
		c.Revenue += revenue
		c.Customers += customers
		return Event{
			Kind: EventTrafficSpike, Severity: SeveritySuccess, Icon: "📈",
			Message: fmt.Sprintf("[INFO] Traffic spike! Your infrastructure held like a champ. Revenue +%s, +%d new customers.",
				FormatMoney(revenue), customers),
		}, true
	}

	uptimeHit := randFloat(e.rng, 0.5, 2.0)
	lost := randInt(e.rng, 10, 100)
	c.Uptime = math.Max(c.Uptime-uptimeHit, MinUptime)
	c.Customers = max(c.Customers-lost, 0)
	return Event{
		Kind: EventTrafficSpike, Severity: SeverityDanger, Icon: "🔥",
		Message: fmt.Sprintf("[CRIT] Traffic spike hit and your infrastructure crumbled like a digestive biscuit in tea. Uptime -%.2f%%, -%d customers.",
			uptimeHit, lost),
	}, true
}

func (e *Engine) productionOutage(c *Company) (Event, bool) {
	severity := OutageSeverity(c.TechDebt)
	sev := float64(severity)
	uptimeHit := sev * randFloat(e.rng, 0.3, 1.0)
	revenueHit := c.Revenue * sev * randFloat(e.rng, 0.02, 0.08)
	moraleHit := sev * randFloat(e.rng, 2, 5)
	lost := severity * randInt(e.rng, 5, 30)

	// Better observability shortens recovery, but every outage costs something.
	uptimeHit = math.Max(uptimeHit-float64(c.ObservabilityLevel)*0.1, 0.1)

	c.Uptime = math.Max(c.Uptime-uptimeHit, MinUptime)
	c.Revenue = math.Max(c.Revenue-revenueHit, 0)
	c.Morale = math.Max(c.Morale-moraleHit, 0)
	c.Customers = max(c.Customers-lost, 0)
	c.OncallBurden += sev * 3

	var headline string
	switch e.rng.Intn(3) {
	case 0:
		headline = fmt.Sprintf("[P%d] Production outage! %s MTTR: %s.", severity, outageSeverityLines[severity], mttrFor(c.ObservabilityLevel))
	case 1:
		headline = fmt.Sprintf("[P%d] Incident declared. %s. The postmortem will be \"blameless\" (sure it will).", severity, pick(e.rng, outageCauses))
	default:
		headline = fmt.Sprintf("[P%d] Everything's on fire. %s. Status page updated to 'Investigating' (it's been 4 hours).", severity, pick(e.rng, outageCauses))
	}
	return Event{
		Kind: EventProductionOutage, Severity: SeverityDanger, Icon: "🚨",
		Message: fmt.Sprintf("%s Uptime -%.2f%%, revenue -%s.", headline, uptimeHit, FormatMoney(revenueHit)),
	}, true
}

func (e *Engine) engineerQuits(c *Company) (Event, bool) {
	if c.Headcount <= EngineerQuitMinHeads {
		return Event{}, false
	}
	c.Headcount--
	c.Morale = math.Max(c.Morale-randFloat(e.rng, 3, 8), 0)
	c.OncallBurden += 5
	return Event{
		Kind: EventEngineerQuits, Severity: SeverityWarning, Icon: "👋",
		Message: fmt.Sprintf("%s Headcount -> %d.", pick(e.rng, quitLines), c.Headcount),
	}, true
}

func (e *Engine) securityVuln(c *Company) (Event, bool) {
	if c.ObservabilityLevel >= SecurityCatchObs {
		c.TechDebt += randFloat(e.rng, 1, 3)
		return Event{
			Kind: EventSecurityVuln, Severity: SeverityWarning, Icon: "🔒",
			Message: "[WARN] Security vulnerability detected in a dependency. Good news: your observability caught it early. Patched with minimal drama.",
		}, true
	}

	uptimeHit := randFloat(e.rng, 0.2, 1.0)
	cost := float64(randInt(e.rng, 10_000, 100_000))
	c.Uptime = math.Max(c.Uptime-uptimeHit, MinUptime)
	c.Budget -= cost
	c.TechDebt += randFloat(e.rng, 3, 8)
	return Event{
		Kind: EventSecurityVuln, Severity: SeverityDanger, Icon: "🔓",
		Message: fmt.Sprintf("[CRIT] Security vulnerability exploited! Cost %s to remediate. The CISO is not returning your calls.",
			FormatMoney(cost)),
	}, true
}

func (e *Engine) competitorLaunch(c *Company) (Event, bool) {
	c.FeaturePressure += 2
	lost := randInt(e.rng, 10, 100)
	c.Customers = max(c.Customers-lost, 0)
	return Event{
		Kind: EventCompetitorLaunch, Severity: SeverityWarning, Icon: "⚔️",
		Message: fmt.Sprintf("[INTEL] %s. -%d customers. Board wants answers.", pick(e.rng, competitorLines), lost),
	}, true
}

func (e *Engine) boardMeeting(c *Company) (Event, bool) {
	switch {
	case c.FeaturePressure > BoardCrashPressure:
		c.Morale = math.Max(c.Morale-randFloat(e.rng, 5, 10), 0)
		return Event{
			Kind: EventBoardMeeting, Severity: SeverityDanger, Icon: "📋",
			Message: "[BOARD] Emergency board meeting. Investors want features NOW. \"Technical debt? What's that? Ship the thing.\" Morale tanks.",
		}, true
	case c.Revenue > BoardHappyRevenue:
		c.FeaturePressure = max(c.FeaturePressure-1, 0)
		return Event{
			Kind: EventBoardMeeting, Severity: SeveritySuccess, Icon: "📋",
			Message: "[BOARD] Board meeting went well! Revenue numbers impressed. You bought yourself another quarter. Enjoy it.",
		}, true
	default:
		c.FeaturePressure++
		return Event{
			Kind: EventBoardMeeting, Severity: SeverityWarning, Icon: "📋",
			Message: "[BOARD] Board meeting. They smiled but their eyes said 'where's the growth?' Feature pressure increasing.",
		}, true
	}
}

func (e *Engine) cloudIncident(c *Company) (Event, bool) {
	provider := pick(e.rng, cloudProviders)
	if c.ObservabilityLevel >= CloudResilientObs && c.ChaosEngineering {
		return Event{
			Kind: EventCloudIncident, Severity: SeveritySuccess, Icon: "☁️",
			Message: fmt.Sprintf("[INFO] %s had a regional outage. Your multi-region setup held perfectly. Smug tweets were posted.", provider),
		}, true
	}

	uptimeHit := randFloat(e.rng, 0.5, 2.0)
	c.Uptime = math.Max(c.Uptime-uptimeHit, MinUptime)
	return Event{
		Kind: EventCloudIncident, Severity: SeverityDanger, Icon: "☁️",
		Message: fmt.Sprintf("[CRIT] %s %s. Your status page says 'Not our fault' but customers don't care. Uptime -%.2f%%.",
			provider, pick(e.rng, cloudFailures), uptimeHit),
	}, true
}

func (e *Engine) viralHNPost(c *Company) (Event, bool) {
	revenue := c.Revenue * randFloat(e.rng, 0.2, 0.5)
	customers := randInt(e.rng, 200, 2000)
	c.Revenue += revenue
	c.Customers += customers

	if c.TechDebt > HNFragileDebt {
		c.Uptime = math.Max(c.Uptime-randFloat(e.rng, 0.5, 1.5), MinUptime)
		return Event{
			Kind: EventViralHNPost, Severity: SeverityWarning, Icon: "🔥",
			Message: fmt.Sprintf("[HN] Your product went viral on Hacker News! Great for revenue (+%s), bad for your servers. Top comment: 'This is just a wrapper around %s.'",
				FormatMoney(revenue), pick(e.rng, hnWrappedTech)),
		}, true
	}
	return Event{
		Kind: EventViralHNPost, Severity: SeveritySuccess, Icon: "🔥",
		Message: fmt.Sprintf("[HN] Viral HN post! +%d customers, +%s revenue. Top comment: 'Neat, but does it run on Kubernetes?' It does now.",
			customers, FormatMoney(revenue)),
	}, true
}

func (e *Engine) complianceRequirement(c *Company) (Event, bool) {
	cost := float64(randInt(e.rng, 50_000, 200_000))
	c.Budget -= cost
	c.TechDebt += randFloat(e.rng, 2, 5)
	return Event{
		Kind: EventComplianceRequirement, Severity: SeverityWarning, Icon: "📜",
		Message: fmt.Sprintf("[COMPLIANCE] %s audit incoming. Cost %s. An auditor just asked why your password policy is 'password123'. Fair question.",
			pick(e.rng, complianceRegimes), FormatMoney(cost)),
	}, true
}

func (e *Engine) quietSprint(c *Company) (Event, bool) {
	c.Morale = math.Min(c.Morale+randFloat(e.rng, 1, 3), 100)
	return Event{
		Kind: EventQuietSprint, Severity: SeverityInfo, Icon: "😌",
		Message: "[INFO] Quiet sprint. No incidents. No drama. The on-call engineer actually slept through the night. Unprecedented.",
	}, true
}

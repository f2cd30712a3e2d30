package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqRand hands out scripted Float64 draws, then rest forever.
type seqRand struct {
	draws []float64
	rest  float64
}

func (r *seqRand) Float64() float64 {
	if len(r.draws) == 0 {
		return r.rest
	}
	v := r.draws[0]
	r.draws = r.draws[1:]
	return v
}

func (r *seqRand) Intn(int) int { return 0 }

func eventCompany() Company {
	return Company{
		Budget: 1_000_000, Headcount: 5, TechDebt: 10, Morale: 50, Uptime: 99,
		Revenue: 100_000, Customers: 1_000, OncallBurden: 20,
	}
}

func TestEventEffects(t *testing.T) {
	type eventFn func(*Engine, *Company) (Event, bool)
	cases := []struct {
		name  string
		draw  constRand
		setup func(c *Company)
		fn    eventFn
		kind  EventKind
		sev   Severity
		check func(t *testing.T, c *Company)
	}{
		{
			name: "traffic spike handled", fn: (*Engine).trafficSpike,
			setup: func(c *Company) { c.ObservabilityLevel = 3 },
			kind:  EventTrafficSpike, sev: SeveritySuccess,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 110_000, c.Revenue, 1e-6)
				assert.Equal(t, 1_100, c.Customers)
				assert.Equal(t, 99.0, c.Uptime)
			},
		},
		{
			name: "traffic spike handled high draw", draw: 0.999, fn: (*Engine).trafficSpike,
			setup: func(c *Company) { c.ObservabilityLevel = 3 },
			kind:  EventTrafficSpike, sev: SeveritySuccess,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 129_980, c.Revenue, 1e-6)
				assert.Equal(t, 1_500, c.Customers)
			},
		},
		{
			name: "traffic spike with debt at the limit", fn: (*Engine).trafficSpike,
			setup: func(c *Company) { c.TechDebt = 30; c.ObservabilityLevel = 5 },
			kind:  EventTrafficSpike, sev: SeverityDanger,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 98.5, c.Uptime, 1e-9)
				assert.Equal(t, 990, c.Customers)
				assert.Equal(t, 100_000.0, c.Revenue)
			},
		},
		{
			name: "traffic spike without dashboards", fn: (*Engine).trafficSpike,
			setup: func(c *Company) { c.ObservabilityLevel = 2 },
			kind:  EventTrafficSpike, sev: SeverityDanger,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 98.5, c.Uptime, 1e-9)
			},
		},
		{
			name: "outage severity 3", fn: (*Engine).productionOutage,
			setup: func(c *Company) { c.TechDebt = 60 },
			kind:  EventProductionOutage, sev: SeverityDanger,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 98.1, c.Uptime, 1e-9)
				assert.InDelta(t, 94_000, c.Revenue, 1e-6)
				assert.InDelta(t, 44, c.Morale, 1e-9)
				assert.Equal(t, 985, c.Customers)
				assert.InDelta(t, 29, c.OncallBurden, 1e-9)
			},
		},
		{
			name: "outage uptime hit floors at 0.1", fn: (*Engine).productionOutage,
			setup: func(c *Company) { c.TechDebt = 0; c.ObservabilityLevel = 10 },
			kind:  EventProductionOutage, sev: SeverityDanger,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 98.9, c.Uptime, 1e-9)
				assert.InDelta(t, 98_000, c.Revenue, 1e-6)
				assert.InDelta(t, 48, c.Morale, 1e-9)
				assert.Equal(t, 995, c.Customers)
				assert.InDelta(t, 23, c.OncallBurden, 1e-9)
			},
		},
		{
			name: "outage severity 4 high draw", draw: 0.999, fn: (*Engine).productionOutage,
			setup: func(c *Company) { c.TechDebt = 100 },
			kind:  EventProductionOutage, sev: SeverityDanger,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 99-4*0.9993, c.Uptime, 1e-9)
				assert.InDelta(t, 32, c.OncallBurden, 1e-9)
			},
		},
		{
			name: "engineer quits", fn: (*Engine).engineerQuits,
			kind: EventEngineerQuits, sev: SeverityWarning,
			check: func(t *testing.T, c *Company) {
				assert.Equal(t, 4, c.Headcount)
				assert.InDelta(t, 47, c.Morale, 1e-9)
				assert.InDelta(t, 25, c.OncallBurden, 1e-9)
			},
		},
		{
			name: "security caught early", fn: (*Engine).securityVuln,
			setup: func(c *Company) { c.ObservabilityLevel = 4 },
			kind:  EventSecurityVuln, sev: SeverityWarning,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 11, c.TechDebt, 1e-9)
				assert.Equal(t, 1_000_000.0, c.Budget)
				assert.Equal(t, 99.0, c.Uptime)
			},
		},
		{
			name: "security exploited", fn: (*Engine).securityVuln,
			setup: func(c *Company) { c.ObservabilityLevel = 3 },
			kind:  EventSecurityVuln, sev: SeverityDanger,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 98.8, c.Uptime, 1e-9)
				assert.Equal(t, 990_000.0, c.Budget)
				assert.InDelta(t, 13, c.TechDebt, 1e-9)
			},
		},
		{
			name: "competitor launch", fn: (*Engine).competitorLaunch,
			kind: EventCompetitorLaunch, sev: SeverityWarning,
			check: func(t *testing.T, c *Company) {
				assert.Equal(t, 2, c.FeaturePressure)
				assert.Equal(t, 990, c.Customers)
			},
		},
		{
			name: "board over pressure", fn: (*Engine).boardMeeting,
			setup: func(c *Company) { c.FeaturePressure = 6; c.Revenue = 2_000_000 },
			kind:  EventBoardMeeting, sev: SeverityDanger,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 45, c.Morale, 1e-9)
				assert.Equal(t, 6, c.FeaturePressure)
			},
		},
		{
			name: "board at pressure limit with revenue", fn: (*Engine).boardMeeting,
			setup: func(c *Company) { c.FeaturePressure = 5; c.Revenue = 2_000_000 },
			kind:  EventBoardMeeting, sev: SeveritySuccess,
			check: func(t *testing.T, c *Company) {
				assert.Equal(t, 4, c.FeaturePressure)
				assert.Equal(t, 50.0, c.Morale)
			},
		},
		{
			name: "board at pressure limit without revenue", fn: (*Engine).boardMeeting,
			setup: func(c *Company) { c.FeaturePressure = 5 },
			kind:  EventBoardMeeting, sev: SeverityWarning,
			check: func(t *testing.T, c *Company) {
				assert.Equal(t, 6, c.FeaturePressure)
				assert.Equal(t, 50.0, c.Morale)
			},
		},
		{
			name: "board revenue must beat the bar", fn: (*Engine).boardMeeting,
			setup: func(c *Company) { c.Revenue = BoardHappyRevenue },
			kind:  EventBoardMeeting, sev: SeverityWarning,
			check: func(t *testing.T, c *Company) {
				assert.Equal(t, 1, c.FeaturePressure)
			},
		},
		{
			name: "cloud incident shrugged off", fn: (*Engine).cloudIncident,
			setup: func(c *Company) { c.ObservabilityLevel = 5; c.ChaosEngineering = true },
			kind:  EventCloudIncident, sev: SeveritySuccess,
			check: func(t *testing.T, c *Company) {
				assert.Equal(t, 99.0, c.Uptime)
			},
		},
		{
			name: "cloud incident without chaos", fn: (*Engine).cloudIncident,
			setup: func(c *Company) { c.ObservabilityLevel = 5 },
			kind:  EventCloudIncident, sev: SeverityDanger,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 98.5, c.Uptime, 1e-9)
			},
		},
		{
			name: "cloud incident with chaos but blind", fn: (*Engine).cloudIncident,
			setup: func(c *Company) { c.ObservabilityLevel = 4; c.ChaosEngineering = true },
			kind:  EventCloudIncident, sev: SeverityDanger,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 98.5, c.Uptime, 1e-9)
			},
		},
		{
			name: "viral post on fragile stack", fn: (*Engine).viralHNPost,
			setup: func(c *Company) { c.TechDebt = 51 },
			kind:  EventViralHNPost, sev: SeverityWarning,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 120_000, c.Revenue, 1e-6)
				assert.Equal(t, 1_200, c.Customers)
				assert.InDelta(t, 98.5, c.Uptime, 1e-9)
			},
		},
		{
			name: "viral post on healthy stack", fn: (*Engine).viralHNPost,
			setup: func(c *Company) { c.TechDebt = 50 },
			kind:  EventViralHNPost, sev: SeveritySuccess,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 120_000, c.Revenue, 1e-6)
				assert.Equal(t, 99.0, c.Uptime)
			},
		},
		{
			name: "compliance audit", fn: (*Engine).complianceRequirement,
			kind: EventComplianceRequirement, sev: SeverityWarning,
			check: func(t *testing.T, c *Company) {
				assert.Equal(t, 950_000.0, c.Budget)
				assert.InDelta(t, 12, c.TechDebt, 1e-9)
			},
		},
		{
			name: "quiet sprint", fn: (*Engine).quietSprint,
			kind: EventQuietSprint, sev: SeverityInfo,
			check: func(t *testing.T, c *Company) {
				assert.InDelta(t, 51, c.Morale, 1e-9)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := eventCompany()
			if tc.setup != nil {
				tc.setup(&c)
			}
			ev, ok := tc.fn(NewEngine(tc.draw), &c)
			require.True(t, ok)
			assert.Equal(t, tc.kind, ev.Kind)
			assert.Equal(t, tc.sev, ev.Severity)
			assert.NotEmpty(t, ev.Message)
			assert.NotEmpty(t, ev.Icon)
			tc.check(t, &c)
		})
	}
}

func TestEngineerQuitsKeepsLastEngineer(t *testing.T) {
	c := eventCompany()
	c.Headcount = 1
	before := c

	_, ok := NewEngine(constRand(0)).engineerQuits(&c)
	assert.False(t, ok)
	assert.Equal(t, before, c)
}

func TestGenerateEventsQuietWhenOnlyQuitDrawnForLoneEngineer(t *testing.T) {
	c := eventCompany()
	c.Headcount = 1
	// Draws in order: traffic, outage, quit, then nothing else fires.
	rng := &seqRand{draws: []float64{0.999, 0.999, 0}, rest: 0.999}

	events := NewEngine(rng).GenerateEvents(&c)
	require.Len(t, events, 1)
	assert.Equal(t, EventQuietSprint, events[0].Kind)
	assert.Equal(t, 1, c.Headcount)
}

func TestGenerateEventsSingleQuit(t *testing.T) {
	c := eventCompany()
	rng := &seqRand{draws: []float64{0.999, 0.999, 0}, rest: 0.999}

	events := NewEngine(rng).GenerateEvents(&c)
	require.Len(t, events, 1)
	assert.Equal(t, EventEngineerQuits, events[0].Kind)
	assert.Equal(t, 4, c.Headcount)
}

func TestGenerateEventsBoardForcedByPressure(t *testing.T) {
	c := eventCompany()
	c.FeaturePressure = 1

	events := NewEngine(constRand(0.999)).GenerateEvents(&c)
	require.Len(t, events, 1)
	assert.Equal(t, EventBoardMeeting, events[0].Kind)
	assert.Equal(t, SeverityWarning, events[0].Severity)
	assert.Equal(t, 2, c.FeaturePressure)
}

func TestApplyPassiveEffects(t *testing.T) {
	cases := []struct {
		name  string
		draw  constRand
		setup func(c *Company)
		want  func(t *testing.T, c *Company)
	}{
		{
			name: "debt decay, slo drift, small team",
			setup: func(c *Company) {
				c.TechDebt = 75
				c.SLODefined = true
				c.FeaturePressure = 2
				c.Revenue = 10_000
			},
			want: func(t *testing.T, c *Company) {
				assert.InDelta(t, 1_000_000-5*8_000-1_000*0.5, c.Budget, 1e-6)
				assert.InDelta(t, 10_000+1_000*0.5*0.5, c.Revenue, 1e-6)
				assert.InDelta(t, 99-0.1+0.05, c.Uptime, 1e-9)
				assert.InDelta(t, 49, c.Morale, 1e-9)
				assert.Equal(t, 1, c.FeaturePressure)
				assert.InDelta(t, 21, c.OncallBurden, 1e-9)
			},
		},
		{
			name: "no decay at 70 debt, no burden at 10 heads",
			setup: func(c *Company) {
				c.TechDebt = 70
				c.Headcount = 10
				c.Revenue = 10_000
			},
			want: func(t *testing.T, c *Company) {
				assert.InDelta(t, 1_000_000-10*8_000-1_000*0.5, c.Budget, 1e-6)
				assert.InDelta(t, 10_000+500*(1-70.0/150), c.Revenue, 1e-6)
				assert.Equal(t, 99.0, c.Uptime)
				assert.Equal(t, 50.0, c.Morale)
				assert.Equal(t, 0, c.FeaturePressure)
				assert.Equal(t, 20.0, c.OncallBurden)
			},
		},
		{
			name: "high draws, no customers, uptime capped",
			draw: 0.999,
			setup: func(c *Company) {
				c.Headcount = 3
				c.Customers = 0
				c.TechDebt = 0
				c.SLODefined = true
				c.Uptime = 99.99
			},
			want: func(t *testing.T, c *Company) {
				assert.InDelta(t, 1_000_000-3*11_996, c.Budget, 1e-6)
				assert.Equal(t, 100_000.0, c.Revenue)
				assert.Equal(t, MaxUptime, c.Uptime)
				assert.InDelta(t, 20+1+0.999*2, c.OncallBurden, 1e-9)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := eventCompany()
			tc.setup(&c)
			NewEngine(tc.draw).ApplyPassiveEffects(&c)
			tc.want(t, &c)
		})
	}
}

package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyByName(t *testing.T) {
	for _, name := range []string{"", "steady", "random"} {
		p, ok := PolicyByName(name)
		assert.True(t, ok, name)
		assert.NotNil(t, p, name)
	}
	_, ok := PolicyByName("yolo")
	assert.False(t, ok)
}

func TestSteadyPolicyOrder(t *testing.T) {
	c := Company{TechDebt: 80, Budget: 1_000_000}
	assert.Equal(t, ActionPayDebt, SteadyPolicy(&c, nil))

	c.TechDebt = 10
	assert.Equal(t, ActionObservability, SteadyPolicy(&c, nil))

	c.ObservabilityLevel = 3
	assert.Equal(t, ActionDefineSLOs, SteadyPolicy(&c, nil))

	c.SLODefined = true
	c.Morale = 20
	assert.Equal(t, ActionTeamBuilding, SteadyPolicy(&c, nil))

	c.Morale = 80
	c.Budget = 100_000
	c.Revenue = 50_000
	assert.Equal(t, ActionFundraise, SteadyPolicy(&c, nil))

	c.Budget = 2_000_000
	c.Headcount = 10
	assert.Equal(t, ActionHire, SteadyPolicy(&c, nil))

	c.Headcount = 60
	assert.Equal(t, ActionChaosEngineering, SteadyPolicy(&c, nil))

	c.ChaosEngineering = true
	assert.Equal(t, ActionShipFeatures, SteadyPolicy(&c, nil))
}

func TestPlayStopsAtMaxTurns(t *testing.T) {
	c := newStartup(t)
	e := NewEngine(constRand(0.999))

	outcomes, err := e.Play(&c, SteadyPolicy, 2, testNow)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.False(t, c.GameOver)
	assert.Equal(t, 3, c.Turn)
	assert.Equal(t, 1, outcomes[0].Turn.TurnNumber)
	assert.Equal(t, 2, outcomes[1].Turn.TurnNumber)
	assert.NotEmpty(t, outcomes[0].Turn.Actions)
}

func TestPlayEndsOnGameOver(t *testing.T) {
	c := newStartup(t)
	c.Budget = 1
	c.Revenue = 0
	// High draws always pick fundraise, which is refused without revenue.
	e := NewEngine(constRand(0.999))

	outcomes, err := e.Play(&c, RandomPolicy, 50, testNow)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, c.GameOver)
	assert.Equal(t, ReasonBankrupt, c.GameOverReason)
	assert.NotNil(t, outcomes[0].Score)
	assert.Len(t, outcomes[0].Turn.Actions, 2*MaxActionPoints)
}

func TestSimulate(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)

	for _, policy := range []Policy{SteadyPolicy, RandomPolicy} {
		sum, err := cat.Simulate(NewLockedRand(11), "series_a", policy, 20, 100, testNow)
		require.NoError(t, err)
		assert.Equal(t, "series_a", sum.Scenario)
		assert.Equal(t, 20, sum.Games)

		ended := 0
		for _, n := range sum.Reasons {
			ended += n
		}
		assert.Equal(t, sum.Games, ended+sum.Unfinished)
		assert.Equal(t, sum.Reasons[ReasonIPO], sum.Wins)
		assert.Greater(t, sum.AvgTurns, 0.0)
		assert.GreaterOrEqual(t, float64(sum.BestScore), sum.AvgScore)
	}

	_, err = cat.Simulate(NewLockedRand(1), "unicorn", SteadyPolicy, 1, 1, testNow)
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

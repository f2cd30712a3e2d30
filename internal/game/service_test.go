package game

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store with the same version checks as the
// SQL stores.
type memStore struct {
	mu        sync.Mutex
	companies map[string]Company
	turns     map[string][]TurnRecord
	scores    []ScoreRecord

	// conflicts makes the next N writes fail as if another writer won.
	conflicts int
}

func newMemStore() *memStore {
	return &memStore{companies: map[string]Company{}, turns: map[string][]TurnRecord{}}
}

func (m *memStore) InsertCompany(_ context.Context, c *Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[c.ID]; ok {
		return ErrTxConflict
	}
	c.Version = 1
	m.companies[c.ID] = *c
	return nil
}

func (m *memStore) Company(_ context.Context, id string) (Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return Company{}, ErrCompanyNotFound
	}
	c.TurnActions = append([]ActionKind(nil), c.TurnActions...)
	return c, nil
}

func (m *memStore) write(c *Company) error {
	cur, ok := m.companies[c.ID]
	if !ok {
		return ErrCompanyNotFound
	}
	if m.conflicts > 0 {
		m.conflicts--
		return ErrTxConflict
	}
	if cur.Version != c.Version {
		return ErrTxConflict
	}
	c.Version++
	m.companies[c.ID] = *c
	return nil
}

func (m *memStore) UpdateCompany(_ context.Context, c *Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(c)
}

func (m *memStore) CommitTurn(_ context.Context, c *Company, turn TurnRecord, score *ScoreRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.write(c); err != nil {
		return err
	}
	m.turns[c.ID] = append(m.turns[c.ID], turn)
	if score != nil {
		rec := *score
		rec.ID = int64(len(m.scores) + 1)
		m.scores = append(m.scores, rec)
	}
	return nil
}

func (m *memStore) Turns(_ context.Context, id string, limit int) ([]TurnRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.turns[id]
	out := make([]TurnRecord, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *memStore) RecentActive(_ context.Context, limit int) ([]Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Company
	for _, c := range m.companies {
		if !c.GameOver {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Leaderboard(_ context.Context, winners, recent, shame int) (Leaderboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lb := Leaderboard{Winners: []ScoreRecord{}, Recent: []ScoreRecord{}, Shame: []ScoreRecord{}}
	for _, s := range m.scores {
		if s.Won && len(lb.Winners) < winners {
			lb.Winners = append(lb.Winners, s)
		}
		if !s.Won && len(lb.Shame) < shame {
			lb.Shame = append(lb.Shame, s)
		}
		if len(lb.Recent) < recent {
			lb.Recent = append(lb.Recent, s)
		}
	}
	return lb, nil
}

func newTestService(t *testing.T, rng Rand) (*Service, *memStore) {
	t.Helper()
	cat, err := DefaultCatalog()
	require.NoError(t, err)
	store := newMemStore()
	svc := NewService(store, cat, rng, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return testNow }
	return svc, store
}

func TestServiceCreateAndAct(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, constRand(0.5))

	c, err := svc.CreateCompany(ctx, " startup ", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultCompanyName, c.Name)
	assert.Equal(t, int64(1), c.Version)

	res, c, err := svc.PerformAction(ctx, c.ID, ActionPayDebt)
	require.NoError(t, err)
	assert.False(t, res.Refunded)
	assert.Equal(t, 2, c.ActionPoints)
	assert.Equal(t, int64(2), c.Version)

	stored, err := svc.Company(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, stored)

	_, err = svc.CreateCompany(ctx, "unicorn", "")
	assert.ErrorIs(t, err, ErrUnknownScenario)

	_, _, err = svc.PerformAction(ctx, "nope", ActionPayDebt)
	assert.ErrorIs(t, err, ErrCompanyNotFound)

	_, _, err = svc.PerformAction(ctx, c.ID, ActionKind("blame_dns"))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestServiceRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, constRand(0.5))

	c, err := svc.CreateCompany(ctx, "startup", "Retry Inc")
	require.NoError(t, err)

	store.conflicts = 2
	_, c, err = svc.PerformAction(ctx, c.ID, ActionTeamBuilding)
	require.NoError(t, err)
	assert.Equal(t, 2, c.ActionPoints, "a retried action must only be applied once")
	assert.Equal(t, []ActionKind{ActionTeamBuilding}, c.TurnActions)
	assert.Equal(t, 0, store.conflicts)
}

func TestServiceRetryStopsWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc, store := newTestService(t, constRand(0.5))

	c, err := svc.CreateCompany(ctx, "startup", "")
	require.NoError(t, err)

	store.conflicts = 1
	cancel()
	_, _, err = svc.PerformAction(ctx, c.ID, ActionPayDebt)
	assert.ErrorIs(t, err, context.Canceled)

	stored, err := svc.Company(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.ActionPoints)
}

func TestServiceEndTurnWritesLedgerAndScore(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, constRand(0.999))

	c, err := svc.CreateCompany(ctx, "startup", "Ledger Co")
	require.NoError(t, err)
	_, _, err = svc.PerformAction(ctx, c.ID, ActionShipFeatures)
	require.NoError(t, err)

	out, c, err := svc.EndTurn(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, out.Score)
	assert.Equal(t, 2, c.Turn)

	turns, err := svc.Turns(ctx, c.ID, 0)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, 1, turns[0].TurnNumber)
	assert.Equal(t, []ActionKind{ActionShipFeatures}, turns[0].Actions)

	// Force bankruptcy on the next end-turn.
	store.mu.Lock()
	cur := store.companies[c.ID]
	cur.Budget = 1
	store.companies[c.ID] = cur
	store.mu.Unlock()

	out, c, err = svc.EndTurn(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, out.Score)
	assert.True(t, c.GameOver)
	assert.Equal(t, ReasonBankrupt, c.GameOverReason)
	assert.Equal(t, 2, out.Score.TurnsToCompletion)
	assert.Equal(t, "Ledger Co", out.Score.CompanyName)

	_, _, err = svc.EndTurn(ctx, c.ID)
	assert.ErrorIs(t, err, ErrGameOver)
	_, _, err = svc.PerformAction(ctx, c.ID, ActionHire)
	assert.ErrorIs(t, err, ErrGameOver)

	lb, err := svc.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Empty(t, lb.Winners)
	require.Len(t, lb.Shame, 1)
	assert.Equal(t, c.ID, lb.Shame[0].CompanyID)

	active, err := svc.RecentActive(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, active)

	turns, err = svc.Turns(ctx, c.ID, 10_000)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
	assert.Equal(t, 2, turns[0].TurnNumber)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidgeorgehope/sre-tycoon/internal/config"
	"github.com/davidgeorgehope/sre-tycoon/internal/db"
	"github.com/davidgeorgehope/sre-tycoon/internal/game"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cat, err := game.DefaultCatalog()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := game.NewService(store, cat, game.NewLockedRand(7), logger)

	srv := httptest.NewServer(New(config.APIConfig{RequestTimeout: 5 * time.Second}, logger, svc).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createCompany(t *testing.T, base, scenario, name string) game.Company {
	t.Helper()
	var c game.Company
	status := doJSON(t, http.MethodPost, base+"/v1/companies", map[string]string{"scenario": scenario, "name": name}, &c)
	require.Equal(t, http.StatusCreated, status)
	return c
}

func TestHealthAndCatalog(t *testing.T) {
	srv := newTestServer(t)

	var health map[string]any
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/healthz", nil, &health))
	assert.Equal(t, true, health["ok"])

	var cat struct {
		Scenarios []game.Scenario   `json:"scenarios"`
		Actions   []game.ActionInfo `json:"actions"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/v1/catalog", nil, &cat))
	assert.Len(t, cat.Scenarios, 3)
	assert.Len(t, cat.Actions, len(game.ActionKinds))
}

func TestCreateCompanyValidation(t *testing.T) {
	srv := newTestServer(t)

	c := createCompany(t, srv.URL, "startup", "  ")
	assert.Equal(t, game.DefaultCompanyName, c.Name)
	assert.Equal(t, 3, c.ActionPoints)
	assert.Equal(t, 500000.0, c.Budget)

	var errBody map[string]string
	status := doJSON(t, http.MethodPost, srv.URL+"/v1/companies", map[string]string{"scenario": "megacorp"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errBody["error"], "unknown scenario")

	status = doJSON(t, http.MethodPost, srv.URL+"/v1/companies", map[string]string{"scenario": "startup", "ceo": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCompanyNotFound(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, srv.URL+"/v1/companies/nope", nil, nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, srv.URL+"/v1/companies/nope/turns", nil, nil))
	assert.Equal(t, http.StatusNotFound,
		doJSON(t, http.MethodPost, srv.URL+"/v1/companies/nope/actions", map[string]string{"action": "pay_debt"}, nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, srv.URL+"/v1/companies/nope/end-turn", nil, nil))
}

func TestActionsSpendPointsUntilExhausted(t *testing.T) {
	srv := newTestServer(t)
	c := createCompany(t, srv.URL, "startup", "Toil Inc")
	actionURL := srv.URL + "/v1/companies/" + c.ID + "/actions"

	status := doJSON(t, http.MethodPost, actionURL, map[string]string{"action": "rewrite_in_rust"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	for _, key := range []string{"SHIP_FEATURES", " pay_debt", "Pay_Debt"} {
		status = doJSON(t, http.MethodPost, actionURL, map[string]string{"action": key}, nil)
		assert.Equal(t, http.StatusBadRequest, status, key)
	}

	for i := 0; i < 3; i++ {
		var out struct {
			Result  game.ActionResult `json:"result"`
			Company game.Company      `json:"company"`
		}
		require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, actionURL, map[string]string{"action": "pay_debt"}, &out))
		assert.Equal(t, game.ActionPayDebt, out.Result.Action)
		assert.Equal(t, 2-i, out.Company.ActionPoints)
	}

	var errBody map[string]string
	status = doJSON(t, http.MethodPost, actionURL, map[string]string{"action": "pay_debt"}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, errBody["error"], "no action points")
}

func TestEndTurnAndHistory(t *testing.T) {
	srv := newTestServer(t)
	c := createCompany(t, srv.URL, "series_a", "Sprint Zero")
	companyURL := srv.URL + "/v1/companies/" + c.ID

	require.Equal(t, http.StatusOK,
		doJSON(t, http.MethodPost, companyURL+"/actions", map[string]string{"action": "define_slos"}, nil))

	var out struct {
		Events  []game.Event      `json:"events"`
		Turn    game.TurnRecord   `json:"turn"`
		Score   *game.ScoreRecord `json:"score"`
		Company game.Company      `json:"company"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, companyURL+"/end-turn", nil, &out))
	assert.NotEmpty(t, out.Events)
	assert.Equal(t, 1, out.Turn.TurnNumber)
	assert.Equal(t, []game.ActionKind{game.ActionDefineSLOs}, out.Turn.Actions)
	if !out.Company.GameOver {
		assert.Equal(t, 2, out.Company.Turn)
		assert.Equal(t, game.ActionPointsFor(out.Company.Headcount), out.Company.ActionPoints)
		assert.Empty(t, out.Company.TurnActions)
	}

	var history struct {
		Turns []game.TurnRecord `json:"turns"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, companyURL+"/turns?limit=10", nil, &history))
	require.Len(t, history.Turns, 1)
	assert.Equal(t, len(out.Events), len(history.Turns[0].Events))

	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, companyURL+"/turns?limit=zero", nil, nil))

	var state struct {
		Company game.Company      `json:"company"`
		Turns   []game.TurnRecord `json:"turns"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, companyURL, nil, &state))
	assert.Equal(t, c.ID, state.Company.ID)
	assert.Len(t, state.Turns, 1)
}

func TestPlayUntilGameOverThenFrozen(t *testing.T) {
	srv := newTestServer(t)
	c := createCompany(t, srv.URL, "startup", "Burn Rate")
	companyURL := srv.URL + "/v1/companies/" + c.ID

	var over bool
	for i := 0; i < 500 && !over; i++ {
		var out struct {
			Score   *game.ScoreRecord `json:"score"`
			Company game.Company      `json:"company"`
		}
		require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, companyURL+"/end-turn", nil, &out))
		over = out.Company.GameOver
		if over {
			require.NotNil(t, out.Score)
			assert.Equal(t, out.Company.Score, out.Score.FinalScore)
		}
	}
	require.True(t, over, "startup that never acts should eventually end")

	var errBody map[string]string
	assert.Equal(t, http.StatusConflict, doJSON(t, http.MethodPost, companyURL+"/end-turn", nil, &errBody))
	assert.Contains(t, errBody["error"], "game over")
	assert.Equal(t, http.StatusConflict,
		doJSON(t, http.MethodPost, companyURL+"/actions", map[string]string{"action": "pay_debt"}, nil))

	var lb game.Leaderboard
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/v1/leaderboard", nil, &lb))
	require.Len(t, lb.Recent, 1)
	assert.Equal(t, c.ID, lb.Recent[0].CompanyID)

	var recent struct {
		Companies []game.Company `json:"companies"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/v1/companies", nil, &recent))
	assert.Empty(t, recent.Companies)
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/davidgeorgehope/sre-tycoon/internal/game"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

type CatalogResponse struct {
	Scenarios []game.Scenario   `json:"scenarios"`
	Actions   []game.ActionInfo `json:"actions"`
}

type CompanyState struct {
	Company game.Company      `json:"company"`
	Turns   []game.TurnRecord `json:"turns"`
}

type ActionResponse struct {
	Result  game.ActionResult `json:"result"`
	Company game.Company      `json:"company"`
}

type EndTurnResponse struct {
	Events  []game.Event      `json:"events"`
	Turn    game.TurnRecord   `json:"turn"`
	Score   *game.ScoreRecord `json:"score,omitempty"`
	Company game.Company      `json:"company"`
}

func (c *Client) Catalog(ctx context.Context) (CatalogResponse, error) {
	var out CatalogResponse
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/catalog", nil, &out)
	return out, err
}

func (c *Client) CreateCompany(ctx context.Context, scenario, name string) (game.Company, error) {
	var out game.Company
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/companies", map[string]any{
		"scenario": scenario,
		"name":     name,
	}, &out)
	return out, err
}

func (c *Client) RecentCompanies(ctx context.Context) ([]game.Company, error) {
	var out struct {
		Companies []game.Company `json:"companies"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/companies", nil, &out)
	return out.Companies, err
}

func (c *Client) CompanyState(ctx context.Context, companyID string) (CompanyState, error) {
	var out CompanyState
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/companies/"+url.PathEscape(companyID), nil, &out)
	return out, err
}

func (c *Client) PerformAction(ctx context.Context, companyID string, action game.ActionKind) (ActionResponse, error) {
	var out ActionResponse
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/companies/"+url.PathEscape(companyID)+"/actions", map[string]any{
		"action": string(action),
	}, &out)
	return out, err
}

func (c *Client) EndTurn(ctx context.Context, companyID string) (EndTurnResponse, error) {
	var out EndTurnResponse
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/companies/"+url.PathEscape(companyID)+"/end-turn", nil, &out)
	return out, err
}

func (c *Client) Turns(ctx context.Context, companyID string, limit int) ([]game.TurnRecord, error) {
	path := "/v1/companies/" + url.PathEscape(companyID) + "/turns"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var out struct {
		Turns []game.TurnRecord `json:"turns"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out.Turns, err
}

func (c *Client) Leaderboard(ctx context.Context) (game.Leaderboard, error) {
	var out game.Leaderboard
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/leaderboard", nil, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func errorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}

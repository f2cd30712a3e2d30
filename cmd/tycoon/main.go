package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	cl "github.com/davidgeorgehope/sre-tycoon/internal/cli"
	"github.com/davidgeorgehope/sre-tycoon/internal/config"
	"github.com/davidgeorgehope/sre-tycoon/internal/game"

	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "tycoon",
		Short:        "SRE Tycoon: run a company without setting production on fire",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newNewCmd(&apiBase),
		newStatusCmd(&apiBase),
		newActCmd(&apiBase),
		newEndTurnCmd(&apiBase),
		newHistoryCmd(&apiBase),
		newLeaderboardCmd(&apiBase),
		newCatalogCmd(&apiBase),
		newUseCmd(&apiBase),
		newQuitCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

// fetchCatalog has its own deadline, separate from requests made after prompting.
func fetchCatalog(cmd *cobra.Command, client *cl.Client) (cl.CatalogResponse, error) {
	ctx, cancel := requestContext(cmd)
	defer cancel()
	return client.Catalog(ctx)
}

func newNewCmd(apiBase *string) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "new [scenario]",
		Short: "Start a new company",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(apiBase)

			scenario := ""
			if len(args) == 1 {
				scenario = strings.ToLower(strings.TrimSpace(args[0]))
			} else {
				cat, err := fetchCatalog(cmd, client)
				if err != nil {
					return err
				}
				renderScenarios(cat.Scenarios)
				keys := make([]string, 0, len(cat.Scenarios))
				for _, s := range cat.Scenarios {
					keys = append(keys, s.Key)
				}
				scenario, err = promptChoice("Scenario", keys, "startup")
				if err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("name") && interactive() {
				var err error
				name, err = promptOptional("Company name (blank for " + game.DefaultCompanyName + ")")
				if err != nil {
					return err
				}
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()
			c, err := client.CreateCompany(ctx, scenario, name)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{CompanyID: c.ID, CompanyName: c.Name, Scenario: c.Scenario}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Founded %s (%s). Company id %s saved.", c.Name, c.Scenario, c.ID))
			renderStatus(c, nil)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "company display name")
	return cmd
}

func newStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current company dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			state, err := newClient(apiBase).CompanyState(ctx, sess.CompanyID)
			if err != nil {
				return err
			}
			renderStatus(state.Company, state.Turns)
			return nil
		},
	}
}

func newActCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "act [action]",
		Short: "Spend an action point",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			client := newClient(apiBase)

			action := ""
			if len(args) == 1 {
				action = strings.ToLower(strings.TrimSpace(args[0]))
			} else {
				cat, err := fetchCatalog(cmd, client)
				if err != nil {
					return err
				}
				renderActions(cat.Actions)
				keys := make([]string, 0, len(cat.Actions))
				for _, a := range cat.Actions {
					keys = append(keys, string(a.Key))
				}
				action, err = promptChoice("Action", keys, string(game.ActionShipFeatures))
				if err != nil {
					return err
				}
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := client.PerformAction(ctx, sess.CompanyID, game.ActionKind(action))
			if err != nil {
				return explain(err)
			}
			renderActionResult(out.Result)
			if out.Result.Refunded {
				printInfo("Action point refunded.")
			}
			printInfo(fmt.Sprintf("Action points left this sprint: %d", out.Company.ActionPoints))
			return nil
		},
	}
}

func newEndTurnCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "end-turn",
		Short: "End the sprint and face the consequences",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).EndTurn(ctx, sess.CompanyID)
			if err != nil {
				return explain(err)
			}
			accent.Printf("\n== SPRINT %d RETRO ==\n", out.Turn.TurnNumber)
			renderEvents(out.Events)
			if out.Score != nil {
				renderGameOver(out.Company, *out.Score)
				return nil
			}
			renderStatus(out.Company, nil)
			return nil
		},
	}
}

func newHistoryCmd(apiBase *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sprints",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			turns, err := newClient(apiBase).Turns(ctx, sess.CompanyID, limit)
			if err != nil {
				return err
			}
			renderHistory(turns)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", game.DefaultTurnsLimit, "number of sprints to show")
	return cmd
}

func newLeaderboardCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Winners, recent finishes and the hall of shame",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			lb, err := newClient(apiBase).Leaderboard(ctx)
			if err != nil {
				return err
			}
			renderLeaderboard(lb)
			return nil
		},
	}
}

func newCatalogCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List scenarios and actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			cat, err := newClient(apiBase).Catalog(ctx)
			if err != nil {
				return err
			}
			renderScenarios(cat.Scenarios)
			renderActions(cat.Actions)
			return nil
		},
	}
}

func newUseCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "use [company-id]",
		Short: "Switch to another company, or list active ones",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(apiBase)
			ctx, cancel := requestContext(cmd)
			defer cancel()

			if len(args) == 0 {
				companies, err := client.RecentCompanies(ctx)
				if err != nil {
					return err
				}
				renderCompanies(companies)
				played, err := cl.PlayedSessions()
				if err != nil {
					return err
				}
				renderPlayed(played)
				return nil
			}
			state, err := client.CompanyState(ctx, strings.TrimSpace(args[0]))
			if err != nil {
				return explain(err)
			}
			c := state.Company
			if err := cl.SaveSession(cl.Session{CompanyID: c.ID, CompanyName: c.Name, Scenario: c.Scenario}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Now playing %s (turn %d).", c.Name, c.Turn))
			return nil
		},
	}
}

// explain adds a player-facing hint to the API errors a player can cause.
func newQuitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quit",
		Short: "Stop playing the current company on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if errors.Is(err, cl.ErrNoSession) {
				printInfo("Not playing anything.")
				return nil
			}
			if err != nil {
				return err
			}
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printInfo(fmt.Sprintf("Walked away from %s. `tycoon use %s` picks it back up.", sess.CompanyName, sess.CompanyID))
			return nil
		},
	}
}

func explain(err error) error {
	var apiErr *cl.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case http.StatusNotFound:
		return fmt.Errorf("%s (run `tycoon use` to pick another company)", apiErr.Message)
	case http.StatusConflict:
		if strings.Contains(apiErr.Message, "action points") {
			return fmt.Errorf("%s (run `tycoon end-turn`)", apiErr.Message)
		}
		if strings.Contains(apiErr.Message, "game over") {
			return fmt.Errorf("%s (run `tycoon new` to start again)", apiErr.Message)
		}
	}
	return err
}

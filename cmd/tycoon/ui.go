package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	cl "github.com/davidgeorgehope/sre-tycoon/internal/cli"
	"github.com/davidgeorgehope/sre-tycoon/internal/game"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	panelTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func promptOptional(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	if !interactive() {
		return "", fmt.Errorf("%s is required (one of %s)", strings.ToLower(label), strings.Join(options, ", "))
	}
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func renderStatus(c game.Company, turns []game.TurnRecord) {
	row := func(label, value string) string {
		return labelStyle.Render(label) + value
	}
	flags := []string{}
	if c.SLODefined {
		flags = append(flags, "SLOs")
	}
	if c.ChaosEngineering {
		flags = append(flags, "chaos")
	}
	if len(flags) == 0 {
		flags = append(flags, "none")
	}

	lines := []string{
		panelTitle.Render(fmt.Sprintf("%s  ·  %s  ·  sprint %d", c.Name, c.Scenario, c.Turn)),
		"",
		row("Budget", colorizeMoney(c.Budget)),
		row("Revenue / mo", game.FormatMoney(c.Revenue)),
		row("ARR", game.FormatMoney(c.ARR())),
		row("Customers", fmt.Sprintf("%d", c.Customers)),
		row("Headcount", fmt.Sprintf("%d", c.Headcount)),
		row("Uptime", colorizeUptime(c.Uptime)),
		row("Tech debt", colorizeGauge(c.TechDebt, true)),
		row("Morale", colorizeGauge(c.Morale, false)),
		row("On-call burden", colorizeGauge(c.OncallBurden, true)),
		row("Observability", fmt.Sprintf("%d/%d", c.ObservabilityLevel, game.MaxObservability)),
		row("Practices", strings.Join(flags, ", ")),
		row("Score", fmt.Sprintf("%d", c.Score)),
	}
	if c.GameOver {
		lines = append(lines, row("Status", danger.Sprint("GAME OVER ("+string(c.GameOverReason)+")")))
	} else {
		lines = append(lines, row("Action points", fmt.Sprintf("%d", c.ActionPoints)))
		if c.LowUptimeStreak > 0 {
			lines = append(lines, row("Low uptime", warn.Sprintf("%d/%d sprints", c.LowUptimeStreak, game.LowUptimeLimit)))
		}
	}
	fmt.Println(panelStyle.Render(strings.Join(lines, "\n")))

	if len(turns) > 0 {
		renderHistory(turns)
	}
}

func renderScenarios(scenarios []game.Scenario) {
	accent.Println("\n== SCENARIOS ==")
	for _, s := range scenarios {
		fmt.Printf("%s %-12s %s\n", s.Emoji, s.Key, s.Label)
		printInfo("   " + s.Description)
	}
	fmt.Println()
}

func renderActions(actions []game.ActionInfo) {
	accent.Println("\n== ACTIONS ==")
	for _, a := range actions {
		fmt.Printf("%s %-18s %s\n", a.Emoji, a.Key, a.Label)
		printInfo("   " + a.Description)
	}
	fmt.Println()
}

func renderActionResult(res game.ActionResult) {
	printSeverity(res.Severity, res.Message)
}

func renderEvents(events []game.Event) {
	for _, ev := range events {
		printSeverity(ev.Severity, ev.Icon+" "+ev.Message)
	}
	fmt.Println()
}

func renderGameOver(c game.Company, score game.ScoreRecord) {
	title := "GAME OVER"
	if score.Won {
		title = "IPO! YOU WIN"
	}
	body := strings.Join([]string{
		panelTitle.Render(title),
		"",
		fmt.Sprintf("%s finished after %d sprints (%s).", c.Name, score.TurnsToCompletion, c.GameOverReason),
		fmt.Sprintf("Final score: %d", score.FinalScore),
		fmt.Sprintf("Revenue %s  ·  uptime %.2f%%  ·  headcount %d",
			game.FormatMoney(score.FinalRevenue), score.FinalUptime, score.FinalHeadcount),
	}, "\n")
	fmt.Println(panelStyle.Render(body))
}

func renderHistory(turns []game.TurnRecord) {
	accent.Println("\n== RECENT SPRINTS ==")
	if len(turns) == 0 {
		printInfo("No sprints played yet.")
		return
	}
	for _, t := range turns {
		actions := make([]string, 0, len(t.Actions))
		for _, a := range t.Actions {
			actions = append(actions, string(a))
		}
		if len(actions) == 0 {
			actions = append(actions, "(no actions)")
		}
		fmt.Printf("Sprint %-4d budget %-10s uptime %6.2f%%  debt %5.1f%%  score %d\n",
			t.TurnNumber, game.FormatMoney(t.Metrics.Budget), t.Metrics.Uptime, t.Metrics.TechDebt, t.Metrics.Score)
		printInfo("   actions: " + strings.Join(actions, ", "))
		for _, ev := range t.Events {
			fmt.Printf("   %s %s\n", ev.Icon, truncate(ev.Message, 100))
		}
	}
	fmt.Println()
}

func renderLeaderboard(lb game.Leaderboard) {
	table := func(title string, rows []game.ScoreRecord, empty string) {
		accent.Printf("\n== %s ==\n", title)
		if len(rows) == 0 {
			printInfo(empty)
			return
		}
		fmt.Printf("%-4s %-24s %-11s %8s %8s %12s\n", "#", "COMPANY", "SCENARIO", "TURNS", "UPTIME", "SCORE")
		for i, r := range rows {
			fmt.Printf("%-4d %-24s %-11s %8d %7.2f%% %12d\n",
				i+1, truncate(r.CompanyName, 24), r.Scenario, r.TurnsToCompletion, r.FinalUptime, r.FinalScore)
		}
	}
	table("IPO WINNERS", lb.Winners, "Nobody has rung the bell yet.")
	table("RECENTLY FINISHED", lb.Recent, "No finished games yet.")
	table("HALL OF SHAME", lb.Shame, "No flameouts. Suspicious.")
	fmt.Println()
}

func renderCompanies(companies []game.Company) {
	accent.Println("\n== ACTIVE COMPANIES ==")
	if len(companies) == 0 {
		printInfo("No active companies. Run `tycoon new`.")
		return
	}
	fmt.Printf("%-36s %-24s %-11s %6s %12s\n", "ID", "NAME", "SCENARIO", "TURN", "BUDGET")
	for _, c := range companies {
		fmt.Printf("%-36s %-24s %-11s %6d %12s\n", c.ID, truncate(c.Name, 24), c.Scenario, c.Turn, game.FormatMoney(c.Budget))
	}
	fmt.Println()
}

func renderPlayed(played []cl.Session) {
	if len(played) == 0 {
		return
	}
	accent.Println("== PLAYED ON THIS MACHINE ==")
	for _, p := range played {
		fmt.Printf("%-36s %-24s %-11s\n", p.CompanyID, truncate(p.CompanyName, 24), p.Scenario)
	}
	fmt.Println()
}

func printSeverity(sev game.Severity, msg string) {
	switch sev {
	case game.SeveritySuccess:
		printSuccess(msg)
	case game.SeverityWarning:
		printWarn(msg)
	case game.SeverityDanger:
		printError(msg)
	default:
		printInfo(msg)
	}
}

func colorizeMoney(v float64) string {
	text := game.FormatMoney(v)
	if v <= 0 {
		return danger.Sprint(text)
	}
	return neutral.Sprint(text)
}

func colorizeUptime(v float64) string {
	text := fmt.Sprintf("%.2f%%", v)
	switch {
	case v >= game.IPOMinUptime:
		return success.Sprint(text)
	case v < game.LowUptimeThreshold:
		return danger.Sprint(text)
	default:
		return warn.Sprint(text)
	}
}

// colorizeGauge colors a 0-100 metric; highIsBad flips the thresholds.
func colorizeGauge(v float64, highIsBad bool) string {
	text := fmt.Sprintf("%.1f%%", v)
	level := v
	if highIsBad {
		level = 100 - v
	}
	switch {
	case level >= 60:
		return success.Sprint(text)
	case level >= 30:
		return warn.Sprint(text)
	default:
		return danger.Sprint(text)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

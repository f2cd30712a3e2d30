package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/davidgeorgehope/sre-tycoon/internal/game"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLiteStore is a single-file game.Store for local play and tests.
// All access goes through one connection, so writes are serialized.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}
	s := &SQLiteStore{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertCompany(ctx context.Context, c *game.Company) error {
	actions, err := encodeActions(c.TurnActions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO companies (`+companyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Scenario, c.Turn, c.ActionPoints, c.Budget, c.Headcount, c.TechDebt, c.Morale,
		c.Uptime, c.Revenue, c.Customers, c.ObservabilityLevel, c.OncallBurden, boolInt(c.SLODefined),
		boolInt(c.ChaosEngineering), boolInt(c.GameOver), string(c.GameOverReason), c.Score, c.LowUptimeStreak,
		c.FeaturePressure, actions, 1, toMicros(c.CreatedAt), toMicros(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	c.Version = 1
	return nil
}

func (s *SQLiteStore) Company(ctx context.Context, id string) (game.Company, error) {
	c, err := scanSQLiteCompany(s.db.QueryRowContext(ctx, `
		SELECT `+companyColumns+`
		FROM companies
		WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return game.Company{}, game.ErrCompanyNotFound
	}
	return c, err
}

func (s *SQLiteStore) UpdateCompany(ctx context.Context, c *game.Company) error {
	if err := updateSQLiteCompany(ctx, s.db, c); err != nil {
		return err
	}
	c.Version++
	return nil
}

func (s *SQLiteStore) CommitTurn(ctx context.Context, c *game.Company, turn game.TurnRecord, score *game.ScoreRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updateSQLiteCompany(ctx, tx, c); err != nil {
		return err
	}

	actions, err := encodeActions(turn.Actions)
	if err != nil {
		return err
	}
	m := turn.Metrics
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO turns (`+turnColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, turn.CompanyID, turn.TurnNumber, actions, m.Budget, m.Headcount, m.TechDebt, m.Morale, m.Uptime, m.Revenue,
		m.Customers, m.ObservabilityLevel, boolInt(m.SLODefined), boolInt(m.ChaosEngineering), m.OncallBurden,
		m.FeaturePressure, m.LowUptimeStreak, m.Score, toMicros(turn.CreatedAt)); err != nil {
		if isSQLiteConflict(err) {
			return game.ErrTxConflict
		}
		return fmt.Errorf("insert turn: %w", err)
	}

	for i, ev := range turn.Events {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO turn_events (company_id, turn_number, seq, kind, severity, icon, message)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, turn.CompanyID, turn.TurnNumber, i, string(ev.Kind), string(ev.Severity), ev.Icon, ev.Message); err != nil {
			return fmt.Errorf("insert turn event: %w", err)
		}
	}

	if score != nil {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO scores
			    (company_id, company_name, scenario, turns_to_completion, final_score, final_revenue,
			     final_uptime, final_headcount, won, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, score.CompanyID, score.CompanyName, score.Scenario, score.TurnsToCompletion, score.FinalScore,
			score.FinalRevenue, score.FinalUptime, score.FinalHeadcount, boolInt(score.Won), toMicros(score.CompletedAt))
		if err != nil {
			if isSQLiteConflict(err) {
				return game.ErrTxConflict
			}
			return fmt.Errorf("insert score: %w", err)
		}
		if score.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.Version++
	return nil
}

func (s *SQLiteStore) Turns(ctx context.Context, companyID string, limit int) ([]game.TurnRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+turnColumns+`
		FROM turns
		WHERE company_id = ?
		ORDER BY turn_number DESC
		LIMIT ?
	`, companyID, limit)
	if err != nil {
		return nil, err
	}
	turns := []game.TurnRecord{}
	for rows.Next() {
		t, err := scanSQLiteTurn(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		turns = append(turns, t)
	}
	// The single connection must be released before the next query.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return turns, nil
	}

	lo, hi := turns[len(turns)-1].TurnNumber, turns[0].TurnNumber
	evRows, err := s.db.QueryContext(ctx, `
		SELECT turn_number, kind, severity, icon, message
		FROM turn_events
		WHERE company_id = ? AND turn_number BETWEEN ? AND ?
		ORDER BY turn_number, seq
	`, companyID, lo, hi)
	if err != nil {
		return nil, err
	}
	defer evRows.Close()
	events := map[int][]game.Event{}
	for evRows.Next() {
		var n int
		var kind, severity, icon, message string
		if err := evRows.Scan(&n, &kind, &severity, &icon, &message); err != nil {
			return nil, err
		}
		events[n] = append(events[n], game.Event{
			Kind:     game.EventKind(kind),
			Severity: game.Severity(severity),
			Icon:     icon,
			Message:  message,
		})
	}
	if err := evRows.Err(); err != nil {
		return nil, err
	}
	groupEvents(turns, events)
	return turns, nil
}

func (s *SQLiteStore) RecentActive(ctx context.Context, limit int) ([]game.Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+companyColumns+`
		FROM companies
		WHERE game_over = 0
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.Company{}
	for rows.Next() {
		c, err := scanSQLiteCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Leaderboard(ctx context.Context, winners, recent, shame int) (game.Leaderboard, error) {
	lb := emptyLeaderboard()
	var err error
	if lb.Winners, err = s.scores(ctx, `WHERE won = 1 ORDER BY final_score DESC, turns_to_completion ASC`, winners); err != nil {
		return lb, err
	}
	if lb.Recent, err = s.scores(ctx, `ORDER BY completed_at DESC, id DESC`, recent); err != nil {
		return lb, err
	}
	if lb.Shame, err = s.scores(ctx, `WHERE won = 0 ORDER BY final_score DESC, turns_to_completion ASC`, shame); err != nil {
		return lb, err
	}
	return lb, nil
}

func (s *SQLiteStore) scores(ctx context.Context, tail string, limit int) ([]game.ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+scoreColumns+` FROM scores `+tail+` LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.ScoreRecord{}
	for rows.Next() {
		var (
			r         game.ScoreRecord
			won       int
			completed int64
		)
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.CompanyName, &r.Scenario, &r.TurnsToCompletion, &r.FinalScore,
			&r.FinalRevenue, &r.FinalUptime, &r.FinalHeadcount, &won, &completed); err != nil {
			return nil, err
		}
		r.Won = won != 0
		r.CompletedAt = fromMicros(completed)
		out = append(out, r)
	}
	return out, rows.Err()
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateSQLiteCompany(ctx context.Context, q sqlExecer, c *game.Company) error {
	actions, err := encodeActions(c.TurnActions)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `
		UPDATE companies
		SET name = ?, turn = ?, action_points = ?, budget = ?, headcount = ?, tech_debt = ?,
		    morale = ?, uptime = ?, revenue = ?, customers = ?, observability_level = ?,
		    oncall_burden = ?, slo_defined = ?, chaos_engineering = ?, game_over = ?,
		    game_over_reason = ?, score = ?, low_uptime_streak = ?, feature_pressure = ?,
		    turn_actions = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, c.Name, c.Turn, c.ActionPoints, c.Budget, c.Headcount, c.TechDebt,
		c.Morale, c.Uptime, c.Revenue, c.Customers, c.ObservabilityLevel,
		c.OncallBurden, boolInt(c.SLODefined), boolInt(c.ChaosEngineering), boolInt(c.GameOver),
		string(c.GameOverReason), c.Score, c.LowUptimeStreak, c.FeaturePressure,
		actions, toMicros(c.UpdatedAt), c.ID, c.Version)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return game.ErrTxConflict
	}
	return nil
}

func scanSQLiteCompany(row scanner) (game.Company, error) {
	var (
		c                    game.Company
		slo, chaos, over     int
		reason, actions      string
		createdAt, updatedAt int64
	)
	err := row.Scan(&c.ID, &c.Name, &c.Scenario, &c.Turn, &c.ActionPoints, &c.Budget, &c.Headcount, &c.TechDebt,
		&c.Morale, &c.Uptime, &c.Revenue, &c.Customers, &c.ObservabilityLevel, &c.OncallBurden, &slo,
		&chaos, &over, &reason, &c.Score, &c.LowUptimeStreak, &c.FeaturePressure, &actions,
		&c.Version, &createdAt, &updatedAt)
	if err != nil {
		return game.Company{}, err
	}
	c.SLODefined = slo != 0
	c.ChaosEngineering = chaos != 0
	c.GameOver = over != 0
	c.GameOverReason = game.GameOverReason(reason)
	c.CreatedAt = fromMicros(createdAt)
	c.UpdatedAt = fromMicros(updatedAt)
	if c.TurnActions, err = decodeActions(actions); err != nil {
		return game.Company{}, err
	}
	return c, nil
}

func scanSQLiteTurn(row scanner) (game.TurnRecord, error) {
	var (
		t          game.TurnRecord
		actions    string
		slo, chaos int
		createdAt  int64
	)
	m := &t.Metrics
	err := row.Scan(&t.CompanyID, &t.TurnNumber, &actions, &m.Budget, &m.Headcount, &m.TechDebt, &m.Morale, &m.Uptime,
		&m.Revenue, &m.Customers, &m.ObservabilityLevel, &slo, &chaos, &m.OncallBurden,
		&m.FeaturePressure, &m.LowUptimeStreak, &m.Score, &createdAt)
	if err != nil {
		return game.TurnRecord{}, err
	}
	m.SLODefined = slo != 0
	m.ChaosEngineering = chaos != 0
	t.CreatedAt = fromMicros(createdAt)
	finishTurn(&t)
	if t.Actions, err = decodeActions(actions); err != nil {
		return game.TurnRecord{}, err
	}
	return t, nil
}

// isSQLiteConflict reports a duplicate key. Other constraint failures
// are bugs, not races.
func isSQLiteConflict(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

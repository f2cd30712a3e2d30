package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/davidgeorgehope/sre-tycoon/internal/game"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema_postgres.sql
var postgresSchema string

// PostgresStore is the production game.Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) InsertCompany(ctx context.Context, c *game.Company) error {
	actions, err := encodeActions(c.TurnActions)
	if err != nil {
		return err
	}
	c.Version = 1
	_, err = s.pool.Exec(ctx, `
		INSERT INTO tycoon.companies (`+companyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22::jsonb, $23, $24, $25)
	`, c.ID, c.Name, c.Scenario, c.Turn, c.ActionPoints, c.Budget, c.Headcount, c.TechDebt, c.Morale,
		c.Uptime, c.Revenue, c.Customers, c.ObservabilityLevel, c.OncallBurden, c.SLODefined, c.ChaosEngineering,
		c.GameOver, string(c.GameOverReason), c.Score, c.LowUptimeStreak, c.FeaturePressure, actions, c.Version,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		c.Version = 0
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (s *PostgresStore) Company(ctx context.Context, id string) (game.Company, error) {
	c, err := scanPostgresCompany(s.pool.QueryRow(ctx, `
		SELECT `+companyColumns+`
		FROM tycoon.companies
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Company{}, game.ErrCompanyNotFound
	}
	return c, err
}

func (s *PostgresStore) UpdateCompany(ctx context.Context, c *game.Company) error {
	if err := updatePostgresCompany(ctx, s.pool, c); err != nil {
		return mapPostgresError(err)
	}
	c.Version++
	return nil
}

// CommitTurn writes the company, its turn ledger entry, the turn's events
// and the optional final score in one serializable transaction.
func (s *PostgresStore) CommitTurn(ctx context.Context, c *game.Company, turn game.TurnRecord, score *game.ScoreRecord) error {
	err := s.commitTurn(ctx, c, turn, score)
	if err != nil {
		return mapPostgresError(err)
	}
	c.Version++
	return nil
}

func (s *PostgresStore) commitTurn(ctx context.Context, c *game.Company, turn game.TurnRecord, score *game.ScoreRecord) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := updatePostgresCompany(ctx, tx, c); err != nil {
		return err
	}

	actions, err := encodeActions(turn.Actions)
	if err != nil {
		return err
	}
	m := turn.Metrics
	if _, err := tx.Exec(ctx, `
		INSERT INTO tycoon.turns (`+turnColumns+`)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, turn.CompanyID, turn.TurnNumber, actions, m.Budget, m.Headcount, m.TechDebt, m.Morale, m.Uptime, m.Revenue,
		m.Customers, m.ObservabilityLevel, m.SLODefined, m.ChaosEngineering, m.OncallBurden, m.FeaturePressure,
		m.LowUptimeStreak, m.Score, turn.CreatedAt); err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	batch := &pgx.Batch{}
	for i, ev := range turn.Events {
		batch.Queue(`
			INSERT INTO tycoon.turn_events (company_id, turn_number, seq, kind, severity, icon, message)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, turn.CompanyID, turn.TurnNumber, i, string(ev.Kind), string(ev.Severity), ev.Icon, ev.Message)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert turn events: %w", err)
		}
	}

	if score != nil {
		if err := tx.QueryRow(ctx, `
			INSERT INTO tycoon.scores
			    (company_id, company_name, scenario, turns_to_completion, final_score, final_revenue,
			     final_uptime, final_headcount, won, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`, score.CompanyID, score.CompanyName, score.Scenario, score.TurnsToCompletion, score.FinalScore,
			score.FinalRevenue, score.FinalUptime, score.FinalHeadcount, score.Won, score.CompletedAt).Scan(&score.ID); err != nil {
			return fmt.Errorf("insert score: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Turns(ctx context.Context, companyID string, limit int) ([]game.TurnRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+turnColumns+`
		FROM tycoon.turns
		WHERE company_id = $1
		ORDER BY turn_number DESC
		LIMIT $2
	`, companyID, limit)
	if err != nil {
		return nil, err
	}
	turns := []game.TurnRecord{}
	for rows.Next() {
		t, err := scanPostgresTurn(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		turns = append(turns, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return turns, nil
	}

	numbers := make([]int32, len(turns))
	for i, t := range turns {
		numbers[i] = int32(t.TurnNumber)
	}
	evRows, err := s.pool.Query(ctx, `
		SELECT turn_number, kind, severity, icon, message
		FROM tycoon.turn_events
		WHERE company_id = $1 AND turn_number = ANY($2)
		ORDER BY turn_number, seq
	`, companyID, numbers)
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

func (s *PostgresStore) RecentActive(ctx context.Context, limit int) ([]game.Company, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+companyColumns+`
		FROM tycoon.companies
		WHERE NOT game_over
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.Company{}
	for rows.Next() {
		c, err := scanPostgresCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Leaderboard(ctx context.Context, winners, recent, shame int) (game.Leaderboard, error) {
	lb := emptyLeaderboard()
	var err error
	if lb.Winners, err = s.scores(ctx, `WHERE won ORDER BY final_score DESC, turns_to_completion ASC`, winners); err != nil {
		return lb, err
	}
	if lb.Recent, err = s.scores(ctx, `ORDER BY completed_at DESC, id DESC`, recent); err != nil {
		return lb, err
	}
	if lb.Shame, err = s.scores(ctx, `WHERE NOT won ORDER BY final_score DESC, turns_to_completion ASC`, shame); err != nil {
		return lb, err
	}
	return lb, nil
}

func (s *PostgresStore) scores(ctx context.Context, tail string, limit int) ([]game.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+scoreColumns+` FROM tycoon.scores `+tail+` LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.ScoreRecord{}
	for rows.Next() {
		var r game.ScoreRecord
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.CompanyName, &r.Scenario, &r.TurnsToCompletion, &r.FinalScore,
			&r.FinalRevenue, &r.FinalUptime, &r.FinalHeadcount, &r.Won, &r.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updatePostgresCompany(ctx context.Context, q pgExecer, c *game.Company) error {
	actions, err := encodeActions(c.TurnActions)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `
		UPDATE tycoon.companies
		SET name = $3, turn = $4, action_points = $5, budget = $6, headcount = $7, tech_debt = $8,
		    morale = $9, uptime = $10, revenue = $11, customers = $12, observability_level = $13,
		    oncall_burden = $14, slo_defined = $15, chaos_engineering = $16, game_over = $17,
		    game_over_reason = $18, score = $19, low_uptime_streak = $20, feature_pressure = $21,
		    turn_actions = $22::jsonb, updated_at = $23, version = version + 1
		WHERE id = $1 AND version = $2
	`, c.ID, c.Version, c.Name, c.Turn, c.ActionPoints, c.Budget, c.Headcount, c.TechDebt,
		c.Morale, c.Uptime, c.Revenue, c.Customers, c.ObservabilityLevel,
		c.OncallBurden, c.SLODefined, c.ChaosEngineering, c.GameOver,
		string(c.GameOverReason), c.Score, c.LowUptimeStreak, c.FeaturePressure,
		actions, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrTxConflict
	}
	return nil
}

func scanPostgresCompany(row scanner) (game.Company, error) {
	var (
		c       game.Company
		reason  string
		actions string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Scenario, &c.Turn, &c.ActionPoints, &c.Budget, &c.Headcount, &c.TechDebt,
		&c.Morale, &c.Uptime, &c.Revenue, &c.Customers, &c.ObservabilityLevel, &c.OncallBurden, &c.SLODefined,
		&c.ChaosEngineering, &c.GameOver, &reason, &c.Score, &c.LowUptimeStreak, &c.FeaturePressure, &actions,
		&c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return game.Company{}, err
	}
	c.GameOverReason = game.GameOverReason(reason)
	if c.TurnActions, err = decodeActions(actions); err != nil {
		return game.Company{}, err
	}
	return c, nil
}

func scanPostgresTurn(row scanner) (game.TurnRecord, error) {
	var (
		t       game.TurnRecord
		actions string
	)
	m := &t.Metrics
	err := row.Scan(&t.CompanyID, &t.TurnNumber, &actions, &m.Budget, &m.Headcount, &m.TechDebt, &m.Morale, &m.Uptime,
		&m.Revenue, &m.Customers, &m.ObservabilityLevel, &m.SLODefined, &m.ChaosEngineering, &m.OncallBurden,
		&m.FeaturePressure, &m.LowUptimeStreak, &m.Score, &t.CreatedAt)
	if err != nil {
		return game.TurnRecord{}, err
	}
	finishTurn(&t)
	if t.Actions, err = decodeActions(actions); err != nil {
		return game.TurnRecord{}, err
	}
	return t, nil
}

// mapPostgresError folds serialization failures and ledger duplicates into
// game.ErrTxConflict so the service retries them.
func mapPostgresError(err error) error {
	if errors.Is(err, game.ErrTxConflict) {
		return game.ErrTxConflict
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "23505") {
		return game.ErrTxConflict
	}
	return err
}

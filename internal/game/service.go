package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Store persists companies, the turn ledger and final scores.
// UpdateCompany and CommitTurn must only write when the stored version
// still equals c.Version, bump c.Version on success, and return
// ErrTxConflict otherwise.
type Store interface {
	InsertCompany(ctx context.Context, c *Company) error
	Company(ctx context.Context, id string) (Company, error)
	UpdateCompany(ctx context.Context, c *Company) error
	CommitTurn(ctx context.Context, c *Company, turn TurnRecord, score *ScoreRecord) error
	Turns(ctx context.Context, companyID string, limit int) ([]TurnRecord, error)
	RecentActive(ctx context.Context, limit int) ([]Company, error)
	Leaderboard(ctx context.Context, winners, recent, shame int) (Leaderboard, error)
}

const (
	DefaultTurnsLimit = 5
	MaxTurnsLimit     = 200

	LeaderboardWinners = 20
	LeaderboardRecent  = 20
	LeaderboardShame   = 10
)

type Service struct {
	store   Store
	engine  *Engine
	catalog *Catalog
	log     *slog.Logger
	now     func() time.Time
}

func NewService(store Store, catalog *Catalog, rng Rand, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		engine:  NewEngine(rng),
		catalog: catalog,
		log:     logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Catalog() *Catalog {
	return s.catalog
}

func (s *Service) CreateCompany(ctx context.Context, scenario, name string) (Company, error) {
	c, err := s.catalog.NewCompany(scenario, name, s.now())
	if err != nil {
		return Company{}, err
	}
	if err := s.store.InsertCompany(ctx, &c); err != nil {
		return Company{}, err
	}
	s.log.Info("company created", "company_id", c.ID, "scenario", c.Scenario, "name", c.Name)
	return c, nil
}

func (s *Service) Company(ctx context.Context, id string) (Company, error) {
	return s.store.Company(ctx, strings.TrimSpace(id))
}

func (s *Service) PerformAction(ctx context.Context, id string, key ActionKind) (ActionResult, Company, error) {
	var res ActionResult
	var c Company
	err := s.withRetry(ctx, func() error {
		var err error
		c, err = s.store.Company(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		res, err = s.engine.PerformAction(&c, key)
		if err != nil {
			return err
		}
		c.UpdatedAt = s.now()
		return s.store.UpdateCompany(ctx, &c)
	})
	if err != nil {
		return ActionResult{}, Company{}, err
	}
	s.log.Info("action resolved",
		"company_id", c.ID, "turn", c.Turn, "action", string(key),
		"refunded", res.Refunded, "action_points", c.ActionPoints)
	return res, c, nil
}

func (s *Service) EndTurn(ctx context.Context, id string) (TurnOutcome, Company, error) {
	var out TurnOutcome
	var c Company
	err := s.withRetry(ctx, func() error {
		var err error
		c, err = s.store.Company(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		now := s.now()
		out, err = s.engine.EndTurn(&c, now)
		if err != nil {
			return err
		}
		c.UpdatedAt = now
		return s.store.CommitTurn(ctx, &c, out.Turn, out.Score)
	})
	if err != nil {
		return TurnOutcome{}, Company{}, err
	}

	s.log.Info("turn resolved",
		"company_id", c.ID, "turn", out.Turn.TurnNumber, "events", len(out.Events), "score", c.Score)
	if out.Score != nil {
		s.log.Info("game over",
			"company_id", c.ID, "reason", string(c.GameOverReason), "won", out.Score.Won,
			"final_score", out.Score.FinalScore, "turns", out.Score.TurnsToCompletion)
	}
	return out, c, nil
}

func (s *Service) Turns(ctx context.Context, id string, limit int) ([]TurnRecord, error) {
	if limit <= 0 {
		limit = DefaultTurnsLimit
	}
	if limit > MaxTurnsLimit {
		limit = MaxTurnsLimit
	}
	return s.store.Turns(ctx, strings.TrimSpace(id), limit)
}

func (s *Service) RecentActive(ctx context.Context, limit int) ([]Company, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.store.RecentActive(ctx, limit)
}

func (s *Service) Leaderboard(ctx context.Context) (Leaderboard, error) {
	return s.store.Leaderboard(ctx, LeaderboardWinners, LeaderboardRecent, LeaderboardShame)
}

func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	const maxAttempts = 8
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if !errors.Is(err, ErrTxConflict) {
			return err
		}
		if attempt == maxAttempts-1 {
			break
		}
		s.log.Warn("company write conflict, retrying", "attempt", attempt+1, "delay", retryDelay.String())
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		if retryDelay < 1200*time.Millisecond {
			retryDelay *= 2
		}
	}
	return ErrTxConflict
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

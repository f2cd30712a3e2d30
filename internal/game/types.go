package game

import "time"

type ActionKind string

const (
	ActionShipFeatures     ActionKind = "ship_features"
	ActionPayDebt          ActionKind = "pay_debt"
	ActionObservability    ActionKind = "observability"
	ActionHire             ActionKind = "hire"
	ActionDefineSLOs       ActionKind = "define_slos"
	ActionChaosEngineering ActionKind = "chaos_engineering"
	ActionTeamBuilding     ActionKind = "team_building"
	ActionFundraise        ActionKind = "fundraise"
)

var ActionKinds = []ActionKind{
	ActionShipFeatures,
	ActionPayDebt,
	ActionObservability,
	ActionHire,
	ActionDefineSLOs,
	ActionChaosEngineering,
	ActionTeamBuilding,
	ActionFundraise,
}

func (k ActionKind) Valid() bool {
	for _, known := range ActionKinds {
		if k == known {
			return true
		}
	}
	return false
}

type EventKind string

const (
	EventTrafficSpike          EventKind = "traffic_spike"
	EventProductionOutage      EventKind = "production_outage"
	EventEngineerQuits         EventKind = "engineer_quits"
	EventSecurityVuln          EventKind = "security_vuln"
	EventCompetitorLaunch      EventKind = "competitor_launch"
	EventBoardMeeting          EventKind = "board_meeting"
	EventCloudIncident         EventKind = "cloud_incident"
	EventViralHNPost           EventKind = "viral_hn_post"
	EventComplianceRequirement EventKind = "compliance_requirement"
	EventQuietSprint           EventKind = "quiet_sprint"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
	SeverityInfo    Severity = "info"
)

type GameOverReason string

const (
	ReasonNone     GameOverReason = ""
	ReasonIPO      GameOverReason = "ipo"
	ReasonUptime   GameOverReason = "uptime"
	ReasonBankrupt GameOverReason = "bankrupt"
	ReasonMorale   GameOverReason = "morale"
	ReasonNoTeam   GameOverReason = "no_team"
)

// Company is one simulation instance. Callers load it, hand it to the
// Engine, and persist it again; the Engine never keeps a reference.
type Company struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Scenario string `json:"scenario"`

	Turn         int `json:"turn"`
	ActionPoints int `json:"action_points"`

	Budget             float64 `json:"budget"`
	Headcount          int     `json:"headcount"`
	TechDebt           float64 `json:"tech_debt"`
	Morale             float64 `json:"morale"`
	Uptime             float64 `json:"uptime"`
	Revenue            float64 `json:"revenue"`
	Customers          int     `json:"customers"`
	ObservabilityLevel int     `json:"observability_level"`
	OncallBurden       float64 `json:"oncall_burden"`

	SLODefined       bool `json:"slo_defined"`
	ChaosEngineering bool `json:"chaos_engineering"`

	GameOver       bool           `json:"game_over"`
	GameOverReason GameOverReason `json:"game_over_reason"`
	Score          int64          `json:"score"`

	LowUptimeStreak int `json:"low_uptime_streak"`
	FeaturePressure int `json:"feature_pressure"`

	TurnActions []ActionKind `json:"turn_actions"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Company) ARR() float64 {
	return c.Revenue * 12
}

func (c *Company) IPOReady() bool {
	return c.ARR() > IPOMinARR && c.Uptime > IPOMinUptime && c.Headcount > IPOMinHeadcount
}

func (c *Company) Alive() bool {
	return !c.GameOver
}

func (c *Company) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		Turn:               c.Turn,
		Budget:             c.Budget,
		Headcount:          c.Headcount,
		TechDebt:           c.TechDebt,
		Morale:             c.Morale,
		Uptime:             c.Uptime,
		Revenue:            c.Revenue,
		Customers:          c.Customers,
		ObservabilityLevel: c.ObservabilityLevel,
		SLODefined:         c.SLODefined,
		ChaosEngineering:   c.ChaosEngineering,
		OncallBurden:       c.OncallBurden,
		FeaturePressure:    c.FeaturePressure,
		LowUptimeStreak:    c.LowUptimeStreak,
		Score:              c.Score,
		ARR:                c.ARR(),
	}
}

type MetricsSnapshot struct {
	Turn               int     `json:"turn"`
	Budget             float64 `json:"budget"`
	Headcount          int     `json:"headcount"`
	TechDebt           float64 `json:"tech_debt"`
	Morale             float64 `json:"morale"`
	Uptime             float64 `json:"uptime"`
	Revenue            float64 `json:"revenue"`
	Customers          int     `json:"customers"`
	ObservabilityLevel int     `json:"observability_level"`
	SLODefined         bool    `json:"slo_defined"`
	ChaosEngineering   bool    `json:"chaos_engineering"`
	OncallBurden       float64 `json:"oncall_burden"`
	FeaturePressure    int     `json:"feature_pressure"`
	LowUptimeStreak    int     `json:"low_uptime_streak"`
	Score              int64   `json:"score"`
	ARR                float64 `json:"arr"`
}

type Event struct {
	Kind     EventKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Icon     string    `json:"icon"`
	Message  string    `json:"message"`
}

type ActionResult struct {
	Action   ActionKind `json:"action"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Refunded bool       `json:"refunded"`
}

// TurnRecord is the ledger entry written once per end-turn. It is never
// mutated after creation.
type TurnRecord struct {
	CompanyID  string          `json:"company_id"`
	TurnNumber int             `json:"turn_number"`
	Actions    []ActionKind    `json:"actions"`
	Events     []Event         `json:"events"`
	Metrics    MetricsSnapshot `json:"metrics"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ScoreRecord is written exactly once, when a company becomes terminal.
type ScoreRecord struct {
	ID                int64     `json:"id"`
	CompanyID         string    `json:"company_id"`
	CompanyName       string    `json:"company_name"`
	Scenario          string    `json:"scenario"`
	TurnsToCompletion int       `json:"turns_to_completion"`
	FinalScore        int64     `json:"final_score"`
	FinalRevenue      float64   `json:"final_revenue"`
	FinalUptime       float64   `json:"final_uptime"`
	FinalHeadcount    int       `json:"final_headcount"`
	Won               bool      `json:"won"`
	CompletedAt       time.Time `json:"completed_at"`
}

type TurnOutcome struct {
	Events []Event      `json:"events"`
	Turn   TurnRecord   `json:"turn"`
	Score  *ScoreRecord `json:"score,omitempty"`
}

type Leaderboard struct {
	Winners []ScoreRecord `json:"winners"`
	Recent  []ScoreRecord `json:"recent"`
	Shame   []ScoreRecord `json:"hall_of_shame"`
}

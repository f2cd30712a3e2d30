package game

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type Scenario struct {
	Key                string  `yaml:"key" json:"key"`
	Emoji              string  `yaml:"emoji" json:"emoji"`
	Label              string  `yaml:"label" json:"label"`
	Description        string  `yaml:"description" json:"description"`
	Budget             float64 `yaml:"budget" json:"budget"`
	Headcount          int     `yaml:"headcount" json:"headcount"`
	TechDebt           float64 `yaml:"tech_debt" json:"tech_debt"`
	Morale             float64 `yaml:"morale" json:"morale"`
	Uptime             float64 `yaml:"uptime" json:"uptime"`
	Revenue            float64 `yaml:"revenue" json:"revenue"`
	Customers          int     `yaml:"customers" json:"customers"`
	ObservabilityLevel int     `yaml:"observability_level" json:"observability_level"`
}

type ActionInfo struct {
	Key         ActionKind `yaml:"key" json:"key"`
	Emoji       string     `yaml:"emoji" json:"emoji"`
	Label       string     `yaml:"label" json:"label"`
	Description string     `yaml:"description" json:"description"`
}

// Catalog is the read-only scenario and action configuration. Build it
// once at startup; nothing mutates it afterwards.
type Catalog struct {
	Scenarios []Scenario   `yaml:"scenarios" json:"scenarios"`
	Actions   []ActionInfo `yaml:"actions" json:"actions"`

	scenarioByKey map[string]Scenario
	actionByKey   map[ActionKind]ActionInfo
}

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *Catalog
	defaultCatalogErr  error
)

func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = ParseCatalog(defaultCatalogYAML)
	})
	return defaultCatalog, defaultCatalogErr
}

// LoadCatalog reads a catalog override from path, or the embedded default
// when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cat, err := ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("catalog yaml: %w", err)
	}
	if err := cat.index(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Catalog) index() error {
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("catalog: no scenarios")
	}
	c.scenarioByKey = make(map[string]Scenario, len(c.Scenarios))
	for _, s := range c.Scenarios {
		if s.Key == "" {
			return fmt.Errorf("catalog: scenario without key")
		}
		if _, dup := c.scenarioByKey[s.Key]; dup {
			return fmt.Errorf("catalog: duplicate scenario %q", s.Key)
		}
		if err := s.validate(); err != nil {
			return err
		}
		c.scenarioByKey[s.Key] = s
	}

	c.actionByKey = make(map[ActionKind]ActionInfo, len(c.Actions))
	for _, a := range c.Actions {
		if !a.Key.Valid() {
			return fmt.Errorf("catalog: unknown action %q", a.Key)
		}
		if _, dup := c.actionByKey[a.Key]; dup {
			return fmt.Errorf("catalog: duplicate action %q", a.Key)
		}
		c.actionByKey[a.Key] = a
	}
	for _, k := range ActionKinds {
		if _, ok := c.actionByKey[k]; !ok {
			return fmt.Errorf("catalog: missing action %q", k)
		}
	}
	return nil
}

func (s Scenario) validate() error {
	switch {
	case s.Headcount < 0:
		return fmt.Errorf("catalog: scenario %q: negative headcount", s.Key)
	case s.Customers < 0:
		return fmt.Errorf("catalog: scenario %q: negative customers", s.Key)
	case s.Revenue < 0:
		return fmt.Errorf("catalog: scenario %q: negative revenue", s.Key)
	case s.TechDebt < 0 || s.TechDebt > 100:
		return fmt.Errorf("catalog: scenario %q: tech_debt out of range", s.Key)
	case s.Morale < 0 || s.Morale > 100:
		return fmt.Errorf("catalog: scenario %q: morale out of range", s.Key)
	case s.Uptime < MinUptime || s.Uptime > MaxUptime:
		return fmt.Errorf("catalog: scenario %q: uptime out of range", s.Key)
	case s.ObservabilityLevel < 0 || s.ObservabilityLevel > MaxObservability:
		return fmt.Errorf("catalog: scenario %q: observability_level out of range", s.Key)
	}
	return nil
}

func (c *Catalog) Scenario(key string) (Scenario, bool) {
	s, ok := c.scenarioByKey[key]
	return s, ok
}

func (c *Catalog) Action(key ActionKind) (ActionInfo, bool) {
	a, ok := c.actionByKey[key]
	return a, ok
}

func (c *Catalog) NewCompany(scenario, name string, now time.Time) (Company, error) {
	preset, ok := c.Scenario(strings.TrimSpace(scenario))
	if !ok {
		return Company{}, fmt.Errorf("%w %q", ErrUnknownScenario, scenario)
	}
	name, err := NormalizeCompanyName(name)
	if err != nil {
		return Company{}, err
	}
	return Company{
		ID:                 uuid.NewString(),
		Name:               name,
		Scenario:           preset.Key,
		Turn:               1,
		ActionPoints:       BaseActionPoints,
		Budget:             preset.Budget,
		Headcount:          preset.Headcount,
		TechDebt:           preset.TechDebt,
		Morale:             preset.Morale,
		Uptime:             preset.Uptime,
		Revenue:            preset.Revenue,
		Customers:          preset.Customers,
		ObservabilityLevel: preset.ObservabilityLevel,
		OncallBurden:       DefaultOncallBurden,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

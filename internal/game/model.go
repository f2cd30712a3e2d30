package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	MaxActionPoints     = 5
	BaseActionPoints    = 3
	MaxObservability    = 10
	DefaultOncallBurden = 20.0
	DefaultCompanyName  = "Untitled Corp"
	MaxCompanyNameRunes = 64

	MinUptime = 80.0
	MaxUptime = 100.0

	IPOMinARR       = 10_000_000.0
	IPOMinUptime    = 99.9
	IPOMinHeadcount = 50

	LowUptimeThreshold = 95.0
	LowUptimeLimit     = 3
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnknownScenario = fmt.Errorf("%w: unknown scenario", ErrValidation)
	ErrUnknownAction   = fmt.Errorf("%w: unknown action", ErrValidation)
	ErrInvalidName     = fmt.Errorf("%w: invalid company name", ErrValidation)
	ErrGameOver        = errors.New("game over")
	ErrNoActionPoints  = errors.New("no action points remaining this sprint")
	ErrCompanyNotFound = errors.New("company not found")
	ErrTxConflict      = errors.New("company was modified concurrently, retry")
)

// NormalizeCompanyName trims and NFC-normalizes a display name, falling
// back to DefaultCompanyName when blank.
func NormalizeCompanyName(name string) (string, error) {
	clean := strings.TrimSpace(norm.NFC.String(name))
	if clean == "" {
		return DefaultCompanyName, nil
	}
	if utf8.RuneCountInString(clean) > MaxCompanyNameRunes {
		return "", fmt.Errorf("%w: max %d characters", ErrInvalidName, MaxCompanyNameRunes)
	}
	for _, r := range clean {
		if unicode.IsControl(r) || unicode.Is(unicode.Bidi_Control, r) {
			return "", fmt.Errorf("%w: control characters", ErrInvalidName)
		}
	}
	return clean, nil
}

func ActionPointsFor(headcount int) int {
	points := BaseActionPoints
	if headcount >= 20 {
		points++
	}
	if headcount >= 50 {
		points++
	}
	if points > MaxActionPoints {
		return MaxActionPoints
	}
	return points
}

func (c *Company) clamp() {
	c.TechDebt = clampFloat(c.TechDebt, 0, 100)
	c.Morale = clampFloat(c.Morale, 0, 100)
	c.OncallBurden = clampFloat(c.OncallBurden, 0, 100)
	c.Uptime = clampFloat(c.Uptime, MinUptime, MaxUptime)
	c.Revenue = math.Max(c.Revenue, 0)
	if c.Customers < 0 {
		c.Customers = 0
	}
	if c.Headcount < 0 {
		c.Headcount = 0
	}
	c.ObservabilityLevel = clampInt(c.ObservabilityLevel, 0, MaxObservability)
	if c.FeaturePressure < 0 {
		c.FeaturePressure = 0
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FormatMoney renders an amount as $1.23M, $4.5K or $12.
func FormatMoney(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	switch {
	case amount >= 1_000_000:
		return fmt.Sprintf("%s$%sM", sign, trimFloat(roundTo(amount/1_000_000, 2)))
	case amount >= 1_000:
		return fmt.Sprintf("%s$%sK", sign, trimFloat(roundTo(amount/1_000, 1)))
	default:
		return fmt.Sprintf("%s$%.0f", sign, math.Round(amount))
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

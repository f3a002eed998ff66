// Package odds combines eight zone-quality factors into a graded, sized setup score.
package odds

import (
	"errors"
	"fmt"

	"SetupScanner/internal/domain/models"
)

var (
	ErrMissingFactor = errors.New("missing odds factor")
	ErrNoGrades      = errors.New("grade table is empty")
)

type Engine struct {
	factors      []Factor
	grades       []Grade
	tradeableMin int
	maxScore     int
}

// New validates that every named factor is present exactly once and the grade table is usable.
func New(factors []Factor, grades []Grade, tradeableMin int) (*Engine, error) {
	byName := make(map[string]Factor, len(factors))
	for _, f := range factors {
		if f == nil {
			continue
		}
		if _, dup := byName[f.Name()]; dup {
			return nil, fmt.Errorf("duplicate odds factor: %s", f.Name())
		}
		byName[f.Name()] = f
	}
	e := &Engine{tradeableMin: tradeableMin}
	for _, name := range models.FactorNames {
		f, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingFactor, name)
		}
		e.factors = append(e.factors, f)
		e.maxScore += f.Max()
	}
	if len(grades) == 0 {
		return nil, ErrNoGrades
	}
	e.grades = sortedGrades(grades)
	return e, nil
}

// NewFromConfig builds the table-driven factors, replacing any with the given overrides by name.
// Nil overrides are ignored.
func NewFromConfig(cfg Config, overrides ...Factor) (*Engine, error) {
	factors, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		if o == nil {
			continue
		}
		for i, f := range factors {
			if f.Name() == o.Name() {
				factors[i] = o
			}
		}
	}
	return New(factors, cfg.Grades, cfg.TradeableMin)
}

func (e *Engine) MaxScore() int { return e.maxScore }

// Calculate scores a zone against market context.
func (e *Engine) Calculate(zone models.ZoneData, market models.MarketData) models.OddsScoreResult {
	res := models.OddsScoreResult{
		Factors:  make(map[string]int, len(e.factors)),
		MaxScore: e.maxScore,
	}
	total := 0
	for _, f := range e.factors {
		s := clamp(f.Score(zone, market), 0, f.Max())
		res.Factors[f.Name()] = s
		total += s
	}
	res.TotalScore = clamp(total, 0, e.maxScore)

	g := e.grade(res.TotalScore)
	res.Grade = g.Name
	res.PositionSizePercent = g.PositionSize
	res.Advice = g.Advice
	res.Tradeable = res.TotalScore >= e.tradeableMin
	return res
}

func (e *Engine) grade(total int) Grade {
	for _, g := range e.grades {
		if total >= g.MinScore {
			return g
		}
	}
	return e.grades[len(e.grades)-1]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

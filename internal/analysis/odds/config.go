package odds

import (
	"fmt"
	"os"
	"sort"

	"SetupScanner/internal/domain/models"

	"gopkg.in/yaml.v3"
)

// FactorConfig is one factor's scoring table. Neutral defaults to Max/2.
type FactorConfig struct {
	Max     int      `yaml:"max"`
	Neutral *int     `yaml:"neutral,omitempty"`
	Buckets []Bucket `yaml:"buckets"`
}

// Grade maps a minimum total score to sizing advice.
type Grade struct {
	Name         string  `yaml:"grade"`
	MinScore     int     `yaml:"min_score"`
	PositionSize float64 `yaml:"position_size"`
	Advice       string  `yaml:"advice"`
}

type Config struct {
	Factors      map[string]FactorConfig `yaml:"factors"`
	Grades       []Grade                 `yaml:"grades"`
	TradeableMin int                     `yaml:"tradeable_min"`
}

// configFile is the YAML shape; a nil TradeableMin means the key was absent.
type configFile struct {
	Factors      map[string]FactorConfig `yaml:"factors"`
	Grades       []Grade                 `yaml:"grades"`
	TradeableMin *int                    `yaml:"tradeable_min"`
}

func f64(v float64) *float64 { return &v }

// DefaultConfig is the built-in table: 12 points across eight factors.
func DefaultConfig() Config {
	return Config{
		Factors: map[string]FactorConfig{
			models.FactorDeparture: {Max: 2, Buckets: []Bucket{
				{Min: f64(2.0), Points: 2},
				{Min: f64(1.2), Points: 1},
			}},
			models.FactorTimeAtLevel: {Max: 1, Buckets: []Bucket{
				{Max: f64(3), Points: 1},
			}},
			models.FactorFreshness: {Max: 2, Buckets: []Bucket{
				{Max: f64(0), Points: 2},
				{Max: f64(1), Points: 1},
			}},
			models.FactorProfitMargin: {Max: 2, Buckets: []Bucket{
				{Min: f64(3), Points: 2},
				{Min: f64(2), Points: 1},
			}},
			models.FactorTrendAlignment: {Max: 1, Buckets: []Bucket{
				{Min: f64(1), Points: 1},
			}},
			models.FactorOrigin: {Max: 1, Buckets: []Bucket{
				{Min: f64(1), Points: 1},
			}},
			models.FactorArrival: {Max: 1, Buckets: []Bucket{
				{Min: f64(1.5), Points: 1},
			}},
			models.FactorRiskReward: {Max: 2, Buckets: []Bucket{
				{Min: f64(3), Points: 2},
				{Min: f64(2), Points: 1},
			}},
		},
		Grades: []Grade{
			{Name: "A+", MinScore: 11, PositionSize: 2.0, Advice: "High-probability setup, full size"},
			{Name: "A", MinScore: 9, PositionSize: 1.5, Advice: "Strong setup, standard size"},
			{Name: "B", MinScore: 7, PositionSize: 1.0, Advice: "Acceptable setup, reduced size"},
			{Name: "C", MinScore: 5, PositionSize: 0.5, Advice: "Weak setup, paper trade or skip"},
			{Name: "D", MinScore: 0, PositionSize: 0, Advice: "Do not trade"},
		},
		TradeableMin: 7,
	}
}

// LoadConfig reads an odds table from YAML. Factors and grades present in the file replace the
// defaults; absent ones keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read odds config: %w", err)
	}
	var file configFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return cfg, fmt.Errorf("parse odds config: %w", err)
	}
	for name, fc := range file.Factors {
		cfg.Factors[name] = fc
	}
	if len(file.Grades) > 0 {
		cfg.Grades = file.Grades
	}
	if file.TradeableMin != nil {
		cfg.TradeableMin = *file.TradeableMin
	}
	return cfg, nil
}

// Build turns the tables into factor calculators in FactorNames order.
func (c Config) Build() ([]Factor, error) {
	out := make([]Factor, 0, len(models.FactorNames))
	for _, name := range models.FactorNames {
		fc, ok := c.Factors[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingFactor, name)
		}
		if fc.Max <= 0 {
			return nil, fmt.Errorf("factor %s: max must be positive", name)
		}
		neutral := fc.Max / 2
		if fc.Neutral != nil {
			neutral = *fc.Neutral
		}
		out = append(out, NewBucketFactor(name, fc.Max, neutral, fc.Buckets, inputs[name]))
	}
	return out, nil
}

// sortedGrades returns grades from the highest threshold down.
func sortedGrades(grades []Grade) []Grade {
	out := append([]Grade(nil), grades...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinScore > out[j].MinScore })
	return out
}

package scoring

import (
	"math"

	"github.com/fadilmartias/resume-pipeline/internal/config"
)

const (
	CategorySpecialization = "specialization"
	CategoryHardSkills     = "hard_skills"
	CategoryExperience     = "experience"
	CategoryEducation      = "education"
	CategoryAboutMe        = "about_me"
	CategorySoftSkills     = "soft_skills"
	CategoryTechStack      = "tech_stack"
	CategoryLanguages      = "languages"
	CategoryLevel          = "level"

	defaultCategoryMax = 100
)

// Categories lists the scored criteria in prompt order.
var Categories = []string{
	CategorySpecialization,
	CategoryHardSkills,
	CategoryExperience,
	CategoryEducation,
	CategoryAboutMe,
	CategorySoftSkills,
	CategoryTechStack,
	CategoryLanguages,
	CategoryLevel,
}

var weightedMaxes = map[string]int{
	CategorySpecialization: 150,
	CategoryHardSkills:     200,
	CategoryExperience:     150,
	CategoryEducation:      100,
	CategoryAboutMe:        50,
	CategorySoftSkills:     100,
	CategoryTechStack:      150,
	CategoryLanguages:      50,
	CategoryLevel:          50,
}

// Calibration holds the transforms applied to raw model scores.
type Calibration struct {
	MatchDampenThreshold    float64
	MatchDampenFactor       float64
	CategoryDampenThreshold float64
	CategoryDampenFactor    float64
	// CategoryMax caps each category; absent categories use 100.
	CategoryMax       map[string]int
	ReputationVariant string
}

func DefaultCalibration() Calibration {
	return Calibration{
		MatchDampenThreshold:    80,
		MatchDampenFactor:       0.8,
		CategoryDampenThreshold: 70,
		CategoryDampenFactor:    0.85,
		CategoryMax:             weightedMaxes,
		ReputationVariant:       config.ReputationAllCategories,
	}
}

func CalibrationFromConfig(cfg *config.ScoringConfig) Calibration {
	cal := Calibration{
		MatchDampenThreshold:    cfg.MatchDampenThreshold,
		MatchDampenFactor:       cfg.MatchDampenFactor,
		CategoryDampenThreshold: cfg.CategoryDampenThreshold,
		CategoryDampenFactor:    cfg.CategoryDampenFactor,
		ReputationVariant:       cfg.ReputationVariant,
	}
	if cfg.WeightedCategories {
		cal.CategoryMax = weightedMaxes
	}
	return cal
}

func (c Calibration) maxFor(category string) int {
	if m, ok := c.CategoryMax[category]; ok && m > 0 {
		return m
	}
	return defaultCategoryMax
}

// match dampens over-confident overall scores. Result is in [0, 100].
func (c Calibration) match(raw float64) float64 {
	raw = clamp(raw, 0, 100)
	if raw > c.MatchDampenThreshold {
		raw *= c.MatchDampenFactor
	}
	return math.Round(raw*100) / 100
}

// category maps a 0..100 raw score onto the category's scale, floored.
func (c Calibration) category(name string, raw float64) int {
	raw = clamp(raw, 0, 100)
	if raw > c.CategoryDampenThreshold {
		raw *= c.CategoryDampenFactor
	}
	return int(math.Floor(raw*float64(c.maxFor(name))/100 + 1e-9))
}

func (c Calibration) countsTowardReputation(category string) bool {
	if c.ReputationVariant == config.ReputationCoreOnly {
		return category != CategoryAboutMe && category != CategorySoftSkills
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

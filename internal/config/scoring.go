package config

import (
	"sync"
	"time"
)

const (
	ReputationAllCategories = "all"
	ReputationCoreOnly      = "core"
)

type ScoringConfig struct {
	MatchDampenThreshold    float64
	MatchDampenFactor       float64
	CategoryDampenThreshold float64
	CategoryDampenFactor    float64
	ReputationVariant       string
	WeightedCategories      bool
	Attempts                int
	BackoffStep             time.Duration
	CacheTTL                time.Duration
}

var (
	scoringConfig *ScoringConfig
	scoringOnce   sync.Once
)

func LoadScoringConfig() *ScoringConfig {
	scoringOnce.Do(func() {
		scoringConfig = &ScoringConfig{
			MatchDampenThreshold:    getEnvFloat("SCORING_MATCH_DAMPEN_THRESHOLD", 80),
			MatchDampenFactor:       getEnvFloat("SCORING_MATCH_DAMPEN_FACTOR", 0.8),
			CategoryDampenThreshold: getEnvFloat("SCORING_CATEGORY_DAMPEN_THRESHOLD", 70),
			CategoryDampenFactor:    getEnvFloat("SCORING_CATEGORY_DAMPEN_FACTOR", 0.85),
			ReputationVariant:       getEnvString("SCORING_REPUTATION_VARIANT", ReputationAllCategories),
			WeightedCategories:      getEnvBool("SCORING_WEIGHTED_CATEGORIES", true),
			Attempts:                getEnvInt("SCORING_ATTEMPTS", 3),
			BackoffStep:             time.Duration(getEnvInt("SCORING_BACKOFF_SECONDS", 2)) * time.Second,
			CacheTTL:                time.Duration(getEnvInt("SCORING_CACHE_TTL_HOURS", 24)) * time.Hour,
		}
	})
	return scoringConfig
}

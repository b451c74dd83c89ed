package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MatchAnalysis is the persisted score of one candidate against one vacancy.
// At most one row exists per pair.
type MatchAnalysis struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VacancyID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_analysis_pair,priority:1" json:"vacancy_id"`
	CandidateID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_analysis_pair,priority:2;index" json:"candidate_id"`
	MatchScore          float64        `gorm:"type:float;default:0" json:"match_score"`
	ReputationScore     int            `gorm:"default:0;index" json:"reputation_score"`
	SpecializationScore int            `gorm:"default:0" json:"specialization_score"`
	HardSkillsScore     int            `gorm:"default:0" json:"hard_skills_score"`
	ExperienceScore     int            `gorm:"default:0" json:"experience_score"`
	EducationScore      int            `gorm:"default:0" json:"education_score"`
	AboutMeScore        int            `gorm:"default:0" json:"about_me_score"`
	SoftSkillsScore     int            `gorm:"default:0" json:"soft_skills_score"`
	TechStackScore      int            `gorm:"default:0" json:"tech_stack_score"`
	LanguagesScore      int            `gorm:"default:0" json:"languages_score"`
	LevelScore          int            `gorm:"default:0" json:"level_score"`
	TopStrengths        pq.StringArray `gorm:"type:text[]" json:"top_strengths"`
	Feedback            string         `gorm:"type:text" json:"feedback"`
	DataFingerprint     string         `gorm:"type:varchar(64)" json:"data_fingerprint"`
	Vacancy             *Vacancy       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Candidate           *Candidate     `gorm:"constraint:OnDelete:CASCADE" json:"candidate,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}

func (a *MatchAnalysis) TableName() string {
	return "match_analyses"
}

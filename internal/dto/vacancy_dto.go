package dto

import (
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
)

type CreateVacancyRequest struct {
	Title            string   `json:"title"`
	Specialization   string   `json:"specialization"`
	ExperienceYears  int      `json:"experience_years"`
	Level            string   `json:"level"`
	HardSkills       []string `json:"hard_skills"`
	TechStack        []string `json:"tech_stack"`
	SoftSkills       []string `json:"soft_skills"`
	Requirements     string   `json:"requirements"`
	Responsibilities string   `json:"responsibilities"`
}

func (r CreateVacancyRequest) ToModel() *model.Vacancy {
	return &model.Vacancy{
		Title:            r.Title,
		Specialization:   r.Specialization,
		ExperienceYears:  r.ExperienceYears,
		Level:            model.Level(r.Level),
		HardSkills:       r.HardSkills,
		TechStack:        r.TechStack,
		SoftSkills:       r.SoftSkills,
		Requirements:     r.Requirements,
		Responsibilities: r.Responsibilities,
	}
}

// AnalyzeRequest limits analysis to the listed candidates; empty means all.
type AnalyzeRequest struct {
	CandidateIDs []uuid.UUID `json:"candidate_ids"`
}

type ShortlistItemDTO struct {
	CandidateID    uuid.UUID   `json:"candidate_id"`
	Name           string      `json:"name"`
	Specialization string      `json:"specialization"`
	Level          model.Level `json:"level"`
	Similarity     float64     `json:"similarity"`
}

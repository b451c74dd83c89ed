package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

type Vacancy struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title            string           `gorm:"type:varchar(255)" json:"title"`
	Specialization   string           `gorm:"type:varchar(100)" json:"specialization"`
	ExperienceYears  int              `gorm:"default:0" json:"experience_years"`
	Level            Level            `gorm:"type:varchar(20)" json:"level"`
	HardSkills       pq.StringArray   `gorm:"type:text[]" json:"hard_skills"`
	TechStack        pq.StringArray   `gorm:"type:text[]" json:"tech_stack"`
	SoftSkills       pq.StringArray   `gorm:"type:text[]" json:"soft_skills"`
	Requirements     string           `gorm:"type:text" json:"requirements"`
	Responsibilities string           `gorm:"type:text" json:"responsibilities"`
	Embedding        *pgvector.Vector `gorm:"type:vector(3072)" json:"-"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (v *Vacancy) TableName() string {
	return "vacancies"
}

// EmbeddingText is the text embedded for similarity search.
func (v *Vacancy) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(v.Title)
	b.WriteString("\n")
	b.WriteString(v.Specialization)
	b.WriteString("\n")
	b.WriteString(strings.Join(v.HardSkills, ", "))
	b.WriteString("\n")
	b.WriteString(strings.Join(v.TechStack, ", "))
	b.WriteString("\n")
	b.WriteString(v.Requirements)
	b.WriteString("\n")
	b.WriteString(v.Responsibilities)
	return strings.TrimSpace(b.String())
}

// EmbeddingText is the text embedded for similarity search.
func (c *Candidate) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(c.Specialization)
	b.WriteString("\n")
	b.WriteString(string(c.Level))
	b.WriteString("\n")
	b.WriteString(strings.Join(c.HardSkills, ", "))
	b.WriteString("\n")
	b.WriteString(strings.Join(c.TechStack, ", "))
	b.WriteString("\n")
	b.WriteString(c.AboutMe)
	return strings.TrimSpace(b.String())
}

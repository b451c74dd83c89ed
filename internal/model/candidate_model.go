package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type Level string

const (
	LevelNoExperience Level = "no_experience"
	LevelIntern       Level = "intern"
	LevelJunior       Level = "junior"
	LevelMiddle       Level = "middle"
	LevelSenior       Level = "senior"
	LevelLead         Level = "lead"
)

var levelAliases = []struct {
	alias string
	level Level
}{
	{"no_experience", LevelNoExperience},
	{"no experience", LevelNoExperience},
	{"без опыта", LevelNoExperience},
	{"team lead", LevelLead},
	{"teamlead", LevelLead},
	{"lead", LevelLead},
	{"лид", LevelLead},
	{"senior", LevelSenior},
	{"сеньор", LevelSenior},
	{"middle", LevelMiddle},
	{"мидл", LevelMiddle},
	{"junior", LevelJunior},
	{"джуниор", LevelJunior},
	{"intern", LevelIntern},
	{"стажер", LevelIntern},
	{"стажёр", LevelIntern},
}

// ParseLevel maps free-text seniority to a Level, defaulting to no_experience.
// Exact matches win; otherwise the most senior alias contained in s is used.
func ParseLevel(s string) Level {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, a := range levelAliases {
		if key == a.alias {
			return a.level
		}
	}
	for _, a := range levelAliases {
		if strings.Contains(key, a.alias) {
			return a.level
		}
	}
	return LevelNoExperience
}

type Education struct {
	Institution    string `json:"institution" mapstructure:"institution"`
	Faculty        string `json:"faculty" mapstructure:"faculty"`
	Degree         string `json:"degree" mapstructure:"degree"`
	GraduationYear int    `json:"graduation_year" mapstructure:"graduation_year"`
}

type WorkEntry struct {
	Company          string   `json:"company" mapstructure:"company"`
	Position         string   `json:"position" mapstructure:"position"`
	StartDate        string   `json:"start_date" mapstructure:"start_date"`
	EndDate          string   `json:"end_date,omitempty" mapstructure:"end_date"`
	Responsibilities []string `json:"responsibilities" mapstructure:"responsibilities"`
	Achievements     []string `json:"achievements" mapstructure:"achievements"`
}

type WorkHistory []WorkEntry

func (w WorkHistory) Value() (driver.Value, error) {
	if w == nil {
		return "[]", nil
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (w *WorkHistory) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*w = WorkHistory{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("work history: unsupported type %T", src)
	}
	var out WorkHistory
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	if out == nil {
		out = WorkHistory{}
	}
	*w = out
	return nil
}

// CandidateRecord is the canonical parsed resume. Lists are never nil.
type CandidateRecord struct {
	FirstName         string      `json:"first_name"`
	LastName          string      `json:"last_name"`
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	Phone             string      `json:"phone"`
	BirthDate         string      `json:"birth_date"`
	Gender            string      `json:"gender"`
	Country           string      `json:"country"`
	Region            string      `json:"region"`
	SocialNetworks    []string    `json:"social_networks"`
	AboutMe           string      `json:"about_me"`
	Specialization    string      `json:"specialization"`
	ExperienceYears   int         `json:"experience_years"`
	Level             Level       `json:"level"`
	DesiredSalary     float64     `json:"desired_salary"`
	CurrentlyEmployed bool        `json:"currently_employed"`
	TechStack         []string    `json:"tech_stack"`
	HardSkills        []string    `json:"hard_skills"`
	SoftSkills        []string    `json:"soft_skills"`
	Languages         []string    `json:"languages"`
	Certifications    []string    `json:"certifications"`
	Education         Education   `json:"education"`
	WorkExperience    WorkHistory `json:"work_experience"`
	RawText           string      `json:"raw_text"`
}

const birthDateLayout = "2006-01-02"

var defaultBirthDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type Candidate struct {
	ID                uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FirstName         string           `gorm:"type:varchar(100)" json:"first_name"`
	LastName          string           `gorm:"type:varchar(100)" json:"last_name"`
	Name              string           `gorm:"type:varchar(200)" json:"name"`
	Email             string           `gorm:"type:varchar(100);index" json:"email"`
	Phone             string           `gorm:"type:varchar(20)" json:"phone"`
	BirthDate         time.Time        `gorm:"type:date" json:"birth_date"`
	Gender            string           `gorm:"type:varchar(20)" json:"gender"`
	Country           string           `gorm:"type:varchar(100)" json:"country"`
	Region            string           `gorm:"type:varchar(100)" json:"region"`
	SocialNetworks    pq.StringArray   `gorm:"type:text[]" json:"social_networks"`
	AboutMe           string           `gorm:"type:text" json:"about_me"`
	Specialization    string           `gorm:"type:varchar(100);index" json:"specialization"`
	ExperienceYears   int              `gorm:"default:0" json:"experience_years"`
	Level             Level            `gorm:"type:varchar(20)" json:"level"`
	DesiredSalary     float64          `gorm:"type:float;default:0" json:"desired_salary"`
	CurrentlyEmployed bool             `json:"currently_employed"`
	TechStack         pq.StringArray   `gorm:"type:text[]" json:"tech_stack"`
	HardSkills        pq.StringArray   `gorm:"type:text[]" json:"hard_skills"`
	SoftSkills        pq.StringArray   `gorm:"type:text[]" json:"soft_skills"`
	Languages         pq.StringArray   `gorm:"type:text[]" json:"languages"`
	Certifications    pq.StringArray   `gorm:"type:text[]" json:"certifications"`
	Institution       string           `gorm:"type:varchar(255)" json:"institution"`
	Faculty           string           `gorm:"type:varchar(255)" json:"faculty"`
	Degree            string           `gorm:"type:varchar(100)" json:"degree"`
	GraduationYear    int              `gorm:"default:0" json:"graduation_year"`
	WorkHistory       WorkHistory      `gorm:"type:jsonb" json:"work_history"`
	Embedding         *pgvector.Vector `gorm:"type:vector(3072)" json:"-"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (c *Candidate) TableName() string {
	return "candidates"
}

// NewCandidateFromRecord builds an unsaved, normalized candidate. An unparsable
// birth date falls back to 2000-01-01.
func NewCandidateFromRecord(rec *CandidateRecord) *Candidate {
	birth, err := time.Parse(birthDateLayout, strings.TrimSpace(rec.BirthDate))
	if err != nil {
		birth = defaultBirthDate
	}
	c := &Candidate{
		FirstName:         rec.FirstName,
		LastName:          rec.LastName,
		Name:              rec.Name,
		Email:             rec.Email,
		Phone:             rec.Phone,
		BirthDate:         birth,
		Gender:            rec.Gender,
		Country:           rec.Country,
		Region:            rec.Region,
		SocialNetworks:    rec.SocialNetworks,
		AboutMe:           rec.AboutMe,
		Specialization:    rec.Specialization,
		ExperienceYears:   rec.ExperienceYears,
		Level:             rec.Level,
		DesiredSalary:     rec.DesiredSalary,
		CurrentlyEmployed: rec.CurrentlyEmployed,
		TechStack:         rec.TechStack,
		HardSkills:        rec.HardSkills,
		SoftSkills:        rec.SoftSkills,
		Languages:         rec.Languages,
		Certifications:    rec.Certifications,
		Institution:       rec.Education.Institution,
		Faculty:           rec.Education.Faculty,
		Degree:            rec.Education.Degree,
		GraduationYear:    rec.Education.GraduationYear,
		WorkHistory:       rec.WorkExperience,
	}
	c.Normalize()
	return c
}

// Normalize trims and de-duplicates the skill sets and replaces nil collections.
func (c *Candidate) Normalize() {
	c.SocialNetworks = NormalizeSet(c.SocialNetworks)
	c.TechStack = NormalizeSet(c.TechStack)
	c.HardSkills = NormalizeSet(c.HardSkills)
	c.SoftSkills = NormalizeSet(c.SoftSkills)
	c.Languages = NormalizeSet(c.Languages)
	c.Certifications = NormalizeSet(c.Certifications)
	if c.WorkHistory == nil {
		c.WorkHistory = WorkHistory{}
	}
	if c.Level == "" {
		c.Level = LevelNoExperience
	}
}

func (c *Candidate) BeforeSave(tx *gorm.DB) error {
	c.Normalize()
	return nil
}

// EducationSummary renders education as one line for prompts and fingerprints.
func (c *Candidate) EducationSummary() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.Degree, c.Institution, c.Faculty} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if c.GraduationYear > 0 {
		parts = append(parts, fmt.Sprintf("%d", c.GraduationYear))
	}
	return strings.Join(parts, ", ")
}

// NormalizeSet trims entries, drops blanks and case-insensitive duplicates,
// keeping first occurrence order. Never returns nil.
func NormalizeSet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

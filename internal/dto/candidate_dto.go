package dto

import (
	"github.com/fadilmartias/resume-pipeline/internal/model"
)

// UpdateCandidateRequest is a partial edit. Nil fields are left as stored.
type UpdateCandidateRequest struct {
	Name              *string   `json:"name"`
	Email             *string   `json:"email"`
	Phone             *string   `json:"phone"`
	Country           *string   `json:"country"`
	Region            *string   `json:"region"`
	AboutMe           *string   `json:"about_me"`
	Specialization    *string   `json:"specialization"`
	ExperienceYears   *int      `json:"experience_years"`
	Level             *string   `json:"level"`
	DesiredSalary     *float64  `json:"desired_salary"`
	CurrentlyEmployed *bool     `json:"currently_employed"`
	TechStack         *[]string `json:"tech_stack"`
	HardSkills        *[]string `json:"hard_skills"`
	SoftSkills        *[]string `json:"soft_skills"`
	Languages         *[]string `json:"languages"`
	Certifications    *[]string `json:"certifications"`
}

func (r UpdateCandidateRequest) Apply(c *model.Candidate) {
	setString(&c.Name, r.Name)
	setString(&c.Email, r.Email)
	setString(&c.Phone, r.Phone)
	setString(&c.Country, r.Country)
	setString(&c.Region, r.Region)
	setString(&c.AboutMe, r.AboutMe)
	setString(&c.Specialization, r.Specialization)
	if r.ExperienceYears != nil {
		c.ExperienceYears = max(*r.ExperienceYears, 0)
	}
	if r.Level != nil {
		c.Level = model.ParseLevel(*r.Level)
	}
	if r.DesiredSalary != nil {
		c.DesiredSalary = *r.DesiredSalary
	}
	if r.CurrentlyEmployed != nil {
		c.CurrentlyEmployed = *r.CurrentlyEmployed
	}
	if r.TechStack != nil {
		c.TechStack = *r.TechStack
	}
	if r.HardSkills != nil {
		c.HardSkills = *r.HardSkills
	}
	if r.SoftSkills != nil {
		c.SoftSkills = *r.SoftSkills
	}
	if r.Languages != nil {
		c.Languages = *r.Languages
	}
	if r.Certifications != nil {
		c.Certifications = *r.Certifications
	}
	c.Normalize()
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

package scoring

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/fadilmartias/resume-pipeline/internal/model"
)

//go:embed prompt.md
var promptTemplate string

const systemPrompt = "You are an HR analyst specializing in assessing how well candidates match vacancies."

func buildPrompt(v *model.Vacancy, c *model.Candidate) string {
	prompt := strings.ReplaceAll(promptTemplate, "{{VACANCY}}", vacancyBlock(v))
	return strings.ReplaceAll(prompt, "{{CANDIDATE}}", candidateBlock(c))
}

func vacancyBlock(v *model.Vacancy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Title: %s\n", v.Title)
	fmt.Fprintf(&b, "- Required specialization: %s\n", v.Specialization)
	fmt.Fprintf(&b, "- Required experience: %d years\n", v.ExperienceYears)
	fmt.Fprintf(&b, "- Required hard skills: %s\n", strings.Join(v.HardSkills, ", "))
	fmt.Fprintf(&b, "- Required level: %s", v.Level)
	if len(v.TechStack) > 0 {
		fmt.Fprintf(&b, "\n- Tech stack: %s", strings.Join(v.TechStack, ", "))
	}
	if r := strings.TrimSpace(v.Requirements); r != "" {
		fmt.Fprintf(&b, "\n- Requirements: %s", r)
	}
	if r := strings.TrimSpace(v.Responsibilities); r != "" {
		fmt.Fprintf(&b, "\n- Responsibilities: %s", r)
	}
	return b.String()
}

func candidateBlock(c *model.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Specialization: %s\n", c.Specialization)
	fmt.Fprintf(&b, "- Work experience: %d years\n", c.ExperienceYears)
	fmt.Fprintf(&b, "- Hard skills: %s\n", strings.Join(c.HardSkills, ", "))
	fmt.Fprintf(&b, "- Level: %s\n", c.Level)
	fmt.Fprintf(&b, "- About me: %s\n", c.AboutMe)
	fmt.Fprintf(&b, "- Education: %s\n", c.EducationSummary())
	fmt.Fprintf(&b, "- Languages: %s\n", strings.Join(c.Languages, ", "))
	fmt.Fprintf(&b, "- Tech stack: %s\n", strings.Join(c.TechStack, ", "))
	fmt.Fprintf(&b, "- Soft skills: %s", strings.Join(c.SoftSkills, ", "))
	return b.String()
}

package cache

import (
	"testing"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
)

func sampleCandidate() *model.Candidate {
	return &model.Candidate{
		ID:              uuid.New(),
		Name:            "Anna",
		Specialization:  "Go Developer",
		ExperienceYears: 5,
		Level:           model.LevelSenior,
		HardSkills:      []string{"Go", "SQL"},
		TechStack:       []string{"Kafka", "PostgreSQL"},
		Languages:       []string{"English"},
		Degree:          "BSc",
	}
}

func TestFingerprintIsStable(t *testing.T) {
	c := sampleCandidate()
	first := Fingerprint(c)
	if first != Fingerprint(c) {
		t.Fatalf("fingerprint changed between calls")
	}
	if len(first) != 64 {
		t.Fatalf("fingerprint length = %d, want 64", len(first))
	}
}

func TestFingerprintIgnoresOrderAndUntrackedFields(t *testing.T) {
	a := sampleCandidate()
	b := sampleCandidate()
	b.HardSkills = []string{"sql", "Go"}
	b.Name = "Someone Else"
	b.Email = "x@example.com"
	b.Phone = "+70000000000"

	if Fingerprint(a) != Fingerprint(b) {
		t.Fatalf("untracked or reordered fields changed the fingerprint")
	}
}

func TestFingerprintTracksScoredFields(t *testing.T) {
	mutations := map[string]func(c *model.Candidate){
		"specialization": func(c *model.Candidate) { c.Specialization = "QA" },
		"experience":     func(c *model.Candidate) { c.ExperienceYears++ },
		"hard_skills":    func(c *model.Candidate) { c.HardSkills = append(c.HardSkills, "Rust") },
		"level":          func(c *model.Candidate) { c.Level = model.LevelJunior },
		"about_me":       func(c *model.Candidate) { c.AboutMe = "hello" },
		"education":      func(c *model.Candidate) { c.Institution = "MIT" },
		"languages":      func(c *model.Candidate) { c.Languages = nil },
		"tech_stack":     func(c *model.Candidate) { c.TechStack = []string{"Redis"} },
		"soft_skills":    func(c *model.Candidate) { c.SoftSkills = []string{"Leadership"} },
	}
	base := Fingerprint(sampleCandidate())
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			c := sampleCandidate()
			mutate(c)
			if Fingerprint(c) == base {
				t.Fatalf("changing %s kept the fingerprint", name)
			}
		})
	}
}

func TestAnalysisCacheTTL(t *testing.T) {
	c := NewAnalysisCache(time.Hour)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	a := &model.MatchAnalysis{VacancyID: uuid.New(), CandidateID: uuid.New(), MatchScore: 50}
	c.Set(a)

	got, ok := c.Get(a.VacancyID, a.CandidateID)
	if !ok || got.MatchScore != 50 {
		t.Fatalf("Get() = %v, %v", got, ok)
	}
	got.MatchScore = 99
	if again, _ := c.Get(a.VacancyID, a.CandidateID); again.MatchScore != 50 {
		t.Fatalf("cached entry was mutated through the returned copy")
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get(a.VacancyID, a.CandidateID); ok {
		t.Fatalf("expired entry returned")
	}
	if n := c.CleanExpired(); n != 1 || c.Len() != 0 {
		t.Fatalf("CleanExpired() = %d, Len() = %d", n, c.Len())
	}
}

func TestAnalysisCacheEvictCandidate(t *testing.T) {
	c := NewAnalysisCache(time.Hour)
	candidate := uuid.New()
	other := uuid.New()
	c.Set(&model.MatchAnalysis{VacancyID: uuid.New(), CandidateID: candidate})
	c.Set(&model.MatchAnalysis{VacancyID: uuid.New(), CandidateID: candidate})
	c.Set(&model.MatchAnalysis{VacancyID: uuid.New(), CandidateID: other})

	if n := c.EvictCandidate(candidate); n != 2 {
		t.Fatalf("EvictCandidate() = %d, want 2", n)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

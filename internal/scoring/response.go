package scoring

import (
	"sort"
	"strconv"
	"strings"

	"github.com/fadilmartias/resume-pipeline/internal/model"
)

const (
	keyMatchScore = "match_score"
	keyFeedback   = "feedback"
	topStrengths  = 3
)

type CategoryScore struct {
	Name  string
	Score int
}

// Result is a parsed and calibrated scoring response.
type Result struct {
	MatchScore float64
	// Categories holds recognized categories in the order the model emitted them.
	Categories []CategoryScore
	Feedback   string
	// Recognized counts labeled lines that mapped to a known key.
	Recognized int
}

// ParseResponse reads the labeled-line format. Everything after the FEEDBACK
// line belongs to the feedback, and unreadable numbers score zero.
func ParseResponse(raw string, cal Calibration) *Result {
	res := &Result{}
	known := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		known[c] = true
	}
	index := make(map[string]int, len(Categories))

	var feedback []string
	inFeedback := false
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if inFeedback {
			if t := strings.TrimSpace(line); t != "" {
				feedback = append(feedback, t)
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = normalizeKey(key)
		switch {
		case key == keyFeedback:
			inFeedback = true
			res.Recognized++
			if t := strings.TrimSpace(value); t != "" {
				feedback = append(feedback, t)
			}
		case key == keyMatchScore:
			res.Recognized++
			res.MatchScore = cal.match(parseNumber(value))
		case known[key]:
			res.Recognized++
			score := cal.category(key, parseNumber(value))
			if i, seen := index[key]; seen {
				res.Categories[i].Score = score
				continue
			}
			index[key] = len(res.Categories)
			res.Categories = append(res.Categories, CategoryScore{Name: key, Score: score})
		}
	}
	res.Feedback = strings.Join(feedback, " ")
	return res
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.Trim(strings.TrimSpace(key), "*-#` "))
	return strings.ReplaceAll(key, " ", "_")
}

// parseNumber keeps digits and dots, so "85%" reads as 85. Anything else
// unreadable is zero.
func parseNumber(value string) float64 {
	var b strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

func (r *Result) Score(category string) int {
	for _, c := range r.Categories {
		if c.Name == category {
			return c.Score
		}
	}
	return 0
}

func (r *Result) Reputation(cal Calibration) int {
	total := 0
	for _, c := range r.Categories {
		if cal.countsTowardReputation(c.Name) {
			total += c.Score
		}
	}
	return total
}

// TopStrengths returns up to three categories with the highest positive
// score; ties keep emission order.
func (r *Result) TopStrengths() []string {
	ranked := make([]CategoryScore, 0, len(r.Categories))
	for _, c := range r.Categories {
		if c.Score > 0 {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > topStrengths {
		ranked = ranked[:topStrengths]
	}
	out := make([]string, len(ranked))
	for i, c := range ranked {
		out[i] = c.Name
	}
	return out
}

// Apply copies the scores onto a MatchAnalysis.
func (r *Result) Apply(a *model.MatchAnalysis, cal Calibration) {
	a.MatchScore = r.MatchScore
	a.SpecializationScore = r.Score(CategorySpecialization)
	a.HardSkillsScore = r.Score(CategoryHardSkills)
	a.ExperienceScore = r.Score(CategoryExperience)
	a.EducationScore = r.Score(CategoryEducation)
	a.AboutMeScore = r.Score(CategoryAboutMe)
	a.SoftSkillsScore = r.Score(CategorySoftSkills)
	a.TechStackScore = r.Score(CategoryTechStack)
	a.LanguagesScore = r.Score(CategoryLanguages)
	a.LevelScore = r.Score(CategoryLevel)
	a.ReputationScore = r.Reputation(cal)
	a.TopStrengths = r.TopStrengths()
	a.Feedback = r.Feedback
}

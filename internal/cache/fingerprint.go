package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/fadilmartias/resume-pipeline/internal/model"
)

// Fingerprint digests the candidate fields the scoring prompt reads. Sets are
// compared order- and case-insensitively.
func Fingerprint(c *model.Candidate) string {
	fields := map[string]any{
		"specialization": strings.TrimSpace(c.Specialization),
		"experience":     c.ExperienceYears,
		"hard_skills":    canonicalSet(c.HardSkills),
		"level":          string(c.Level),
		"about_me":       strings.TrimSpace(c.AboutMe),
		"education":      c.EducationSummary(),
		"languages":      canonicalSet(c.Languages),
		"tech_stack":     canonicalSet(c.TechStack),
		"soft_skills":    canonicalSet(c.SoftSkills),
	}
	// map keys marshal sorted
	b, _ := json.Marshal(fields)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func canonicalSet(in []string) []string {
	out := model.NormalizeSet(in)
	for i := range out {
		out[i] = strings.ToLower(out[i])
	}
	sort.Strings(out)
	return out
}

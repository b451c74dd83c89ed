package parser

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/logger"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/fadilmartias/resume-pipeline/internal/service"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

const (
	temperature = 0.1
	maxTokens   = 4000

	maxNameLen           = 100
	maxEmailLen          = 100
	maxPhoneLen          = 20
	maxSpecializationLen = 99
	maxSkills            = 10
	maxLanguages         = 5
	maxWorkEntries       = 5
	maxRawText           = 1000
)

type completer interface {
	Complete(ctx context.Context, req service.CompletionRequest) (string, error)
}

// Parser turns extracted resume text into a CandidateRecord with one
// JSON-mode completion.
type Parser struct {
	llm    completer
	model  string
	schema *jsonschema.Schema
	logger *zap.Logger
}

func New(llm completer, model string, log *zap.Logger) (*Parser, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &Parser{llm: llm, model: model, schema: schema, logger: logger.OrNop(log)}, nil
}

// Parse returns (nil, err) when no record can be produced. Errors caused by
// model output are marked retryable.
func (p *Parser) Parse(ctx context.Context, text string) (*model.CandidateRecord, error) {
	const op = "parser.Parse"
	if strings.TrimSpace(text) == "" {
		return nil, apperror.Wrap(apperror.KindParse, op, apperror.ErrEmptyText, "nothing to parse")
	}

	raw, err := p.llm.Complete(ctx, service.CompletionRequest{
		System:      systemPrompt,
		Prompt:      buildPrompt(text),
		Model:       p.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		JSON:        true,
	})
	if err != nil {
		if apperror.IsRetryable(err) {
			return nil, apperror.Transient(apperror.KindParse, op, err, "completion failed")
		}
		return nil, apperror.Wrap(apperror.KindParse, op, err, "completion failed")
	}

	var doc any
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &doc); err != nil {
		p.logger.Warn("model returned invalid json",
			zap.Error(err),
			zap.String("preview", logger.Preview(raw, 200)))
		return nil, apperror.Transient(apperror.KindParse, op, err, "invalid json in model response")
	}
	if err := p.schema.Validate(doc); err != nil {
		p.logger.Warn("model response failed schema validation", zap.Error(err))
		return nil, apperror.Transient(apperror.KindParse, op, err, "unexpected response structure")
	}

	var resume llmResume
	if err := decodeInto(doc, &resume); err != nil {
		return nil, apperror.Transient(apperror.KindParse, op, err, "decode model response")
	}
	rec, err := buildRecord(&resume, findContacts(text), text)
	if err != nil {
		return nil, apperror.Transient(apperror.KindParse, op, err, "decode model response")
	}

	p.logger.Debug("resume parsed",
		zap.String("specialization", rec.Specialization),
		zap.Int("tech_stack", len(rec.TechStack)),
		zap.Int("work_entries", len(rec.WorkExperience)))
	return rec, nil
}

// cleanJSON strips markdown fences some models add despite JSON mode.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func buildRecord(r *llmResume, found contacts, text string) (*model.CandidateRecord, error) {
	pi := r.PersonalInfo
	if pi == nil {
		pi = &personalInfo{}
	}
	prof := r.ProfessionalInfo
	if prof == nil {
		prof = &professionalInfo{}
	}
	skills := r.Skills
	if skills == nil {
		skills = &skillsInfo{}
	}
	edu, err := decodeEducation(r.Education)
	if err != nil {
		return nil, err
	}

	rec := &model.CandidateRecord{
		FirstName: truncate(pi.FirstName, maxNameLen),
		LastName:  truncate(pi.LastName, maxNameLen),
		BirthDate: normalizeDate(pi.BirthDate),
		Gender:    strings.TrimSpace(pi.Gender),
		AboutMe:   firstNonEmpty(pi.AboutMe, r.AboutMe, r.Description, pi.About),
	}

	name := strings.TrimSpace(strings.Join([]string{strings.TrimSpace(pi.FirstName), strings.TrimSpace(pi.LastName)}, " "))
	rec.Name = truncate(firstNonEmpty(name, r.Name), maxNameLen)

	rec.Email = truncate(pickContact(validEmail, found.Email, pi.Email, r.Email), maxEmailLen)
	rec.Phone = truncate(pickContact(validPhone, found.Phone, pi.Phone, r.Phone), maxPhoneLen)
	rec.Country, rec.Region = decodeLocation(pi.Location)
	rec.SocialNetworks = model.NormalizeSet(pi.SocialNetworks)

	rec.Specialization = truncate(firstNonEmpty(prof.CurrentPosition, prof.Title, r.Specialization, prof.DesiredPosition), maxSpecializationLen)
	rec.ExperienceYears = wholeYears(firstNonZero(prof.ExperienceYears, r.ExperienceYears))
	rec.Level = model.ParseLevel(firstNonEmpty(prof.Level, r.Level))
	rec.DesiredSalary = math.Max(0, firstNonZero(prof.DesiredSalary, r.DesiredSalary))
	rec.CurrentlyEmployed = prof.CurrentlyEmployed

	rec.TechStack = capList(firstList(skills.TechStack, r.TechStack), maxSkills)
	rec.HardSkills = capList(firstList(skills.HardSkills, r.HardSkills), maxSkills)
	rec.SoftSkills = capList(firstList(skills.SoftSkills, r.SoftSkills), maxSkills)
	rec.Languages = capList(firstList(skills.Languages, r.Languages), maxLanguages)
	rec.Certifications = model.NormalizeSet(firstList(edu.Certifications, r.Certifications))

	rec.Education = model.Education{
		Institution:    strings.TrimSpace(edu.Institution),
		Faculty:        strings.TrimSpace(edu.Faculty),
		Degree:         strings.TrimSpace(edu.Degree),
		GraduationYear: graduationYear(edu.GraduationYear),
	}

	entries := r.Experience
	if len(entries) == 0 {
		entries = r.WorkExperience
	}
	rec.WorkExperience = buildWorkHistory(entries)

	rec.RawText = truncate(text, maxRawText)
	return rec, nil
}

func buildWorkHistory(entries []experienceEntry) model.WorkHistory {
	out := make(model.WorkHistory, 0, len(entries))
	for _, e := range entries {
		if len(out) == maxWorkEntries {
			break
		}
		w := model.WorkEntry{
			Company:          strings.TrimSpace(e.Company),
			Position:         strings.TrimSpace(e.Position),
			StartDate:        normalizeDate(e.StartDate),
			EndDate:          normalizeDate(e.EndDate),
			Responsibilities: model.NormalizeSet(e.Responsibilities),
			Achievements:     model.NormalizeSet(e.Achievements),
		}
		if w.Company == "" && w.Position == "" {
			continue
		}
		out = append(out, w)
	}
	return out
}

// pickContact prefers a valid model value, then the value found in the text.
func pickContact(valid func(string) bool, found string, candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" && valid(c) {
			return c
		}
	}
	return found
}

var dateLayouts = []string{"2006-01-02", "2006-01", "01.2006", "02.01.2006", "2006"}

// normalizeDate returns an ISO date or "" for ongoing and unreadable values.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "YYYY-MM-DD" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func wholeYears(v float64) int {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

func graduationYear(v float64) int {
	y := int(v)
	if y < 1900 || y > 2100 {
		return 0
	}
	return y
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}

func capList(in []string, limit int) []string {
	out := model.NormalizeSet(in)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstList(lists ...[]string) []string {
	for _, l := range lists {
		if len(model.NormalizeSet(l)) > 0 {
			return l
		}
	}
	return nil
}

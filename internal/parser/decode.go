package parser

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// llmResume mirrors the requested JSON shape plus the flat fields older
// prompts produced.
type llmResume struct {
	PersonalInfo     *personalInfo     `mapstructure:"personal_info"`
	ProfessionalInfo *professionalInfo `mapstructure:"professional_info"`
	Skills           *skillsInfo       `mapstructure:"skills"`
	Education        any               `mapstructure:"education"`
	Experience       []experienceEntry `mapstructure:"experience"`

	Name            string            `mapstructure:"name"`
	Email           string            `mapstructure:"email"`
	Phone           string            `mapstructure:"phone"`
	AboutMe         string            `mapstructure:"about_me"`
	Description     string            `mapstructure:"description"`
	Specialization  string            `mapstructure:"specialization"`
	Level           string            `mapstructure:"level"`
	ExperienceYears float64           `mapstructure:"experience_years"`
	DesiredSalary   float64           `mapstructure:"desired_salary"`
	TechStack       []string          `mapstructure:"tech_stack"`
	HardSkills      []string          `mapstructure:"hard_skills"`
	SoftSkills      []string          `mapstructure:"soft_skills"`
	Languages       []string          `mapstructure:"languages"`
	Certifications  []string          `mapstructure:"certifications"`
	WorkExperience  []experienceEntry `mapstructure:"work_experience"`
}

type personalInfo struct {
	FirstName      string   `mapstructure:"first_name"`
	LastName       string   `mapstructure:"last_name"`
	Email          string   `mapstructure:"email"`
	Phone          string   `mapstructure:"phone"`
	BirthDate      string   `mapstructure:"birth_date"`
	Gender         string   `mapstructure:"gender"`
	Location       any      `mapstructure:"location"`
	SocialNetworks []string `mapstructure:"social_networks"`
	AboutMe        string   `mapstructure:"about_me"`
	About          string   `mapstructure:"about"`
}

type professionalInfo struct {
	Title             string  `mapstructure:"title"`
	ExperienceYears   float64 `mapstructure:"experience_years"`
	CurrentPosition   string  `mapstructure:"current_position"`
	DesiredPosition   string  `mapstructure:"desired_position"`
	DesiredSalary     float64 `mapstructure:"desired_salary"`
	CurrentlyEmployed bool    `mapstructure:"currently_employed"`
	Level             string  `mapstructure:"level"`
}

type skillsInfo struct {
	TechStack  []string `mapstructure:"tech_stack"`
	HardSkills []string `mapstructure:"hard_skills"`
	SoftSkills []string `mapstructure:"soft_skills"`
	Languages  []string `mapstructure:"languages"`
}

type educationInfo struct {
	Degree         string   `mapstructure:"degree"`
	Institution    string   `mapstructure:"institution"`
	Faculty        string   `mapstructure:"faculty"`
	GraduationYear float64  `mapstructure:"graduation_year"`
	Certifications []string `mapstructure:"certifications"`
}

type experienceEntry struct {
	Company          string   `mapstructure:"company"`
	Position         string   `mapstructure:"position"`
	StartDate        string   `mapstructure:"start_date"`
	EndDate          string   `mapstructure:"end_date"`
	Responsibilities []string `mapstructure:"responsibilities"`
	Achievements     []string `mapstructure:"achievements"`
}

func decodeInto(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       objectToStringHook,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// objectToStringHook flattens objects found where a string is expected, e.g.
// {"language": "English", "level": "B2"} inside a languages list.
func objectToStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String || from.Kind() != reflect.Map {
		return data, nil
	}
	m, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	// common label keys lead so "English B2" reads naturally
	sort.SliceStable(keys, func(i, j int) bool {
		return labelKey(keys[i]) && !labelKey(keys[j])
	})
	parts := make([]string, 0, len(m))
	for _, k := range keys {
		if v := strings.TrimSpace(fmt.Sprint(m[k])); v != "" && m[k] != nil {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " "), nil
}

func labelKey(k string) bool {
	switch k {
	case "name", "language", "title", "skill":
		return true
	}
	return false
}

// decodeEducation accepts an object, a list of objects (first wins) or a
// free-text string.
func decodeEducation(v any) (educationInfo, error) {
	var edu educationInfo
	switch t := v.(type) {
	case nil:
		return edu, nil
	case string:
		edu.Institution = t
		return edu, nil
	case []any:
		if len(t) == 0 {
			return edu, nil
		}
		return decodeEducation(t[0])
	default:
		err := decodeInto(t, &edu)
		return edu, err
	}
}

func decodeLocation(v any) (country, region string) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), ""
	case map[string]any:
		var loc struct {
			Country string `mapstructure:"country"`
			Region  string `mapstructure:"region"`
			City    string `mapstructure:"city"`
		}
		if err := decodeInto(t, &loc); err != nil {
			return "", ""
		}
		region = loc.Region
		if region == "" {
			region = loc.City
		}
		return strings.TrimSpace(loc.Country), strings.TrimSpace(region)
	}
	return "", ""
}

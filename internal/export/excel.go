package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	rankedSheet  = "Ranked Candidates"
)

var rankedHeaders = []string{
	"Rank", "Candidate", "Email", "Specialization", "Level",
	"Match Score", "Reputation",
	"Specialization Score", "Hard Skills", "Experience", "Education", "About Me",
	"Soft Skills", "Tech Stack", "Languages", "Level Score",
	"Top Strengths", "Feedback", "Analyzed At",
}

// WriteAnalyses renders a vacancy's ranked analyses as an xlsx workbook.
// analyses must already be in ranking order.
func WriteAnalyses(w io.Writer, vacancy *model.Vacancy, analyses []model.MatchAnalysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(rankedSheet); err != nil {
		return err
	}

	if err := writeSummary(f, vacancy, analyses); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeRanked(f, analyses); err != nil {
		return fmt.Errorf("failed to create ranked candidates sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, v *model.Vacancy, analyses []model.MatchAnalysis) error {
	f.SetColWidth(summarySheet, "A", "A", 28)
	f.SetColWidth(summarySheet, "B", "B", 60)

	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}

	var avg float64
	for _, a := range analyses {
		avg += a.MatchScore
	}
	if len(analyses) > 0 {
		avg /= float64(len(analyses))
	}

	rows := [][2]any{
		{"Vacancy", v.Title},
		{"Specialization", v.Specialization},
		{"Level", string(v.Level)},
		{"Required Experience (years)", v.ExperienceYears},
		{"Required Hard Skills", strings.Join(v.HardSkills, ", ")},
		{"Candidates Analyzed", len(analyses)},
		{"Average Match Score", fmt.Sprintf("%.2f", avg)},
	}
	for i, r := range rows {
		row := i + 1
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), r[0])
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), r[1])
		f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	}
	return nil
}

func writeRanked(f *excelize.File, analyses []model.MatchAnalysis) error {
	f.SetColWidth(rankedSheet, "A", "A", 8)
	f.SetColWidth(rankedSheet, "B", "E", 22)
	f.SetColWidth(rankedSheet, "F", "P", 12)
	f.SetColWidth(rankedSheet, "Q", "Q", 36)
	f.SetColWidth(rankedSheet, "R", "R", 80)
	f.SetColWidth(rankedSheet, "S", "S", 20)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	strongStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	weakStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for col, header := range rankedHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(rankedSheet, cell, header)
		f.SetCellStyle(rankedSheet, cell, cell, headerStyle)
	}

	for i, a := range analyses {
		row := i + 2
		name, email, spec, level := "", "", "", ""
		if c := a.Candidate; c != nil {
			name, email, spec, level = c.Name, c.Email, c.Specialization, string(c.Level)
		}
		values := []any{
			i + 1, name, email, spec, level,
			a.MatchScore, a.ReputationScore,
			a.SpecializationScore, a.HardSkillsScore, a.ExperienceScore, a.EducationScore, a.AboutMeScore,
			a.SoftSkillsScore, a.TechStackScore, a.LanguagesScore, a.LevelScore,
			strings.Join(a.TopStrengths, ", "), a.Feedback, a.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(rankedSheet, cell, v)
		}

		switch {
		case a.MatchScore >= 60:
			f.SetCellStyle(rankedSheet, fmt.Sprintf("F%d", row), fmt.Sprintf("F%d", row), strongStyle)
		case a.MatchScore < 30:
			f.SetCellStyle(rankedSheet, fmt.Sprintf("F%d", row), fmt.Sprintf("F%d", row), weakStyle)
		}
	}
	return nil
}

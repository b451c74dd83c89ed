package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/xuri/excelize/v2"
)

func TestWriteAnalyses(t *testing.T) {
	vacancy := &model.Vacancy{Title: "Backend Developer", HardSkills: []string{"Go"}}
	analyses := []model.MatchAnalysis{
		{
			MatchScore:      68,
			ReputationScore: 546,
			TopStrengths:    []string{"hard_skills", "specialization"},
			Feedback:        "Strong fit",
			Candidate:       &model.Candidate{Name: "Anna Petrova", Email: "anna@example.com"},
			CreatedAt:       time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{MatchScore: 20, ReputationScore: 100},
	}

	var buf bytes.Buffer
	if err := WriteAnalyses(&buf, vacancy, analyses); err != nil {
		t.Fatalf("WriteAnalyses() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(rankedSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[1][0] != "1" || rows[1][1] != "Anna Petrova" || rows[1][6] != "546" {
		t.Fatalf("first row = %v", rows[1])
	}
	if rows[1][16] != "hard_skills, specialization" {
		t.Fatalf("top strengths cell = %q", rows[1][16])
	}

	title, err := f.GetCellValue(summarySheet, "B1")
	if err != nil || title != "Backend Developer" {
		t.Fatalf("summary title = %q, %v", title, err)
	}
	count, _ := f.GetCellValue(summarySheet, "B6")
	if count != "2" {
		t.Fatalf("candidates analyzed = %q", count)
	}
}

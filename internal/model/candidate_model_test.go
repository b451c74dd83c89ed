package model

import (
	"testing"
	"time"
)

func TestNewCandidateFromRecord(t *testing.T) {
	rec := &CandidateRecord{
		Name:       "Ivan Petrov",
		BirthDate:  "not a date",
		HardSkills: []string{" Go ", "go", "", "SQL"},
		Level:      "",
	}

	c := NewCandidateFromRecord(rec)

	want := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if !c.BirthDate.Equal(want) {
		t.Fatalf("expected fallback birth date, got %v", c.BirthDate)
	}
	if len(c.HardSkills) != 2 || c.HardSkills[0] != "Go" || c.HardSkills[1] != "SQL" {
		t.Fatalf("unexpected hard skills: %v", c.HardSkills)
	}
	if c.TechStack == nil || c.Languages == nil || c.WorkHistory == nil {
		t.Fatalf("collections must never be nil")
	}
	if c.Level != LevelNoExperience {
		t.Fatalf("expected default level, got %q", c.Level)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Level
	}{
		{"Senior", LevelSenior},
		{"middle", LevelMiddle},
		{"Без опыта", LevelNoExperience},
		{"Team Lead", LevelLead},
		{"Senior Go developer", LevelSenior},
		{"", LevelNoExperience},
		{"astronaut", LevelNoExperience},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := ParseLevel(tt.input); got != tt.want {
				t.Fatalf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWorkHistoryScan(t *testing.T) {
	var w WorkHistory
	if err := w.Scan([]byte(`[{"company":"Acme","position":"Dev","start_date":"2020-01-01"}]`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(w) != 1 || w[0].Company != "Acme" || w[0].EndDate != "" {
		t.Fatalf("unexpected history: %+v", w)
	}

	if err := w.Scan(nil); err != nil || w == nil || len(w) != 0 {
		t.Fatalf("nil scan should yield empty history, got %v (%v)", w, err)
	}
}

package parser

import (
	_ "embed"
	"strings"
)

//go:embed prompt.tmpl
var promptTemplate string

const systemPrompt = `You are an expert in resume analysis.
Extract all important information from the resume text as accurately as possible.
Pay special attention to technical skills, work experience and education.`

// maxPromptTextRunes bounds the resume text sent to the model.
const maxPromptTextRunes = 15000

func buildPrompt(text string) string {
	runes := []rune(text)
	if len(runes) > maxPromptTextRunes {
		text = string(runes[:maxPromptTextRunes])
	}
	return strings.ReplaceAll(promptTemplate, "{{RESUME_TEXT}}", text)
}

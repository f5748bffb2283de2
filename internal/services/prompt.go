package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/resume-matcher/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildMatchPrompt creates the resume parsing and job matching prompt
func (pb *PromptBuilder) BuildMatchPrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(`You are an expert AI system designed to perform resume parsing and job relevance evaluation. Also give the time served by the person in each company in the %q field.

Task 1: Parse the following resume text and extract the following strictly in valid JSON format:
%s

Task 2: Compare the resume's %q, %q, and %q with the provided Job Description.
Evaluate how well the resume matches the Job Description on these factors:
- Technical Skills Match
- Soft Skills Match
- Relevant Companies/Employers Match (from %s)

Add these fields to the same JSON object:
%q: "xx%%" - an approximate percentage (0 to 100) of how well this resume matches the job description.
%q: [] - a list of skills that are mentioned in the job description but not present in the resume.

VERY IMPORTANT:
- Return only a single JSON object.
- DO NOT add explanations, descriptions, or extra text.
- The JSON object must contain every one of these keys: %s.

Job Description:
%s

Resume Text:
%s
`,
		models.FieldEmploymentDetails,
		schemaTemplate(profileFields()),
		models.FieldTechnicalSkills, models.FieldSoftSkills, models.FieldEmploymentDetails,
		models.FieldEmploymentDetails,
		models.FieldMatchPercentage,
		models.FieldMissingSkills,
		quotedList(models.SchemaFields),
		jobDescription,
		resumeText,
	)
}

// BuildSearchQuery creates the text embedded for a talent pool search
func (pb *PromptBuilder) BuildSearchQuery(query string) string {
	return fmt.Sprintf("Candidate with skills and experience matching: %s", strings.TrimSpace(query))
}

// profileFields returns the schema keys parsed from the resume itself.
func profileFields() []string {
	fields := make([]string, 0, len(models.SchemaFields))
	for _, field := range models.SchemaFields {
		if field == models.FieldMatchPercentage || field == models.FieldMissingSkills {
			continue
		}
		fields = append(fields, field)
	}
	return fields
}

func schemaTemplate(fields []string) string {
	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		value := `""`
		if models.ListFields[field] {
			value = "[]"
		}
		lines = append(lines, fmt.Sprintf("  %q: %s", field, value))
	}
	return "{\n" + strings.Join(lines, ",\n") + "\n}"
}

func quotedList(fields []string) string {
	quoted := make([]string, 0, len(fields))
	for _, field := range fields {
		quoted = append(quoted, fmt.Sprintf("%q", field))
	}
	return strings.Join(quoted, ", ")
}

// FormatCandidateMatches renders talent pool hits as plain text for logs and the CLI
func FormatCandidateMatches(matches []models.CandidateMatch) string {
	if len(matches) == 0 {
		return "No matching candidates found."
	}

	var parts []string
	for i, match := range matches {
		parts = append(parts, fmt.Sprintf("--- Candidate %d (Score: %.2f) ---\n%s <%s> %s\n%s",
			i+1, match.Score, match.FullName, match.EmailID, match.MatchPercentage, strings.TrimSpace(match.Snippet)))
	}

	return strings.Join(parts, "\n\n")
}

package services

import (
	"strings"
	"testing"

	"alfredoptarigan/resume-matcher/internal/models"
)

func TestBuildMatchPromptEmbedsInputs(t *testing.T) {
	pb := NewPromptBuilder()

	prompt := pb.BuildMatchPrompt("RESUME-BODY {with braces}", "JD-BODY 100%")

	for _, want := range []string{"RESUME-BODY {with braces}", "JD-BODY 100%"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q", want)
		}
	}

	if strings.Index(prompt, "JD-BODY") > strings.Index(prompt, "RESUME-BODY") {
		t.Fatalf("expected job description before resume text")
	}
}

func TestBuildMatchPromptNamesEverySchemaField(t *testing.T) {
	prompt := NewPromptBuilder().BuildMatchPrompt("", "")

	for _, field := range models.SchemaFields {
		if !strings.Contains(prompt, `"`+field+`"`) {
			t.Fatalf("expected prompt to name %q", field)
		}
	}

	if !strings.Contains(prompt, `"Technical Skills": []`) {
		t.Fatalf("expected list fields to be rendered as arrays")
	}
	if !strings.Contains(prompt, `"Full Name": ""`) {
		t.Fatalf("expected string fields to be rendered as empty strings")
	}
	if !strings.Contains(prompt, "single JSON object") {
		t.Fatalf("expected prompt to demand a single JSON object")
	}
}

func TestBuildMatchPromptIsDeterministic(t *testing.T) {
	pb := NewPromptBuilder()

	first := pb.BuildMatchPrompt("resume", "job")
	second := pb.BuildMatchPrompt("resume", "job")

	if first != second {
		t.Fatalf("expected identical prompts for identical inputs")
	}
}

func TestFormatCandidateMatches(t *testing.T) {
	if got := FormatCandidateMatches(nil); got != "No matching candidates found." {
		t.Fatalf("unexpected empty rendering %q", got)
	}

	got := FormatCandidateMatches([]models.CandidateMatch{{
		FullName:        "Jane Doe",
		EmailID:         "jane@example.com",
		MatchPercentage: "82%",
		Score:           0.5,
		Snippet:         " Go, Kafka ",
	}})

	if !strings.Contains(got, "--- Candidate 1 (Score: 0.50) ---") || !strings.Contains(got, "Jane Doe <jane@example.com> 82%") {
		t.Fatalf("unexpected rendering %q", got)
	}
}

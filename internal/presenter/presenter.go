// Package presenter renders match results and pipeline failures for people and scripts.
package presenter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/services"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Error kinds reported to callers.
const (
	KindExtraction       = "extraction_failed"
	KindDocument         = "document_unreadable"
	KindModelUnavailable = "model_unavailable"
	KindModelTimeout     = "model_timeout"
	KindModel            = "model_error"
	KindInput            = "invalid_input"
	KindInternal         = "internal_error"
)

type Options struct {
	Format  string
	ShowRaw bool
}

// Render writes either the result or the error in the requested format.
func Render(w io.Writer, result *services.MatchResult, err error, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return renderJSON(w, result, err, opts)
	case FormatText, "":
		return renderText(w, result, err, opts)
	default:
		return fmt.Errorf("unknown output format %q", opts.Format)
	}
}

// ErrorBody classifies a pipeline error for API and JSON output.
func ErrorBody(err error) models.ErrorResponse {
	kind, retryable := Classify(err)
	return models.ErrorResponse{
		Error:     services.FailureMessage(err),
		Kind:      kind,
		Retryable: retryable,
	}
}

// Classify returns the error kind and whether resubmitting may help.
func Classify(err error) (string, bool) {
	var (
		extractionErr *services.ExtractionError
		readErr       *services.DocumentReadError
		timeoutErr    *services.ModelTimeoutError
		unavailErr    *services.ModelUnavailableError
		modelErr      *services.ModelError
	)

	switch {
	case errors.As(err, &extractionErr):
		return KindExtraction, true
	case errors.As(err, &readErr):
		return KindDocument, false
	case errors.As(err, &timeoutErr):
		return KindModelTimeout, true
	case errors.As(err, &unavailErr):
		return KindModelUnavailable, true
	case errors.As(err, &modelErr):
		return KindModel, false
	case errors.Is(err, services.ErrNoJobDescription), errors.Is(err, services.ErrEmptyJobDescription):
		return KindInput, false
	default:
		return KindInternal, false
	}
}

// MatchBody is the JSON shape of a successful match.
func MatchBody(result *services.MatchResult, showRaw bool) models.MatchResponse {
	body := models.MatchResponse{
		Profile:        result.Profile,
		CandidateIndex: result.CandidateIndex,
		Candidates:     result.Candidates,
		Provider:       result.Provider,
	}
	if showRaw {
		body.RawReply = result.RawReply
	}
	return body
}

func renderJSON(w io.Writer, result *services.MatchResult, err error, opts Options) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err != nil {
		return encoder.Encode(ErrorBody(err))
	}
	return encoder.Encode(MatchBody(result, opts.ShowRaw))
}

func renderText(w io.Writer, result *services.MatchResult, err error, opts Options) error {
	var b strings.Builder

	if err != nil {
		fmt.Fprintf(&b, "Error: %s\n", services.FailureMessage(err))
		if opts.ShowRaw && result != nil && result.RawReply != "" {
			fmt.Fprintf(&b, "\nModel reply:\n%s\n", result.RawReply)
		}
		_, werr := io.WriteString(w, b.String())
		return werr
	}

	profile := result.Profile

	fmt.Fprintf(&b, "Match Percentage: %s\n\n", profile.MatchPercentage)

	b.WriteString("Missing Skills:\n")
	if len(profile.MissingSkills) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, skill := range profile.MissingSkills {
		fmt.Fprintf(&b, "  - %s\n", skill)
	}

	details, jerr := json.MarshalIndent(profile, "", "  ")
	if jerr != nil {
		return fmt.Errorf("encoding profile: %w", jerr)
	}
	fmt.Fprintf(&b, "\nExtracted Resume Details:\n%s\n", details)

	if opts.ShowRaw {
		fmt.Fprintf(&b, "\nModel reply (%s, candidate %d of %d):\n%s\n",
			result.Provider, result.CandidateIndex+1, result.Candidates, result.RawReply)
	}

	_, werr := io.WriteString(w, b.String())
	return werr
}

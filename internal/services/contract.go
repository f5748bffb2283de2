package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"alfredoptarigan/resume-matcher/internal/models"
)

type candidateStatus int

const (
	candidateAccepted candidateStatus = iota
	candidateParseFailed
	candidateSchemaInvalid
)

func (s candidateStatus) String() string {
	switch s {
	case candidateAccepted:
		return "accepted"
	case candidateParseFailed:
		return "parse_failed"
	case candidateSchemaInvalid:
		return "schema_invalid"
	default:
		return "unknown"
	}
}

// candidateResult is the outcome of evaluating one JSON fragment.
type candidateResult struct {
	status  candidateStatus
	profile *models.CandidateProfile
	reason  string
}

func evaluateCandidate(fragment string) candidateResult {
	var data map[string]any
	if err := json.Unmarshal([]byte(fragment), &data); err != nil {
		return candidateResult{status: candidateParseFailed, reason: err.Error()}
	}

	profile, err := buildProfile(data)
	if err != nil {
		return candidateResult{status: candidateSchemaInvalid, reason: err.Error()}
	}

	return candidateResult{status: candidateAccepted, profile: profile}
}

// buildProfile applies the required-field contract and normalizes optional fields.
func buildProfile(data map[string]any) (*models.CandidateProfile, error) {
	if data == nil {
		return nil, fmt.Errorf("fragment is not a JSON object")
	}

	fullName, err := requiredString(data, models.FieldFullName)
	if err != nil {
		return nil, err
	}

	email, err := requiredString(data, models.FieldEmailID)
	if err != nil {
		return nil, err
	}

	match, err := matchPercentage(data[models.FieldMatchPercentage])
	if err != nil {
		return nil, err
	}

	return &models.CandidateProfile{
		FullName:          fullName,
		EmailID:           email,
		GitHubPortfolio:   optionalString(data[models.FieldGitHubPortfolio]),
		LinkedInID:        optionalString(data[models.FieldLinkedInID]),
		EmploymentDetails: optionalString(data[models.FieldEmploymentDetails]),
		TechnicalSkills:   stringList(data[models.FieldTechnicalSkills]),
		SoftSkills:        stringList(data[models.FieldSoftSkills]),
		MatchPercentage:   match,
		MissingSkills:     stringList(data[models.FieldMissingSkills]),
	}, nil
}

func requiredString(data map[string]any, key string) (string, error) {
	value, ok := data[key]
	if !ok || value == nil {
		return "", fmt.Errorf("missing %q", key)
	}

	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%q is not a string", key)
	}

	if strings.TrimSpace(str) == "" {
		return "", fmt.Errorf("%q is empty", key)
	}

	return str, nil
}

// matchPercentage keeps the model's string verbatim. A bare number is the one
// exception to verbatim storage: it is accepted and rewritten as "<n>%".
func matchPercentage(value any) (string, error) {
	key := models.FieldMatchPercentage

	switch val := value.(type) {
	case nil:
		return "", fmt.Errorf("missing %q", key)
	case string:
		if strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("%q is empty", key)
		}
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64) + "%", nil
	default:
		return "", fmt.Errorf("%q has unsupported type %T", key, value)
	}
}

func optionalString(value any) string {
	switch val := value.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return compactJSON(val)
	}
}

// stringList keeps string elements verbatim and renders other elements as
// compact JSON. A lone scalar becomes a one-element list.
func stringList(value any) []string {
	result := []string{}

	switch val := value.(type) {
	case nil:
		return result
	case []any:
		for _, item := range val {
			result = append(result, optionalString(item))
		}
		return result
	default:
		return append(result, optionalString(val))
	}
}

func compactJSON(value any) string {
	switch val := value.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}

	bytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(bytes)
}

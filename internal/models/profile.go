package models

// Schema keys exactly as the model is asked to emit them.
const (
	FieldFullName          = "Full Name"
	FieldEmailID           = "Email ID"
	FieldGitHubPortfolio   = "GitHub Portfolio"
	FieldLinkedInID        = "LinkedIn ID"
	FieldEmploymentDetails = "Employment Details"
	FieldTechnicalSkills   = "Technical Skills"
	FieldSoftSkills        = "Soft Skills"
	FieldMatchPercentage   = "Match Percentage"
	FieldMissingSkills     = "Missing Skills"
)

// SchemaFields lists every CandidateProfile key in prompt order.
var SchemaFields = []string{
	FieldFullName,
	FieldEmailID,
	FieldGitHubPortfolio,
	FieldLinkedInID,
	FieldEmploymentDetails,
	FieldTechnicalSkills,
	FieldSoftSkills,
	FieldMatchPercentage,
	FieldMissingSkills,
}

// RequiredFields must hold non-empty values for a profile to be accepted.
var RequiredFields = []string{
	FieldFullName,
	FieldEmailID,
	FieldMatchPercentage,
}

// ListFields are the keys whose values are ordered string sequences.
var ListFields = map[string]bool{
	FieldTechnicalSkills: true,
	FieldSoftSkills:      true,
	FieldMissingSkills:   true,
}

// CandidateProfile is the structured result of one extraction. It is built once
// from a single JSON fragment and not modified afterwards.
type CandidateProfile struct {
	FullName          string   `json:"Full Name"`
	EmailID           string   `json:"Email ID"`
	GitHubPortfolio   string   `json:"GitHub Portfolio"`
	LinkedInID        string   `json:"LinkedIn ID"`
	EmploymentDetails string   `json:"Employment Details"`
	TechnicalSkills   []string `json:"Technical Skills"`
	SoftSkills        []string `json:"Soft Skills"`
	MatchPercentage   string   `json:"Match Percentage"`
	MissingSkills     []string `json:"Missing Skills"`
}

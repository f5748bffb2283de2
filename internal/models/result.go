package models

type UploadResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	FileType     string `json:"file_type"`
	MimeType     string `json:"mime_type"`
}

type EvaluateRequest struct {
	JobTitle         string `json:"job_title"`
	JobDescription   string `json:"job_description"`
	JobURL           string `json:"job_url"`
	ResumeDocumentID string `json:"resume_document_id" validate:"required,uuid"`
}

type EvaluateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ResultResponse struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Result       *EvaluationData `json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}

type EvaluationData struct {
	Profile         *CandidateProfile `json:"profile"`
	MatchPercentage string            `json:"match_percentage"`
	CandidateIndex  int               `json:"candidate_index"`
	Provider        string            `json:"provider,omitempty"`
}

// MatchResponse is returned by the synchronous match endpoint.
type MatchResponse struct {
	Profile        *CandidateProfile `json:"profile"`
	CandidateIndex int               `json:"candidate_index"`
	Candidates     int               `json:"candidates"`
	Provider       string            `json:"provider"`
	RawReply       string            `json:"raw_reply,omitempty"`
}

// ErrorResponse describes a pipeline failure the caller may resubmit.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

type CandidateMatch struct {
	EvaluationID    string  `json:"evaluation_id"`
	FullName        string  `json:"full_name"`
	EmailID         string  `json:"email_id"`
	MatchPercentage string  `json:"match_percentage"`
	Score           float32 `json:"score"`
	Snippet         string  `json:"snippet"`
}

type SearchResponse struct {
	Query      string           `json:"query"`
	Candidates []CandidateMatch `json:"candidates"`
}

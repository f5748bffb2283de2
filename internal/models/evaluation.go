package models

import (
	"time"

	"github.com/google/uuid"
)

type EvaluationStatus string

const (
	StatusQueued     EvaluationStatus = "queued"
	StatusProcessing EvaluationStatus = "processing"
	StatusCompleted  EvaluationStatus = "completed"
	StatusFailed     EvaluationStatus = "failed"
)

type Evaluation struct {
	ID               uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobTitle         string            `gorm:"type:text" json:"job_title"`
	JobDescription   string            `gorm:"type:text" json:"job_description"`
	JobURL           string            `gorm:"type:text" json:"job_url,omitempty"`
	ResumeDocumentID uuid.UUID         `gorm:"type:uuid;not null" json:"resume_document_id"`
	Status           EvaluationStatus  `gorm:"not null;default:'queued'" json:"status"`
	Profile          *CandidateProfile `gorm:"type:jsonb;serializer:json" json:"profile,omitempty"`
	MatchPercentage  *string           `gorm:"type:text" json:"match_percentage,omitempty"`
	RawReply         *string           `gorm:"type:text" json:"-"`
	CandidateIndex   *int              `json:"candidate_index,omitempty"`
	Provider         *string           `gorm:"type:text" json:"provider,omitempty"`
	ErrorMessage     *string           `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt        time.Time         `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	ResumeDocument Document `gorm:"foreignKey:ResumeDocumentID" json:"-"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

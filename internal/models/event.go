package models

import (
	"fmt"
	"time"
)

// EvaluationEvent is published whenever an evaluation changes status.
type EvaluationEvent struct {
	EvaluationID    string           `json:"evaluation_id"`
	Status          EvaluationStatus `json:"status"`
	MatchPercentage string           `json:"match_percentage,omitempty"`
	FullName        string           `json:"full_name,omitempty"`
	Error           string           `json:"error,omitempty"`
	Timestamp       time.Time        `json:"timestamp"`
}

// RoutingKey is the topic key subscribers bind to, e.g. "evaluation.*".
func (e EvaluationEvent) RoutingKey() string {
	return fmt.Sprintf("evaluation.%s", e.EvaluationID)
}

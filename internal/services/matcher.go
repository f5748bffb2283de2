package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
)

var ErrNoJobDescription = errors.New("a job description or job URL is required")

// MatchResult is the outcome of one resume/job pipeline run.
type MatchResult struct {
	Profile        *models.CandidateProfile
	RawReply       string
	CandidateIndex int
	Candidates     int
	Skipped        []SkippedCandidate
	Provider       string
}

type MatchService interface {
	// Match runs prompt, model and extraction. On extraction failure the
	// returned result still carries the raw reply.
	Match(ctx context.Context, resumeText, jobDescription string) (*MatchResult, error)
	// EvaluateResume runs Match for a stored evaluation and persists the outcome.
	EvaluateResume(ctx context.Context, evalID uuid.UUID) error
}

type MatchServiceDeps struct {
	Model      ModelClient
	Extractor  *ResponseExtractor
	EvalRepo   repositories.EvaluationRepository
	DocRepo    repositories.DocumentRepository
	Storage    StorageService
	Parser     DocumentTextSource
	Fetcher    JobDescriptionFetcher
	Notifier   StatusNotifier
	TalentPool TalentPool
}

type matchService struct {
	MatchServiceDeps
	promptBuilder *PromptBuilder
	logger        *zap.Logger
}

func NewMatchService(deps MatchServiceDeps, log *zap.Logger) MatchService {
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Extractor == nil {
		deps.Extractor = NewResponseExtractor(log, 0)
	}
	if deps.Notifier == nil {
		deps.Notifier = NewNoopNotifier()
	}
	return &matchService{
		MatchServiceDeps: deps,
		promptBuilder:    NewPromptBuilder(),
		logger:           log,
	}
}

// Match implements MatchService.
func (m *matchService) Match(ctx context.Context, resumeText, jobDescription string) (*MatchResult, error) {
	prompt := m.promptBuilder.BuildMatchPrompt(resumeText, jobDescription)

	m.logger.Debug("sending match prompt",
		zap.String("provider", m.Model.Name()),
		zap.Int("prompt_length", len(prompt)),
	)

	reply, err := m.Model.Send(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result := &MatchResult{
		RawReply:       reply,
		CandidateIndex: -1,
		Provider:       m.Model.Name(),
	}

	extraction, err := m.Extractor.Inspect(reply)
	if err != nil {
		var extractionErr *ExtractionError
		if errors.As(err, &extractionErr) {
			result.Candidates = extractionErr.Candidates
		}
		return result, err
	}

	result.Profile = extraction.Profile
	result.CandidateIndex = extraction.Index
	result.Candidates = extraction.Candidates
	result.Skipped = extraction.Skipped

	m.logger.Info("candidate profile extracted",
		zap.String("provider", result.Provider),
		zap.String("match_percentage", result.Profile.MatchPercentage),
		zap.Int("candidate_index", result.CandidateIndex),
		zap.Int("candidates", result.Candidates),
	)
	return result, nil
}

// EvaluateResume implements MatchService.
func (m *matchService) EvaluateResume(ctx context.Context, evalID uuid.UUID) error {
	log := m.logger.With(zap.String("evaluation_id", evalID.String()))

	if err := m.EvalRepo.UpdateStatus(evalID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	m.notify(ctx, models.EvaluationEvent{EvaluationID: evalID.String(), Status: models.StatusProcessing})

	log.Info("starting evaluation")
	start := time.Now()

	evaluation, err := m.EvalRepo.FindByID(evalID)
	if err != nil {
		return m.fail(ctx, evalID, nil, fmt.Errorf("failed to get evaluation: %w", err))
	}

	resumeText, err := m.resumeText(ctx, evaluation.ResumeDocumentID)
	if err != nil {
		return m.fail(ctx, evalID, nil, err)
	}

	jobDescription, err := m.jobDescription(ctx, evaluation)
	if err != nil {
		return m.fail(ctx, evalID, nil, err)
	}

	result, err := m.Match(ctx, resumeText, jobDescription)
	if err != nil {
		var rawReply *string
		if result != nil {
			rawReply = &result.RawReply
		}
		return m.fail(ctx, evalID, rawReply, err)
	}

	update := &repositories.EvaluationUpdateData{
		Profile:        result.Profile,
		RawReply:       &result.RawReply,
		CandidateIndex: &result.CandidateIndex,
		Provider:       &result.Provider,
	}
	if err := m.EvalRepo.UpdateResult(evalID, update); err != nil {
		return m.fail(ctx, evalID, &result.RawReply, fmt.Errorf("failed to save results: %w", err))
	}

	m.notify(ctx, models.EvaluationEvent{
		EvaluationID:    evalID.String(),
		Status:          models.StatusCompleted,
		MatchPercentage: result.Profile.MatchPercentage,
		FullName:        result.Profile.FullName,
	})

	if m.TalentPool != nil {
		if err := m.TalentPool.IndexCandidate(ctx, evalID.String(), result.Profile, resumeText); err != nil {
			log.Warn("failed to index candidate", zap.Error(err))
		}
	}

	log.Info("evaluation completed",
		zap.String("match_percentage", result.Profile.MatchPercentage),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (m *matchService) resumeText(ctx context.Context, documentID uuid.UUID) (string, error) {
	doc, err := m.DocRepo.FindByID(documentID)
	if err != nil {
		return "", fmt.Errorf("resume document not found: %w", err)
	}

	data, err := m.Storage.ReadFile(ctx, doc.Location)
	if err != nil {
		return "", &DocumentReadError{Filename: doc.OriginalFileName, Cause: err}
	}

	return m.Parser.ExtractText(doc.OriginalFileName, data)
}

func (m *matchService) jobDescription(ctx context.Context, evaluation *models.Evaluation) (string, error) {
	if text := strings.TrimSpace(evaluation.JobDescription); text != "" {
		return text, nil
	}
	if evaluation.JobURL == "" || m.Fetcher == nil {
		return "", ErrNoJobDescription
	}
	return m.Fetcher.Fetch(ctx, evaluation.JobURL)
}

func (m *matchService) fail(ctx context.Context, evalID uuid.UUID, rawReply *string, cause error) error {
	message := FailureMessage(cause)
	if err := m.EvalRepo.UpdateError(evalID, message, rawReply); err != nil {
		m.logger.Error("failed to record evaluation error",
			zap.String("evaluation_id", evalID.String()),
			zap.Error(err),
		)
	}

	m.notify(ctx, models.EvaluationEvent{
		EvaluationID: evalID.String(),
		Status:       models.StatusFailed,
		Error:        message,
	})
	return cause
}

func (m *matchService) notify(ctx context.Context, event models.EvaluationEvent) {
	if err := m.Notifier.Publish(ctx, event); err != nil {
		m.logger.Warn("failed to publish status event",
			zap.String("evaluation_id", event.EvaluationID),
			zap.String("status", string(event.Status)),
			zap.Error(err),
		)
	}
}

// FailureMessage is the user-facing text for a pipeline error.
func FailureMessage(err error) string {
	var (
		extractionErr *ExtractionError
		readErr       *DocumentReadError
		timeoutErr    *ModelTimeoutError
		unavailErr    *ModelUnavailableError
	)

	switch {
	case errors.As(err, &extractionErr):
		return fmt.Sprintf("%s in the model reply; please resubmit", extractionErr.Kind)
	case errors.As(err, &readErr):
		return readErr.Error()
	case errors.As(err, &timeoutErr):
		return fmt.Sprintf("the model did not answer in time (%s); please resubmit", timeoutErr.Provider)
	case errors.As(err, &unavailErr):
		return fmt.Sprintf("the model backend is unavailable (%s); please retry later", unavailErr.Provider)
	default:
		return err.Error()
	}
}

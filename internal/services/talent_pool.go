package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/models"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
	// Chunks fetched per requested candidate before grouping.
	searchOversample = 4
	snippetLength    = 240
)

var ErrEmptyQuery = errors.New("search query is empty")

// TalentPool indexes extracted candidates and finds them again by free-text query.
type TalentPool interface {
	IndexCandidate(ctx context.Context, evaluationID string, profile *models.CandidateProfile, resumeText string) error
	Search(ctx context.Context, query string, limit int) ([]models.CandidateMatch, error)
}

type talentPool struct {
	store         QdrantService
	embedder      Embedder
	chunker       TextChunker
	promptBuilder *PromptBuilder
	logger        *zap.Logger
}

func NewTalentPool(store QdrantService, embedder Embedder, chunker TextChunker, log *zap.Logger) TalentPool {
	if log == nil {
		log = zap.NewNop()
	}
	if chunker == nil {
		chunker = NewTextChunker(defaultChunkSize, defaultChunkOverlap)
	}
	return &talentPool{
		store:         store,
		embedder:      embedder,
		chunker:       chunker,
		promptBuilder: NewPromptBuilder(),
		logger:        log,
	}
}

// IndexCandidate implements TalentPool.
func (p *talentPool) IndexCandidate(ctx context.Context, evaluationID string, profile *models.CandidateProfile, resumeText string) error {
	if profile == nil {
		return fmt.Errorf("no profile to index")
	}

	texts := p.chunker.ChunkText(profileSummary(profile) + "\n\n" + resumeText)

	chunks := make([]CandidateChunk, 0, len(texts))
	for i, text := range texts {
		embedding, err := p.embedder.GenerateEmbedding(ctx, text)
		if err != nil {
			return fmt.Errorf("embedding chunk %d: %w", i, err)
		}

		chunks = append(chunks, CandidateChunk{
			EvaluationID:    evaluationID,
			ChunkIndex:      i,
			FullName:        profile.FullName,
			EmailID:         profile.EmailID,
			MatchPercentage: profile.MatchPercentage,
			Text:            text,
			Embedding:       embedding,
		})
	}

	// Drop chunks left over from an earlier, longer indexing run.
	if err := p.store.DeleteCandidate(ctx, evaluationID); err != nil {
		return err
	}
	if err := p.store.UpsertChunks(ctx, chunks); err != nil {
		return err
	}

	p.logger.Info("candidate indexed",
		zap.String("evaluation_id", evaluationID),
		zap.Int("chunks", len(chunks)),
	)
	return nil
}

// Search implements TalentPool. Candidates are ranked by their best chunk.
func (p *talentPool) Search(ctx context.Context, query string, limit int) ([]models.CandidateMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	switch {
	case limit <= 0:
		limit = defaultSearchLimit
	case limit > maxSearchLimit:
		limit = maxSearchLimit
	}

	embedding, err := p.embedder.GenerateEmbedding(ctx, p.promptBuilder.BuildSearchQuery(query))
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := p.store.SearchSimilar(ctx, embedding, limit*searchOversample)
	if err != nil {
		return nil, err
	}

	best := make(map[string]models.CandidateMatch)
	for _, result := range results {
		if result.EvaluationID == "" {
			continue
		}
		if current, ok := best[result.EvaluationID]; ok && current.Score >= result.Score {
			continue
		}
		best[result.EvaluationID] = models.CandidateMatch{
			EvaluationID:    result.EvaluationID,
			FullName:        result.FullName,
			EmailID:         result.EmailID,
			MatchPercentage: result.MatchPercentage,
			Score:           result.Score,
			Snippet:         logger.TruncateForLog(result.Text, snippetLength),
		}
	}

	matches := make([]models.CandidateMatch, 0, len(best))
	for _, match := range best {
		matches = append(matches, match)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].EvaluationID < matches[j].EvaluationID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	p.logger.Debug("talent pool searched",
		zap.String("query", query),
		zap.Int("chunks", len(results)),
		zap.Int("candidates", len(matches)),
	)
	return matches, nil
}

// profileSummary puts the extracted fields in front of the resume text so they weigh in every search.
func profileSummary(profile *models.CandidateProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s>\n", profile.FullName, profile.EmailID)
	if len(profile.TechnicalSkills) > 0 {
		fmt.Fprintf(&b, "Technical skills: %s\n", strings.Join(profile.TechnicalSkills, ", "))
	}
	if len(profile.SoftSkills) > 0 {
		fmt.Fprintf(&b, "Soft skills: %s\n", strings.Join(profile.SoftSkills, ", "))
	}
	if profile.EmploymentDetails != "" {
		fmt.Fprintf(&b, "Employment: %s\n", profile.EmploymentDetails)
	}
	return strings.TrimSpace(b.String())
}

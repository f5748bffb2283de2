package services

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/models"
)

const defaultMaxLogLength = 200

// Extraction describes how a profile was selected from a raw model reply.
type Extraction struct {
	Profile    *models.CandidateProfile
	Index      int
	Candidates int
	Skipped    []SkippedCandidate
}

// SkippedCandidate records a fragment that was evaluated and rejected.
type SkippedCandidate struct {
	Index  int
	Status string
	Reason string
}

// ResponseExtractor turns a free-form model reply into a CandidateProfile.
// It performs no I/O and keeps no state between calls.
type ResponseExtractor struct {
	logger    *zap.Logger
	maxLogLen int
}

func NewResponseExtractor(log *zap.Logger, maxLogLength int) *ResponseExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &ResponseExtractor{
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// Extract returns the profile built from the first fragment that parses and
// satisfies the required-field contract.
func (e *ResponseExtractor) Extract(rawReply string) (*models.CandidateProfile, error) {
	extraction, err := e.Inspect(rawReply)
	if err != nil {
		return nil, err
	}
	return extraction.Profile, nil
}

// Inspect behaves like Extract and also reports which fragment won and why the
// others were skipped.
func (e *ResponseExtractor) Inspect(rawReply string) (*Extraction, error) {
	e.logger.Debug("extracting candidate profile",
		zap.Int("reply_length", utf8.RuneCountInString(rawReply)),
		zap.String("reply_preview", logger.TruncateForLog(rawReply, e.maxLogLen)),
	)

	fragments := FindJSONCandidates(rawReply)
	if len(fragments) == 0 {
		e.logger.Warn("no JSON-shaped content in model reply")
		return nil, &ExtractionError{Kind: ErrNoJSONContent}
	}

	extraction := &Extraction{Index: -1, Candidates: len(fragments)}

	for i, fragment := range fragments {
		result := evaluateCandidate(fragment)
		if result.status == candidateAccepted {
			extraction.Profile = result.profile
			extraction.Index = i
			e.logger.Debug("candidate selected",
				zap.Int("candidate_index", i),
				zap.Int("candidates", len(fragments)),
				zap.Int("skipped", len(extraction.Skipped)),
			)
			return extraction, nil
		}

		extraction.Skipped = append(extraction.Skipped, SkippedCandidate{
			Index:  i,
			Status: result.status.String(),
			Reason: result.reason,
		})
		e.logger.Debug("candidate skipped",
			zap.Int("candidate_index", i),
			zap.String("status", result.status.String()),
			zap.String("reason", result.reason),
		)
	}

	e.logger.Warn("no candidate satisfied the required-field contract",
		zap.Int("candidates", len(fragments)),
	)
	return nil, &ExtractionError{Kind: ErrNoValidCandidate, Candidates: len(fragments)}
}

// FindJSONCandidates returns every maximal balanced-brace substring of raw in
// order of appearance. Braces inside double-quoted strings within a fragment are
// ignored. An opening brace that is never closed is dropped and the scan resumes
// right after it.
func FindJSONCandidates(raw string) []string {
	var fragments []string

	pos := 0
	for pos < len(raw) {
		offset := strings.IndexByte(raw[pos:], '{')
		if offset == -1 {
			break
		}

		start := pos + offset
		end := matchingBrace(raw, start)
		if end == -1 {
			pos = start + 1
			continue
		}

		fragments = append(fragments, raw[start:end+1])
		pos = end + 1
	}

	return fragments
}

// matchingBrace returns the index of the brace closing the one at start, or -1.
func matchingBrace(raw string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		ch := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

package handlers

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/presenter"
	"alfredoptarigan/resume-matcher/internal/services"
)

// MatchHandler runs the whole pipeline inside the request.
type MatchHandler struct {
	parser       services.DocumentTextSource
	fetcher      services.JobDescriptionFetcher
	matchService services.MatchService
	maxFileSize  int64
	logger       *zap.Logger
}

func NewMatchHandler(
	parser services.DocumentTextSource,
	fetcher services.JobDescriptionFetcher,
	matchService services.MatchService,
	maxFileSize int64,
	log *zap.Logger,
) *MatchHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &MatchHandler{
		parser:       parser,
		fetcher:      fetcher,
		matchService: matchService,
		maxFileSize:  maxFileSize,
		logger:       log,
	}
}

// HandleMatch handles POST /match
func (h *MatchHandler) HandleMatch(c *fiber.Ctx) error {
	file, err := c.FormFile(resumeField)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No resume uploaded. Please upload a PDF, DOCX or TXT file as 'resume'.",
		})
	}
	if file.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Resume file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to open resume file",
		})
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read resume file",
		})
	}

	ctx := c.UserContext()

	resumeText, err := h.parser.ExtractText(file.Filename, data)
	if err != nil {
		return h.fail(c, err)
	}

	jobDescription := strings.TrimSpace(c.FormValue("job_description"))
	if jobDescription == "" {
		jobURL := strings.TrimSpace(c.FormValue("job_url"))
		if jobURL == "" || h.fetcher == nil {
			return h.fail(c, services.ErrNoJobDescription)
		}
		jobDescription, err = h.fetcher.Fetch(ctx, jobURL)
		if err != nil {
			if errors.Is(err, services.ErrEmptyJobDescription) {
				return h.fail(c, err)
			}
			h.logger.Warn("job description fetch failed", zap.String("job_url", jobURL), zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to fetch job description: %v", err),
			})
		}
	}

	result, err := h.matchService.Match(ctx, resumeText, jobDescription)
	if err != nil {
		body := presenter.ErrorBody(err)
		h.logger.Warn("match failed",
			zap.String("kind", body.Kind),
			zap.Bool("retryable", body.Retryable),
			zap.Error(err),
		)
		return c.Status(statusForKind(body.Kind)).JSON(body)
	}

	return c.JSON(presenter.MatchBody(result, c.QueryBool("show_raw")))
}

func (h *MatchHandler) fail(c *fiber.Ctx, err error) error {
	body := presenter.ErrorBody(err)
	return c.Status(statusForKind(body.Kind)).JSON(body)
}

// statusForKind maps a presenter error kind onto an HTTP status.
func statusForKind(kind string) int {
	switch kind {
	case presenter.KindExtraction, presenter.KindDocument:
		return fiber.StatusUnprocessableEntity
	case presenter.KindModelUnavailable:
		return fiber.StatusServiceUnavailable
	case presenter.KindModelTimeout:
		return fiber.StatusGatewayTimeout
	case presenter.KindModel:
		return fiber.StatusBadGateway
	case presenter.KindInput:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

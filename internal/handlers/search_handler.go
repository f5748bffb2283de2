package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/services"
)

type SearchHandler struct {
	talentPool services.TalentPool
	logger     *zap.Logger
}

// NewSearchHandler accepts a nil pool; searches then answer 503.
func NewSearchHandler(talentPool services.TalentPool, log *zap.Logger) *SearchHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SearchHandler{
		talentPool: talentPool,
		logger:     log,
	}
}

// HandleSearch handles GET /candidates/search?q=...&limit=...
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	if h.talentPool == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "talent pool search is not configured",
		})
	}

	query := strings.TrimSpace(c.Query("q"))
	limit := c.QueryInt("limit", 0)

	matches, err := h.talentPool.Search(c.UserContext(), query, limit)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "query parameter 'q' is required",
			})
		}
		h.logger.Error("talent pool search failed", zap.String("query", query), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to search talent pool",
		})
	}

	if matches == nil {
		matches = []models.CandidateMatch{}
	}
	return c.JSON(models.SearchResponse{
		Query:      query,
		Candidates: matches,
	})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
)

type ResultHandler struct {
	evalRepo repositories.EvaluationRepository
}

func NewResultHandler(evalRepo repositories.EvaluationRepository) *ResultHandler {
	return &ResultHandler{
		evalRepo: evalRepo,
	}
}

// HandleGetResult handles GET /result/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	evalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid evaluation ID format",
		})
	}

	evaluation, err := h.evalRepo.FindByID(evalID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Evaluation not found",
		})
	}

	response := models.ResultResponse{
		ID:     evaluation.ID.String(),
		Status: string(evaluation.Status),
	}

	if evaluation.Status == models.StatusCompleted && evaluation.Profile != nil {
		data := &models.EvaluationData{
			Profile:         evaluation.Profile,
			MatchPercentage: evaluation.Profile.MatchPercentage,
		}
		if evaluation.MatchPercentage != nil {
			data.MatchPercentage = *evaluation.MatchPercentage
		}
		if evaluation.CandidateIndex != nil {
			data.CandidateIndex = *evaluation.CandidateIndex
		}
		if evaluation.Provider != nil {
			data.Provider = *evaluation.Provider
		}
		response.Result = data
	}

	if evaluation.Status == models.StatusFailed && evaluation.ErrorMessage != nil && *evaluation.ErrorMessage != "" {
		response.ErrorMessage = evaluation.ErrorMessage
	}

	return c.JSON(response)
}

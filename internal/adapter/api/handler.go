package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"localore/internal/domain/entity"
	"localore/internal/usecase"
)

// apiError is the envelope every failed request is reported with.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func errorJSON(c *fiber.Ctx, status int, code, message, details string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": apiError{Code: code, Message: message, Details: details},
	})
}

type TriviaHandler struct {
	service *usecase.TriviaService
}

func NewTriviaHandler(service *usecase.TriviaService) *TriviaHandler {
	return &TriviaHandler{service: service}
}

// HandleTrivia serves POST /v1/trivia. The delivery layer maps business
// errors to HTTP status codes.
func (h *TriviaHandler) HandleTrivia(c *fiber.Ctx) error {
	var req entity.GenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "validation_error",
			"request body must be JSON with a keyword field", err.Error())
	}

	answer, err := h.service.Execute(c.Context(), req, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidKeyword):
			return errorJSON(c, fiber.StatusBadRequest, "validation_error", err.Error(), "")
		case errors.Is(err, entity.ErrRateLimited):
			return errorJSON(c, fiber.StatusTooManyRequests, "rate_limited", err.Error(), "")
		case errors.Is(err, entity.ErrMissingConfig):
			return errorJSON(c, fiber.StatusInternalServerError, "config_error", err.Error(), "")
		case errors.Is(err, entity.ErrGenerationFailed):
			return errorJSON(c, fiber.StatusInternalServerError, "generation_failed", err.Error(), "")
		default:
			return errorJSON(c, fiber.StatusInternalServerError, "internal_error",
				"trivia generation hit an unexpected error", "")
		}
	}

	c.Set("X-Localore-Cache", "miss")
	if answer.Cached {
		c.Set("X-Localore-Cache", "hit")
	}

	return c.Status(fiber.StatusOK).JSON(answer)
}

package handlers

import (
	"errors"

	"hs-compliance/internal/dto"
	"hs-compliance/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type KnowledgeHandler struct {
	ragService *service.RAGService
	logger     *zap.Logger
}

func NewKnowledgeHandler(ragService *service.RAGService, logger *zap.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		ragService: ragService,
		logger:     logger,
	}
}

// Search godoc
// @Summary Semantic search over the tariff schedule
// @Tags knowledge
// @Accept json
// @Produce json
// @Param request body dto.SearchRequest true "Search query"
// @Success 200 {object} dto.SearchResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /knowledge/search [post]
func (h *KnowledgeHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	results, err := h.ragService.Search(c.UserContext(), req.Query, req.TopK)
	if err != nil {
		if errors.Is(err, service.ErrKnowledgeNotReady) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: "Knowledge index is not built yet",
			})
		}
		h.logger.Error("Knowledge search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Knowledge search failed",
		})
	}

	return c.JSON(dto.SearchResponse{Query: req.Query, Results: results})
}

// Ask godoc
// @Summary Answer a question from the tariff schedule
// @Description Retrieves the nearest passages and asks the language model. Falls back to a fixed answer with sources when the model is unavailable.
// @Tags knowledge
// @Accept json
// @Produce json
// @Param request body dto.AskRequest true "Question"
// @Success 200 {object} models.Answer
// @Failure 400 {object} dto.ErrorResponse
// @Router /knowledge/ask [post]
func (h *KnowledgeHandler) Ask(c *fiber.Ctx) error {
	var req dto.AskRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	return c.JSON(h.ragService.Ask(c.UserContext(), req.Question, req.TopK))
}

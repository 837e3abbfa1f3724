package handlers

import (
	"errors"

	"hs-compliance/internal/dto"
	"hs-compliance/internal/models"
	"hs-compliance/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const defaultListLimit = 100

type ComplianceHandler struct {
	complianceService *service.ComplianceService
	logger            *zap.Logger
}

func NewComplianceHandler(complianceService *service.ComplianceService, logger *zap.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		complianceService: complianceService,
		logger:            logger,
	}
}

// CheckCompliance godoc
// @Summary Check whether a code or item may be imported
// @Description Decides by exact code, then by heading/chapter, then explains unknown codes. An item name is first resolved to a code.
// @Tags compliance
// @Accept json
// @Produce json
// @Param request body dto.CheckComplianceRequest false "Code or item name (POST)"
// @Param code query string false "HS/HTS code (GET)"
// @Param item_name query string false "Item name (GET)"
// @Success 200 {object} models.CheckResult
// @Failure 400 {object} dto.ErrorResponse
// @Router /compliance/check [post]
// @Router /compliance/check [get]
func (h *ComplianceHandler) CheckCompliance(c *fiber.Ctx) error {
	var req dto.CheckComplianceRequest
	bind := bindBody
	if c.Method() == fiber.MethodGet {
		bind = bindQuery
	}
	if ok, err := bind(c, &req); !ok {
		return err
	}

	result, err := h.complianceService.Check(c.UserContext(), req.Code, req.ItemName)
	if err != nil {
		if errors.Is(err, service.ErrMissingRequiredField) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "Either code or item_name is required",
			})
		}
		h.logger.Error("Compliance check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Compliance check failed",
		})
	}

	return c.JSON(result)
}

// ResolveItem godoc
// @Summary Resolve an item name to a code
// @Tags codes
// @Accept json
// @Produce json
// @Param request body dto.ResolveItemRequest true "Item name"
// @Success 200 {object} dto.ResolveResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /codes/resolve [post]
func (h *ComplianceHandler) ResolveItem(c *fiber.Ctx) error {
	var req dto.ResolveItemRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	resolution, record, found := h.complianceService.ResolveItem(req.ItemName)
	return c.JSON(h.resolveResponse(resolution, record, found))
}

// ResolveDescription godoc
// @Summary Resolve a free-text description to a code
// @Description Exact description match first, then partial matches.
// @Tags codes
// @Accept json
// @Produce json
// @Param request body dto.ResolveDescriptionRequest true "Description"
// @Success 200 {object} dto.ResolveResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /codes/resolve-description [post]
func (h *ComplianceHandler) ResolveDescription(c *fiber.Ctx) error {
	var req dto.ResolveDescriptionRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	resolution, record, found := h.complianceService.ResolveDescription(req.Description)
	return c.JSON(h.resolveResponse(resolution, record, found))
}

// ListCodes godoc
// @Summary List known codes
// @Description Codes in the order they appear in the tariff schedule
// @Tags codes
// @Produce json
// @Param limit query int false "Limit" default(100)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} dto.CodeListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /codes [get]
func (h *ComplianceHandler) ListCodes(c *fiber.Ctx) error {
	var query dto.ListCodesQuery
	if ok, err := bindQuery(c, &query); !ok {
		return err
	}
	if query.Limit == 0 {
		query.Limit = defaultListLimit
	}

	records, total := h.complianceService.ListCodes(query.Limit, query.Offset)

	codes := make([]dto.CodeResponse, len(records))
	for i, r := range records {
		codes[i] = h.toCodeResponse(r)
	}
	return c.JSON(dto.CodeListResponse{
		Codes:  codes,
		Total:  total,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
}

// GetCode godoc
// @Summary Get one code
// @Tags codes
// @Produce json
// @Param code path string true "HS/HTS code, dots allowed"
// @Success 200 {object} dto.CodeResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /codes/{code} [get]
func (h *ComplianceHandler) GetCode(c *fiber.Ctx) error {
	record, err := h.complianceService.GetCode(c.Params("code"))
	if err != nil {
		if errors.Is(err, service.ErrCodeNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "Code not found",
			})
		}
		h.logger.Error("Failed to get code", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Failed to get code",
		})
	}
	return c.JSON(h.toCodeResponse(record))
}

func (h *ComplianceHandler) resolveResponse(resolution models.Resolution, record *models.ClassificationCode, found bool) dto.ResolveResponse {
	if !found {
		return dto.ResolveResponse{Found: false}
	}
	resp := dto.ResolveResponse{
		Found:       true,
		Code:        resolution.Code,
		MatchedTerm: resolution.Term,
		Tier:        resolution.Tier,
	}
	if record != nil {
		r := h.toCodeResponse(*record)
		resp.Record = &r
	}
	return resp
}

func (h *ComplianceHandler) toCodeResponse(r models.ClassificationCode) dto.CodeResponse {
	return dto.CodeResponse{
		Code:        r.Code,
		Description: r.Description,
		Policy:      r.Policy,
		Allowed:     h.complianceService.IsPermitted(r.Policy),
	}
}

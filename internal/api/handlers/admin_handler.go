package handlers

import (
	"hs-compliance/internal/dto"
	"hs-compliance/internal/service"
	"hs-compliance/pkg/auth"
	"hs-compliance/pkg/config"
	"hs-compliance/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AdminHandler struct {
	knowledgeService *service.KnowledgeService
	jwtManager       *auth.JWTManager
	adminConfig      *config.AdminConfig
	logger           *zap.Logger
}

func NewAdminHandler(knowledgeService *service.KnowledgeService, jwtManager *auth.JWTManager, adminConfig *config.AdminConfig, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		knowledgeService: knowledgeService,
		jwtManager:       jwtManager,
		adminConfig:      adminConfig,
		logger:           logger,
	}
}

// Login godoc
// @Summary Log in as administrator
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	// an unset hash disables admin login entirely
	if h.adminConfig.PasswordHash == "" ||
		req.Username != h.adminConfig.Username ||
		!auth.CheckPasswordHash(req.Password, h.adminConfig.PasswordHash) {
		h.logger.Warn("Failed admin login", zap.String("username", req.Username))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: "Invalid credentials",
		})
	}

	token, err := h.jwtManager.GenerateToken(req.Username, auth.RoleAdmin)
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Login failed",
		})
	}

	return c.JSON(dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.jwtManager.GetTokenDuration().Seconds()),
	})
}

// Regenerate godoc
// @Summary Rebuild codes, terms and the semantic index
// @Description Drops the cache and rebuilds everything from the source document. Concurrent requests share one run.
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} service.RegenerationReport
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/regenerate [post]
func (h *AdminHandler) Regenerate(c *fiber.Ctx) error {
	h.logger.Info("Regeneration requested", zap.Any("username", c.Locals(middleware.LocalUsername)))

	report, err := h.knowledgeService.Regenerate(c.UserContext())
	if err != nil {
		h.logger.Error("Regeneration failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Regeneration failed",
		})
	}

	return c.JSON(report)
}

// Status godoc
// @Summary Describe the active knowledge snapshot
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.StatusResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /admin/status [get]
func (h *AdminHandler) Status(c *fiber.Ctx) error {
	return c.JSON(snapshotStatus(h.knowledgeService))
}

func snapshotStatus(knowledge service.SnapshotProvider) dto.StatusResponse {
	snapshot := knowledge.Snapshot()
	return dto.StatusResponse{
		Ready:      !snapshot.Empty(),
		Codes:      snapshot.Codes.Len(),
		Terms:      snapshot.Terms.Len(),
		Passages:   len(snapshot.Passages),
		SourceHash: snapshot.SourceHash,
		BuiltAt:    snapshot.BuiltAt,
	}
}

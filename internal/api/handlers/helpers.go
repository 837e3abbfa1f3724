package handlers

import (
	"errors"

	"hs-compliance/internal/dto"
	"hs-compliance/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// bindBody parses the JSON body into dst and validates it. On failure the
// 400 response has already been written and the returned error is the
// result of writing it.
func bindBody(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid request body",
		})
	}
	return validateRequest(c, dst)
}

func bindQuery(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.QueryParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid query parameters",
		})
	}
	return validateRequest(c, dst)
}

func validateRequest(c *fiber.Ctx, dst any) (bool, error) {
	if err := validate.Struct(dst); err != nil {
		resp := dto.ErrorResponse{Error: "Invalid request"}
		var fe *validate.FieldError
		if errors.As(err, &fe) {
			resp = dto.ErrorResponse{Error: fe.Message, Field: fe.Field}
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return true, nil
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ginix-arcade/arcade_api/dto"
	"github.com/ginix-arcade/arcade_api/shared"
)

type AdminHandler struct {
	rateLimitSvc RateLimitAdminInterface
}

func NewAdminHandler(rateLimitSvc RateLimitAdminInterface) *AdminHandler {
	return &AdminHandler{rateLimitSvc: rateLimitSvc}
}

// @Summary List Rate Limit Budgets
// @Description This endpoint lists the live per-endpoint rate limit budgets
// @Tags admin
// @Accept  json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} shared.Response{data=[]dto.RateLimitConfigResponse}
// @Router /api/v1/admin/ratelimits [get]
func (h *AdminHandler) GetRateLimits(c *fiber.Ctx) error {
	return shared.ResponseJSON(c, fiber.StatusOK, "Success", h.rateLimitSvc.ConfigSnapshot())
}

// @Summary Update Rate Limit Budget
// @Description This endpoint updates one endpoint's rate limit budget in place
// @Tags admin
// @Accept  json
// @Produce json
// @Security BearerAuth
// @Param endpointType path string true "Endpoint type"
// @Param updateRateLimitConfigRequest body dto.UpdateRateLimitConfigRequest true "Update request"
// @Success 200 {object} shared.Response{data=dto.RateLimitConfigResponse}
// @Router /api/v1/admin/ratelimits/{endpointType} [put]
func (h *AdminHandler) UpdateRateLimit(c *fiber.Ctx) error {
	endpointType := c.Params("endpointType")

	var req dto.UpdateRateLimitConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	config, err := h.rateLimitSvc.UpdateConfigFromRequest(endpointType, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", config)
}

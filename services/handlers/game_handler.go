package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ginix-arcade/arcade_api/dto"
	"github.com/ginix-arcade/arcade_api/shared"
)

type GameHandler struct {
	gameSvc GameServiceInterface
}

func NewGameHandler(gameSvc GameServiceInterface) *GameHandler {
	return &GameHandler{gameSvc: gameSvc}
}

// @Summary Start Game Session
// @Description This endpoint opens a play session and returns the session id and nonce
// @Tags game
// @Accept  json
// @Produce json
// @Param startSessionRequest body dto.StartSessionRequest true "Start session request"
// @Success 200 {object} shared.Response{data=dto.StartSessionResponse}
// @Router /api/v1/startSession [post]
func (h *GameHandler) StartSession(c *fiber.Ctx) error {
	var req dto.StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.gameSvc.StartSession(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Submit Score
// @Description This endpoint validates a reported result and commits XP, rewards, quests and badges
// @Tags game
// @Accept  json
// @Produce json
// @Param submitScoreRequest body dto.SubmitScoreRequest true "Submit score request"
// @Success 200 {object} shared.Response{data=dto.SubmitScoreResponse}
// @Router /api/v1/submitScore [post]
func (h *GameHandler) SubmitScore(c *fiber.Ctx) error {
	var req dto.SubmitScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.gameSvc.SubmitScore(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Player Stats
// @Description This endpoint returns a player's XP, session count, best scores and badges
// @Tags game
// @Accept  json
// @Produce json
// @Param wallet path string true "Wallet address"
// @Success 200 {object} shared.Response{data=dto.PlayerStatsResponse}
// @Router /api/v1/players/{wallet}/stats [get]
func (h *GameHandler) PlayerStats(c *fiber.Ctx) error {
	wallet := c.Params("wallet")

	resp, err := h.gameSvc.PlayerStats(wallet)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

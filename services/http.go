package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	log "github.com/sirupsen/logrus"

	_ "github.com/ginix-arcade/arcade_api/docs"
	"github.com/ginix-arcade/arcade_api/services/handlers"
	"github.com/ginix-arcade/arcade_api/shared"
)

type HttpService struct {
	context.DefaultService

	gameSvc      *GameService
	jwtSvc       *JWTService
	rateLimitSvc *RateLimitService
	monSvc       *MonitoringService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.gameSvc = svc.Service(GAME_SVC).(*GameService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.monSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	app := fiber.New(fiber.Config{
		AppName:               "arcade_api",
		DisableStartupMessage: os.Getenv("LOG_LEVEL") != "TRACE",
		ErrorHandler:          svc.errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(MonitoringMiddleware(svc.monSvc))

	gameHandler := handlers.NewGameHandler(svc.gameSvc)
	adminHandler := handlers.NewAdminHandler(svc.rateLimitSvc)

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	v1.Post("/startSession", gameHandler.StartSession)
	v1.Post("/submitScore", gameHandler.SubmitScore)
	v1.Get("/players/:wallet/stats", gameHandler.PlayerStats)

	admin := v1.Group("/admin", svc.requireAdmin)
	admin.Get("/ratelimits", adminHandler.GetRateLimits)
	admin.Put("/ratelimits/:endpointType", adminHandler.UpdateRateLimit)

	app.Use(func(c *fiber.Ctx) error {
		return shared.NewNotFoundError(errors.New("page not found"), "Not Found")
	})

	svc.server = app
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")
	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}

// errorHandler maps service errors to the response envelope. AppErrors carry
// their own status and optional data payload; anything else is a 500.
func (svc *HttpService) errorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.WithError(err).Error("Unhandled request error")
	return shared.ResponseInternalError(c, err)
}

func (svc *HttpService) requireAdmin(c *fiber.Ctx) error {
	token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get("Authorization"))
	if err != nil {
		return shared.NewUnauthorizedError(err, "Unauthorized")
	}

	subject, err := svc.jwtSvc.VerifyAdminToken(token)
	if err != nil {
		return shared.NewUnauthorizedError(err, "Unauthorized")
	}

	c.Locals("admin_id", subject)
	return c.Next()
}

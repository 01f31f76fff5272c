package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketchat/internal/adapter/api/handler"
	"marketchat/internal/adapter/api/middleware"
	"marketchat/internal/infrastructure/ratelimit"
)

// BasePath prefixes every backend route.
const BasePath = "/api"

type Handlers struct {
	ChatRoom *handler.ChatRoomHandler
	Listing  *handler.ListingHandler
	Health   *handler.HealthHandler
}

func Setup(e *echo.Echo, h Handlers, limiter *ratelimit.RateLimiter) {
	e.GET("/health", h.Health.CheckHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group(BasePath)
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter, "http"))
	}
	SetupChatRouter(api, h.ChatRoom)
	SetupListingRouter(api, h.Listing)
}

package router

import (
	"github.com/labstack/echo/v4"

	"marketchat/internal/adapter/api/handler"
)

func SetupListingRouter(g *echo.Group, listingHandler *handler.ListingHandler) {
	itemGroup := g.Group("/items")

	itemGroup.GET("/:id", listingHandler.GetListing)
	itemGroup.PUT("/:id/status", listingHandler.UpdateStatus)
}

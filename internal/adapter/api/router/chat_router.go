package router

import (
	"github.com/labstack/echo/v4"

	"marketchat/internal/adapter/api/handler"
)

// SetupChatRouter registers the chat room routes.
func SetupChatRouter(g *echo.Group, chatRoomHandler *handler.ChatRoomHandler) {
	chatGroup := g.Group("/chat/rooms")

	chatGroup.POST("", chatRoomHandler.CreateOrGetRoom) // POST /api/chat/rooms - create-or-get
	chatGroup.GET("/:roomId", chatRoomHandler.GetRoom)  // GET /api/chat/rooms/:roomId?userId=
}

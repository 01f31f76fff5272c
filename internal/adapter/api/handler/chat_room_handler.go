package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marketchat/internal/domain/entity"
	"marketchat/internal/usecase"
	"marketchat/pkg/errors"
	"marketchat/pkg/response"
)

type ChatRoomHandler struct {
	chatRoomUseCase *usecase.ChatRoomUseCase
}

func NewChatRoomHandler(chatRoomUseCase *usecase.ChatRoomUseCase) *ChatRoomHandler {
	return &ChatRoomHandler{
		chatRoomUseCase: chatRoomUseCase,
	}
}

// GetRoom returns the room seen from the userId query parameter.
func (h *ChatRoomHandler) GetRoom(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return response.Error(c, errors.BadRequest("userId is required", nil))
	}

	room, err := h.chatRoomUseCase.Lookup(c.Request().Context(), c.Param("roomId"), userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Raw(c, http.StatusOK, room)
}

// CreateOrGetRoom returns the room for the pair and listing, creating it on first contact.
func (h *ChatRoomHandler) CreateOrGetRoom(c echo.Context) error {
	var req entity.CreateRoomRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	room, err := h.chatRoomUseCase.CreateOrGet(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Raw(c, http.StatusOK, room)
}

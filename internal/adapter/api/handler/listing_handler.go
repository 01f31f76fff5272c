package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"marketchat/internal/domain/entity"
	"marketchat/internal/usecase"
	"marketchat/pkg/errors"
	"marketchat/pkg/response"
)

type ListingHandler struct {
	listingUseCase *usecase.ListingUseCase
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
	}
}

func (h *ListingHandler) GetListing(c echo.Context) error {
	id, err := parseListingID(c)
	if err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.GetByID(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Raw(c, http.StatusOK, listing)
}

func (h *ListingHandler) UpdateStatus(c echo.Context) error {
	id, err := parseListingID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req entity.StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.UpdateStatus(c.Request().Context(), id, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

func parseListingID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.BadRequest("Invalid listing id", err)
	}
	return id, nil
}

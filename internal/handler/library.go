package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-catalog/internal/model"
	"github.com/iliyamo/game-catalog/internal/service"
)

// LibraryHandler serves /api/users/:id/games.
type LibraryHandler struct {
	Library *service.LibraryService
}

func NewLibraryHandler(s *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{Library: s}
}

type addGameReq struct {
	GameID uint64 `json:"gameId"`
}

type playtimeReq struct {
	PlaytimeMinutes *uint32    `json:"playtimeMinutes"`
	LastPlayedAt    *time.Time `json:"lastPlayedAt"`
}

type libraryEntryResponse struct {
	GameID          uint64     `json:"gameId"`
	GameTitle       string     `json:"gameTitle"`
	PurchasedAt     time.Time  `json:"purchasedAt"`
	PlaytimeMinutes uint32     `json:"playtimeMinutes"`
	LastPlayedAt    *time.Time `json:"lastPlayedAt"`
}

func toEntry(e *model.LibraryEntry) libraryEntryResponse {
	return libraryEntryResponse{
		GameID:          e.GameID,
		GameTitle:       e.GameTitle,
		PurchasedAt:     e.PurchasedAt,
		PlaytimeMinutes: e.PlaytimeMinutes,
		LastPlayedAt:    e.LastPlayedAt,
	}
}

func (h *LibraryHandler) List(c echo.Context) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	entries, err := h.Library.List(ctx, actor(c), userID)
	if err != nil {
		return err
	}
	out := make([]libraryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntry(e))
	}
	return c.JSON(http.StatusOK, items(out))
}

func (h *LibraryHandler) Add(c echo.Context) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req addGameReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.GameID == 0 {
		return service.Invalid("gameId", "must be a positive integer")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	e, err := h.Library.Add(ctx, actor(c), userID, req.GameID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toEntry(e))
}

func (h *LibraryHandler) UpdatePlaytime(c echo.Context) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	gameID, err := parseID(c, "gameId")
	if err != nil {
		return err
	}
	var req playtimeReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.PlaytimeMinutes == nil {
		return service.Invalid("playtimeMinutes", "is required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	e, err := h.Library.UpdatePlaytime(ctx, actor(c), userID, gameID, service.PlaytimeInput{
		Minutes:      *req.PlaytimeMinutes,
		LastPlayedAt: req.LastPlayedAt,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEntry(e))
}

func (h *LibraryHandler) Remove(c echo.Context) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	gameID, err := parseID(c, "gameId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Library.Remove(ctx, actor(c), userID, gameID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

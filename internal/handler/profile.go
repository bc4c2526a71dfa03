package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-catalog/internal/model"
	"github.com/iliyamo/game-catalog/internal/service"
)

// ProfileHandler serves /api/users/:id/profile.
type ProfileHandler struct {
	Profiles *service.ProfileService
}

func NewProfileHandler(s *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{Profiles: s}
}

type profileReq struct {
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatarUrl"`
	Country     string `json:"country"`
}

type profileResponse struct {
	UserID      uint64    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatarUrl"`
	Country     string    `json:"country"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProfile(p *model.Profile) profileResponse {
	return profileResponse{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		Country:     p.Country,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Get is public.
func (h *ProfileHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.Profiles.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfile(p))
}

func (h *ProfileHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req profileReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.Profiles.Update(ctx, actor(c), id, service.ProfileInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfile(p))
}

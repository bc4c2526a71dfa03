package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-catalog/internal/model"
	"github.com/iliyamo/game-catalog/internal/service"
)

const dateLayout = "2006-01-02"

// CatalogHandler serves games and tags. Reads are public; writes go through
// the admin-only service methods.
type CatalogHandler struct {
	Catalog *service.CatalogService
}

func NewCatalogHandler(s *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{Catalog: s}
}

type gameReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Developer   string   `json:"developer"`
	Publisher   string   `json:"publisher"`
	ReleaseDate string   `json:"releaseDate"` // YYYY-MM-DD, optional
	PriceCents  uint32   `json:"priceCents"`
	TagIDs      []uint64 `json:"tagIds"`
}

func (r gameReq) input() (service.GameInput, error) {
	in := service.GameInput{
		Title:       r.Title,
		Description: r.Description,
		Developer:   r.Developer,
		Publisher:   r.Publisher,
		PriceCents:  r.PriceCents,
		TagIDs:      r.TagIDs,
	}
	if r.ReleaseDate != "" {
		d, err := time.Parse(dateLayout, r.ReleaseDate)
		if err != nil {
			return in, service.Invalid("releaseDate", "must be a date in YYYY-MM-DD format")
		}
		in.ReleaseDate = &d
	}
	return in, nil
}

type tagReq struct {
	Name string `json:"name"`
}

type tagResponse struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type gameResponse struct {
	ID          uint64        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Developer   string        `json:"developer"`
	Publisher   string        `json:"publisher"`
	ReleaseDate *string       `json:"releaseDate"`
	PriceCents  uint32        `json:"priceCents"`
	Tags        []tagResponse `json:"tags"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func toTag(t model.Tag) tagResponse { return tagResponse{ID: t.ID, Name: t.Name} }

func toGame(g *model.Game) gameResponse {
	out := gameResponse{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Developer:   g.Developer,
		Publisher:   g.Publisher,
		PriceCents:  g.PriceCents,
		Tags:        make([]tagResponse, 0, len(g.Tags)),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
	if g.ReleaseDate != nil {
		s := g.ReleaseDate.Format(dateLayout)
		out.ReleaseDate = &s
	}
	for _, t := range g.Tags {
		out.Tags = append(out.Tags, toTag(t))
	}
	return out
}

// ListGames supports ?tag=<name>, ?q=<title substring>, ?page= and ?size=.
func (h *CatalogHandler) ListGames(c echo.Context) error {
	p, err := pageFrom(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	games, err := h.Catalog.ListGames(ctx, service.GameQuery{Tag: c.QueryParam("tag"), Query: c.QueryParam("q"), Page: p})
	if err != nil {
		return err
	}
	out := make([]gameResponse, 0, len(games))
	for _, g := range games {
		out = append(out, toGame(g))
	}
	return c.JSON(http.StatusOK, pagedItems(out, p))
}

func (h *CatalogHandler) GetGame(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	g, err := h.Catalog.GetGame(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGame(g))
}

func (h *CatalogHandler) CreateGame(c echo.Context) error {
	var req gameReq
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	g, err := h.Catalog.CreateGame(ctx, actor(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toGame(g))
}

func (h *CatalogHandler) UpdateGame(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req gameReq
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	g, err := h.Catalog.UpdateGame(ctx, actor(c), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGame(g))
}

func (h *CatalogHandler) DeleteGame(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Catalog.DeleteGame(ctx, actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) ListTags(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	tags, err := h.Catalog.ListTags(ctx)
	if err != nil {
		return err
	}
	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTag(t))
	}
	return c.JSON(http.StatusOK, items(out))
}

func (h *CatalogHandler) GetTag(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	t, err := h.Catalog.GetTag(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTag(*t))
}

func (h *CatalogHandler) CreateTag(c echo.Context) error {
	var req tagReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	t, err := h.Catalog.CreateTag(ctx, actor(c), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTag(*t))
}

func (h *CatalogHandler) RenameTag(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req tagReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	t, err := h.Catalog.RenameTag(ctx, actor(c), id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTag(*t))
}

func (h *CatalogHandler) DeleteTag(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Catalog.DeleteTag(ctx, actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

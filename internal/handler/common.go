package handler // HTTP handlers translating requests into service calls

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-catalog/internal/authz"
	"github.com/iliyamo/game-catalog/internal/model"
	"github.com/iliyamo/game-catalog/internal/service"
)

// requestTimeout bounds the store work done for a single request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actor returns the identity bound by the Identity middleware, or nil.
func actor(c echo.Context) *model.User {
	return authz.FromContext(c.Request().Context())
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, service.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// pageFrom reads ?page= and ?size=.
func pageFrom(c echo.Context) (service.Page, error) {
	number, err := queryInt(c, "page")
	if err != nil {
		return service.Page{}, err
	}
	size, err := queryInt(c, "size")
	if err != nil {
		return service.Page{}, err
	}
	return service.NewPage(number, size)
}

func queryInt(c echo.Context, name string) (int, error) {
	s := c.QueryParam(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, service.Invalid(name, "must be an integer")
	}
	return n, nil
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return badRequest("malformed request body")
	}
	return nil
}

// itemsResponse wraps list results.
type itemsResponse[T any] struct {
	Items []T  `json:"items"`
	Page  *int `json:"page,omitempty"`
	Size  *int `json:"size,omitempty"`
}

func items[T any](list []T) itemsResponse[T] {
	if list == nil {
		list = []T{}
	}
	return itemsResponse[T]{Items: list}
}

func pagedItems[T any](list []T, p service.Page) itemsResponse[T] {
	r := items(list)
	n, s := p.Number, p.Limit()
	r.Page, r.Size = &n, &s
	return r
}

type userResponse struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUser(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/game-catalog/internal/config"
	"github.com/iliyamo/game-catalog/internal/handler"
	"github.com/iliyamo/game-catalog/internal/middleware"
	"github.com/iliyamo/game-catalog/internal/model"
	"github.com/iliyamo/game-catalog/internal/utils"
)

// Deps is everything the route table needs.
type Deps struct {
	Log   logrus.FieldLogger
	Codec *utils.TokenCodec
	Users middleware.UserLookup
	DB    handler.Pinger // nil skips the database check in /healthz
	Redis *redis.Client  // nil disables rate limiting and caching

	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig

	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Profile *handler.ProfileHandler
	Library *handler.LibraryHandler
	Catalog *handler.CatalogHandler
}

// New builds an Echo instance with the global middleware chain, the error
// handler and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: newRequestID}))
	e.Use(middleware.Identity(d.Codec, d.Users, d.Log))
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e, d)
	return e
}

// RegisterRoutes maps every endpoint. Identity is resolved globally by New;
// the guards here only decide whether an anonymous or under-privileged
// caller may proceed.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))

	api := e.Group("/api")

	// Login and registration need no identity; they are rate limited per
	// client IP and route.
	auth := api.Group("/auth", middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
	auth.POST("/login", d.Auth.Login)
	auth.POST("/register", d.Auth.Register)
	auth.GET("/me", d.Auth.Me, middleware.RequireAuth())

	// Profiles are public to read. Everything else under /users needs a
	// caller; ownership is checked by the services (self-or-admin).
	api.GET("/users/:id/profile", d.Profile.Get)

	users := api.Group("/users", middleware.RequireAuth())
	users.GET("", d.User.List, middleware.RequireRole(model.RoleAdmin))
	users.GET("/:id", d.User.Get)
	users.PUT("/:id", d.User.Update)
	users.DELETE("/:id", d.User.Delete)
	users.PUT("/:id/profile", d.Profile.Update)
	users.GET("/:id/games", d.Library.List)
	users.POST("/:id/games", d.Library.Add)
	users.PUT("/:id/games/:gameId", d.Library.UpdatePlaytime)
	users.DELETE("/:id/games/:gameId", d.Library.Remove)

	// Catalog reads are public and cached; writes are admin only and purge
	// the cache once they succeed.
	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)
	admin := []echo.MiddlewareFunc{
		middleware.RequireRole(model.RoleAdmin),
		middleware.PurgeCache(d.Cache, d.Redis, d.Log),
	}

	games := api.Group("/games")
	games.GET("", d.Catalog.ListGames, cache)
	games.GET("/:id", d.Catalog.GetGame, cache)
	games.POST("", d.Catalog.CreateGame, admin...)
	games.PUT("/:id", d.Catalog.UpdateGame, admin...)
	games.DELETE("/:id", d.Catalog.DeleteGame, admin...)

	tags := api.Group("/tags")
	tags.GET("", d.Catalog.ListTags, cache)
	tags.GET("/:id", d.Catalog.GetTag, cache)
	tags.POST("", d.Catalog.CreateTag, admin...)
	tags.PUT("/:id", d.Catalog.RenameTag, admin...)
	tags.DELETE("/:id", d.Catalog.DeleteTag, admin...)
}

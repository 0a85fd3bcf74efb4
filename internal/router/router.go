// Package router registers the HTTP routes.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/openmicnights/openmic/internal/config"
	"github.com/openmicnights/openmic/internal/handler"
	"github.com/openmicnights/openmic/internal/middleware"
)

// Handlers bundles every handler the router needs.
type Handlers struct {
	Auth     *handler.AuthHandler
	Show     *handler.ShowHandler
	Instance *handler.InstanceHandler
	Signup   *handler.SignupHandler
	Lineup   *handler.LineupHandler
	Public   *handler.PublicHandler
	Calendar *handler.CalendarHandler
}

// Register wires all routes. Public browse endpoints get the response
// cache; everything gets the rate limiter; management and signup
// endpoints require a valid access token.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	jwtAuth := middleware.JWTAuth(cfg.JWTSecret)

	// Auth: no token required except logout-all.
	auth := e.Group("/v1/auth", limiter)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Public browse endpoints, cached.
	pub := e.Group("/v1", limiter, cache)
	pub.GET("/shows", h.Public.ListShows)
	pub.GET("/shows/:id", h.Public.ShowDetail)
	pub.GET("/shows/:id/instances", h.Public.ShowInstances)
	pub.GET("/shows/:id/calendar.ics", h.Calendar.ICSFeed)
	pub.GET("/instances/:id", h.Public.InstanceDetail)
	pub.GET("/instances/:id/lineup", h.Public.Lineup)
	pub.GET("/calendar", h.Public.Calendar)

	// Authenticated endpoints.
	api := e.Group("/v1", limiter, jwtAuth)
	api.GET("/me", h.Auth.Me)
	api.GET("/my/shows", h.Show.ListMine)
	api.GET("/my/signups", h.Signup.Mine)

	api.POST("/shows", h.Show.Create)
	api.PUT("/shows/:id", h.Show.Update)
	api.DELETE("/shows/:id", h.Show.Delete)
	api.POST("/shows/:id/restore", h.Show.Restore)
	api.POST("/shows/:id/runners", h.Show.AddRunner)
	api.DELETE("/shows/:id/runners", h.Show.RemoveRunner)
	api.POST("/shows/:id/hosts", h.Show.AddHost)
	api.DELETE("/shows/:id/hosts", h.Show.RemoveHost)

	api.POST("/instances/:id/cancel", h.Instance.Cancel)
	api.POST("/instances/:id/restore", h.Instance.Restore)
	api.PUT("/instances/:id/overrides", h.Instance.Overrides)
	api.PUT("/instances/:id/host", h.Instance.SetHost)

	api.POST("/instances/:id/signups", h.Signup.SignUp)
	api.DELETE("/signups/:id", h.Signup.Cancel)
	api.PATCH("/signups/:id", h.Lineup.UpdateFlags)

	api.GET("/instances/:id/manage/lineup", h.Lineup.Manage)
	api.PUT("/instances/:id/lineup", h.Lineup.Reorder)
	api.POST("/instances/:id/walkins", h.Lineup.AddWalkin)
}

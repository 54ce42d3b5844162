package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-coordinator/internal/handler"
	"github.com/iliyamo/cinema-seat-coordinator/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterSeatmap registers the viewer-facing seat map endpoints.  Viewers
// are anonymous, so no JWT middleware applies here; the websocket endpoint
// identifies each connection by its server-issued session id instead.  The
// optional rate limiter protects the polling endpoints from tight refresh
// loops.
func RegisterSeatmap(e *echo.Echo, ws *handler.SeatmapHandler, state *handler.SeatStateHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/showings")
	if limiter != nil {
		g.Use(limiter)
	}
	// Live seat map: upgrades to a websocket, streams seat events and
	// snapshots, and accepts SELECT/DESELECT intents.
	g.GET("/:id/seatmap/ws", ws.ServeWS)
	// One-shot views for clients that cannot hold a socket open.
	g.GET("/:id/locks", state.GetLocks)
	g.GET("/:id/seats", state.GetSeatmap)
}

// RegisterSchedule registers the operator-facing scheduling endpoints.  All
// of them require a valid access token carrying the OPERATOR role, since
// creating or moving showings changes what every viewer sees.
func RegisterSchedule(e *echo.Echo, s *handler.ScheduleHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("OPERATOR"))

	// Room-scoped: create a showing, dry-run a proposed window, list the
	// scheduled showings of a room.
	g.POST("/rooms/:id/showings", s.CreateShowing)
	g.POST("/rooms/:id/showings/validate", s.ValidateShowing)
	g.GET("/rooms/:id/showings", s.ListRoomShowings)

	// Showing-scoped: move or cancel an existing showing.
	g.PUT("/showings/:id", s.RescheduleShowing)
	g.DELETE("/showings/:id", s.DeleteShowing)
}

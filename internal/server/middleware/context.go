package middleware

import (
	"github.com/labstack/echo/v4"

	"loreweave/pkg/graph"
	"loreweave/pkg/store"
)

// App carries the read-side dependencies every handler needs: the
// hydrated in-memory graph plus the storage backend for analysis
// snapshots the worker persisted.
type App struct {
	Graph   *graph.Store
	Storage store.GraphStorage
	GraphID string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}

package server

import (
	"loreweave/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Node routes
	apiRoutes.GET("/nodes", routes.SearchNodesHandler)
	apiRoutes.GET("/nodes/:id", routes.GetNodeHandler)
	apiRoutes.GET("/nodes/:id/children", routes.GetChildrenHandler)
	apiRoutes.GET("/nodes/:id/neighborhood", routes.GetNeighborhoodHandler)
	apiRoutes.GET("/nodes/:id/ego", routes.GetEgoNetworkHandler)

	// Graph routes
	apiRoutes.GET("/paths", routes.GetShortestPathHandler)

	// Analytics routes
	apiRoutes.GET("/statistics", routes.GetStatisticsHandler)
	apiRoutes.GET("/communities", routes.GetCommunitiesHandler)
	apiRoutes.GET("/centrality", routes.GetCentralityHandler)
}

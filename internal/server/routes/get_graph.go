package routes

import (
	"net/http"

	"loreweave/internal/server/middleware"
	"loreweave/pkg/common"
	"loreweave/pkg/query"

	"github.com/labstack/echo/v4"
)

func GetNeighborhoodHandler(c echo.Context) error {
	type getNeighborhoodParams struct {
		ID    string `param:"id" validate:"required"`
		Depth int    `query:"depth"`
	}

	type getNeighborhoodResponse struct {
		Message string         `json:"message"`
		Nodes   []*common.Node `json:"data"`
	}

	params := new(getNeighborhoodParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getNeighborhoodResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getNeighborhoodResponse{
			Message: "Invalid request params",
		})
	}
	if params.Depth <= 0 {
		params.Depth = 1
	}

	graph := c.(*middleware.AppContext).App.Graph
	if !graph.HasNode(params.ID) {
		return c.JSON(http.StatusNotFound, getNeighborhoodResponse{
			Message: "Node not found",
		})
	}

	return c.JSON(http.StatusOK, getNeighborhoodResponse{
		Message: "Neighborhood found",
		Nodes:   query.Neighborhood(graph, params.ID, params.Depth),
	})
}

func GetEgoNetworkHandler(c echo.Context) error {
	type getEgoParams struct {
		ID            string `param:"id" validate:"required"`
		Radius        int    `query:"radius"`
		NeighborEdges bool   `query:"neighborEdges"`
	}

	type getEgoResponse struct {
		Message  string          `json:"message"`
		Subgraph *query.Subgraph `json:"data,omitempty"`
	}

	params := new(getEgoParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getEgoResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getEgoResponse{
			Message: "Invalid request params",
		})
	}
	if params.Radius <= 0 {
		params.Radius = 1
	}

	graph := c.(*middleware.AppContext).App.Graph
	sub := query.EgoNetwork(graph, params.ID, params.Radius, params.NeighborEdges)
	if sub == nil {
		return c.JSON(http.StatusNotFound, getEgoResponse{
			Message: "Node not found",
		})
	}

	return c.JSON(http.StatusOK, getEgoResponse{
		Message: "Ego network found",
		Subgraph: sub,
	})
}

func GetShortestPathHandler(c echo.Context) error {
	type getPathParams struct {
		From string `query:"from" validate:"required"`
		To   string `query:"to" validate:"required"`
	}

	type getPathResponse struct {
		Message string      `json:"message"`
		Path    *query.Path `json:"data,omitempty"`
	}

	params := new(getPathParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getPathResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getPathResponse{
			Message: "Invalid request params",
		})
	}

	graph := c.(*middleware.AppContext).App.Graph
	path := query.ShortestPath(graph, params.From, params.To)
	if path == nil {
		return c.JSON(http.StatusNotFound, getPathResponse{
			Message: "No path found",
		})
	}

	return c.JSON(http.StatusOK, getPathResponse{
		Message: "Path found",
		Path:    path,
	})
}

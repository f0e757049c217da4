package routes

import (
	"net/http"

	"loreweave/internal/server/middleware"
	"loreweave/pkg/common"
	"loreweave/pkg/query"

	"github.com/labstack/echo/v4"
)

func GetNodeHandler(c echo.Context) error {
	type getNodeParams struct {
		ID string `param:"id" validate:"required"`
	}

	type getNodeResponse struct {
		Message string       `json:"message"`
		Node    *common.Node `json:"data,omitempty"`
	}

	params := new(getNodeParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getNodeResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getNodeResponse{
			Message: "Invalid request params",
		})
	}

	graph := c.(*middleware.AppContext).App.Graph
	node := graph.GetNode(params.ID)
	if node == nil {
		return c.JSON(http.StatusNotFound, getNodeResponse{
			Message: "Node not found",
		})
	}

	return c.JSON(http.StatusOK, getNodeResponse{
		Message: "Node found",
		Node:    node,
	})
}

func SearchNodesHandler(c echo.Context) error {
	type searchNodesParams struct {
		Label string `query:"label" validate:"required"`
		Fuzzy bool   `query:"fuzzy"`
	}

	type searchNodesResponse struct {
		Message string         `json:"message"`
		Nodes   []*common.Node `json:"data"`
	}

	params := new(searchNodesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, searchNodesResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, searchNodesResponse{
			Message: "Invalid request params",
		})
	}

	graph := c.(*middleware.AppContext).App.Graph
	nodes := query.SearchByLabel(graph, params.Label, params.Fuzzy)

	return c.JSON(http.StatusOK, searchNodesResponse{
		Message: "Search complete",
		Nodes:   nodes,
	})
}

func GetChildrenHandler(c echo.Context) error {
	type getChildrenParams struct {
		ID string `param:"id" validate:"required"`
	}

	type getChildrenResponse struct {
		Message string         `json:"message"`
		Nodes   []*common.Node `json:"data"`
	}

	params := new(getChildrenParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getChildrenResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getChildrenResponse{
			Message: "Invalid request params",
		})
	}

	graph := c.(*middleware.AppContext).App.Graph
	if !graph.HasNode(params.ID) {
		return c.JSON(http.StatusNotFound, getChildrenResponse{
			Message: "Node not found",
		})
	}

	return c.JSON(http.StatusOK, getChildrenResponse{
		Message: "Children found",
		Nodes:   query.Children(graph, params.ID),
	})
}

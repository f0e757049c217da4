package routes

import (
	"net/http"

	"loreweave/internal/server/middleware"
	"loreweave/pkg/analytics"

	"github.com/labstack/echo/v4"
)

func GetStatisticsHandler(c echo.Context) error {
	type getStatisticsResponse struct {
		Message    string               `json:"message"`
		Statistics analytics.Statistics `json:"data"`
	}

	graph := c.(*middleware.AppContext).App.Graph
	return c.JSON(http.StatusOK, getStatisticsResponse{
		Message:    "Statistics computed",
		Statistics: analytics.ComputeStatistics(graph),
	})
}

func GetCommunitiesHandler(c echo.Context) error {
	type getCommunitiesResponse struct {
		Message     string     `json:"message"`
		Communities [][]string `json:"data"`
	}

	graph := c.(*middleware.AppContext).App.Graph
	return c.JSON(http.StatusOK, getCommunitiesResponse{
		Message:     "Communities detected",
		Communities: analytics.DetectCommunities(graph),
	})
}

func GetCentralityHandler(c echo.Context) error {
	type getCentralityParams struct {
		Measure string `query:"measure" validate:"required,oneof=degree betweenness closeness"`
	}

	type getCentralityResponse struct {
		Message string             `json:"message"`
		Scores  map[string]float64 `json:"data"`
	}

	params := new(getCentralityParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getCentralityResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getCentralityResponse{
			Message: "Invalid request params",
		})
	}

	graph := c.(*middleware.AppContext).App.Graph

	var scores map[string]float64
	switch params.Measure {
	case "betweenness":
		scores = analytics.BetweennessCentrality(graph)
	case "closeness":
		scores = analytics.ClosenessCentrality(graph)
	default:
		scores = analytics.DegreeCentrality(graph)
	}

	return c.JSON(http.StatusOK, getCentralityResponse{
		Message: "Centrality computed",
		Scores:  scores,
	})
}

package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "loreweave/internal/server/middleware"
	"loreweave/internal/util"
	"loreweave/pkg/graph"
	"loreweave/pkg/logger"
	storepgx "loreweave/pkg/store/pgx"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// Init starts the read API. The graph is hydrated from storage once at
// startup; the worker owns all writes, so the server treats its copy as
// a read replica refreshed by restart.
func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	backend := storepgx.NewGraphDBStorageWithConnection(conn)
	if err := backend.CreateSchema(ctx); err != nil {
		logger.Fatal("Failed to create schema", "err", err)
	}

	graphID := util.GetEnvString("GRAPH_ID", "default")
	g := graph.New()
	nodes, edges, err := backend.LoadGraph(ctx, graphID)
	if err != nil {
		logger.Fatal("Failed to load graph", "err", err)
	}
	if len(nodes) > 0 {
		if err := g.Restore(nodes, edges); err != nil {
			logger.Warn("Partial graph restore", "err", err)
		}
	}
	logger.Info("Graph hydrated", "graphId", graphID, "nodes", len(nodes), "edges", len(edges))

	app := &mid.App{
		Graph:   g,
		Storage: backend,
		GraphID: graphID,
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

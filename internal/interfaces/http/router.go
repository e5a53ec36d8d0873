package http

import (
	"github.com/gofiber/fiber/v2"

	appstock "github.com/showclinic/clinica-stock/internal/application/stock"
	"github.com/showclinic/clinica-stock/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Allocation *appstock.AllocationUseCase
	Queries    *appstock.StockQueryUseCase
	Log        *logger.Logger
	JWTSecret  string
}

// Router registra las rutas de la API. Todas las operaciones de stock
// requieren Bearer Token: el operador queda registrado en el libro.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	stockHandler := NewStockHandler(deps.Allocation, deps.Queries, deps.Log)
	stockGroup := api.Group("/stock")
	stockGroup.Post("/receive", stockHandler.Receive)
	stockGroup.Post("/reserve", stockHandler.Reserve)
	stockGroup.Post("/consume", stockHandler.Consume)
	stockGroup.Get("/lots", stockHandler.ListLots)
	stockGroup.Get("/movements", stockHandler.ListMovements)
	stockGroup.Get("/movements/:id", stockHandler.GetMovement)
}

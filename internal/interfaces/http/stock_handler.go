package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	appstock "github.com/showclinic/clinica-stock/internal/application/stock"
	"github.com/showclinic/clinica-stock/internal/application/dto"
	"github.com/showclinic/clinica-stock/internal/domain"
	"github.com/showclinic/clinica-stock/internal/domain/entity"
	"github.com/showclinic/clinica-stock/pkg/logger"
)

// StockHandler maneja las peticiones HTTP del motor de stock (protegido).
type StockHandler struct {
	alloc   *appstock.AllocationUseCase
	queries *appstock.StockQueryUseCase
	log     *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(alloc *appstock.AllocationUseCase, queries *appstock.StockQueryUseCase, log *logger.Logger) *StockHandler {
	return &StockHandler{alloc: alloc, queries: queries, log: log}
}

// Receive godoc
// @Summary      Recepción de mercancía multi-línea
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "líneas con variant_id, lot_code, expiry_date, quantity o presentation_count"
// @Success      201   {object}  dto.ReceiveResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/stock/receive [post]
func (h *StockHandler) Receive(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	input := appstock.ReceiveInput{
		Reason:  in.Reason,
		RefType: in.RefType,
		RefID:   in.RefID,
		UserID:  userID,
	}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, appstock.ReceiveLine{
			VariantID:         l.VariantID,
			LotCode:           l.LotCode,
			ExpiryDate:        l.ExpiryDate,
			Location:          l.Location,
			StorageCondition:  l.StorageCondition,
			Quantity:          l.Quantity,
			PresentationCount: l.PresentationCount,
			UnitCost:          l.UnitCost,
			DocumentRef:       l.DocumentRef,
		})
	}

	result, err := h.alloc.Receive(c.Context(), input)
	if err != nil {
		return h.mapError(c, err)
	}

	out := dto.ReceiveResponse{MovementID: result.MovementID, Lines: make([]dto.ReceiveLineStatusResponse, 0, len(result.Lines))}
	for _, s := range result.Lines {
		out.Lines = append(out.Lines, dto.ReceiveLineStatusResponse{
			Index:    s.Index,
			Applied:  s.Applied,
			LotID:    s.LotID,
			Quantity: s.Quantity,
			Created:  s.Created,
			Error:    s.Error,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Reserve godoc
// @Summary      Reserva blanda de stock en orden FEFO
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "variant_id, quantity y referencia de negocio opcional"
// @Success      201   {object}  dto.AllocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/reserve [post]
func (h *StockHandler) Reserve(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	result, err := h.alloc.Reserve(c.Context(), appstock.ReserveInput{
		VariantID: in.VariantID,
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		RefType:   in.RefType,
		RefID:     in.RefID,
		UserID:    userID,
	})
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAllocationResponse(result))
}

// Consume godoc
// @Summary      Salida de stock (FEFO o dirigida a un lote)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumeRequest  true  "variant_id, quantity, lot_id opcional para modo dirigido"
// @Success      201   {object}  dto.AllocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/consume [post]
func (h *StockHandler) Consume(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ConsumeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	result, err := h.alloc.Consume(c.Context(), appstock.ConsumeInput{
		VariantID: in.VariantID,
		Quantity:  in.Quantity,
		LotID:     in.LotID,
		Reason:    in.Reason,
		RefType:   in.RefType,
		RefID:     in.RefID,
		UserID:    userID,
	})
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAllocationResponse(result))
}

// ListLots godoc
// @Summary      Lotes de una variante con saldos, en orden FEFO
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        variant_id  query  string  true  "ID de la variante"
// @Success      200  {array}   dto.StockLotResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/lots [get]
func (h *StockHandler) ListLots(c *fiber.Ctx) error {
	variantID := c.Query("variant_id")
	lots, err := h.queries.ListLots(variantID)
	if err != nil {
		return h.mapError(c, err)
	}
	out := make([]dto.StockLotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, toStockLotResponse(l))
	}
	return c.JSON(out)
}

// GetMovement godoc
// @Summary      Movimiento con su desglose por lote
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementWithDetailsResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/movements/{id} [get]
func (h *StockHandler) GetMovement(c *fiber.Ctx) error {
	mov, err := h.queries.GetMovement(c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	out := dto.MovementWithDetailsResponse{
		MovementResponse: toMovementResponse(mov.Movement),
		Details:          make([]dto.MovementDetailResponse, 0, len(mov.Details)),
	}
	for _, d := range mov.Details {
		out.Details = append(out.Details, dto.MovementDetailResponse{
			ID:        d.ID,
			VariantID: d.VariantID,
			LotID:     d.LotID,
			Quantity:  d.Quantity,
			UnitCost:  d.UnitCost,
		})
	}
	return c.JSON(out)
}

// ListMovements godoc
// @Summary      Historial de movimientos por variante o por lote
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        variant_id  query  string  false  "filtrar por variante"
// @Param        lot_id      query  string  false  "filtrar por lote"
// @Param        from        query  string  false  "fecha inicial RFC3339"
// @Param        to          query  string  false  "fecha final RFC3339"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	page.DefaultPage()

	from, err := parseTimeQuery(c.Query("from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "from debe ser RFC3339"})
	}
	to, err := parseTimeQuery(c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "to debe ser RFC3339"})
	}

	var movements []*entity.Movement
	switch {
	case c.Query("lot_id") != "":
		movements, err = h.queries.ListMovementsByLot(c.Query("lot_id"), from, to, page.Limit, page.Offset)
	case c.Query("variant_id") != "":
		movements, err = h.queries.ListMovementsByVariant(c.Query("variant_id"), from, to, page.Limit, page.Offset)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "variant_id o lot_id requerido"})
	}
	if err != nil {
		return h.mapError(c, err)
	}

	out := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementResponse(m))
	}
	return c.JSON(out)
}

// mapError traduce errores de dominio a códigos HTTP. Los errores de negocio
// son esperados; los de infraestructura se loguean con contexto y se reportan
// de forma genérica.
func (h *StockHandler) mapError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:      "INSUFFICIENT_STOCK",
			Message:   insufficient.Error(),
			Requested: insufficient.Requested.String(),
			Available: insufficient.Available.String(),
		})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: "cantidad debe ser positiva"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrLotNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "LOT_NOT_FOUND", Message: "lote no encontrado para la variante"})
	case errors.Is(err, domain.ErrVariantNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "VARIANT_NOT_FOUND", Message: "variante no encontrada"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	default:
		h.log.Error().Err(err).Str("path", c.Path()).Msg("fallo de infraestructura en operación de stock")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

func parseTimeQuery(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toAllocationResponse(r *appstock.AllocationResult) dto.AllocationResponse {
	out := dto.AllocationResponse{MovementID: r.MovementID, Allocations: make([]dto.AllocationLineResponse, 0, len(r.Allocations))}
	for _, a := range r.Allocations {
		out.Allocations = append(out.Allocations, dto.AllocationLineResponse{LotID: a.LotID, Quantity: a.Quantity})
	}
	return out
}

func toStockLotResponse(l *entity.StockLot) dto.StockLotResponse {
	return dto.StockLotResponse{
		ID:               l.ID,
		VariantID:        l.VariantID,
		LotCode:          l.LotCode,
		ExpiryDate:       l.ExpiryDate,
		Location:         l.Location,
		StorageCondition: l.StorageCondition,
		QuantityOnHand:   l.QuantityOnHand,
		QuantityReserved: l.QuantityReserved,
		Available:        l.Available(),
		Status:           l.Status,
		UpdatedAt:        l.UpdatedAt,
	}
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:        m.ID,
		Type:      m.Type,
		Reason:    m.Reason,
		RefType:   m.RefType,
		RefID:     m.RefID,
		CreatedAt: m.CreatedAt,
		CreatedBy: m.CreatedBy,
	}
}

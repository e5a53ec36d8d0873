package repository

import (
	"time"

	"github.com/showclinic/clinica-stock/internal/domain/entity"
)

// StockLotRepository define el puerto de persistencia para lotes de stock.
// El Lot Store es el único dueño de los saldos por lote: toda mutación pasa
// por las operaciones de asignación, nunca por otro componente.
type StockLotRepository interface {
	// GetByID devuelve el lote o nil si no existe.
	GetByID(id string) (*entity.StockLot, error)
	// GetByIDForUpdate bloquea la fila del lote (SELECT FOR UPDATE) dentro de
	// la transacción en curso. Devuelve nil si no existe.
	GetByIDForUpdate(id string) (*entity.StockLot, error)
	// FindAllocatableForUpdate devuelve los lotes elegibles de la variante
	// (estado disponible, cantidad en mano > 0) en orden FEFO, bloqueando las
	// filas para toda la operación.
	FindAllocatableForUpdate(variantID string) ([]*entity.StockLot, error)
	// FindByKeyForUpdate busca el lote cuya tupla (variante, código, vencimiento,
	// ubicación, condición) coincide exactamente; ausente iguala ausente.
	// Devuelve nil si no hay coincidencia.
	FindByKeyForUpdate(variantID, lotCode string, expiry *time.Time, location, condition string) (*entity.StockLot, error)
	Create(lot *entity.StockLot) error
	// UpdateQuantities persiste saldos, estado y referencia documental del lote.
	UpdateQuantities(lot *entity.StockLot) error
	// ListByVariant devuelve todos los lotes de la variante en orden FEFO (lectura).
	ListByVariant(variantID string) ([]*entity.StockLot, error)
}

package stock

import (
	"time"

	"github.com/showclinic/clinica-stock/internal/domain"
	"github.com/showclinic/clinica-stock/internal/domain/entity"
	"github.com/showclinic/clinica-stock/internal/domain/repository"
)

// StockQueryUseCase consultas de lectura sobre lotes y movimientos. Trabaja
// con repositorios atados al pool (fuera de transacción).
type StockQueryUseCase struct {
	lotRepo repository.StockLotRepository
	movRepo repository.MovementRepository
}

// NewStockQueryUseCase construye el caso de uso de consultas.
func NewStockQueryUseCase(lotRepo repository.StockLotRepository, movRepo repository.MovementRepository) *StockQueryUseCase {
	return &StockQueryUseCase{lotRepo: lotRepo, movRepo: movRepo}
}

// ListLots devuelve los lotes de una variante en orden FEFO con sus saldos.
func (uc *StockQueryUseCase) ListLots(variantID string) ([]*entity.StockLot, error) {
	if variantID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.lotRepo.ListByVariant(variantID)
}

// MovementWithDetails cabecera con sus líneas de detalle.
type MovementWithDetails struct {
	Movement *entity.Movement
	Details  []*entity.MovementDetail
}

// GetMovement devuelve un movimiento con su desglose por lote.
func (uc *StockQueryUseCase) GetMovement(id string) (*MovementWithDetails, error) {
	mov, err := uc.movRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.ErrNotFound
	}
	details, err := uc.movRepo.ListDetails(id)
	if err != nil {
		return nil, err
	}
	return &MovementWithDetails{Movement: mov, Details: details}, nil
}

// ListMovementsByVariant historial de movimientos de una variante.
func (uc *StockQueryUseCase) ListMovementsByVariant(variantID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	if variantID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movRepo.ListByVariant(variantID, from, to, limit, offset)
}

// ListMovementsByLot historial de movimientos que tocaron un lote.
func (uc *StockQueryUseCase) ListMovementsByLot(lotID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	if lotID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movRepo.ListByLot(lotID, from, to, limit, offset)
}

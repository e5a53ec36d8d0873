package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/showclinic/clinica-stock/internal/domain"
	"github.com/showclinic/clinica-stock/internal/domain/entity"
	"github.com/showclinic/clinica-stock/internal/domain/repository"
	"github.com/showclinic/clinica-stock/internal/domain/stock"
)

// AllocationUseCase implementa las tres operaciones de asignación del motor de
// stock (Reserve, Consume, Receive) de forma transaccional: consulta de lotes
// con bloqueo de fila (SELECT FOR UPDATE), mutación de saldos y escritura del
// libro de movimientos bajo una misma transacción con Commit/Rollback.
type AllocationUseCase struct {
	txRunner TxRunner
	now      func() time.Time
}

// NewAllocationUseCase construye el caso de uso.
func NewAllocationUseCase(txRunner TxRunner) *AllocationUseCase {
	return &AllocationUseCase{
		txRunner: txRunner,
		now:      time.Now,
	}
}

// ReserveInput entrada para reservar stock de una variante.
type ReserveInput struct {
	VariantID string
	Quantity  decimal.Decimal
	Reason    string
	RefType   string
	RefID     string
	UserID    string
}

// ConsumeInput entrada para consumir stock. LotID vacío = modo FEFO;
// LotID presente = modo dirigido, limitado estrictamente a ese lote.
type ConsumeInput struct {
	VariantID string
	Quantity  decimal.Decimal
	LotID     string
	Reason    string
	RefType   string
	RefID     string
	UserID    string
}

// AllocationLine par (lote, cantidad) del desglose devuelto al caller.
type AllocationLine struct {
	LotID    string
	Quantity decimal.Decimal
}

// AllocationResult desglose por lote de una reserva o salida exitosa.
// La suma de las líneas es exactamente la cantidad pedida.
type AllocationResult struct {
	MovementID  string
	Allocations []AllocationLine
}

// Reserve asigna la cantidad pedida en modo efectivo-disponible e incrementa
// la reserva de cada lote emitido, sin tocar la cantidad en mano. Escribe una
// cabecera tipo reserva con una línea de detalle por lote. Si el total
// disponible no alcanza, aborta sin mutación alguna.
func (uc *AllocationUseCase) Reserve(ctx context.Context, input ReserveInput) (*AllocationResult, error) {
	if input.VariantID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}

	now := uc.now()
	result := &AllocationResult{MovementID: uuid.New().String()}

	err := uc.txRunner.Run(ctx, func(
		lotRepo repository.StockLotRepository,
		movRepo repository.MovementRepository,
		variantRepo repository.VariantRepository,
	) error {
		variant, err := variantRepo.GetByID(input.VariantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return domain.ErrVariantNotFound
		}

		lots, err := lotRepo.FindAllocatableForUpdate(input.VariantID)
		if err != nil {
			return err
		}
		allocations, err := stock.Allocate(lots, input.VariantID, input.Quantity, stock.MeasureAvailable)
		if err != nil {
			return err
		}

		header := &entity.Movement{
			ID:        result.MovementID,
			Type:      entity.MovementTypeReserva,
			Reason:    input.Reason,
			RefType:   input.RefType,
			RefID:     input.RefID,
			CreatedAt: now,
			CreatedBy: input.UserID,
		}
		if err := movRepo.CreateHeader(header); err != nil {
			return err
		}

		for _, a := range allocations {
			if err := a.Lot.Reserve(a.Quantity, now); err != nil {
				return err
			}
			if err := lotRepo.UpdateQuantities(a.Lot); err != nil {
				return err
			}
			detail := &entity.MovementDetail{
				ID:         uuid.New().String(),
				MovementID: header.ID,
				VariantID:  input.VariantID,
				LotID:      a.Lot.ID,
				Quantity:   a.Quantity,
			}
			if err := movRepo.CreateDetail(detail); err != nil {
				return err
			}
			result.Allocations = append(result.Allocations, AllocationLine{LotID: a.Lot.ID, Quantity: a.Quantity})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Consume registra una salida de stock. En modo dirigido el lote indicado debe
// pertenecer a la variante y tener cantidad en mano suficiente; el stock de
// otros lotes no sustituye. En modo FEFO asigna contra en-mano y libera la
// reserva de cada lote hasta min(reservado, consumido).
func (uc *AllocationUseCase) Consume(ctx context.Context, input ConsumeInput) (*AllocationResult, error) {
	if input.VariantID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}

	now := uc.now()
	result := &AllocationResult{MovementID: uuid.New().String()}

	err := uc.txRunner.Run(ctx, func(
		lotRepo repository.StockLotRepository,
		movRepo repository.MovementRepository,
		variantRepo repository.VariantRepository,
	) error {
		variant, err := variantRepo.GetByID(input.VariantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return domain.ErrVariantNotFound
		}

		var allocations []stock.Allocation
		if input.LotID != "" {
			lot, err := lotRepo.GetByIDForUpdate(input.LotID)
			if err != nil {
				return err
			}
			if lot == nil || lot.VariantID != input.VariantID {
				return domain.ErrLotNotFound
			}
			if lot.QuantityOnHand.LessThan(input.Quantity) {
				return &domain.InsufficientStockError{
					VariantID: input.VariantID,
					LotID:     lot.ID,
					Requested: input.Quantity,
					Available: lot.QuantityOnHand,
				}
			}
			allocations = []stock.Allocation{{Lot: lot, Quantity: input.Quantity}}
		} else {
			lots, err := lotRepo.FindAllocatableForUpdate(input.VariantID)
			if err != nil {
				return err
			}
			allocations, err = stock.Allocate(lots, input.VariantID, input.Quantity, stock.MeasureOnHand)
			if err != nil {
				return err
			}
		}

		header := &entity.Movement{
			ID:        result.MovementID,
			Type:      entity.MovementTypeSalida,
			Reason:    input.Reason,
			RefType:   input.RefType,
			RefID:     input.RefID,
			CreatedAt: now,
			CreatedBy: input.UserID,
		}
		if err := movRepo.CreateHeader(header); err != nil {
			return err
		}

		for _, a := range allocations {
			if err := a.Lot.Consume(a.Quantity, now); err != nil {
				return err
			}
			if err := lotRepo.UpdateQuantities(a.Lot); err != nil {
				return err
			}
			detail := &entity.MovementDetail{
				ID:         uuid.New().String(),
				MovementID: header.ID,
				VariantID:  input.VariantID,
				LotID:      a.Lot.ID,
				Quantity:   a.Quantity,
			}
			if err := movRepo.CreateDetail(detail); err != nil {
				return err
			}
			result.Allocations = append(result.Allocations, AllocationLine{LotID: a.Lot.ID, Quantity: a.Quantity})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

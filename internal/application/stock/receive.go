package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/showclinic/clinica-stock/internal/domain/entity"
	"github.com/showclinic/clinica-stock/internal/domain/repository"
)

// ReceiveLine una línea de una recepción de mercancía. La cantidad puede venir
// en unidades base (Quantity) o como conteo de presentación (PresentationCount),
// que se multiplica por el factor de contenido de la variante.
type ReceiveLine struct {
	VariantID         string
	LotCode           string
	ExpiryDate        *time.Time
	Location          string
	StorageCondition  string
	Quantity          decimal.Decimal
	PresentationCount decimal.Decimal
	UnitCost          *decimal.Decimal
	DocumentRef       string
}

// ReceiveInput entrada para una recepción multi-línea.
type ReceiveInput struct {
	Lines   []ReceiveLine
	Reason  string
	RefType string
	RefID   string
	UserID  string
}

// ReceiveLineStatus resultado por línea: aplicada (con el lote creado o
// fusionado) o descartada con el motivo. Las líneas inválidas no abortan la
// recepción completa.
type ReceiveLineStatus struct {
	Index    int
	Applied  bool
	LotID    string
	Quantity decimal.Decimal
	Created  bool
	Error    string
}

// ReceiveResult resultado de la recepción. MovementID queda vacío si ninguna
// línea fue válida (no se crea cabecera).
type ReceiveResult struct {
	MovementID string
	Lines      []ReceiveLineStatus
}

// Receive procesa una recepción de mercancía línea por línea bajo una sola
// transacción y una sola cabecera tipo entrada. Cada línea busca el lote cuya
// tupla (variante, código, vencimiento, ubicación, condición) coincide
// exactamente: si existe acumula en él, si no crea uno nuevo. Una línea
// malformada se descarta en validación, antes de cualquier escritura, y la
// recepción continúa con las líneas válidas.
func (uc *AllocationUseCase) Receive(ctx context.Context, input ReceiveInput) (*ReceiveResult, error) {
	now := uc.now()
	result := &ReceiveResult{Lines: make([]ReceiveLineStatus, 0, len(input.Lines))}

	err := uc.txRunner.Run(ctx, func(
		lotRepo repository.StockLotRepository,
		movRepo repository.MovementRepository,
		variantRepo repository.VariantRepository,
	) error {
		headerID := ""

		for i, line := range input.Lines {
			status := ReceiveLineStatus{Index: i}

			if line.VariantID == "" {
				status.Error = "línea sin variante"
				result.Lines = append(result.Lines, status)
				continue
			}
			variant, err := variantRepo.GetByID(line.VariantID)
			if err != nil {
				return err
			}
			if variant == nil {
				status.Error = "variante desconocida"
				result.Lines = append(result.Lines, status)
				continue
			}

			qty, ok := resolveBaseQuantity(line, variant)
			if !ok {
				status.Error = "cantidad no resoluble o no positiva"
				result.Lines = append(result.Lines, status)
				continue
			}

			if headerID == "" {
				headerID = uuid.New().String()
				header := &entity.Movement{
					ID:        headerID,
					Type:      entity.MovementTypeEntrada,
					Reason:    input.Reason,
					RefType:   input.RefType,
					RefID:     input.RefID,
					CreatedAt: now,
					CreatedBy: input.UserID,
				}
				if err := movRepo.CreateHeader(header); err != nil {
					return err
				}
				result.MovementID = headerID
			}

			lot, err := lotRepo.FindByKeyForUpdate(line.VariantID, line.LotCode, line.ExpiryDate, line.Location, line.StorageCondition)
			if err != nil {
				return err
			}
			if lot != nil {
				if err := lot.AddOnHand(qty, now); err != nil {
					return err
				}
				if line.DocumentRef != "" {
					lot.DocumentRef = line.DocumentRef
				}
				if err := lotRepo.UpdateQuantities(lot); err != nil {
					return err
				}
			} else {
				lot, err = entity.NewStockLot(uuid.New().String(), line.VariantID, line.LotCode,
					line.ExpiryDate, line.Location, line.StorageCondition, qty, now)
				if err != nil {
					return err
				}
				lot.DocumentRef = line.DocumentRef
				if err := lotRepo.Create(lot); err != nil {
					return err
				}
				status.Created = true
			}

			detail := &entity.MovementDetail{
				ID:         uuid.New().String(),
				MovementID: headerID,
				VariantID:  line.VariantID,
				LotID:      lot.ID,
				Quantity:   qty,
				UnitCost:   line.UnitCost,
			}
			if err := movRepo.CreateDetail(detail); err != nil {
				return err
			}

			status.Applied = true
			status.LotID = lot.ID
			status.Quantity = qty
			result.Lines = append(result.Lines, status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveBaseQuantity resuelve la cantidad en unidades base de una línea:
// directa si viene, o conteo de presentación por el factor de la variante.
func resolveBaseQuantity(line ReceiveLine, variant *entity.Variant) (decimal.Decimal, bool) {
	if line.Quantity.GreaterThan(decimal.Zero) {
		return line.Quantity, true
	}
	if line.PresentationCount.GreaterThan(decimal.Zero) && variant.ContentPerUnit.GreaterThan(decimal.Zero) {
		return line.PresentationCount.Mul(variant.ContentPerUnit), true
	}
	return decimal.Zero, false
}

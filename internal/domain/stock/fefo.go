package stock

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/showclinic/clinica-stock/internal/domain"
	"github.com/showclinic/clinica-stock/internal/domain/entity"
)

// Measure selecciona la medida de cantidad con la que asigna el algoritmo.
type Measure int

const (
	// MeasureAvailable usa en-mano menos reservado (reservas).
	MeasureAvailable Measure = iota
	// MeasureOnHand usa en-mano directo (salidas FEFO; las reservas se
	// liberan como efecto del consumo, no como pre-chequeo).
	MeasureOnHand
)

// Allocation es un par (lote, cantidad a usar) emitido por el asignador.
type Allocation struct {
	Lot      *entity.StockLot
	Quantity decimal.Decimal
}

// SortFEFO ordena lotes según la política First-Expired-First-Out:
// lotes sin vencimiento después de todos los que sí lo tienen, vencimiento
// ascendente, y ID de lote ascendente como desempate determinista.
func SortFEFO(lots []*entity.StockLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate == nil:
			return a.ID < b.ID
		case a.ExpiryDate == nil:
			return false
		case b.ExpiryDate == nil:
			return true
		case !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		default:
			return a.ID < b.ID
		}
	})
}

func measureOf(l *entity.StockLot, m Measure) decimal.Decimal {
	if m == MeasureOnHand {
		return l.QuantityOnHand
	}
	return l.Available()
}

// Allocate reparte la cantidad pedida entre los lotes elegibles en orden FEFO.
// Antes de repartir suma la medida elegible de todos los candidatos; si el
// total no alcanza, falla la operación completa con InsufficientStockError y
// no emite ningún par: la asignación parcial está prohibida.
func Allocate(lots []*entity.StockLot, variantID string, requested decimal.Decimal, m Measure) ([]Allocation, error) {
	if !requested.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}

	candidates := make([]*entity.StockLot, 0, len(lots))
	total := decimal.Zero
	for _, l := range lots {
		if !l.Allocatable() {
			continue
		}
		qty := measureOf(l, m)
		if !qty.GreaterThan(decimal.Zero) {
			continue
		}
		candidates = append(candidates, l)
		total = total.Add(qty)
	}

	if total.LessThan(requested) {
		return nil, &domain.InsufficientStockError{
			VariantID: variantID,
			Requested: requested,
			Available: total,
		}
	}

	SortFEFO(candidates)

	allocations := make([]Allocation, 0, len(candidates))
	remaining := requested
	for _, l := range candidates {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		take := decimal.Min(measureOf(l, m), remaining)
		allocations = append(allocations, Allocation{Lot: l, Quantity: take})
		remaining = remaining.Sub(take)
	}
	return allocations, nil
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/showclinic/clinica-stock/internal/domain"
)

// Estados de lote. Vacío equivale a disponible; cualquier otro estado
// (cuarentena, vencido, bloqueado) excluye el lote de la asignación.
const (
	LotStatusAvailable   = "available"
	LotStatusQuarantined = "quarantined"
	LotStatusBlocked     = "blocked"
)

// StockLot representa un lote físico de una variante: cantidad en mano y
// reservada en unidades base, con vencimiento y ubicación propios.
// Invariante: 0 <= QuantityReserved <= QuantityOnHand.
type StockLot struct {
	ID               string
	VariantID        string
	LotCode          string
	ExpiryDate       *time.Time // nil = no vence
	Location         string
	StorageCondition string
	QuantityOnHand   decimal.Decimal
	QuantityReserved decimal.Decimal
	Status           string
	DocumentRef      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewStockLot crea un lote con la cantidad inicial recibida.
func NewStockLot(id, variantID, lotCode string, expiry *time.Time, location, condition string, qty decimal.Decimal, now time.Time) (*StockLot, error) {
	if variantID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !qty.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	return &StockLot{
		ID:               id,
		VariantID:        variantID,
		LotCode:          lotCode,
		ExpiryDate:       expiry,
		Location:         location,
		StorageCondition: condition,
		QuantityOnHand:   qty,
		QuantityReserved: decimal.Zero,
		Status:           LotStatusAvailable,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Available devuelve la cantidad efectiva disponible (en mano menos reservada).
func (l *StockLot) Available() decimal.Decimal {
	return l.QuantityOnHand.Sub(l.QuantityReserved)
}

// Allocatable indica si el lote participa en la asignación FEFO.
func (l *StockLot) Allocatable() bool {
	return l.Status == "" || l.Status == LotStatusAvailable
}

// AddOnHand suma cantidad recibida al lote (entrada de mercancía).
func (l *StockLot) AddOnHand(qty decimal.Decimal, now time.Time) error {
	if !qty.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidQuantity
	}
	l.QuantityOnHand = l.QuantityOnHand.Add(qty)
	l.UpdatedAt = now
	return nil
}

// Reserve incrementa la cantidad reservada sin tocar la cantidad en mano.
// Falla si la reserva excede lo efectivamente disponible.
func (l *StockLot) Reserve(qty decimal.Decimal, now time.Time) error {
	if !qty.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidQuantity
	}
	if qty.GreaterThan(l.Available()) {
		return &domain.InsufficientStockError{
			VariantID: l.VariantID,
			LotID:     l.ID,
			Requested: qty,
			Available: l.Available(),
		}
	}
	l.QuantityReserved = l.QuantityReserved.Add(qty)
	l.UpdatedAt = now
	return nil
}

// Consume resta cantidad en mano y libera reserva hasta min(reservado, qty).
// La reserva es blanda: cualquier consumo del lote satisface primero lo
// reservado contra él, sin dejar la reserva en negativo.
func (l *StockLot) Consume(qty decimal.Decimal, now time.Time) error {
	if !qty.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidQuantity
	}
	if qty.GreaterThan(l.QuantityOnHand) {
		return &domain.InsufficientStockError{
			VariantID: l.VariantID,
			LotID:     l.ID,
			Requested: qty,
			Available: l.QuantityOnHand,
		}
	}
	l.QuantityOnHand = l.QuantityOnHand.Sub(qty)
	released := decimal.Min(l.QuantityReserved, qty)
	l.QuantityReserved = l.QuantityReserved.Sub(released)
	l.UpdatedAt = now
	return nil
}

// MatchesKey compara la tupla (variante, código de lote, vencimiento, ubicación,
// condición) tratando ausente igual a ausente, no como comodín.
func (l *StockLot) MatchesKey(variantID, lotCode string, expiry *time.Time, location, condition string) bool {
	if l.VariantID != variantID || l.LotCode != lotCode || l.Location != location || l.StorageCondition != condition {
		return false
	}
	if (l.ExpiryDate == nil) != (expiry == nil) {
		return false
	}
	if l.ExpiryDate != nil && !l.ExpiryDate.Equal(*expiry) {
		return false
	}
	return true
}

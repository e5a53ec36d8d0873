package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrVariantNotFound   = errors.New("variante no encontrada")
	ErrLotNotFound       = errors.New("lote no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrInsufficientStock = errors.New("stock insuficiente")
)

// InsufficientStockError detalla un fallo de stock: cantidad pedida contra la
// cantidad elegible total. LotID solo se llena en salidas dirigidas a un lote.
type InsufficientStockError struct {
	VariantID string
	LotID     string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	if e.LotID != "" {
		return fmt.Sprintf("stock insuficiente en lote %s: pedido %s, disponible %s",
			e.LotID, e.Requested.String(), e.Available.String())
	}
	return fmt.Sprintf("stock insuficiente para variante %s: pedido %s, disponible %s",
		e.VariantID, e.Requested.String(), e.Available.String())
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

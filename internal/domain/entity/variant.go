package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variant representa una forma comprable de un insumo clínico (colaborador
// externo: el motor de stock la referencia por ID y usa su factor de contenido
// para convertir unidades de presentación a unidades base).
type Variant struct {
	ID             string
	SKU            string
	Name           string
	ContentPerUnit decimal.Decimal // unidades base por unidad de presentación
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

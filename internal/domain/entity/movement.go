package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeEntrada = "entrada" // recepción de mercancía
	MovementTypeReserva = "reserva" // reserva blanda
	MovementTypeSalida  = "salida"  // consumo clínico
)

// Movement es la cabecera de un movimiento de stock: una fila por operación
// de negocio. Registro de auditoría, inmutable tras su creación.
type Movement struct {
	ID        string
	Type      string
	Reason    string
	RefType   string // documento de negocio origen (ej. "treatment_execution")
	RefID     string
	CreatedAt time.Time
	CreatedBy string // UserID del operador
}

// MovementDetail es una línea de detalle: una fila por lote tocado por la
// cabecera. La cantidad se guarda como magnitud positiva; el signo lo implica
// el tipo de la cabecera. Para reservas y salidas, la suma de las líneas de
// una cabecera es exactamente la cantidad pedida.
type MovementDetail struct {
	ID         string
	MovementID string
	VariantID  string
	LotID      string
	Quantity   decimal.Decimal
	UnitCost   *decimal.Decimal // informativo, solo entradas
}

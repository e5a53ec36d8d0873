package stock

import (
	"context"

	"github.com/showclinic/clinica-stock/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que la consulta de lotes elegibles
// y las escrituras de saldos y detalle se confirmen o reviertan como un todo.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lotRepo repository.StockLotRepository,
		movRepo repository.MovementRepository,
		variantRepo repository.VariantRepository,
	) error) error
}

package repository

import (
	"time"

	"github.com/showclinic/clinica-stock/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia del libro de movimientos:
// cabeceras y líneas de detalle, solo inserción (registro de auditoría).
type MovementRepository interface {
	CreateHeader(m *entity.Movement) error
	CreateDetail(d *entity.MovementDetail) error
	// GetByID devuelve la cabecera o nil si no existe.
	GetByID(id string) (*entity.Movement, error)
	ListDetails(movementID string) ([]*entity.MovementDetail, error)
	ListByVariant(variantID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
	ListByLot(lotID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
}

package repository

import "github.com/showclinic/clinica-stock/internal/domain/entity"

// VariantRepository define el puerto de consulta de variantes (colaborador
// externo del motor de stock; solo lectura aquí).
type VariantRepository interface {
	// GetByID devuelve la variante o nil si no existe.
	GetByID(id string) (*entity.Variant, error)
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiveLineRequest línea de recepción. quantity en unidades base, o
// presentation_count si la cantidad viene en unidades de presentación.
type ReceiveLineRequest struct {
	VariantID         string           `json:"variant_id"`
	LotCode           string           `json:"lot_code,omitempty"`
	ExpiryDate        *time.Time       `json:"expiry_date,omitempty"`
	Location          string           `json:"location,omitempty"`
	StorageCondition  string           `json:"storage_condition,omitempty"`
	Quantity          decimal.Decimal  `json:"quantity,omitempty"`
	PresentationCount decimal.Decimal  `json:"presentation_count,omitempty"`
	UnitCost          *decimal.Decimal `json:"unit_cost,omitempty"`
	DocumentRef       string           `json:"document_ref,omitempty"`
}

// ReceiveRequest body para POST /api/stock/receive.
type ReceiveRequest struct {
	Lines   []ReceiveLineRequest `json:"lines"`
	Reason  string               `json:"reason,omitempty"`
	RefType string               `json:"ref_type,omitempty"`
	RefID   string               `json:"ref_id,omitempty"`
}

// ReceiveLineStatusResponse resultado por línea de la recepción.
type ReceiveLineStatusResponse struct {
	Index    int             `json:"index"`
	Applied  bool            `json:"applied"`
	LotID    string          `json:"lot_id,omitempty"`
	Quantity decimal.Decimal `json:"quantity,omitempty"`
	Created  bool            `json:"created,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ReceiveResponse respuesta de POST /api/stock/receive.
type ReceiveResponse struct {
	MovementID string                      `json:"movement_id,omitempty"`
	Lines      []ReceiveLineStatusResponse `json:"lines"`
}

// ReserveRequest body para POST /api/stock/reserve.
type ReserveRequest struct {
	VariantID string          `json:"variant_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason,omitempty"`
	RefType   string          `json:"ref_type,omitempty"`
	RefID     string          `json:"ref_id,omitempty"`
}

// ConsumeRequest body para POST /api/stock/consume. lot_id presente = modo
// dirigido; ausente = modo FEFO.
type ConsumeRequest struct {
	VariantID string          `json:"variant_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	LotID     string          `json:"lot_id,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	RefType   string          `json:"ref_type,omitempty"`
	RefID     string          `json:"ref_id,omitempty"`
}

// AllocationLineResponse par (lote, cantidad) del desglose.
type AllocationLineResponse struct {
	LotID    string          `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// AllocationResponse respuesta de reserve/consume.
type AllocationResponse struct {
	MovementID  string                   `json:"movement_id"`
	Allocations []AllocationLineResponse `json:"allocations"`
}

// StockLotResponse lote con sus saldos para listados.
type StockLotResponse struct {
	ID               string          `json:"id"`
	VariantID        string          `json:"variant_id"`
	LotCode          string          `json:"lot_code,omitempty"`
	ExpiryDate       *time.Time      `json:"expiry_date,omitempty"`
	Location         string          `json:"location,omitempty"`
	StorageCondition string          `json:"storage_condition,omitempty"`
	QuantityOnHand   decimal.Decimal `json:"quantity_on_hand"`
	QuantityReserved decimal.Decimal `json:"quantity_reserved"`
	Available        decimal.Decimal `json:"available"`
	Status           string          `json:"status,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// MovementResponse cabecera de movimiento para listados.
type MovementResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Reason    string    `json:"reason,omitempty"`
	RefType   string    `json:"ref_type,omitempty"`
	RefID     string    `json:"ref_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
}

// MovementDetailResponse línea de detalle de un movimiento.
type MovementDetailResponse struct {
	ID        string           `json:"id"`
	VariantID string           `json:"variant_id"`
	LotID     string           `json:"lot_id"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// MovementWithDetailsResponse respuesta de GET /api/stock/movements/:id.
type MovementWithDetailsResponse struct {
	MovementResponse
	Details []MovementDetailResponse `json:"details"`
}

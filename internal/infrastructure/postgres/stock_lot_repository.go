package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/showclinic/clinica-stock/internal/domain"
	"github.com/showclinic/clinica-stock/internal/domain/entity"
	"github.com/showclinic/clinica-stock/internal/domain/repository"
)

var _ repository.StockLotRepository = (*StockLotRepo)(nil)

const stockLotColumns = `id, variant_id, lot_code, expiry_date, location, storage_condition,
		quantity_on_hand, quantity_reserved, status, document_ref, created_at, updated_at`

// StockLotRepo implementación de StockLotRepository sobre PostgreSQL (usable con pool o tx).
type StockLotRepo struct {
	q Querier
}

// NewStockLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewStockLotRepository(q Querier) *StockLotRepo {
	return &StockLotRepo{q: q}
}

func scanStockLot(row pgx.Row) (*entity.StockLot, error) {
	var l entity.StockLot
	var lotCode, location, condition, status, docRef *string
	err := row.Scan(
		&l.ID, &l.VariantID, &lotCode, &l.ExpiryDate, &location, &condition,
		&l.QuantityOnHand, &l.QuantityReserved, &status, &docRef, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.LotCode = emptyIfNull(lotCode)
	l.Location = emptyIfNull(location)
	l.StorageCondition = emptyIfNull(condition)
	l.Status = emptyIfNull(status)
	l.DocumentRef = emptyIfNull(docRef)
	return &l, nil
}

// GetByID obtiene un lote por ID. Devuelve nil si no existe.
func (r *StockLotRepo) GetByID(id string) (*entity.StockLot, error) {
	query := `SELECT ` + stockLotColumns + ` FROM stock_lots WHERE id = $1`
	lot, err := scanStockLot(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock lot: %w", err)
	}
	return lot, nil
}

// GetByIDForUpdate obtiene un lote y bloquea la fila (SELECT FOR UPDATE).
func (r *StockLotRepo) GetByIDForUpdate(id string) (*entity.StockLot, error) {
	query := `SELECT ` + stockLotColumns + ` FROM stock_lots WHERE id = $1 FOR UPDATE`
	lot, err := scanStockLot(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock lot for update: %w", err)
	}
	return lot, nil
}

// FindAllocatableForUpdate devuelve los lotes elegibles de la variante en
// orden FEFO (sin vencimiento al final, vencimiento ascendente, ID como
// desempate) bloqueando las filas para el resto de la transacción.
func (r *StockLotRepo) FindAllocatableForUpdate(variantID string) ([]*entity.StockLot, error) {
	query := `
		SELECT ` + stockLotColumns + `
		FROM stock_lots
		WHERE variant_id = $1
		  AND (status IS NULL OR status = '' OR status = $2)
		  AND quantity_on_hand > 0
		ORDER BY expiry_date ASC NULLS LAST, id ASC
		FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, variantID, entity.LotStatusAvailable)
	if err != nil {
		return nil, fmt.Errorf("find allocatable lots: %w", err)
	}
	defer rows.Close()
	var lots []*entity.StockLot
	for rows.Next() {
		lot, err := scanStockLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock lot: %w", err)
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// FindByKeyForUpdate busca el lote con la tupla clave exacta y bloquea la fila.
// IS NOT DISTINCT FROM iguala NULL con NULL: ausente coincide con ausente.
func (r *StockLotRepo) FindByKeyForUpdate(variantID, lotCode string, expiry *time.Time, location, condition string) (*entity.StockLot, error) {
	query := `
		SELECT ` + stockLotColumns + `
		FROM stock_lots
		WHERE variant_id = $1
		  AND lot_code IS NOT DISTINCT FROM $2
		  AND expiry_date IS NOT DISTINCT FROM $3
		  AND location IS NOT DISTINCT FROM $4
		  AND storage_condition IS NOT DISTINCT FROM $5
		FOR UPDATE`
	lot, err := scanStockLot(r.q.QueryRow(context.Background(), query,
		variantID, nullIfEmpty(lotCode), expiry, nullIfEmpty(location), nullIfEmpty(condition)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find stock lot by key: %w", err)
	}
	return lot, nil
}

// Create inserta un lote nuevo.
func (r *StockLotRepo) Create(lot *entity.StockLot) error {
	query := `
		INSERT INTO stock_lots (id, variant_id, lot_code, expiry_date, location, storage_condition,
			quantity_on_hand, quantity_reserved, status, document_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(context.Background(), query,
		lot.ID, lot.VariantID, nullIfEmpty(lot.LotCode), lot.ExpiryDate,
		nullIfEmpty(lot.Location), nullIfEmpty(lot.StorageCondition),
		lot.QuantityOnHand, lot.QuantityReserved, nullIfEmpty(lot.Status),
		nullIfEmpty(lot.DocumentRef), lot.CreatedAt, lot.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create stock lot: %w", err)
	}
	return nil
}

// UpdateQuantities persiste saldos, estado y referencia documental de un lote ya bloqueado.
func (r *StockLotRepo) UpdateQuantities(lot *entity.StockLot) error {
	query := `
		UPDATE stock_lots
		SET quantity_on_hand = $2, quantity_reserved = $3, status = $4, document_ref = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		lot.ID, lot.QuantityOnHand, lot.QuantityReserved,
		nullIfEmpty(lot.Status), nullIfEmpty(lot.DocumentRef), lot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update stock lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLotNotFound
	}
	return nil
}

// ListByVariant devuelve todos los lotes de una variante en orden FEFO (lectura, sin bloqueo).
func (r *StockLotRepo) ListByVariant(variantID string) ([]*entity.StockLot, error) {
	query := `
		SELECT ` + stockLotColumns + `
		FROM stock_lots
		WHERE variant_id = $1
		ORDER BY expiry_date ASC NULLS LAST, id ASC`
	rows, err := r.q.Query(context.Background(), query, variantID)
	if err != nil {
		return nil, fmt.Errorf("list lots by variant: %w", err)
	}
	defer rows.Close()
	var lots []*entity.StockLot
	for rows.Next() {
		lot, err := scanStockLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock lot: %w", err)
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

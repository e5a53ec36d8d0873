package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/showclinic/clinica-stock/internal/domain/entity"
	"github.com/showclinic/clinica-stock/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del libro de movimientos sobre PostgreSQL
// (usable con pool o tx). Solo inserta: las filas son inmutables.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// CreateHeader persiste una cabecera de movimiento.
func (r *MovementRepo) CreateHeader(m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movements (id, type, reason, ref_type, ref_id, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.Type, nullIfEmpty(m.Reason), nullIfEmpty(m.RefType), nullIfEmpty(m.RefID),
		m.CreatedAt, nullIfEmpty(m.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create movement header: %w", err)
	}
	return nil
}

// CreateDetail persiste una línea de detalle.
func (r *MovementRepo) CreateDetail(d *entity.MovementDetail) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movement_details (id, movement_id, variant_id, lot_id, quantity, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		d.ID, d.MovementID, d.VariantID, d.LotID, d.Quantity, d.UnitCost,
	)
	if err != nil {
		return fmt.Errorf("create movement detail: %w", err)
	}
	return nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var reason, refType, refID, createdBy *string
	if err := row.Scan(&m.ID, &m.Type, &reason, &refType, &refID, &m.CreatedAt, &createdBy); err != nil {
		return nil, err
	}
	m.Reason = emptyIfNull(reason)
	m.RefType = emptyIfNull(refType)
	m.RefID = emptyIfNull(refID)
	m.CreatedBy = emptyIfNull(createdBy)
	return &m, nil
}

// GetByID obtiene una cabecera por ID. Devuelve nil si no existe.
func (r *MovementRepo) GetByID(id string) (*entity.Movement, error) {
	query := `
		SELECT id, type, reason, ref_type, ref_id, created_at, created_by
		FROM movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListDetails devuelve las líneas de detalle de una cabecera.
func (r *MovementRepo) ListDetails(movementID string) ([]*entity.MovementDetail, error) {
	query := `
		SELECT id, movement_id, variant_id, lot_id, quantity, unit_cost
		FROM movement_details WHERE movement_id = $1
		ORDER BY id ASC`
	rows, err := r.q.Query(context.Background(), query, movementID)
	if err != nil {
		return nil, fmt.Errorf("list movement details: %w", err)
	}
	defer rows.Close()
	var list []*entity.MovementDetail
	for rows.Next() {
		var d entity.MovementDetail
		if err := rows.Scan(&d.ID, &d.MovementID, &d.VariantID, &d.LotID, &d.Quantity, &d.UnitCost); err != nil {
			return nil, fmt.Errorf("scan movement detail: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

// ListByVariant lista movimientos que tocaron una variante en un rango de fechas.
func (r *MovementRepo) ListByVariant(variantID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT DISTINCT m.id, m.type, m.reason, m.ref_type, m.ref_id, m.created_at, m.created_by
		FROM movements m
		JOIN movement_details d ON d.movement_id = m.id
		WHERE d.variant_id = $1`
	return r.listFiltered(query, variantID, from, to, limit, offset)
}

// ListByLot lista movimientos que tocaron un lote en un rango de fechas.
func (r *MovementRepo) ListByLot(lotID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT DISTINCT m.id, m.type, m.reason, m.ref_type, m.ref_id, m.created_at, m.created_by
		FROM movements m
		JOIN movement_details d ON d.movement_id = m.id
		WHERE d.lot_id = $1`
	return r.listFiltered(query, lotID, from, to, limit, offset)
}

func (r *MovementRepo) listFiltered(query, key string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	args := []any{key}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND m.created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND m.created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY m.created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
